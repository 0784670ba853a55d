package main

import "LOTR_RAG/client/lotr-cli/cmd"

func main() {
	cmd.Execute()
}
