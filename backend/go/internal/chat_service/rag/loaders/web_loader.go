package loaders

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tagPattern matches anything from '<' to the next '>' or to the end of a
// dangling tag. Entities and malformed markup are left as they are.
var tagPattern = regexp.MustCompile(`<[^>]*>?`)

// Fetcher returns the raw bytes served at a URL.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// WebLoader fetches a page, takes the inner HTML of its <body> and strips
// every tag from it.
type WebLoader struct {
	fetcher Fetcher
}

// NewWebLoader creates a new WebLoader.
func NewWebLoader(fetcher Fetcher) *WebLoader {
	return &WebLoader{fetcher: fetcher}
}

// Load fetches url and returns its stripped body text.
func (l *WebLoader) Load(ctx context.Context, url string) (*schema.Document, error) {
	raw, err := l.fetcher.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	inner, err := BodyInnerHTML(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}

	return &schema.Document{URL: url, Text: StripTags(inner)}, nil
}

// BodyInnerHTML serialises the children of the document's <body>.
func BodyInnerHTML(page []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", err
	}

	body := findBody(root)
	if body == nil {
		return "", nil
	}

	var buf bytes.Buffer
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if body := findBody(child); body != nil {
			return body
		}
	}
	return nil
}

// StripTags removes every <...> substring from s.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// compile-time check to ensure WebLoader implements the Loader interface
var _ interfaces.Loader = (*WebLoader)(nil)
