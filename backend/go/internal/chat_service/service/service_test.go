package service

import (
	"context"
	"errors"
	"testing"

	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"
	"LOTR_RAG/backend/go/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	records []schema.Record
	err     error
	calls   int
}

func (r *stubRetriever) Run(ctx context.Context, question string) ([]schema.Record, error) {
	r.calls++
	return r.records, r.err
}

type stubAnswerer struct {
	answer  string
	err     error
	calls   int
	records []schema.Record
}

func (a *stubAnswerer) Run(ctx context.Context, question string, records []schema.Record) (string, error) {
	a.calls++
	a.records = records
	return a.answer, a.err
}

func TestChatBlankMessage(t *testing.T) {
	for _, msg := range []string{"", "   ", "\n\t"} {
		r, a := &stubRetriever{}, &stubAnswerer{}
		_, err := NewChatService(r, a, logger.Nop()).Chat(context.Background(), msg)

		require.ErrorIs(t, err, ErrMessageRequired)
		assert.Zero(t, r.calls)
		assert.Zero(t, a.calls)
	}
}

func TestChatCountsSources(t *testing.T) {
	recs := []schema.Record{{Text: "Sauron forged the One Ring."}, {Text: "In the fires of Mount Doom."}}
	r := &stubRetriever{records: recs}
	a := &stubAnswerer{answer: "Sauron did."}

	resp, err := NewChatService(r, a, logger.Nop()).Chat(context.Background(), "Who forged the Ring?")
	require.NoError(t, err)

	assert.Equal(t, "Sauron did.", resp.Message)
	assert.Equal(t, 2, resp.Sources)
	assert.Equal(t, recs, a.records)
}

func TestChatNoRecordsStillAnswers(t *testing.T) {
	a := &stubAnswerer{answer: "I am not sure."}

	resp, err := NewChatService(&stubRetriever{}, a, logger.Nop()).Chat(context.Background(), "Who is Tom Bombadil?")
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Sources)
	assert.Equal(t, 1, a.calls)
}

func TestChatRetrievalFailureSkipsLLM(t *testing.T) {
	boom := errors.New("store down")
	a := &stubAnswerer{}

	_, err := NewChatService(&stubRetriever{err: boom}, a, logger.Nop()).Chat(context.Background(), "q")
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Zero(t, a.calls)
}

func TestChatAnswerFailure(t *testing.T) {
	boom := errors.New("llm down")

	_, err := NewChatService(&stubRetriever{}, &stubAnswerer{err: boom}, logger.Nop()).Chat(context.Background(), "q")
	require.ErrorIs(t, err, boom)
}
