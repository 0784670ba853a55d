package loaders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages map[string]string
	err   error
}

func (f *fakeFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.pages[url]), nil
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p>Frodo</p>", "Frodo"},
		{"no markup", "no markup"},
		{`<a href="/wiki/Sauron">Sauron</a> forged <b>the</b> Ring`, "Sauron forged the Ring"},
		{"Gollum &amp; Sméagol", "Gollum &amp; Sméagol"},
		{"dangling <div", "dangling "},
		{"a < b", "a "},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripTags(tt.in), "input %q", tt.in)
	}
}

func TestBodyInnerHTML(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>Sauron</title></head>` +
		`<body><h1>Sauron</h1><p>The Dark Lord</p></body></html>`

	inner, err := BodyInnerHTML([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "<h1>Sauron</h1><p>The Dark Lord</p>", inner)
}

func TestLoadStripsBodyOnly(t *testing.T) {
	url := "https://en.wikipedia.org/wiki/Sauron"
	f := &fakeFetcher{pages: map[string]string{
		url: `<html><head><title>Head title</title></head><body><h1>Sauron</h1> <p>forged the <i>One Ring</i>.</p></body></html>`,
	}}

	doc, err := NewWebLoader(f).Load(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, url, doc.URL)
	assert.Equal(t, "Sauron forged the One Ring.", doc.Text)
	assert.NotContains(t, doc.Text, "Head title")
}

func TestLoadFetchError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewWebLoader(&fakeFetcher{err: boom}).Load(context.Background(), "https://example.org")
	assert.ErrorIs(t, err, boom)
}
