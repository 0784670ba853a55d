package archive

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"LOTR_RAG/backend/go/internal/chat_service/rag/interfaces"
	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"

	"github.com/minio/minio-go/v7"
)

// ObjectPutter is the subset of *minio.Client used to archive pages.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioArchive stores the stripped text of every ingested page under
// pages/<slug>.txt.
type MinioArchive struct {
	client ObjectPutter
	bucket string
}

func NewMinioArchive(client ObjectPutter, bucket string) *MinioArchive {
	return &MinioArchive{client: client, bucket: bucket}
}

func (a *MinioArchive) Put(ctx context.Context, doc *schema.Document) error {
	name := ObjectName(doc.URL)
	_, err := a.client.PutObject(ctx, a.bucket, name, strings.NewReader(doc.Text), int64(len(doc.Text)),
		minio.PutObjectOptions{
			ContentType:  "text/plain; charset=utf-8",
			UserMetadata: map[string]string{"source-url": doc.URL},
		})
	if err != nil {
		return fmt.Errorf("failed to archive %s to %s/%s: %w", doc.URL, a.bucket, name, err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectName derives a stable object key from a page URL.
func ObjectName(rawURL string) string {
	slug := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" && u.Path != "/" {
		slug = u.Host + "_" + path.Base(u.Path)
	}
	slug = strings.Trim(unsafeChars.ReplaceAllString(slug, "_"), "_")
	if slug == "" {
		slug = "page"
	}
	return "pages/" + slug + ".txt"
}

var _ interfaces.PageArchive = (*MinioArchive)(nil)
