package publish

import (
	"context"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// GCS uploads build artifacts to a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS creates a GCS artifact store. Objects are written below prefix.
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

// ObjectPath joins prefix and name into an object path
func ObjectPath(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	name = strings.TrimLeft(name, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Upload copies localPath to the bucket and returns its gs:// URL
func (g *GCS) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open artifact", goerr.V("path", localPath))
	}
	defer f.Close()

	object := ObjectPath(g.prefix, objectName)

	// Cancelling the writer context aborts the upload; Close would commit
	// whatever was written so far.
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(object).NewWriter(writeCtx)
	w.ContentType = contentType(objectName)

	if _, err := io.Copy(w, f); err != nil {
		cancel()
		return "", goerr.Wrap(err, "failed to upload artifact",
			goerr.V("bucket", g.bucket),
			goerr.V("object", object),
		)
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize upload",
			goerr.V("bucket", g.bucket),
			goerr.V("object", object),
		)
	}

	url := "gs://" + g.bucket + "/" + object
	ctxlog.From(ctx).Info("Uploaded artifact", "url", url)
	return url, nil
}

// Close releases the storage client
func (g *GCS) Close() error {
	return g.client.Close()
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".exe":
		return "application/vnd.microsoft.portable-executable"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
