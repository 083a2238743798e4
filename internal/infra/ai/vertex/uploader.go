package vertex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
)

// Uploader stages PDFs in a GCS bucket and returns gs:// references.
type Uploader struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewUploader(ctx context.Context, opts Options) (*Uploader, error) {
	if opts.Bucket == "" {
		return nil, errors.New("vertex: bucket cannot be empty")
	}
	client, err := storage.NewClient(ctx, clientOptions(opts.CredentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &Uploader{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

func (u *Uploader) Upload(ctx context.Context, pdfName string, pdf []byte) (analysis.FileRef, error) {
	key := u.prefix + uuid.NewString() + ".pdf"

	w := u.client.Bucket(u.bucket).Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = analysis.MediaTypePDF
	w.ContentDisposition = fmt.Sprintf("inline; filename=%q", pdfName)
	if _, err := io.Copy(w, bytes.NewReader(pdf)); err != nil {
		_ = w.Close()
		return analysis.FileRef{}, fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return analysis.FileRef{}, fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return analysis.FileRef{ID: gsURI(u.bucket, key), Kind: analysis.RefGCSURI}, nil
}

func (u *Uploader) Delete(ctx context.Context, ref analysis.FileRef) error {
	bucket, key, err := parseGSURI(ref)
	if err != nil {
		return err
	}
	err = u.client.Bucket(bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (u *Uploader) Close() error { return u.client.Close() }

func gsURI(bucket, key string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, key)
}

func parseGSURI(ref analysis.FileRef) (bucket, key string, err error) {
	if ref.Kind != analysis.RefGCSURI {
		return "", "", fmt.Errorf("vertex: cannot delete %s reference", ref.Kind)
	}
	rest, ok := strings.CutPrefix(ref.ID, "gs://")
	if !ok {
		return "", "", fmt.Errorf("vertex: not a gs:// uri: %q", ref.ID)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("vertex: malformed gs:// uri: %q", ref.ID)
	}
	return bucket, key, nil
}
