package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
)

const DefaultURLExpiry = time.Hour

// Options koneksi MinIO
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string        // object key prefix, e.g. "attachments/"
	URLExpiry time.Duration // lifetime of presigned GET URLs
}

// Store stages converted PDFs in an S3-compatible bucket and hands out
// presigned URLs the analyzer can fetch. Safe for concurrent use.
type Store struct {
	client    *minio.Client
	bucket    string
	prefix    string
	urlExpiry time.Duration
}

// New buat koneksi MinIO dan pastikan bucket ada
func New(ctx context.Context, opts Options) (*Store, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	expiry := opts.URLExpiry
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	return &Store{client: cli, bucket: opts.Bucket, prefix: opts.Prefix, urlExpiry: expiry}, nil
}

// Upload implementasi analysis.Uploader. Keys are random so two files with
// the same name in one batch never collide.
func (s *Store) Upload(ctx context.Context, pdfName string, pdf []byte) (analysis.FileRef, error) {
	key := objectKey(s.prefix, pdfName)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType:        analysis.MediaTypePDF,
		ContentDisposition: fmt.Sprintf("inline; filename=%q", pdfName),
	})
	if err != nil {
		return analysis.FileRef{}, fmt.Errorf("put object %s: %w", key, err)
	}

	// bucket private, jadi selalu presigned URL
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.urlExpiry, nil)
	if err != nil {
		return analysis.FileRef{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return analysis.FileRef{ID: u.String(), Kind: analysis.RefURL}, nil
}

// Delete removes the object behind a presigned URL ref.
func (s *Store) Delete(ctx context.Context, ref analysis.FileRef) error {
	key, err := keyFromURL(s.bucket, ref)
	if err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func objectKey(prefix, pdfName string) string {
	ext := path.Ext(pdfName)
	if ext == "" {
		ext = ".pdf"
	}
	return prefix + uuid.NewString() + strings.ToLower(ext)
}

// keyFromURL supports both path-style (/bucket/key) and virtual-host style
// (/key) presigned URLs.
func keyFromURL(bucket string, ref analysis.FileRef) (string, error) {
	if ref.Kind != analysis.RefURL {
		return "", fmt.Errorf("minio: cannot delete %s reference", ref.Kind)
	}
	u, err := url.Parse(ref.ID)
	if err != nil {
		return "", fmt.Errorf("minio: parse ref: %w", err)
	}
	p := strings.TrimPrefix(u.Path, "/")
	p = strings.TrimPrefix(p, bucket+"/")
	if p == "" {
		return "", fmt.Errorf("minio: no object key in %q", u.Redacted())
	}
	return p, nil
}
