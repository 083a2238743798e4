// Package bootstrap wires configuration into the pipeline: document
// converters, the remote backend and the batch service.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/vendor-voice/internal/application"
	"github.com/bryanwahyu/vendor-voice/internal/application/analyze"
	"github.com/bryanwahyu/vendor-voice/internal/config"
	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
	"github.com/bryanwahyu/vendor-voice/internal/infra/ai/openai"
	"github.com/bryanwahyu/vendor-voice/internal/infra/ai/vertex"
	"github.com/bryanwahyu/vendor-voice/internal/infra/convert"
	"github.com/bryanwahyu/vendor-voice/internal/infra/executor/docker"
	"github.com/bryanwahyu/vendor-voice/internal/infra/storage"
)

// App is everything a front end (HTTP or CLI) needs to run batches.
type App struct {
	Service   *analyze.Service
	Converter *convert.Converter

	closers []io.Closer
}

// Close releases remote clients.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// New builds the App. Converter availability is probed here, once.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	conv := NewConverter(cfg, log)

	remote, err := NewRemote(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := &analyze.Service{
		Converter:        conv,
		Uploader:         remote.Uploader,
		Analyzer:         remote.Analyzer,
		Clock:            application.SystemClock{},
		Log:              log,
		MaxFiles:         cfg.Limits.MaxFiles,
		MaxFileBytes:     cfg.Limits.MaxFileBytes,
		ReleaseArtifacts: cfg.Remote.ReleaseArtifacts,
	}
	return &App{Service: svc, Converter: conv, closers: remote.closers}, nil
}

// Candidates returns the document converters named in cfg, in order,
// without probing them.
func Candidates(cfg *config.Config, log zerolog.Logger) []analysis.DocumentConverter {
	timeout := cfg.Converters.Timeout
	out := make([]analysis.DocumentConverter, 0, len(cfg.Converters.Order))
	for _, name := range cfg.Converters.Order {
		switch name {
		case "native":
			out = append(out, convert.NewNative(cfg.Converters.NativeBinary, timeout, log))
		case "office":
			out = append(out, convert.NewOffice(cfg.Converters.OfficeBinary, timeout, log))
		case "docker":
			out = append(out, docker.NewConverter(cfg.Converters.DockerImage, timeout, log))
		default:
			log.Warn().Str("converter", name).Msg("unknown document converter ignored")
		}
	}
	return out
}

// NewConverter resolves the available document converters and builds the
// format converter over them.
func NewConverter(cfg *config.Config, log zerolog.Logger) *convert.Converter {
	docs := convert.Resolve(log, Candidates(cfg, log)...)
	return convert.New(docs).WithDPI(cfg.Converters.DPI)
}

// Remote is the selected remote backend.
type Remote struct {
	Uploader analysis.Uploader
	Analyzer analysis.Analyzer

	closers []io.Closer
}

// NewRemote builds the backend named by remote.provider.
func NewRemote(ctx context.Context, cfg *config.Config) (*Remote, error) {
	var r Remote
	switch cfg.Remote.Provider {
	case config.ProviderOpenAI:
		c := newOpenAI(cfg)
		r.Uploader, r.Analyzer = c, c

	case config.ProviderMinio:
		store, err := storage.New(ctx, storage.Options{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
			Prefix:    cfg.Minio.Prefix,
			URLExpiry: cfg.Minio.URLExpiry,
		})
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		r.Uploader, r.Analyzer = store, newOpenAI(cfg)

	case config.ProviderVertex:
		opts := vertex.Options{
			ProjectID:       cfg.Vertex.ProjectID,
			Region:          cfg.Vertex.Region,
			Model:           cfg.Vertex.Model,
			Temperature:     cfg.Remote.Temperature,
			Bucket:          cfg.Vertex.Bucket,
			Prefix:          cfg.Vertex.Prefix,
			CredentialsFile: cfg.Vertex.CredentialsFile,
		}
		up, err := vertex.NewUploader(ctx, opts)
		if err != nil {
			return nil, err
		}
		an, err := vertex.NewAnalyzer(ctx, opts)
		if err != nil {
			_ = up.Close()
			return nil, err
		}
		r.Uploader, r.Analyzer = up, an
		r.closers = append(r.closers, up, an)

	default:
		return nil, fmt.Errorf("unknown remote provider %q", cfg.Remote.Provider)
	}

	if t := cfg.Remote.Timeout; t > 0 {
		r.Uploader = timeoutUploader{next: r.Uploader, timeout: t}
		r.Analyzer = timeoutAnalyzer{next: r.Analyzer, timeout: t}
	}
	return &r, nil
}

func newOpenAI(cfg *config.Config) *openai.Client {
	return openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.Remote.Model,
	})
}

// timeoutUploader bounds every remote call by a fixed deadline.
type timeoutUploader struct {
	next    analysis.Uploader
	timeout time.Duration
}

func (u timeoutUploader) Upload(ctx context.Context, pdfName string, pdf []byte) (analysis.FileRef, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	return u.next.Upload(ctx, pdfName, pdf)
}

func (u timeoutUploader) Delete(ctx context.Context, ref analysis.FileRef) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	return u.next.Delete(ctx, ref)
}

type timeoutAnalyzer struct {
	next    analysis.Analyzer
	timeout time.Duration
}

func (a timeoutAnalyzer) Model() string { return a.next.Model() }

func (a timeoutAnalyzer) Analyze(ctx context.Context, req analysis.AnalysisRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.next.Analyze(ctx, req)
}
