package analyze

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/vendor-voice/internal/application"
	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
)

const (
	DefaultMaxFiles     = 10
	DefaultMaxFileBytes = 50 * 1024 * 1024
)

// Service runs the ingestion pipeline for one batch: validate, convert and
// upload every file concurrently, then issue one analysis call.
// Service is safe for concurrent use; it keeps no per-batch state.
type Service struct {
	Converter analysis.Converter
	Uploader  analysis.Uploader
	Analyzer  analysis.Analyzer
	Clock     application.Clock
	Log       zerolog.Logger

	MaxFiles     int
	MaxFileBytes int64
	// ReleaseArtifacts also deletes provider-held (file_id) artifacts once the
	// analysis call returned. Staged url and gcs_uri artifacts are always deleted.
	ReleaseArtifacts bool
}

// AnalyzeCommand input satu batch
type AnalyzeCommand struct {
	TraceID string
	Prompt  string
	Files   []analysis.UploadItem
}

// Analyze processes cmd.Files and returns the consolidated result. Every
// returned error carries cmd.TraceID (see analysis.TraceIDOf).
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (analysis.AnalysisResult, error) {
	start := s.now()
	log := s.Log.With().Str("trace_id", cmd.TraceID).Logger()

	prompt := strings.TrimSpace(cmd.Prompt)
	if prompt == "" {
		prompt = analysis.DefaultPrompt
	}

	if err := s.admit(len(cmd.Files)); err != nil {
		return analysis.AnalysisResult{}, analysis.WithTrace(cmd.TraceID, err)
	}

	results, err := s.ingest(ctx, log, cmd.Files)
	if err != nil {
		s.release(ctx, log, results)
		return analysis.AnalysisResult{}, analysis.WithTrace(cmd.TraceID, err)
	}

	req := analysis.AnalysisRequest{Prompt: prompt, Refs: make([]analysis.FileRef, len(results))}
	for i, r := range results {
		req.Refs[i] = r.Ref()
	}

	raw, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		s.release(ctx, log, results)
		return analysis.AnalysisResult{}, analysis.WithTrace(cmd.TraceID, analysis.ErrAnalysisFailed(err))
	}
	s.release(ctx, log, s.releasable(results))

	log.Info().
		Int("files", len(results)).
		Str("model", s.Analyzer.Model()).
		Dur("took", s.now().Sub(start)).
		Msg("batch analyzed")

	return analysis.AnalysisResult{
		Model:      s.Analyzer.Model(),
		PromptUsed: prompt,
		OutputText: analysis.WrapOutput(raw),
		Files:      results,
		RequestID:  cmd.TraceID,
	}, nil
}

func (s *Service) admit(n int) error {
	if n == 0 {
		return analysis.ErrEmptyBatch()
	}
	if max := s.maxFiles(); n > max {
		return analysis.ErrBatchTooLarge(max)
	}
	return nil
}

// ingest fans out one task per item. Results are written by index so the
// returned slice follows input order regardless of completion order. On
// failure the slice still holds whatever was uploaded, for release.
func (s *Service) ingest(ctx context.Context, log zerolog.Logger, items []analysis.UploadItem) ([]analysis.FileResult, error) {
	results := make([]analysis.FileResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxFiles())
	for i, item := range items {
		g.Go(func() error {
			res, err := s.process(gctx, log, item)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *Service) process(ctx context.Context, log zerolog.Logger, item analysis.UploadItem) (analysis.FileResult, error) {
	if err := ctx.Err(); err != nil {
		return analysis.FileResult{}, err
	}
	if !analysis.IsSupportedMediaType(item.MediaType) {
		return analysis.FileResult{}, analysis.ErrUnsupportedMediaType(item.Filename)
	}

	data, err := s.read(item)
	if err != nil {
		return analysis.FileResult{}, err
	}

	out, err := s.Converter.Convert(ctx, data, item.Filename, item.MediaType)
	if err != nil {
		return analysis.FileResult{}, err
	}
	log.Debug().
		Str("file", item.Filename).
		Stringer("strategy", out.Strategy).
		Int("bytes", out.Bytes()).
		Msg("file converted")

	ref, err := s.Uploader.Upload(ctx, out.Filename, out.PDF)
	if err != nil {
		return analysis.FileResult{}, analysis.ErrUploadFailed(item.Filename, err)
	}
	log.Debug().Str("file", out.Filename).Str("ref", ref.ID).Msg("file uploaded")

	return analysis.FileResult{
		OriginalFilename:  item.Filename,
		OriginalMime:      item.MediaType,
		ConvertedFilename: out.Filename,
		ConvertedBytes:    out.Bytes(),
		FileID:            ref.ID,
		FileRefKind:       ref.Kind,
	}, nil
}

// read loads the item's bytes, reading at most one byte past the limit.
func (s *Service) read(item analysis.UploadItem) ([]byte, error) {
	max := s.maxFileBytes()
	if item.Size > max {
		return nil, analysis.ErrFileTooLarge(item.Filename, max)
	}
	if item.Open == nil {
		return nil, analysis.ErrEmptyFile(item.Filename)
	}

	rc, err := item.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", item.Filename, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, max+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", item.Filename, err)
	}
	if len(data) == 0 {
		return nil, analysis.ErrEmptyFile(item.Filename)
	}
	if int64(len(data)) > max {
		return nil, analysis.ErrFileTooLarge(item.Filename, max)
	}
	return data, nil
}

// release deletes uploaded artifacts, best effort. It runs detached from the
// request context so an aborted batch still cleans up.
func (s *Service) release(ctx context.Context, log zerolog.Logger, results []analysis.FileResult) {
	ctx = context.WithoutCancel(ctx)
	for _, r := range results {
		if r.FileID == "" {
			continue
		}
		if err := s.Uploader.Delete(ctx, r.Ref()); err != nil {
			log.Warn().Err(err).Str("ref", r.FileID).Msg("failed to release uploaded file")
		}
	}
}

// releasable picks the artifacts to delete after a successful analysis.
func (s *Service) releasable(results []analysis.FileResult) []analysis.FileResult {
	if s.ReleaseArtifacts {
		return results
	}
	var out []analysis.FileResult
	for _, r := range results {
		if r.FileRefKind.Staged() {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func (s *Service) maxFiles() int {
	if s.MaxFiles <= 0 {
		return DefaultMaxFiles
	}
	return s.MaxFiles
}

func (s *Service) maxFileBytes() int64 {
	if s.MaxFileBytes <= 0 {
		return DefaultMaxFileBytes
	}
	return s.MaxFileBytes
}
