package httpserver

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/vendor-voice/internal/application/analyze"
	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
	"github.com/bryanwahyu/vendor-voice/internal/middleware"
	"github.com/bryanwahyu/vendor-voice/internal/observability"
)

const (
	// multipart parts above this size spill to temp files
	multipartMemory = 32 << 20
	// allowance for the prompt field and multipart framing
	formOverhead = 1 << 20
)

// BatchAnalyzer is the use case behind POST /v1/analyze.
type BatchAnalyzer interface {
	Analyze(ctx context.Context, cmd analyze.AnalyzeCommand) (analysis.AnalysisResult, error)
}

type Options struct {
	Version      string
	APIKey       string
	CORSOrigins  []string
	MaxFiles     int
	MaxFileBytes int64
	RateLimiter  *middleware.RateLimiter
	Readiness    map[string]middleware.HealthChecker
	Log          zerolog.Logger
}

type Router struct {
	svc  BatchAnalyzer
	opts Options
	log  zerolog.Logger
}

func NewRouter(svc BatchAnalyzer, opts Options) http.Handler {
	r := &Router{svc: svc, opts: opts, log: opts.Log}
	mux := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))
	mux.Use(middleware.RequestID)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.LoggingMiddleware(opts.Log))
	mux.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
	mux.Use(middleware.APIKeyAuth(opts.APIKey))

	mux.Get("/health", middleware.HealthHandler(opts.Version))
	mux.Get("/health/ready", middleware.ReadinessHandler(opts.Readiness))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
	})

	mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteError(w, req, http.StatusNotFound, "not found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteError(w, req, http.StatusMethodNotAllowed, "method not allowed")
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		status := StatusFor(err)
		evt := r.log.Warn()
		if status >= http.StatusInternalServerError {
			evt = r.log.Error()
		}
		evt.Err(err).
			Str("trace_id", observability.TraceIDFromContext(req.Context())).
			Str("kind", string(analysis.KindOf(err))).
			Int("status", status).
			Msg("request failed")

		middleware.WriteError(w, req, status, Detail(err))
	}
}

// StatusFor maps a pipeline error to an HTTP status.
func StatusFor(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	switch analysis.KindOf(err) {
	case analysis.KindBatchTooLarge, analysis.KindEmptyBatch, analysis.KindEmptyFile, analysis.KindInvalidImage, analysis.KindBadRequest:
		return http.StatusBadRequest
	case analysis.KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case analysis.KindUnsupportedMediaType, analysis.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case analysis.KindConverterUnavailable:
		return http.StatusNotImplemented
	case analysis.KindUploadFailed, analysis.KindAnalysisFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Detail is the client facing message. Classified errors show their own
// message; anything else keeps the "[trace] cause" form.
func Detail(err error) string {
	var ae *analysis.Error
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return err.Error()
}

// POST /v1/analyze (multipart: files[], prompt)
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	traceID := observability.TraceIDFromContext(req.Context())

	req.Body = http.MaxBytesReader(w, req.Body, r.maxBody())
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return analysis.WithTrace(traceID, err)
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return analysis.WithTrace(traceID, analysis.ErrBadRequest("Invalid multipart form.", err))
		}
	}
	if req.MultipartForm != nil {
		defer func() { _ = req.MultipartForm.RemoveAll() }()
	}

	items := uploadItems(req.MultipartForm)
	r.log.Info().Str("trace_id", traceID).Int("files", len(items)).Msg("received analysis request")

	middleware.BatchStarted(len(items))
	res, err := r.svc.Analyze(req.Context(), analyze.AnalyzeCommand{
		TraceID: traceID,
		Prompt:  middleware.SanitizeString(req.FormValue("prompt")),
		Files:   items,
	})
	middleware.BatchFinished(err)
	if err != nil {
		return err
	}

	middleware.WriteJSON(w, http.StatusOK, res)
	return nil
}

func uploadItems(form *multipart.Form) []analysis.UploadItem {
	if form == nil {
		return nil
	}
	headers := form.File["files"]
	items := make([]analysis.UploadItem, 0, len(headers))
	for _, fh := range headers {
		items = append(items, analysis.UploadItem{
			Filename:  middleware.SanitizeFilename(fh.Filename),
			MediaType: fh.Header.Get("Content-Type"),
			Size:      fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return items
}

// maxBody caps the whole request: one extra file over the batch limit is
// still read so the batch size error wins over a generic 413.
func (r *Router) maxBody() int64 {
	files := int64(r.opts.MaxFiles)
	if files <= 0 {
		files = analyze.DefaultMaxFiles
	}
	per := r.opts.MaxFileBytes
	if per <= 0 {
		per = analyze.DefaultMaxFileBytes
	}
	return (files+1)*per + formOverhead
}
