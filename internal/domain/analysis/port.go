package analysis

import "context"

// Converter normalizes one input to PDF.
type Converter interface {
	Convert(ctx context.Context, data []byte, filename, mediaType string) (ConversionOutcome, error)
}

// DocumentConverter is one way of turning a word-processing document into PDF.
// Available is checked once, when the converter list is resolved at startup.
type DocumentConverter interface {
	Name() string
	Available() bool
	ConvertDocument(ctx context.Context, data []byte, filename string) ([]byte, error)
}

// Uploader pushes a converted PDF to the remote service.
// Implementations must be safe for concurrent use.
type Uploader interface {
	Upload(ctx context.Context, pdfName string, pdf []byte) (FileRef, error)
	Delete(ctx context.Context, ref FileRef) error
}

// Analyzer issues the single combined analysis call.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	Model() string
	Analyze(ctx context.Context, req AnalysisRequest) (string, error)
}
