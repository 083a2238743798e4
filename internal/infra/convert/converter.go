package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
)

// Converter normalizes uploads to PDF. It holds no per-call state and is safe
// for concurrent use.
type Converter struct {
	documents []analysis.DocumentConverter
	dpi       int
}

// New builds a Converter over an already resolved, ordered list of document
// converters (see Resolve). The first entry handles every document.
func New(documents []analysis.DocumentConverter) *Converter {
	return &Converter{documents: documents, dpi: DefaultDPI}
}

// WithDPI overrides the image import resolution.
func (c *Converter) WithDPI(dpi int) *Converter {
	if dpi > 0 {
		c.dpi = dpi
	}
	return c
}

// Documents returns the document converters in priority order.
func (c *Converter) Documents() []analysis.DocumentConverter {
	return c.documents
}

func (c *Converter) Convert(ctx context.Context, data []byte, filename, mediaType string) (analysis.ConversionOutcome, error) {
	strategy := analysis.Classify(mediaType, filename)
	out := analysis.ConversionOutcome{Strategy: strategy}

	switch strategy {
	case analysis.PassThroughPDF:
		out.Filename = filename
		out.PDF = data
		return out, nil

	case analysis.ImageToPDF:
		frame, err := Flatten(data)
		if err != nil {
			return out, analysis.ErrInvalidImage(filename, err)
		}
		pdf, err := EncodePDF(frame, c.dpi)
		if err != nil {
			return out, analysis.ErrConversionFailed(filename, err)
		}
		out.Filename = analysis.PDFName(filename)
		out.PDF = pdf
		return out, nil

	case analysis.DocumentToPDF:
		if len(c.documents) == 0 {
			return out, analysis.ErrConverterUnavailable(filename)
		}
		pdf, err := c.convertDocument(ctx, c.documents[0], data, filename)
		if err != nil {
			return out, err
		}
		out.Filename = analysis.PDFName(filename)
		out.PDF = pdf
		return out, nil

	default:
		return out, analysis.ErrUnsupportedFormat(filename)
	}
}

func (c *Converter) convertDocument(ctx context.Context, d analysis.DocumentConverter, data []byte, filename string) ([]byte, error) {
	pdf, err := d.ConvertDocument(ctx, data, filename)
	if err != nil {
		var ae *analysis.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, analysis.ErrConversionFailed(filename, fmt.Errorf("%s: %w", d.Name(), err))
	}
	if len(pdf) == 0 {
		return nil, analysis.ErrConversionFailed(filename, fmt.Errorf("%s produced an empty PDF", d.Name()))
	}
	return pdf, nil
}

// Resolve keeps the candidates that are usable on this host, preserving order.
// It runs once at startup so conversions never probe the environment.
func Resolve(log zerolog.Logger, candidates ...analysis.DocumentConverter) []analysis.DocumentConverter {
	out := make([]analysis.DocumentConverter, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if !c.Available() {
			log.Debug().Str("converter", c.Name()).Msg("document converter not available")
			continue
		}
		log.Info().Str("converter", c.Name()).Int("priority", len(out)).Msg("document converter enabled")
		out = append(out, c)
	}
	if len(out) == 0 {
		log.Warn().Msg("no document converter available; .docx uploads will be rejected")
	}
	return out
}
