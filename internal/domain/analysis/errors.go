package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. The HTTP layer maps kinds to status codes.
type Kind string

const (
	KindBatchTooLarge        Kind = "batch_too_large"
	KindEmptyBatch           Kind = "empty_batch"
	KindUnsupportedMediaType Kind = "unsupported_media_type"
	KindUnsupportedFormat    Kind = "unsupported_format"
	KindEmptyFile            Kind = "empty_file"
	KindFileTooLarge         Kind = "file_too_large"
	KindInvalidImage         Kind = "invalid_image"
	KindConverterUnavailable Kind = "converter_unavailable"
	KindConversionFailed     Kind = "conversion_failed"
	KindUploadFailed         Kind = "upload_failed"
	KindAnalysisFailed       Kind = "analysis_failed"
	KindBadRequest           Kind = "bad_request"
	KindInternal             Kind = "internal"
)

// Error is a classified pipeline error. File is empty for batch-level failures.
type Error struct {
	Kind Kind
	File string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a classified error.
func NewError(kind Kind, file, msg string, err error) *Error {
	return &Error{Kind: kind, File: file, Msg: msg, Err: err}
}

func ErrBatchTooLarge(max int) *Error {
	return NewError(KindBatchTooLarge, "", fmt.Sprintf("Too many files. Max allowed: %d.", max), nil)
}

func ErrEmptyBatch() *Error {
	return NewError(KindEmptyBatch, "", "No files provided.", nil)
}

func ErrUnsupportedMediaType(file string) *Error {
	return NewError(KindUnsupportedMediaType, file, fmt.Sprintf("Unsupported file type: %s", file), nil)
}

func ErrUnsupportedFormat(file string) *Error {
	return NewError(KindUnsupportedFormat, file, fmt.Sprintf("Unsupported file format: %s", file), nil)
}

func ErrEmptyFile(file string) *Error {
	return NewError(KindEmptyFile, file, fmt.Sprintf("Empty file: %s", file), nil)
}

func ErrFileTooLarge(file string, max int64) *Error {
	return NewError(KindFileTooLarge, file, fmt.Sprintf("File too large (> %d bytes): %s", max, file), nil)
}

func ErrInvalidImage(file string, err error) *Error {
	return NewError(KindInvalidImage, file, fmt.Sprintf("Invalid image file: %s", file), err)
}

func ErrConverterUnavailable(file string) *Error {
	return NewError(KindConverterUnavailable, file, "No DOCX converter found. Install LibreOffice or docx2pdf.", nil)
}

func ErrConversionFailed(file string, err error) *Error {
	return NewError(KindConversionFailed, file, fmt.Sprintf("PDF conversion failed for %s", file), err)
}

func ErrUploadFailed(file string, err error) *Error {
	return NewError(KindUploadFailed, file, "file upload failed", err)
}

func ErrBadRequest(msg string, err error) *Error {
	return NewError(KindBadRequest, "", msg, err)
}

func ErrAnalysisFailed(err error) *Error {
	return NewError(KindAnalysisFailed, "", "analysis failed", err)
}

// KindOf returns the kind of the first classified error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// TraceError tags an error with the request trace id.
type TraceError struct {
	TraceID string
	Err     error
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("[%s] %v", e.TraceID, e.Err)
}

func (e *TraceError) Unwrap() error { return e.Err }

// WithTrace wraps err with traceID; nil stays nil.
func WithTrace(traceID string, err error) error {
	if err == nil {
		return nil
	}
	var te *TraceError
	if errors.As(err, &te) && te.TraceID == traceID {
		return err
	}
	return &TraceError{TraceID: traceID, Err: err}
}

// TraceIDOf extracts the trace id from err, if any.
func TraceIDOf(err error) string {
	var te *TraceError
	if errors.As(err, &te) {
		return te.TraceID
	}
	return ""
}
