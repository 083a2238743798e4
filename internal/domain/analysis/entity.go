package analysis

import (
	"bytes"
	"io"
)

// UploadItem satu file dari request. Bytes dibaca di dalam task per-file.
type UploadItem struct {
	Filename  string
	MediaType string
	Size      int64
	Open      func() (io.ReadCloser, error)
}

// BytesItem builds an UploadItem over an in-memory buffer.
func BytesItem(filename, mediaType string, data []byte) UploadItem {
	return UploadItem{
		Filename:  filename,
		MediaType: mediaType,
		Size:      int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// ConversionOutcome hasil normalisasi ke PDF
type ConversionOutcome struct {
	Filename string
	PDF      []byte
	Strategy Strategy
}

// Bytes returns the length of the converted PDF.
func (o ConversionOutcome) Bytes() int { return len(o.PDF) }

// RefKind tells the analyzer how to address an uploaded artifact.
type RefKind string

const (
	RefFileID RefKind = "file_id"
	RefURL    RefKind = "url"
	RefGCSURI RefKind = "gcs_uri"
)

// Staged reports whether the artifact lives in storage this service owns
// (a presigned bucket URL or a gs:// object) rather than with the provider.
func (k RefKind) Staged() bool {
	return k == RefURL || k == RefGCSURI
}

// FileRef opaque reference returned by the remote service for one uploaded PDF.
type FileRef struct {
	ID   string  `json:"id"`
	Kind RefKind `json:"kind"`
}

// FileResult is the externally visible record for one processed input.
type FileResult struct {
	OriginalFilename  string  `json:"original_filename"`
	OriginalMime      string  `json:"original_mime"`
	ConvertedFilename string  `json:"converted_filename"`
	ConvertedBytes    int     `json:"converted_bytes"`
	FileID            string  `json:"openai_file_id"`
	FileRefKind       RefKind `json:"file_ref_kind"`
}

// Ref rebuilds the remote reference carried by the result.
func (r FileResult) Ref() FileRef {
	return FileRef{ID: r.FileID, Kind: r.FileRefKind}
}

// AnalysisRequest dibangun sekali per batch setelah semua upload sukses
type AnalysisRequest struct {
	Prompt string
	Refs   []FileRef
}

// AnalysisResult terminal artifact returned to the caller
type AnalysisResult struct {
	Model      string       `json:"model"`
	PromptUsed string       `json:"prompt_used"`
	OutputText string       `json:"output_text"`
	Files      []FileResult `json:"files"`
	RequestID  string       `json:"request_id"`
}

// OutputPrefix is prepended to every analyzer answer handed back to callers.
const OutputPrefix = "Extracted information from the attachment: "

// WrapOutput prefixes raw analyzer output.
func WrapOutput(raw string) string {
	return OutputPrefix + raw
}

// DefaultPrompt is used when a request carries no prompt of its own.
const DefaultPrompt = "Give me relevant info that I will pass to voice agent to help fix customer issue."
