package analysis

import (
	"mime"
	"path/filepath"
	"strings"
)

// Strategy is the conversion path chosen for one input.
type Strategy int

const (
	Unsupported Strategy = iota
	PassThroughPDF
	ImageToPDF
	DocumentToPDF
)

func (s Strategy) String() string {
	switch s {
	case PassThroughPDF:
		return "passthrough_pdf"
	case ImageToPDF:
		return "image_to_pdf"
	case DocumentToPDF:
		return "document_to_pdf"
	default:
		return "unsupported"
	}
}

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	imagePrefix   = "image/"
)

var supportedMediaTypes = map[string]bool{
	MediaTypePDF:  true,
	MediaTypeDOCX: true,
	"image/png":   true,
	"image/jpeg":  true,
	"image/jpg":   true,
	"image/gif":   true,
	"image/webp":  true,
}

// NormalizeMediaType drops parameters and lower-cases the type.
func NormalizeMediaType(mediaType string) string {
	mt := strings.TrimSpace(mediaType)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// IsSupportedMediaType reports whether the declared type is on the allow-list.
func IsSupportedMediaType(mediaType string) bool {
	return supportedMediaTypes[NormalizeMediaType(mediaType)]
}

// SupportedMediaTypes returns the allow-list, for error messages and docs.
func SupportedMediaTypes() []string {
	out := make([]string, 0, len(supportedMediaTypes))
	for mt := range supportedMediaTypes {
		out = append(out, mt)
	}
	return out
}

// Classify picks the conversion strategy from the declared media type and filename.
// Rules are evaluated in order; the first match wins.
func Classify(mediaType, filename string) Strategy {
	mt := NormalizeMediaType(mediaType)
	name := strings.ToLower(filename)

	switch {
	case mt == MediaTypePDF || strings.HasSuffix(name, ".pdf"):
		return PassThroughPDF
	case strings.HasPrefix(mt, imagePrefix):
		return ImageToPDF
	case strings.HasSuffix(name, ".docx"):
		return DocumentToPDF
	default:
		return Unsupported
	}
}

// PDFName rewrites the extension of filename to .pdf.
func PDFName(filename string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + ".pdf"
}

var extensionTypes = map[string]string{
	".pdf":  MediaTypePDF,
	".docx": MediaTypeDOCX,
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// MediaTypeFromFilename guesses a media type from the file extension, for callers
// (like the CLI) that have no declared type.
func MediaTypeFromFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return NormalizeMediaType(mt)
	}
	return "application/octet-stream"
}
