package convert

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"regexp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	_ "golang.org/x/image/webp"
)

// DefaultDPI is the resolution images are imported at.
const DefaultDPI = 300

// Flatten decodes an image and returns an opaque RGBA frame of the same size.
// Transparent and palette images are composited onto white first.
func Flatten(data []byte) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if hasTransparency(src) {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	}
	return dst, nil
}

func hasTransparency(img image.Image) bool {
	switch img.(type) {
	case *image.Paletted, *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64,
		*image.Alpha, *image.Alpha16, *image.NYCbCrA:
		return true
	}
	return false
}

// EncodeFrame re-encodes a flattened frame losslessly. Output is deterministic.
func EncodeFrame(frame image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePDF writes frame as a single-page PDF. The page is sized so the
// image prints at dpi, centered and unscaled. The same frame always yields
// the same bytes.
func EncodePDF(frame image.Image, dpi int) ([]byte, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	raw, err := EncodeFrame(frame)
	if err != nil {
		return nil, err
	}

	b := frame.Bounds()
	imp := pdfcpu.DefaultImportConfig()
	imp.DPI = dpi
	imp.PageDim = &types.Dim{
		Width:  float64(b.Dx()) * 72 / float64(dpi),
		Height: float64(b.Dy()) * 72 / float64(dpi),
	}
	imp.UserDim = true
	imp.Pos = types.Center
	imp.Scale = 1.0
	imp.ScaleAbs = false

	conf := model.NewDefaultConfiguration()
	// Info dict and trailer stay uncompressed so pinMetadata can find them
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, []io.Reader{bytes.NewReader(raw)}, imp, conf); err != nil {
		return nil, fmt.Errorf("pdf import: %w", err)
	}
	return pinMetadata(out.Bytes(), raw), nil
}

var (
	pdfDate = regexp.MustCompile(`/(?:CreationDate|ModDate)\s*\(D:(\d{14})`)
	pdfID   = regexp.MustCompile(`/ID\s*\[\s*<([0-9A-Fa-f]+)>\s*<([0-9A-Fa-f]+)>`)
)

// epoch replaces the wall-clock part of every PDF date.
const epoch = "19700101000000"

// pinMetadata overwrites the time dependent parts pdfcpu writes (Info dates
// and the trailer file ID) with values derived from the content. Every
// replacement keeps its length, so xref offsets stay valid.
func pinMetadata(pdf, content []byte) []byte {
	sum := sha256.Sum256(content)
	id := hex.EncodeToString(sum[:])

	out := bytes.Clone(pdf)
	for _, m := range pdfDate.FindAllSubmatchIndex(out, -1) {
		copy(out[m[2]:m[3]], epoch)
	}
	for _, m := range pdfID.FindAllSubmatchIndex(out, -1) {
		for g := 2; g < len(m); g += 2 {
			copy(out[m[g]:m[g+1]], fill(id, m[g+1]-m[g]))
		}
	}
	return out
}

// fill repeats s until it is n bytes long.
func fill(s string, n int) []byte {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		buf = append(buf, s[:min(len(s), n-len(buf))]...)
	}
	return buf
}
