package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
)

type fakeDocConverter struct {
	name      string
	available bool
	pdf       []byte
	err       error
	calls     int
}

func (f *fakeDocConverter) Name() string    { return f.name }
func (f *fakeDocConverter) Available() bool { return f.available }
func (f *fakeDocConverter) ConvertDocument(_ context.Context, _ []byte, _ string) ([]byte, error) {
	f.calls++
	return f.pdf, f.err
}

func pngWithTransparency(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{}) // fully transparent
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gifImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 8, 8), palette.Plan9)
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestConvertPassThroughPDF(t *testing.T) {
	data := []byte("%PDF-1.7 original bytes")
	c := New(nil)

	out, err := c.Convert(context.Background(), data, "report.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", out.Filename)
	assert.Equal(t, data, out.PDF)
	assert.Equal(t, analysis.PassThroughPDF, out.Strategy)
	assert.Equal(t, len(data), out.Bytes())
}

func TestFlattenCompositesOntoWhite(t *testing.T) {
	frame, err := Flatten(pngWithTransparency(t))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 4, 3), frame.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, frame.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, frame.RGBAAt(1, 0))
}

func TestFlattenIsDeterministic(t *testing.T) {
	data := gifImage(t)

	f1, err := Flatten(data)
	require.NoError(t, err)
	f2, err := Flatten(data)
	require.NoError(t, err)

	b1, err := EncodeFrame(f1)
	require.NoError(t, err)
	b2, err := EncodeFrame(f2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestEncodePDFPageSizeFollowsDPI(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 600, 300))

	for _, tc := range []struct {
		dpi  int
		w, h float64
	}{
		{300, 144, 72},
		{150, 288, 144},
		{72, 600, 300},
	} {
		pdf, err := EncodePDF(frame, tc.dpi)
		require.NoError(t, err)

		dims, err := api.PageDims(bytes.NewReader(pdf), nil)
		require.NoError(t, err)
		require.Len(t, dims, 1)
		assert.InDelta(t, tc.w, dims[0].Width, 0.01, "dpi %d", tc.dpi)
		assert.InDelta(t, tc.h, dims[0].Height, 0.01, "dpi %d", tc.dpi)
	}
}

func TestConvertWithDPI(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 600, 300))))

	out, err := New(nil).WithDPI(150).Convert(context.Background(), buf.Bytes(), "wide.png", "image/png")
	require.NoError(t, err)

	dims, err := api.PageDims(bytes.NewReader(out.PDF), nil)
	require.NoError(t, err)
	require.Len(t, dims, 1)
	assert.InDelta(t, 288.0, dims[0].Width, 0.01)
	assert.InDelta(t, 144.0, dims[0].Height, 0.01)
}

func TestConvertImageIsByteIdentical(t *testing.T) {
	if testing.Short() {
		t.Skip("crosses a wall-clock second")
	}
	c := New(nil)
	data := gifImage(t)

	first, err := c.Convert(context.Background(), data, "same.gif", "image/gif")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	second, err := c.Convert(context.Background(), data, "same.gif", "image/gif")
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first.PDF, second.PDF), "PDF bytes differ between runs")
	_, err = api.PageCount(bytes.NewReader(second.PDF), nil)
	assert.NoError(t, err)
}

func TestPinMetadata(t *testing.T) {
	in := []byte("<</CreationDate (D:20261019064600+07'00') /ModDate(D:20261019064601Z)>>\n" +
		"trailer <</ID [<0a1b2c3d> <0A1B2C3D4E5F>]>>")

	out := pinMetadata(in, []byte("frame"))
	assert.Len(t, out, len(in))
	assert.Contains(t, string(out), "/CreationDate (D:19700101000000+07'00')")
	assert.Contains(t, string(out), "/ModDate(D:19700101000000Z)")
	assert.NotContains(t, string(out), "0a1b2c3d")
	assert.Equal(t, out, pinMetadata(in, []byte("frame")))
	assert.NotEqual(t, out, pinMetadata(in, []byte("other frame")))
	assert.Equal(t, "20261019064600", string(in[19:33]), "input left untouched")
}

func TestConvertGIFToPDF(t *testing.T) {
	c := New(nil)

	out, err := c.Convert(context.Background(), gifImage(t), "name.gif", "image/gif")
	require.NoError(t, err)
	assert.Equal(t, "name.pdf", out.Filename)
	assert.Equal(t, analysis.ImageToPDF, out.Strategy)
	require.Greater(t, out.Bytes(), 0)
	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF")))

	pages, err := api.PageCount(bytes.NewReader(out.PDF), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestConvertInvalidImage(t *testing.T) {
	c := New(nil)

	_, err := c.Convert(context.Background(), []byte("not an image"), "broken.png", "image/png")
	require.Error(t, err)
	assert.Equal(t, analysis.KindInvalidImage, analysis.KindOf(err))
	assert.Contains(t, err.Error(), "broken.png")
}

func TestConvertUnsupported(t *testing.T) {
	c := New(nil)

	_, err := c.Convert(context.Background(), []byte("hello"), "notes.txt", "text/plain")
	assert.Equal(t, analysis.KindUnsupportedFormat, analysis.KindOf(err))
}

func TestConvertDocumentWithoutConverter(t *testing.T) {
	c := New(nil)

	_, err := c.Convert(context.Background(), []byte("PK"), "memo.docx", analysis.MediaTypeDOCX)
	assert.Equal(t, analysis.KindConverterUnavailable, analysis.KindOf(err))
}

func TestConvertDocumentUsesFirstConverter(t *testing.T) {
	first := &fakeDocConverter{name: "first", available: true, pdf: []byte("%PDF-first")}
	second := &fakeDocConverter{name: "second", available: true, pdf: []byte("%PDF-second")}
	c := New([]analysis.DocumentConverter{first, second})

	out, err := c.Convert(context.Background(), []byte("PK"), "memo.docx", analysis.MediaTypeDOCX)
	require.NoError(t, err)
	assert.Equal(t, "memo.pdf", out.Filename)
	assert.Equal(t, []byte("%PDF-first"), out.PDF)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestConvertDocumentFailureNamesFile(t *testing.T) {
	failing := &fakeDocConverter{name: "office", available: true, err: errors.New("exit status 1")}
	c := New([]analysis.DocumentConverter{failing})

	_, err := c.Convert(context.Background(), []byte("PK"), "memo.docx", analysis.MediaTypeDOCX)
	require.Error(t, err)
	assert.Equal(t, analysis.KindConversionFailed, analysis.KindOf(err))
	assert.Contains(t, err.Error(), "memo.docx")
	assert.Contains(t, err.Error(), "office")
}

func TestConvertDocumentEmptyOutput(t *testing.T) {
	empty := &fakeDocConverter{name: "office", available: true}
	c := New([]analysis.DocumentConverter{empty})

	_, err := c.Convert(context.Background(), []byte("PK"), "memo.docx", analysis.MediaTypeDOCX)
	assert.Equal(t, analysis.KindConversionFailed, analysis.KindOf(err))
}

func TestResolveKeepsAvailableInOrder(t *testing.T) {
	a := &fakeDocConverter{name: "a", available: false}
	b := &fakeDocConverter{name: "b", available: true}
	c := &fakeDocConverter{name: "c", available: true}

	got := Resolve(zerolog.Nop(), a, nil, b, c)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name())
	assert.Equal(t, "c", got[1].Name())
	assert.Empty(t, Resolve(zerolog.Nop(), a))
}

func TestNativeOnlyOnDesktopHosts(t *testing.T) {
	n := NewNative("sh", 0, zerolog.Nop())
	n.goos = "linux"
	assert.False(t, n.Available())
}

// fakeSoffice writes a script that behaves like soffice --convert-to pdf and
// records the output directory it was given.
func fakeSoffice(t *testing.T, exitCode int) (bin, logFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	logFile = filepath.Join(dir, "outdir.log")
	script := fmt.Sprintf(`#!/bin/sh
outdir=""
while [ $# -gt 0 ]; do
  case "$1" in
    --outdir) outdir="$2"; shift 2;;
    *) shift;;
  esac
done
echo "$outdir" > %q
if [ %d -ne 0 ]; then
  echo "source file could not be loaded" 1>&2
  exit %d
fi
printf '%%%%PDF-1.4 fake' > "$outdir/input.pdf"
`, logFile, exitCode, exitCode)
	bin = filepath.Join(dir, "soffice")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, logFile
}

func workspaceFrom(t *testing.T, logFile string) string {
	t.Helper()
	raw, err := os.ReadFile(logFile)
	require.NoError(t, err)
	return strings.TrimSpace(string(raw))
}

func TestOfficeConvertDocument(t *testing.T) {
	bin, logFile := fakeSoffice(t, 0)
	o := NewOffice(bin, 0, zerolog.Nop())
	require.True(t, o.Available())

	pdf, err := o.ConvertDocument(context.Background(), []byte("PK docx"), "memo.docx")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(pdf))

	ws := workspaceFrom(t, logFile)
	require.NotEmpty(t, ws)
	_, statErr := os.Stat(ws)
	assert.True(t, os.IsNotExist(statErr), "workspace %s should be removed", ws)
}

func TestOfficeFailureCleansUp(t *testing.T) {
	bin, logFile := fakeSoffice(t, 1)
	c := New([]analysis.DocumentConverter{NewOffice(bin, 0, zerolog.Nop())})

	_, err := c.Convert(context.Background(), []byte("PK docx"), "memo.docx", analysis.MediaTypeDOCX)
	require.Error(t, err)
	assert.Equal(t, analysis.KindConversionFailed, analysis.KindOf(err))
	assert.Contains(t, err.Error(), "memo.docx")
	assert.Contains(t, err.Error(), "could not be loaded")

	_, statErr := os.Stat(workspaceFrom(t, logFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestOfficeArgs(t *testing.T) {
	args := OfficeArgs("file:///tmp/p", "/tmp/out", "/tmp/out/input.docx")
	assert.Equal(t, "-env:UserInstallation=file:///tmp/p", args[0])
	assert.Contains(t, args, "--headless")
	assert.Equal(t, "/tmp/out/input.docx", args[len(args)-1])
	assert.Equal(t, "file:///tmp/vv/profile", profileURL("/tmp/vv/profile"))
}
