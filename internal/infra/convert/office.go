package convert

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/vendor-voice/internal/infra/executor"
)

const (
	docxInput = "input.docx"
	pdfOutput = "input.pdf"
)

// Office converts documents with a headless LibreOffice on the host.
type Office struct {
	Binary  string
	Timeout time.Duration
	Log     zerolog.Logger
}

// NewOffice returns an Office converter; an empty binary means "soffice".
func NewOffice(binary string, timeout time.Duration, log zerolog.Logger) *Office {
	if binary == "" {
		binary = "soffice"
	}
	return &Office{Binary: binary, Timeout: timeout, Log: log}
}

func (o *Office) Name() string { return "office" }

func (o *Office) Available() bool { return executor.Available(o.Binary) }

func (o *Office) ConvertDocument(ctx context.Context, data []byte, filename string) ([]byte, error) {
	var pdf []byte
	err := executor.With("vv-office", cleanupLogger(o.Log, filename), func(ws *executor.Workspace) error {
		input, err := ws.WriteFile(docxInput, data)
		if err != nil {
			return err
		}

		res, err := executor.Run(ctx, executor.Command{
			Name:    o.Binary,
			Args:    OfficeArgs(profileURL(ws.Path("profile")), ws.Dir, input),
			Dir:     ws.Dir,
			Timeout: o.Timeout,
		})
		if err != nil {
			return err
		}
		o.Log.Debug().Str("file", filename).Dur("took", res.Duration).Msg("office conversion finished")

		pdf, err = ws.ReadFile(pdfOutput)
		return err
	})
	return pdf, err
}

// OfficeArgs builds the soffice argument list. Each run gets its own profile
// directory so concurrent conversions do not fight over one user installation.
func OfficeArgs(profile, outDir, input string) []string {
	return []string{
		"-env:UserInstallation=" + profile,
		"--headless",
		"--norestore",
		"--convert-to", "pdf",
		"--outdir", outDir,
		input,
	}
}

func profileURL(dir string) string {
	p := filepath.ToSlash(dir)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

func cleanupLogger(log zerolog.Logger, filename string) func(error) {
	return func(err error) {
		log.Warn().Err(err).Str("file", filename).Msg("failed to remove conversion workspace")
	}
}
