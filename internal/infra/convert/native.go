package convert

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/vendor-voice/internal/infra/executor"
)

// Native uses the docx2pdf CLI, which drives Microsoft Word and therefore
// only works on Windows and macOS hosts.
type Native struct {
	Binary  string
	Timeout time.Duration
	Log     zerolog.Logger

	goos string
}

func NewNative(binary string, timeout time.Duration, log zerolog.Logger) *Native {
	if binary == "" {
		binary = "docx2pdf"
	}
	return &Native{Binary: binary, Timeout: timeout, Log: log, goos: runtime.GOOS}
}

func (n *Native) Name() string { return "native" }

func (n *Native) Available() bool {
	if n.goos != "windows" && n.goos != "darwin" {
		return false
	}
	return executor.Available(n.Binary)
}

func (n *Native) ConvertDocument(ctx context.Context, data []byte, filename string) ([]byte, error) {
	var pdf []byte
	err := executor.With("vv-native", cleanupLogger(n.Log, filename), func(ws *executor.Workspace) error {
		input, err := ws.WriteFile(docxInput, data)
		if err != nil {
			return err
		}
		if _, err := executor.Run(ctx, executor.Command{
			Name:    n.Binary,
			Args:    []string{input, ws.Path(pdfOutput)},
			Dir:     ws.Dir,
			Timeout: n.Timeout,
		}); err != nil {
			return err
		}
		pdf, err = ws.ReadFile(pdfOutput)
		return err
	})
	return pdf, err
}
