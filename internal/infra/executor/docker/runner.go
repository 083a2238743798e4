package docker

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/vendor-voice/internal/infra/convert"
	"github.com/bryanwahyu/vendor-voice/internal/infra/executor"
)

const workMount = "/work"

// Converter runs the LibreOffice conversion inside a throwaway container, for
// hosts that have docker but no office suite installed.
type Converter struct {
	Binary     string
	Image      string
	Entrypoint string
	Timeout    time.Duration
	Log        zerolog.Logger
}

func NewConverter(image string, timeout time.Duration, log zerolog.Logger) *Converter {
	return &Converter{
		Binary:     "docker",
		Image:      image,
		Entrypoint: "soffice",
		Timeout:    timeout,
		Log:        log,
	}
}

func (c *Converter) Name() string { return "docker" }

// Available butuh image yang dikonfigurasi dan docker di PATH
func (c *Converter) Available() bool {
	return c.Image != "" && executor.Available(c.Binary)
}

func (c *Converter) ConvertDocument(ctx context.Context, data []byte, filename string) ([]byte, error) {
	var pdf []byte
	err := executor.With("vv-docker", func(err error) {
		c.Log.Warn().Err(err).Str("file", filename).Msg("failed to remove conversion workspace")
	}, func(ws *executor.Workspace) error {
		if _, err := ws.WriteFile("input.docx", data); err != nil {
			return err
		}

		res, err := executor.Run(ctx, executor.Command{
			Name:    c.Binary,
			Args:    c.Args(ws.Dir),
			Timeout: c.Timeout,
		})
		if err != nil {
			return err
		}
		c.Log.Debug().Str("file", filename).Str("image", c.Image).Dur("took", res.Duration).Msg("container conversion finished")

		pdf, err = ws.ReadFile("input.pdf")
		return err
	})
	return pdf, err
}

// Args builds the docker command line for a workspace directory on the host.
func (c *Converter) Args(hostDir string) []string {
	args := []string{
		"run", "--rm",
		"--network", "none",
		"-v", fmt.Sprintf("%s:%s", hostDir, workMount),
	}
	if runtime.GOOS != "windows" {
		// output must stay removable by us
		args = append(args, "--user", fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()))
	}
	args = append(args, "--entrypoint", c.Entrypoint, c.Image)
	return append(args, convert.OfficeArgs("file://"+workMount+"/profile", workMount, workMount+"/input.docx")...)
}
