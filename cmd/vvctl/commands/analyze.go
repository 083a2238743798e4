package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/vendor-voice/internal/application/analyze"
	"github.com/bryanwahyu/vendor-voice/internal/bootstrap"
	"github.com/bryanwahyu/vendor-voice/internal/config"
	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
	"github.com/bryanwahyu/vendor-voice/internal/middleware"
)

var analyzePrompt string

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Convert, upload and analyze local files",
	Long:  "Run the same pipeline as POST /v1/analyze on local files and print the JSON result.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzePrompt, "prompt", "p", analysis.DefaultPrompt, "Prompt sent with the attachments")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cmd, cfg)

	items, err := localItems(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer app.Close()

	res, err := app.Service.Analyze(ctx, analyze.AnalyzeCommand{
		TraceID: middleware.NewTraceID(),
		Prompt:  analyzePrompt,
		Files:   items,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// localItems turns paths into upload items; the media type comes from the
// extension, the way a browser would label the upload.
func localItems(paths []string) ([]analysis.UploadItem, error) {
	items := make([]analysis.UploadItem, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}
		name := filepath.Base(p)
		items = append(items, analysis.UploadItem{
			Filename:  name,
			MediaType: analysis.MediaTypeFromFilename(name),
			Size:      info.Size(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(p)
			},
		})
	}
	return items, nil
}
