package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/vendor-voice/internal/bootstrap"
	"github.com/bryanwahyu/vendor-voice/internal/config"
)

var convertersCmd = &cobra.Command{
	Use:   "converters",
	Short: "List document converters in priority order",
	Long:  "Probe every configured document converter on this host. The first available one handles .docx uploads.",
	Args:  cobra.NoArgs,
	RunE:  runConverters,
}

func init() {
	rootCmd.AddCommand(convertersCmd)
}

func runConverters(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIORITY\tCONVERTER\tAVAILABLE\tACTIVE")
	active := false
	for i, c := range bootstrap.Candidates(cfg, newLogger(cmd, cfg)) {
		ok := c.Available()
		isActive := ok && !active
		if isActive {
			active = true
		}
		fmt.Fprintf(tw, "%d\t%s\t%t\t%t\n", i+1, c.Name(), ok, isActive)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !active {
		fmt.Fprintln(cmd.OutOrStdout(), "no document converter available; .docx files will be rejected")
	}
	return nil
}
