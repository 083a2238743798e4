package commands

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
)

var classifyCmd = &cobra.Command{
	Use:   "classify FILE...",
	Short: "Show how each file would be converted",
	Long:  "Infer each file's media type from its extension and print the conversion strategy it gets. Files are not read.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tMEDIA TYPE\tSUPPORTED\tSTRATEGY")
	for _, path := range args {
		name := filepath.Base(path)
		mt := analysis.MediaTypeFromFilename(name)
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", name, mt, analysis.IsSupportedMediaType(mt), analysis.Classify(mt, name))
	}
	return tw.Flush()
}
