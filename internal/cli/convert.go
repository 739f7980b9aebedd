package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/patchdiff/internal/ingest"
	"github.com/dshills/patchdiff/internal/violation"
)

var (
	flagConvertFormat string
	flagConvertRoot   string
	flagConvertOut    string
)

var convertCmd = &cobra.Command{
	Use:   "convert <report>",
	Short: "Convert a checkstyle or SARIF report to the native JSON format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := ingest.ParseFormat(flagConvertFormat)
		if err != nil {
			return err
		}
		coll, err := ingest.LoadReport(cmd.Context(), args[0], ingest.Options{
			Format:     format,
			SourceRoot: flagConvertRoot,
		})
		if err != nil {
			exitCode = ExitRuntimeError
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil
		}

		if err := writeNativeReport(flagConvertOut, coll); err != nil {
			exitCode = ExitRuntimeError
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return nil
	},
}

// writeNativeReport writes coll as native JSON to outPath, or to stdout when
// outPath is empty.
func writeNativeReport(outPath string, coll violation.Collection) error {
	if outPath == "" {
		return ingest.WriteJSON(os.Stdout, "patchdiff", coll)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := ingest.WriteJSON(f, "patchdiff", coll); err != nil {
		f.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

func init() {
	f := convertCmd.Flags()
	f.StringVar(&flagConvertFormat, "report-format", "auto", "Input report format (auto, checkstyle, sarif, json)")
	f.StringVar(&flagConvertRoot, "ref-files", "", "Source root report paths are made relative to")
	f.StringVar(&flagConvertOut, "out", "", "Output file path (default: stdout)")
}
