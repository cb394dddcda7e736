package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/kwgn/pdfledger/ledger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extracts statement(s) into a ledger",
	Long: `Extracts a given statement or every PDF in a folder.
File names are matched against the configured routes to pick the
statement layout; files that match nothing are skipped.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	target := viper.GetString("target")
	format, err := ledger.ParseFormat(viper.GetString("output.format"))
	if err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if path := viper.GetString("output.path"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file %q: %w", path, err)
		}
		defer f.Close()
		out = f
	} else if format == ledger.FormatXLSX {
		// a workbook on a terminal is useless
		format = ledger.FormatJSON
	}

	logger.Info().Str("target", target).Str("format", string(format)).Msg("scanning")
	return engine.ExecuteAgainstPath(target, out, format, ledgerOptions())
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("folder", "f", ".", "File or folder in which pdfledger will scan for statements")
	extractCmd.Flags().StringP("output", "o", "", "Write the ledger to this file instead of stdout")
	extractCmd.Flags().String("format", "", "Output format: xlsx, csv or json (default from config)")
	viper.BindPFlag("target", extractCmd.Flags().Lookup("folder"))
	viper.BindPFlag("output.path", extractCmd.Flags().Lookup("output"))
	viper.BindPFlag("output.format", extractCmd.Flags().Lookup("format"))
}
