package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kwgn/pdfledger/integrations/gcs"
	"github.com/kwgn/pdfledger/ledger"
	"github.com/kwgn/pdfledger/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var processTimeout int

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Build a ledger from statements stored in a Cloud Storage bucket",
	Long: `Downloads every PDF under a bucket prefix, extracts and consolidates them,
and uploads the ledger back to the bucket.

Examples:
  pdfledger process --bucket my-statements --prefix 2024/03/
  pdfledger process --bucket my-statements --prefix 2024/03/ --output ledgers/march.csv --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket := viper.GetString("storage.bucket")
		if bucket == "" {
			return fmt.Errorf("--bucket or storage.bucket is required")
		}
		name, _ := cmd.Flags().GetString("format")
		if name == "" {
			name = viper.GetString("output.format")
		}
		format, err := ledger.ParseFormat(name)
		if err != nil {
			return err
		}
		engine, err := newEngine()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(processTimeout)*time.Second)
		defer cancel()
		ctx = logging.WithContext(ctx, logger)

		store, err := gcs.NewStore(ctx, bucket)
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := store.Process(ctx, engine, gcs.ProcessOptions{
			Prefix: viper.GetString("storage.prefix"),
			Output: viper.GetString("storage.output_object"),
			Format: format,
			Ledger: ledgerOptions(),
		})
		if err != nil {
			return err
		}

		fmt.Printf("Complete: %s\n", result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("bucket", "", "Bucket holding the statements")
	processCmd.Flags().String("prefix", "", "Object prefix to scan")
	processCmd.Flags().String("output", "", "Object to write the ledger to (default <prefix>/ledger.<format>)")
	processCmd.Flags().String("format", "", "Output format: xlsx, csv or json")
	processCmd.Flags().IntVar(&processTimeout, "timeout", 300, "Operation timeout in seconds")
	viper.BindPFlag("storage.bucket", processCmd.Flags().Lookup("bucket"))
	viper.BindPFlag("storage.prefix", processCmd.Flags().Lookup("prefix"))
	viper.BindPFlag("storage.output_object", processCmd.Flags().Lookup("output"))
}
