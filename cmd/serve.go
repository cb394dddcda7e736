package cmd

import (
	"context"

	"github.com/kwgn/pdfledger/api"
	"github.com/kwgn/pdfledger/integrations/gcs"
	"github.com/kwgn/pdfledger/ledger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Starts the HTTP API server that accepts statement PDFs and returns the
consolidated ledger. When storage.bucket is configured, POST /process runs the
bucket flow as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		format, err := ledger.ParseFormat(viper.GetString("api.format"))
		if err != nil {
			return err
		}

		cfg := api.DefaultConfig()
		if servePort != "" {
			cfg.Port = ":" + servePort
		}
		cfg.Engine = engine
		cfg.Ledger = ledgerOptions()
		cfg.DefaultFormat = format
		cfg.Logger = logger.With().Str("component", "server").Logger()

		if bucket := viper.GetString("storage.bucket"); bucket != "" {
			store, err := gcs.NewStore(context.Background(), bucket)
			if err != nil {
				return err
			}
			defer store.Close()
			cfg.Store = store
		}

		return api.New(cfg).Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&servePort, "port", "p", "8080", "Port to run the API server on")
	viper.SetDefault("api.format", string(ledger.FormatJSON))
}
