package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kwgn/pdfledger/extractor"
	"github.com/kwgn/pdfledger/extractor/pdflayout"
	"github.com/kwgn/pdfledger/ledger"
	"github.com/kwgn/pdfledger/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Embedded default configuration, used when no .pdfledger.yaml is found
const defaultConfigYAML = `
routes:
  - token: axis
    dialect: axis
    card: Axis Credit Card
  - token: hdfc_cc
    dialect: hdfc_credit
    card: HDFC Credit Card
  - token: regalia
    dialect: hdfc_credit
    card: HDFC Regalia
  - token: millennia
    dialect: hdfc_credit
    card: HDFC Millennia
  - token: moneyback
    dialect: hdfc_credit
    card: HDFC MoneyBack
  - token: savings
    dialect: hdfc_savings
    card: HDFC Savings
  - token: acct
    dialect: hdfc_savings
    card: HDFC Savings
ledger:
  currency: INR
  narration_width: 60
output:
  format: xlsx
storage:
  bucket: ""
  prefix: statements/
  output_object: ""
unidoc:
  # required for table detection; axis and hdfc_credit statements fail without it
  license_key: ""
database:
  url: ""`

var (
	cfgFile string
	verbose bool
	logger  = zerolog.Nop()
	rootCmd = &cobra.Command{
		Use:   "pdfledger [file or folder]",
		Short: "Turn bank statement PDFs into one ledger",
		Long: `pdfledger extracts line items from Axis and HDFC statement PDFs and
consolidates them into a single date-ordered ledger.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				viper.Set("target", args[0])
				return runExtract(extractCmd, nil)
			}
			return cmd.Help()
		},
		SilenceUsage: true,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.pdfledger.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	logger = logging.New(verbose)
}

func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".pdfledger")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("output.format", string(ledger.FormatXLSX))
	viper.SetDefault("ledger.currency", ledger.DefaultCurrency)
	viper.SetDefault("ledger.narration_width", ledger.DefaultNarrationWidth)
	viper.SetDefault("storage.prefix", "statements/")

	viper.SetEnvPrefix("PDFLEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			viper.SetConfigType("yaml")
			if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
				fmt.Fprintf(os.Stderr, "Error loading embedded configuration: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// newEngine builds the extraction engine from the loaded configuration.
func newEngine() (*extractor.Engine, error) {
	routes, err := extractor.LoadRoutes()
	if err != nil {
		return nil, err
	}
	return &extractor.Engine{
		Routes: routes,
		Decoder: &pdflayout.Reader{
			LicenseKey: viper.GetString("unidoc.license_key"),
			Logger:     logger,
		},
		Logger: logger,
	}, nil
}

func ledgerOptions() ledger.Options {
	opts := ledger.DefaultOptions()
	if c := viper.GetString("ledger.currency"); c != "" {
		opts.Currency = c
	}
	if w := viper.GetInt("ledger.narration_width"); w > 0 {
		opts.NarrationWidth = w
	}
	return opts
}
