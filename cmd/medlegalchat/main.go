package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"MedLegalChat/internal/config"
)

var (
	// Global flags
	configFile string
	flagValues = config.Default()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "medlegalchat",
	Short: "Medical-Legal Assistant for Doctors in India",
	Long: `medlegalchat answers medical-legal questions for doctors practising in India,
citing Indian statutes, regulations and landmark cases. Consent forms or legal notices
(pdf, txt, docx) can be attached for analysis.

This is for informational purposes only, not legal advice.

Run without arguments to start the web interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "YAML config file")
	pf.StringVar(&flagValues.BaseURL, "base-url", flagValues.BaseURL, "OpenAI-compatible API base URL")
	pf.StringVar(&flagValues.Model, "model", flagValues.Model, "Chat completion model")
	pf.Float64Var(&flagValues.Temperature, "temperature", flagValues.Temperature, "Sampling temperature")
	pf.IntVar(&flagValues.MaxTokens, "max-tokens", flagValues.MaxTokens, "Maximum tokens per reply")
	pf.DurationVar(&flagValues.HTTPTimeout, "timeout", flagValues.HTTPTimeout, "Timeout for API requests")
	pf.StringVar(&flagValues.SaveDir, "save-dir", flagValues.SaveDir, "Directory for saved chat transcripts")
	pf.StringVar(&flagValues.LogDir, "log-dir", flagValues.LogDir, "Directory for logs, traces and metrics")
	pf.StringVar(&flagValues.AuditPath, "audit-db", flagValues.AuditPath, "SQLite completion audit database (empty disables)")
	pf.BoolVar(&flagValues.Debug, "debug", flagValues.Debug, "Enable debug logging")

	sf := serveCmd.Flags()
	sf.StringVar(&flagValues.Addr, "addr", flagValues.Addr, "Listen address")
	sf.StringVar(&flagValues.Store, "store", flagValues.Store, "Session store (memory|redis)")
	sf.StringVar(&flagValues.RedisAddr, "redis-addr", flagValues.RedisAddr, "Redis address for the redis store")
	sf.DurationVar(&flagValues.SessionTTL, "session-ttl", flagValues.SessionTTL, "Idle session lifetime in the redis store")
	sf.IntVar(&flagValues.RatePerMinute, "rate", flagValues.RatePerMinute, "Requests per minute per client (0 disables)")
	sf.IntVar(&flagValues.RateBurst, "burst", flagValues.RateBurst, "Request burst per client")
	rootCmd.Flags().AddFlagSet(sf)

	rootCmd.AddCommand(serveCmd, chatCmd)
}

// loadConfig layers defaults, the config file, explicitly set flags and the API key from the environment
func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		if err := config.LoadFile(configFile, &cfg); err != nil {
			return cfg, err
		}
	}

	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = flagValues.BaseURL
		case "model":
			cfg.Model = flagValues.Model
		case "temperature":
			cfg.Temperature = flagValues.Temperature
		case "max-tokens":
			cfg.MaxTokens = flagValues.MaxTokens
		case "timeout":
			cfg.HTTPTimeout = flagValues.HTTPTimeout
		case "save-dir":
			cfg.SaveDir = flagValues.SaveDir
		case "log-dir":
			cfg.LogDir = flagValues.LogDir
		case "audit-db":
			cfg.AuditPath = flagValues.AuditPath
		case "debug":
			cfg.Debug = flagValues.Debug
		case "addr":
			cfg.Addr = flagValues.Addr
		case "store":
			cfg.Store = flagValues.Store
		case "redis-addr":
			cfg.RedisAddr = flagValues.RedisAddr
		case "session-ttl":
			cfg.SessionTTL = flagValues.SessionTTL
		case "rate":
			cfg.RatePerMinute = flagValues.RatePerMinute
		case "burst":
			cfg.RateBurst = flagValues.RateBurst
		}
	})

	key, err := config.LoadAPIKey()
	if err != nil {
		return cfg, err
	}
	cfg.APIKey = key

	return cfg, cfg.Validate()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintln(os.Stderr, "Please set the OPENAI_API_KEY in your environment or .env file.")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
