package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cardlens/cardlens/internal/config"
)

func NewRootCmd() *cobra.Command {
	var configPath string
	var verbose bool
	var cfg *config.Config

	loadConfig := func() (*config.Config, error) {
		if cfg != nil {
			return cfg, nil
		}
		return config.Load(configPath)
	}

	cmd := &cobra.Command{
		Use:   "cardlens",
		Short: "Identify trading cards shown in video frames",
		Long: `cardlens reads the card name under a pointer position in a video frame with a
vision OCR model and resolves it through the Scryfall card database.

It can run as an HTTP service for browser overlays, identify single frames
from the command line, and evaluate identification accuracy on a dataset.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if verbose {
				loaded.Log.Level = "debug"
			}
			cfg = loaded
			setupLogger(cfg)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newServeCmd(loadConfig))
	cmd.AddCommand(newIdentifyCmd(loadConfig))
	cmd.AddCommand(newLookupCmd(loadConfig))
	cmd.AddCommand(newEvalCmd(loadConfig))

	return cmd
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
