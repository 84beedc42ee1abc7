package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nguyenvanduocit/indictrans/pkg/config"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var Root = &cobra.Command{
	Use:           "indictrans",
	Short:         "Translate between English and 21 Indian languages with IndicTrans2",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(newLogger(cfg.Log))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	Root.PersistentFlags().String("config", "", "config file (yaml, toml or json)")

	Root.AddCommand(Serve)
	Root.AddCommand(Translate)
	Root.AddCommand(Languages)
	Root.AddCommand(Status)
	Root.AddCommand(History)
}

func newLogger(c config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Level))); err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", c.Level)
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
