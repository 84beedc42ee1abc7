package cmd

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nguyenvanduocit/indictrans/pkg/api"
)

var Status = &cobra.Command{
	Use:   "status",
	Short: "Print model status as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := api.Build(cmd.Context(), cfg, nil, slog.Default())
		if err != nil {
			return err
		}
		defer app.Close()

		if load, _ := cmd.Flags().GetBool("load"); load {
			if err := app.Handler.Warm(cmd.Context()); err != nil {
				slog.Warn("Model failed to load", "error", err)
			}
		}

		env, err := app.Handler.Status()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(env)
	},
}

func init() {
	Status.Flags().Bool("load", false, "load the model before reporting")
}
