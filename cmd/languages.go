package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nguyenvanduocit/indictrans/pkg/languages"
)

var Languages = &cobra.Command{
	Use:   "languages",
	Short: "List supported language codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tLANGUAGE")
		for _, lang := range languages.All() {
			fmt.Fprintf(w, "%s\t%s\n", lang.Code, lang.Name)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d languages\n", languages.Len())
		return nil
	},
}
