package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fazza-abiyyu/exnest-ai-sdk-go/exnest"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the available models",
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().String("provider", "", "Only list models from this provider")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	var models []exnest.Model
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		models, err = client.ModelsByProvider(cmd.Context(), provider)
	} else {
		models, err = client.Models(cmd.Context())
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROVIDER\tCONTEXT\tACTIVE")
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\n", m.Name, m.Provider.Name, m.Limits.ContextWindow, m.IsActive)
	}
	return w.Flush()
}
