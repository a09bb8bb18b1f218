package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd(out io.Writer) *cobra.Command {
	var apiFlag string
	rootCmd := &cobra.Command{
		Use:           "pokemonctl",
		Short:         "CLI client for the Pokemon backend REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:4000", "Pokemon service base URL")

	client := func() *apiClient { return newAPIClient(apiFlag, out) }
	rootCmd.AddCommand(
		newListCmd(client),
		newGetCmd(client),
		newCreateCmd(client),
		newUpdateCmd(client),
		newDeleteCmd(client),
		newImportCmd(client),
	)
	rootCmd.SetOut(out)
	return rootCmd
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
