// Package cli provides the datavault command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/cli/commands"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datavault",
		Short: "Compile Data Vault 2.0 definitions into warehouse views",
		Long: `datavault compiles a declarative Data Vault 2.0 model (hubs, links,
satellites) into SQL view definitions with deterministic hash keys,
deduplication, and change detection, and optionally materializes them
against a warehouse.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./datavault.yaml)")
	rootCmd.PersistentFlags().String("vault-file", "", "Path to the vault definition file")
	rootCmd.PersistentFlags().String("dialect", "", "SQL dialect for generation (fabric, duckdb, postgres)")
	rootCmd.PersistentFlags().String("state-path", "", "Path to the run-history database")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"fabric", "duckdb", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		commands.NewBuildCommand(),
		commands.NewValidateCommand(),
		commands.NewRenderCommand(),
		commands.NewListCommand(),
		commands.NewDAGCommand(),
		commands.NewExportCommand(),
		commands.NewRunsCommand(),
		commands.NewVersionCommand(Version),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
