package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Write the vault definition to a YAML file",
		Long: `Serialize the current vault definition to YAML. Exporting and
re-importing a definition produces identical SQL, so export is safe for
moving a model between projects or checking it into version control.`,
		Example: `  datavault export vault.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE:    runExport,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, false)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.ExportConfig(args[0]); err != nil {
		return err
	}
	fmt.Printf("Exported %d entities to %s\n", eng.Graph().Len(), args[0])
	return nil
}
