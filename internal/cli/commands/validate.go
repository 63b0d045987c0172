package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/validate"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the vault definition without generating SQL",
		Long: `Check every hub, link, and satellite for structural problems: duplicate
names, dangling references, empty key sets, missing source columns. All
issues are reported in one pass.`,
		Example: `  datavault validate
  datavault validate --vault-file vault.yaml`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, false)
	if err != nil {
		return err
	}
	defer eng.Close()

	issues := validate.Check(eng.Graph())
	if len(issues) == 0 {
		fmt.Printf("✓ %d entities validated, no issues\n", eng.Graph().Len())
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Severity", "Entity", "Code", "Message"})
	for _, issue := range issues {
		t.AppendRow(table.Row{issue.Severity, issue.Entity, issue.Code, issue.Message})
	}
	t.Render()

	if blocking := validate.Blocking(issues); len(blocking) > 0 {
		return &vault.ValidationError{Issues: blocking}
	}
	return nil
}
