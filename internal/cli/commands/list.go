package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/generate"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the entities in the vault definition",
		Example: `  datavault list`,
		RunE:    runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, false)
	if err != nil {
		return err
	}
	defer eng.Close()

	entities := eng.Graph().Entities()
	if len(entities) == 0 {
		fmt.Println("No entities defined")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Kind", "Name", "Schema", "View", "Detail"})
	for _, e := range entities {
		t.AppendRow(table.Row{e.Kind, e.Name(), e.Schema(), generate.ViewName(e), entityDetail(e)})
	}
	t.Render()
	fmt.Printf("%d entities\n", len(entities))
	return nil
}

func entityDetail(e vault.Entity) string {
	switch e.Kind {
	case vault.KindHub:
		return "keys: " + strings.Join(e.Hub.BusinessKeys, ", ")
	case vault.KindLink:
		return "hubs: " + strings.Join(e.Link.Hubs(), ", ")
	case vault.KindSatellite:
		mode := "exclude"
		if e.Satellite.Include {
			mode = "include"
		}
		return fmt.Sprintf("parent: %s (%s %s)", e.Satellite.Parent, mode, strings.Join(e.Satellite.Columns, ", "))
	}
	return ""
}
