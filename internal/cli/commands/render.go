package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/generate"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "render <entity>",
		Short: "Print the generated SQL for a single entity",
		Long: `Render the staging and view SQL for one hub, link, or satellite without
touching the warehouse. Useful for inspecting what build would create.`,
		Example: `  datavault render customer
  datavault render customer_order --dialect duckdb`,
		Args: cobra.ExactArgs(1),
		RunE: runRender,
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, false)
	if err != nil {
		return err
	}
	defer eng.Close()

	graph := eng.Graph()
	entity, ok := graph.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown entity %q", args[0])
	}

	gen := generate.New(eng.Dialect())
	if entity.Kind != vault.KindSatellite {
		stageSQL, err := gen.StageSQL(graph, entity)
		if err != nil {
			return err
		}
		fmt.Printf("-- stage for %s\n%s\n\n", entity.Name(), stageSQL)
	}

	sql, err := gen.SQL(graph, entity)
	if err != nil {
		return err
	}
	fmt.Printf("-- %s\n%s\n", generate.ViewName(entity), sql)
	return nil
}
