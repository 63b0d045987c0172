package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dag",
		Short: "Print the entity dependency order",
		Long: `Print the entities in construction order: hubs first, then the links
that reference them, then satellites after their parents. Each line shows
what the entity depends on.`,
		Example: `  datavault dag`,
		RunE:    runDAG,
	}
}

func runDAG(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, false)
	if err != nil {
		return err
	}
	defer eng.Close()

	order, err := eng.BuildOrder()
	if err != nil {
		return err
	}
	if len(order) == 0 {
		fmt.Println("No entities defined")
		return nil
	}

	for i, e := range order {
		deps := entityDeps(eng.Graph(), e)
		if len(deps) == 0 {
			fmt.Printf("%2d. %s (%s)\n", i+1, e.Name(), e.Kind)
			continue
		}
		fmt.Printf("%2d. %s (%s) <- %s\n", i+1, e.Name(), e.Kind, strings.Join(deps, ", "))
	}
	return nil
}

// entityDeps lists the names an entity is built after.
func entityDeps(g *vault.Graph, e vault.Entity) []string {
	switch e.Kind {
	case vault.KindLink:
		return e.Link.Hubs()
	case vault.KindSatellite:
		return []string{e.Satellite.Parent}
	}
	return nil
}
