package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/engine"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	Execute bool
	Force   bool
	Select  []string
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate vault SQL, optionally materializing it",
		Long: `Validate the vault definition, generate staging and view SQL for every
hub, link, and satellite in dependency order, and optionally execute the
statements against the configured target.

Without --execute this is a dry run: nothing touches the warehouse and the
generated SQL is printed. With --execute each entity is materialized in
order; a failure leaves earlier entities in place and skips the rest.`,
		Example: `  # Dry run: validate and print SQL
  datavault build

  # Materialize against the configured target
  datavault build --execute

  # Generate what can be generated despite blocking issues
  datavault build --force

  # Build one satellite and everything it depends on
  datavault build --select sat_customer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "Execute generated SQL against the target warehouse")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Downgrade blocking validation issues to warnings and generate anyway")
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "Restrict the build to these entities and their dependencies")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *BuildOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, opts.Execute)
	if err != nil {
		return err
	}
	defer eng.Close()

	start := time.Now()
	result, err := eng.Construct(cmd.Context(), engine.Options{
		Execute: opts.Execute,
		Verbose: cfg.Verbose || !opts.Execute,
		Force:   opts.Force,
		Select:  opts.Select,
	})
	if result != nil {
		printIssues(result.Issues)
	}
	if err != nil {
		var verr *vault.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("validation failed with %d blocking issue(s)", len(verr.Issues))
		}
		return err
	}

	for _, er := range result.Entities {
		fmt.Printf("%s %s %s (%s)\n", statusIcon(er.Status), er.Kind, er.Name, er.Status)
		if er.Err != nil {
			fmt.Printf("  error: %v\n", er.Err)
		}
		if !opts.Execute || cfg.Verbose {
			if er.StageSQL != "" {
				fmt.Printf("\n-- stage for %s\n%s\n", er.Name, er.StageSQL)
			}
			if er.SQL != "" {
				fmt.Printf("\n-- %s\n%s\n", er.View, er.SQL)
			}
		}
	}

	verb := "generated"
	if opts.Execute {
		verb = "executed"
	}
	fmt.Printf("\n%d of %d entities %s in %s\n",
		len(result.Succeeded()), len(result.Entities), verb, time.Since(start).Round(time.Millisecond))
	if result.RunID != "" {
		fmt.Printf("run: %s\n", result.RunID)
	}

	for _, er := range result.Entities {
		if er.Status == engine.StatusFailed {
			return fmt.Errorf("build failed")
		}
	}
	return nil
}

func statusIcon(s engine.EntityStatus) string {
	switch s {
	case engine.StatusGenerated, engine.StatusExecuted:
		return "✓"
	case engine.StatusFailed:
		return "✗"
	case engine.StatusSkipped:
		return "-"
	default:
		return "?"
	}
}

func printIssues(issues []vault.Issue) {
	for _, issue := range issues {
		fmt.Printf("[%s] %s: %s (%s)\n", issue.Severity, issue.Entity, issue.Message, issue.Code)
	}
}
