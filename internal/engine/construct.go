package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/dag"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/generate"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/state"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/validate"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// Options controls one Construct call. The zero value is the
// conservative default: dry run, quiet, no forcing.
type Options struct {
	// Execute hands generated SQL to the warehouse adapter. False
	// performs validation and generation only.
	Execute bool

	// Verbose includes generated SQL in the result even when executing.
	// Dry runs always carry the SQL.
	Verbose bool

	// Force downgrades blocking validation issues to warnings and
	// attempts generation entity by entity. Execution failures are never
	// suppressed.
	Force bool

	// Select restricts construction to the named entities plus their
	// transitive dependencies. Empty means the whole graph. A name not
	// registered in the graph is an error.
	Select []string
}

// EntityStatus is the per-entity outcome of a construction call.
type EntityStatus string

const (
	// StatusGenerated means SQL was produced (dry run or pre-execution).
	StatusGenerated EntityStatus = "generated"
	// StatusExecuted means the warehouse materialized the entity.
	StatusExecuted EntityStatus = "executed"
	// StatusFailed means generation or execution failed for this entity.
	StatusFailed EntityStatus = "failed"
	// StatusSkipped means an earlier entity's failure prevented the attempt.
	StatusSkipped EntityStatus = "skipped"
)

// EntityResult is the outcome for one entity, in build order.
type EntityResult struct {
	Name     string
	Kind     vault.Kind
	View     string
	StageSQL string // staging SELECT; empty for satellites
	SQL      string // vault view SELECT
	Status   EntityStatus
	Err      error
}

// Result enumerates everything a construction call did.
type Result struct {
	RunID    string
	Issues   []vault.Issue
	Entities []EntityResult
}

// Succeeded returns the names of entities that were generated or executed.
func (r *Result) Succeeded() []string {
	var names []string
	for _, er := range r.Entities {
		if er.Status == StatusGenerated || er.Status == StatusExecuted {
			names = append(names, er.Name)
		}
	}
	return names
}

// Construct runs the validate, generate, execute pipeline over the whole
// graph in dependency order.
//
// Without Force, any blocking validation issue aborts before a single
// statement is generated and the returned error carries the complete issue
// batch. With Force, blocking issues are downgraded to warnings and
// generation proceeds entity by entity; entities that cannot generate are
// reported failed while the rest still produce SQL.
//
// Execution is synchronous and entity by entity: a failure partway leaves
// earlier entities materialized and later ones skipped, and the result
// reports exactly which. There is no rollback.
func (e *Engine) Construct(ctx context.Context, opts Options) (*Result, error) {
	e.logger.Info("starting vault construction",
		"entities", e.graph.Len(), "execute", opts.Execute, "force", opts.Force)

	issues := validate.Check(e.graph)
	blocking := validate.Blocking(issues)
	if len(blocking) > 0 {
		if !opts.Force {
			e.logger.Error("validation failed", "blocking", len(blocking))
			return &Result{Issues: issues}, &vault.ValidationError{Issues: blocking}
		}
		e.logger.Warn("forcing past blocking validation issues", "blocking", len(blocking))
		issues = validate.Downgrade(issues)
	}

	order, err := e.selectOrder(opts.Select)
	if err != nil {
		return &Result{Issues: issues}, err
	}

	result := &Result{Issues: issues}

	// Generation phase: pure, no side effects yet.
	var generated []EntityResult
	for _, entity := range order {
		er := e.generateEntity(entity)
		if er.Err != nil {
			if !opts.Force {
				result.Entities = append(result.Entities, er)
				return result, er.Err
			}
			e.logger.Warn("generation failed, continuing under force",
				"entity", er.Name, "error", er.Err)
		}
		generated = append(generated, er)
	}

	if !opts.Execute {
		result.Entities = generated
		e.logger.Info("dry run complete", "entities", len(generated))
		return result, nil
	}

	return e.execute(ctx, result, generated, opts)
}

// generateEntity renders the staging and view SQL for one entity.
func (e *Engine) generateEntity(entity vault.Entity) EntityResult {
	er := EntityResult{
		Name:   entity.Name(),
		Kind:   entity.Kind,
		View:   generate.ViewName(entity),
		Status: StatusGenerated,
	}

	if entity.Kind != vault.KindSatellite {
		stageSQL, err := e.gen.StageSQL(e.graph, entity)
		if err != nil {
			er.Status = StatusFailed
			er.Err = err
			return er
		}
		er.StageSQL = stageSQL
	}

	sql, err := e.gen.SQL(e.graph, entity)
	if err != nil {
		er.Status = StatusFailed
		er.Err = err
		return er
	}
	er.SQL = sql
	return er
}

// BuildOrder returns the entities in construction order without
// validating or generating anything.
func (e *Engine) BuildOrder() ([]vault.Entity, error) {
	return e.buildOrder()
}

// buildOrder resolves the construction order for the whole graph.
func (e *Engine) buildOrder() ([]vault.Entity, error) {
	g, err := e.entityDAG()
	if err != nil {
		return nil, err
	}
	return g.Sort()
}

// selectOrder resolves the construction order, restricted to the given
// entities and their transitive dependencies when names are provided.
func (e *Engine) selectOrder(names []string) ([]vault.Entity, error) {
	if len(names) == 0 {
		return e.buildOrder()
	}
	g, err := e.entityDAG()
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool)
	var mark func(name string)
	mark = func(name string) {
		if keep[name] {
			return
		}
		keep[name] = true
		for _, parent := range g.Parents(name) {
			mark(parent)
		}
	}
	for _, name := range names {
		if _, ok := e.graph.Get(name); !ok {
			return nil, fmt.Errorf("unknown entity %q in selection", name)
		}
		mark(name)
	}

	kept := make([]string, 0, len(keep))
	for name := range keep {
		kept = append(kept, name)
	}
	return g.Subgraph(kept).Sort()
}

// entityDAG builds the dependency graph: hubs before links that
// reference them, hubs and links before their satellites. Each entity's
// stage is emitted within its own step, so staging always precedes the
// view that reads it. Unresolvable references were already surfaced by
// validation; edges to missing entities are simply not added here.
func (e *Engine) entityDAG() (*dag.Graph, error) {
	g := dag.New()
	for _, entity := range e.graph.Entities() {
		g.Add(entity)
	}
	for _, entity := range e.graph.Entities() {
		switch entity.Kind {
		case vault.KindLink:
			for _, hub := range entity.Link.Hubs() {
				if _, ok := e.graph.Hub(hub); ok {
					if err := g.Depend(hub, entity.Link.Name); err != nil {
						return nil, err
					}
				}
			}
		case vault.KindSatellite:
			if parent, ok := e.graph.Get(entity.Satellite.Parent); ok && parent.Kind != vault.KindSatellite {
				if err := g.Depend(parent.Name(), entity.Satellite.Name); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

// execute materializes generated entities in build order, recording
// per-entity outcomes. The first failure skips everything after it.
func (e *Engine) execute(ctx context.Context, result *Result, generated []EntityResult, opts Options) (*Result, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		result.Entities = generated
		return result, err
	}

	// The adapter may have switched the dialect; regenerate so executed
	// SQL matches the warehouse.
	for i := range generated {
		if generated[i].Err == nil {
			entity, _ := e.graph.Get(generated[i].Name)
			generated[i] = e.generateEntity(entity)
		}
	}

	var run *state.Run
	if e.store != nil {
		var err error
		run, err = e.store.CreateRun(e.dialect.Name)
		if err != nil {
			result.Entities = generated
			return result, fmt.Errorf("failed to create run: %w", err)
		}
		result.RunID = run.ID
	}

	var execErr error
	for i := range generated {
		er := &generated[i]

		if execErr != nil || er.Err != nil {
			if er.Err == nil {
				er.Status = StatusSkipped
			}
			e.recordEntity(run, i, *er, 0)
			continue
		}

		start := time.Now()
		err := e.materialize(ctx, er)
		elapsed := time.Since(start).Milliseconds()

		if err != nil {
			er.Status = StatusFailed
			er.Err = &vault.ExecutionError{Entity: er.Name, Err: err}
			execErr = er.Err
			e.logger.Error("entity execution failed", "entity", er.Name, "error", err)
		} else {
			er.Status = StatusExecuted
			e.logger.Debug("entity executed", "entity", er.Name, "view", er.View, "exec_ms", elapsed)
		}
		e.recordEntity(run, i, *er, elapsed)
	}

	if !opts.Verbose {
		for i := range generated {
			generated[i].SQL = ""
			generated[i].StageSQL = ""
		}
	}
	result.Entities = generated

	if run != nil {
		if execErr != nil {
			_ = e.store.CompleteRun(run.ID, state.RunStatusFailed, execErr.Error())
		} else {
			_ = e.store.CompleteRun(run.ID, state.RunStatusCompleted, "")
		}
	}

	if execErr != nil {
		e.logger.Info("construction failed", "succeeded", len(result.Succeeded()))
		return result, execErr
	}
	e.logger.Info("construction completed", "entities", len(generated))
	return result, nil
}

// materialize creates the staging view (when the entity has one) and the
// vault view, replacing previous versions so reconstruction is idempotent.
func (e *Engine) materialize(ctx context.Context, er *EntityResult) error {
	entity, ok := e.graph.Get(er.Name)
	if !ok {
		return fmt.Errorf("entity %q disappeared from graph", er.Name)
	}
	schema := entity.Schema()

	if schema != "" {
		if err := e.db.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
			return err
		}
	}

	if er.StageSQL != "" {
		stage := stageTarget(entity)
		if stageSchema, _, found := strings.Cut(stage, "."); found && stageSchema != schema {
			if err := e.db.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", stageSchema)); err != nil {
				return err
			}
		}
		if err := e.replaceView(ctx, stage, er.StageSQL); err != nil {
			return fmt.Errorf("staging view %s: %w", stage, err)
		}
	}

	view := er.View
	if schema != "" {
		view = schema + "." + view
	}
	return e.replaceView(ctx, view, er.SQL)
}

func (e *Engine) replaceView(ctx context.Context, name, selectSQL string) error {
	if err := e.db.Exec(ctx, fmt.Sprintf("DROP VIEW IF EXISTS %s", name)); err != nil {
		return err
	}
	return e.db.Exec(ctx, fmt.Sprintf("CREATE VIEW %s AS\n%s", name, selectSQL))
}

// stageTarget returns the qualified staging relation name for an entity.
func stageTarget(entity vault.Entity) string {
	var schema string
	switch entity.Kind {
	case vault.KindHub:
		schema = entity.Hub.Schema
	case vault.KindLink:
		schema = entity.Link.StageSchema
		if schema == "" {
			schema = entity.Link.Schema
		}
	}
	name := generate.StageTable(entity.Name())
	if schema == "" {
		return name
	}
	return strings.Join([]string{schema, name}, ".")
}

func (e *Engine) recordEntity(run *state.Run, position int, er EntityResult, elapsed int64) {
	if run == nil {
		return
	}
	errMsg := ""
	if er.Err != nil {
		errMsg = er.Err.Error()
	}
	_ = e.store.RecordEntityRun(&state.EntityRun{
		RunID:       run.ID,
		Entity:      er.Name,
		Kind:        string(er.Kind),
		Status:      entityRunStatus(er.Status),
		Position:    position,
		Error:       errMsg,
		ExecutionMS: elapsed,
	})
}

func entityRunStatus(s EntityStatus) state.EntityStatus {
	switch s {
	case StatusExecuted:
		return state.EntityStatusSuccess
	case StatusFailed:
		return state.EntityStatusFailed
	case StatusSkipped:
		return state.EntityStatusSkipped
	}
	return state.EntityStatusPending
}
