package cli

import (
	"errors"
	"fmt"
	"strings"

	"pzscript/internal/graph"
	"pzscript/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// runStore handles the `store` command.
func (a *app) runStore() error {
	ctx, cancel := setupContext()
	defer cancel()

	pool, err := initPostgres(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	st := store.New(pool, a.cfg.BatchSize)
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	res, _, err := a.scan(ctx)
	if err != nil {
		return err
	}

	runID, err := st.SaveRun(ctx, res)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	log.Info().
		Str("run_id", runID.String()).
		Int("items", len(res.Items)).
		Int("recipes", len(res.Recipes)).
		Int("errors", res.Errors()).
		Msg("Store complete")

	return nil
}

// runSimilar handles the `similar` command.
func (a *app) runSimilar(cmd *cobra.Command, identity string, k int) error {
	ctx, cancel := setupContext()
	defer cancel()

	pool, err := initPostgres(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	matches, err := store.New(pool, a.cfg.BatchSize).Similar(ctx, identity, k)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s is not part of the latest stored run", identity)
	}
	if err != nil {
		return fmt.Errorf("find similar definitions: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, m := range matches {
		fmt.Fprintf(out, "%.4f  %-6s  %s  (%s)\n", m.Distance, m.Kind, m.Identity, m.FilePath)
	}
	return nil
}

// runGraph handles the `graph` command.
func (a *app) runGraph() error {
	ctx, cancel := setupContext()
	defer cancel()

	driver, err := initNeo4j(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	builder := graph.NewGraphBuilder(driver)
	if err := builder.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}

	res, _, err := a.scan(ctx)
	if err != nil {
		return err
	}

	plan := graph.BuildPlan(res.Items, res.Recipes)
	if err := builder.Write(ctx, plan); err != nil {
		return fmt.Errorf("write crafting graph: %w", err)
	}

	log.Info().
		Int("recipes", len(plan.Recipes)).
		Int("definitions", len(plan.Definitions)).
		Int("consumes", len(plan.Consumes)).
		Int("produces", len(plan.Produces)).
		Msg("Crafting graph loaded")

	return nil
}

// runUses handles the `uses` command.
func (a *app) runUses(cmd *cobra.Command, itemID string) error {
	ctx, cancel := setupContext()
	defer cancel()

	driver, err := initNeo4j(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	usage, err := graph.NewGraphQuerier(driver).Uses(ctx, strings.ToLower(itemID))
	if err != nil {
		return fmt.Errorf("query item usage: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", usage.ItemID)
	fmt.Fprintf(out, "consumed by (%d):\n", len(usage.Consumers))
	for _, r := range usage.Consumers {
		mode := ""
		if r.Mode != "" {
			mode = " mode:" + r.Mode
		}
		fmt.Fprintf(out, "  %g x  %s%s  (%s:%d)\n", r.Count, r.Identity, mode, r.FilePath, r.Line)
	}
	fmt.Fprintf(out, "produced by (%d):\n", len(usage.Producers))
	for _, r := range usage.Producers {
		fmt.Fprintf(out, "  %g x  %s  (%s:%d)\n", r.Count, r.Identity, r.FilePath, r.Line)
	}
	return nil
}
