package graph

import (
	"context"
	"fmt"

	"pzscript/internal/worker"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// writeBatch is the number of rows sent per UNWIND statement.
const writeBatch = 1000

// GraphBuilder writes the crafting graph to Neo4j.
type GraphBuilder struct {
	driver neo4j.DriverWithContext
}

// NewGraphBuilder creates a new graph builder.
func NewGraphBuilder(driver neo4j.DriverWithContext) *GraphBuilder {
	return &GraphBuilder{driver: driver}
}

// EnsureSchema creates indexes and constraints on the Neo4j database.
// Recipe and ItemDef vertices are not unique by identity alone, so they get
// composite lookup indexes instead of uniqueness constraints.
func (gb *GraphBuilder) EnsureSchema(ctx context.Context) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	schema := []string{
		"CREATE INDEX recipe_ref IF NOT EXISTS FOR (r:Recipe) ON (r.identity, r.file, r.line)",
		"CREATE INDEX itemdef_ref IF NOT EXISTS FOR (d:ItemDef) ON (d.identity, d.file, d.line)",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (i:Item) REQUIRE i.id IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Tag) REQUIRE t.name IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (m:Mapper) REQUIRE m.name IS UNIQUE",
	}

	for _, q := range schema {
		if _, err := session.Run(ctx, q, nil); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

type statement struct {
	name  string
	query string
	rows  []map[string]any
}

// Write merges every vertex and edge of the plan.
func (gb *GraphBuilder) Write(ctx context.Context, p *Plan) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	for _, st := range statements(p) {
		for _, batch := range worker.Batch(st.rows, writeBatch) {
			if _, err := session.Run(ctx, st.query, map[string]any{"rows": batch}); err != nil {
				return fmt.Errorf("write %s: %w", st.name, err)
			}
		}
		log.Info().Int("rows", len(st.rows)).Str("kind", st.name).Msg("Wrote graph rows")
	}
	return nil
}

// statements maps the plan to UNWIND statements, vertices before edges.
func statements(p *Plan) []statement {
	recipes := make([]map[string]any, 0, len(p.Recipes))
	for _, r := range p.Recipes {
		row := refRow(r.Ref)
		row["name"] = r.Name
		row["module"] = r.Module
		recipes = append(recipes, row)
	}
	defs := make([]map[string]any, 0, len(p.Definitions))
	for _, d := range p.Definitions {
		row := refRow(d.Ref)
		row["item"] = d.ItemID
		row["name"] = d.Name
		defs = append(defs, row)
	}

	return []statement{
		{
			name: "recipes",
			query: `
				UNWIND $rows AS row
				MERGE (r:Recipe {identity: row.identity, file: row.file, line: row.line})
				SET r.name = row.name, r.module = row.module`,
			rows: recipes,
		},
		{
			name: "definitions",
			query: `
				UNWIND $rows AS row
				MERGE (d:ItemDef {identity: row.identity, file: row.file, line: row.line})
				SET d.name = row.name
				MERGE (i:Item {id: row.item})
				MERGE (d)-[:DEFINES]->(i)`,
			rows: defs,
		},
		{
			name: "consumes",
			query: `
				UNWIND $rows AS row
				MATCH (r:Recipe {identity: row.identity, file: row.file, line: row.line})
				MERGE (i:Item {id: row.item})
				MERGE (r)-[e:CONSUMES {slot: row.slot}]->(i)
				SET e.count = row.count, e.mode = row.mode`,
			rows: slotRows(p.Consumes),
		},
		{
			name: "produces",
			query: `
				UNWIND $rows AS row
				MATCH (r:Recipe {identity: row.identity, file: row.file, line: row.line})
				MERGE (i:Item {id: row.item})
				MERGE (r)-[e:PRODUCES {slot: row.slot}]->(i)
				SET e.count = row.count`,
			rows: slotRows(p.Produces),
		},
		{
			name: "tags",
			query: `
				UNWIND $rows AS row
				MATCH (r:Recipe {identity: row.identity, file: row.file, line: row.line})
				MERGE (t:Tag {name: row.name})
				MERGE (r)-[:REQUIRES_TAG]->(t)`,
			rows: nameRows(p.Tags),
		},
		{
			name: "mappers",
			query: `
				UNWIND $rows AS row
				MATCH (r:Recipe {identity: row.identity, file: row.file, line: row.line})
				MERGE (m:Mapper {name: row.name})
				MERGE (r)-[:USES_MAPPER]->(m)`,
			rows: nameRows(p.Mappers),
		},
	}
}

func refRow(ref Ref) map[string]any {
	return map[string]any{"identity": ref.Identity, "file": ref.FilePath, "line": ref.StartLine}
}

// slotRows keeps one row per slot and item; a slot edge is keyed by its
// position, so two slots naming the same item stay separate edges.
func slotRows(edges []SlotEdge) []map[string]any {
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		row := refRow(e.Recipe)
		row["slot"] = e.Slot
		row["item"] = e.ItemID
		row["count"] = e.Count
		row["mode"] = nil
		if e.Mode != "" {
			row["mode"] = e.Mode
		}
		rows = append(rows, row)
	}
	return rows
}

func nameRows(edges []NameEdge) []map[string]any {
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		row := refRow(e.Recipe)
		row["name"] = e.Name
		rows = append(rows, row)
	}
	return rows
}
