package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// RecipeRef is a recipe touching an item.
type RecipeRef struct {
	Identity string
	FilePath string
	Line     int64
	Name     string
	Count    float64
	Mode     string
}

// Usage lists the recipes consuming and producing one item.
type Usage struct {
	ItemID    string
	Consumers []RecipeRef
	Producers []RecipeRef
}

// GraphQuerier reads the crafting graph.
type GraphQuerier struct {
	driver neo4j.DriverWithContext
}

// NewGraphQuerier creates a new graph querier.
func NewGraphQuerier(driver neo4j.DriverWithContext) *GraphQuerier {
	return &GraphQuerier{driver: driver}
}

// Uses returns the recipes that consume or produce itemID.
func (gq *GraphQuerier) Uses(ctx context.Context, itemID string) (*Usage, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	usage := &Usage{ItemID: itemID}

	consumers, err := gq.recipes(ctx, session, `
		MATCH (r:Recipe)-[e:CONSUMES]->(:Item {id: $item})
		RETURN r.identity AS identity, r.file AS file, r.line AS line, r.name AS name, e.count AS count, e.mode AS mode
		ORDER BY identity, file, line, e.slot
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query consumers: %w", err)
	}
	usage.Consumers = consumers

	producers, err := gq.recipes(ctx, session, `
		MATCH (r:Recipe)-[e:PRODUCES]->(:Item {id: $item})
		RETURN r.identity AS identity, r.file AS file, r.line AS line, r.name AS name, e.count AS count, null AS mode
		ORDER BY identity, file, line, e.slot
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query producers: %w", err)
	}
	usage.Producers = producers

	log.Debug().
		Str("item", itemID).
		Int("consumers", len(usage.Consumers)).
		Int("producers", len(usage.Producers)).
		Msg("Graph query complete")
	return usage, nil
}

func (gq *GraphQuerier) recipes(ctx context.Context, session neo4j.SessionWithContext, query, itemID string) ([]RecipeRef, error) {
	result, err := session.Run(ctx, query, map[string]any{"item": itemID})
	if err != nil {
		return nil, err
	}

	var refs []RecipeRef
	for result.Next(ctx) {
		record := result.Record()
		identity, _ := record.Get("identity")
		file, _ := record.Get("file")
		line, _ := record.Get("line")
		name, _ := record.Get("name")
		count, _ := record.Get("count")
		mode, _ := record.Get("mode")

		ref := RecipeRef{
			Identity: fmt.Sprintf("%v", identity),
			FilePath: fmt.Sprintf("%v", file),
			Name:     fmt.Sprintf("%v", name),
		}
		if l, ok := line.(int64); ok {
			ref.Line = l
		}
		if c, ok := count.(float64); ok {
			ref.Count = c
		}
		if m, ok := mode.(string); ok {
			ref.Mode = m
		}
		refs = append(refs, ref)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}
