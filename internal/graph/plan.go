package graph

import (
	"strings"

	"pzscript/internal/parser"
)

// Ref locates one definition. Identities may collide across files, so a
// vertex is keyed by identity, file and header line together.
type Ref struct {
	Identity  string
	FilePath  string
	StartLine int
}

func refOf(b *parser.Block) Ref {
	return Ref{Identity: b.Identity(), FilePath: b.FilePath, StartLine: b.StartLine}
}

// RecipeNode is a recipe vertex.
type RecipeNode struct {
	Ref
	Name   string
	Module string
}

// Definition links an item definition to the item id recipes refer to.
type Definition struct {
	Ref
	ItemID string
	Name   string
}

// SlotEdge connects a recipe to an item it consumes or produces. Slot is the
// position of the slot in the recipe's inputs or outputs.
type SlotEdge struct {
	Recipe Ref
	Slot   int
	ItemID string
	Count  float64
	Mode   string
}

// NameEdge connects a recipe to a tag or mapper by name.
type NameEdge struct {
	Recipe Ref
	Name   string
}

// Plan is the full set of vertices and edges derived from one pass.
type Plan struct {
	Recipes     []RecipeNode
	Definitions []Definition
	Consumes    []SlotEdge
	Produces    []SlotEdge
	Tags        []NameEdge
	Mappers     []NameEdge
}

// ItemID is the id recipes use for an item: "module.name", lower-cased.
func ItemID(module, name string) string {
	return strings.ToLower(module + "." + name)
}

// BuildPlan derives the crafting graph. An output slot that names no item but
// references an item mapper produces every item the mapper maps to.
func BuildPlan(items, recipes []*parser.Block) *Plan {
	p := &Plan{}
	for _, b := range items {
		p.Definitions = append(p.Definitions, Definition{
			Ref:    refOf(b),
			ItemID: ItemID(b.Module, b.Name),
			Name:   b.Name,
		})
	}

	for _, r := range recipes {
		ref := refOf(r)
		p.Recipes = append(p.Recipes, RecipeNode{Ref: ref, Name: r.Name, Module: r.Module})

		seen := make(map[string]bool)
		useMapper := func(name string) {
			if name == "" || seen[name] {
				return
			}
			seen[name] = true
			p.Mappers = append(p.Mappers, NameEdge{Recipe: ref, Name: name})
		}

		for slot, s := range r.Inputs {
			for _, it := range s.Items {
				p.Consumes = append(p.Consumes, SlotEdge{Recipe: ref, Slot: slot, ItemID: it, Count: s.Count, Mode: s.Mode})
			}
			for _, tag := range s.Tags {
				p.Tags = append(p.Tags, NameEdge{Recipe: ref, Name: tag})
			}
			useMapper(s.Mapper)
		}
		for slot, s := range r.Outputs {
			products := s.Items
			if len(products) == 0 && s.Mapper != "" {
				products = mapperKeys(r.Mappers, s.Mapper)
			}
			for _, it := range products {
				p.Produces = append(p.Produces, SlotEdge{Recipe: ref, Slot: slot, ItemID: it, Count: s.Count})
			}
			useMapper(s.Mapper)
		}
		for _, m := range r.Mappers {
			useMapper(m.Name)
		}
	}
	return p
}

func mapperKeys(mappers []parser.ItemMapper, name string) []string {
	for _, m := range mappers {
		if m.Name != name {
			continue
		}
		keys := make([]string, 0, len(m.Mappings))
		for _, mp := range m.Mappings {
			keys = append(keys, mp.Key)
		}
		return keys
	}
	return nil
}
