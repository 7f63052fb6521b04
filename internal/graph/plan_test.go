package graph

import (
	"testing"

	"pzscript/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipes = `module Base
{
	craftRecipe SawLogs
	{
		inputs
		{
			item 1 [Base.Log] mapper:plankType,
			item 1 tags[Saw] mode:keep,
		}
		outputs
		{
			item 2 mapper:plankType,
		}
		itemMapper plankType
		{
			Base.Plank = Base.Log,
			Base.Twigs = Base.LargeBranch,
		}
	}
	item Plank
	{
		Weight = 1,
	}
}
`

func plan(t *testing.T) *Plan {
	t.Helper()
	res, err := parser.ParseString(parser.Source{SourceTag: "BASE", ModTag: "BaseGame", FilePath: "a.txt"}, recipes, parser.Options{})
	require.NoError(t, err)
	require.Len(t, res.Recipes, 1)
	require.Len(t, res.Items, 1)
	return BuildPlan(res.Items, res.Recipes)
}

func TestBuildPlan(t *testing.T) {
	p := plan(t)
	ref := Ref{Identity: "BASE.BaseGame.Base.SawLogs", FilePath: "a.txt", StartLine: 3}

	assert.Equal(t, []RecipeNode{{Ref: ref, Name: "SawLogs", Module: "Base"}}, p.Recipes)
	assert.Equal(t, []Definition{{
		Ref:    Ref{Identity: "BASE.BaseGame.Base.Plank", FilePath: "a.txt", StartLine: 20},
		ItemID: "base.plank",
		Name:   "Plank",
	}}, p.Definitions)
	assert.Equal(t, []SlotEdge{{Recipe: ref, Slot: 0, ItemID: "base.log", Count: 1}}, p.Consumes)
	assert.Equal(t, []NameEdge{{Recipe: ref, Name: "saw"}}, p.Tags)
	assert.Equal(t, []NameEdge{{Recipe: ref, Name: "planktype"}}, p.Mappers)
}

func TestBuildPlan_MapperOutputsExpand(t *testing.T) {
	p := plan(t)
	ref := Ref{Identity: "BASE.BaseGame.Base.SawLogs", FilePath: "a.txt", StartLine: 3}
	assert.Equal(t, []SlotEdge{
		{Recipe: ref, ItemID: "base.plank", Count: 2},
		{Recipe: ref, ItemID: "base.twigs", Count: 2},
	}, p.Produces)
}

const colliding = `module Base
{
	craftRecipe MakeNails
	{
		inputs
		{
			item 1 [Base.ScrapMetal],
			item 2 [Base.ScrapMetal],
		}
	}
	craftRecipe MakeNails
	{
		inputs
		{
			item 3 [Base.ScrapMetal],
		}
	}
}
`

func TestStatements_CollidingRecipesStayDistinct(t *testing.T) {
	a, err := parser.ParseString(parser.Source{SourceTag: "1", ModTag: "Mod", FilePath: "a.txt"}, colliding, parser.Options{})
	require.NoError(t, err)
	b, err := parser.ParseString(parser.Source{SourceTag: "1", ModTag: "Mod", FilePath: "b.txt"}, colliding, parser.Options{})
	require.NoError(t, err)

	p := BuildPlan(nil, append(a.Recipes, b.Recipes...))
	sts := statements(p)

	recipes := sts[0].rows
	require.Len(t, recipes, 4)
	keys := make(map[[3]any]bool)
	for _, row := range recipes {
		assert.Equal(t, "1.Mod.Base.MakeNails", row["identity"])
		keys[[3]any{row["identity"], row["file"], row["line"]}] = true
	}
	assert.Len(t, keys, 4, "every definition gets its own vertex key")
	assert.Contains(t, sts[0].query, "file: row.file, line: row.line")

	consumes := sts[2].rows
	require.Len(t, consumes, 6)
	assert.Equal(t, "a.txt", consumes[0]["file"])
	assert.Equal(t, 3, consumes[0]["line"])
	assert.Equal(t, 0, consumes[0]["slot"])
	assert.Equal(t, 1.0, consumes[0]["count"])
	assert.Equal(t, 1, consumes[1]["slot"])
	assert.Equal(t, 2.0, consumes[1]["count"], "a second slot naming the same item keeps its own count")
	assert.Equal(t, 11, consumes[2]["line"])
	assert.Contains(t, sts[2].query, "CONSUMES {slot: row.slot}")
}

func TestStatements(t *testing.T) {
	sts := statements(plan(t))
	require.Len(t, sts, 6)

	names := make([]string, len(sts))
	for i, st := range sts {
		names[i] = st.name
	}
	assert.Equal(t, []string{"recipes", "definitions", "consumes", "produces", "tags", "mappers"}, names)

	consumes := sts[2].rows
	require.Len(t, consumes, 1)
	assert.Equal(t, "base.log", consumes[0]["item"])
	assert.Equal(t, "BASE.BaseGame.Base.SawLogs", consumes[0]["identity"])
	assert.Equal(t, "a.txt", consumes[0]["file"])
	assert.Nil(t, consumes[0]["mode"])
	assert.Equal(t, 1.0, consumes[0]["count"])
}

func TestItemID(t *testing.T) {
	assert.Equal(t, "base.axe", ItemID("Base", "Axe"))
	assert.Equal(t, ".axe", ItemID("", "Axe"))
}
