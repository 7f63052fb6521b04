// Package export writes an extraction pass to JSON files.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pzscript/internal/extract"
	"pzscript/internal/filewalker"
	"pzscript/internal/parser"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Output file names.
const (
	ItemsFile              = "items.json"
	ItemsDisplayFile       = "items_display.json"
	ItemsNormalizedFile    = "items_normalized.json"
	PropertyVocabularyFile = "property_vocabulary.json"
	RecipesFile            = "recipes.json"
	RecipesDisplayFile     = "recipes_display.json"
	RecipesNormalizedFile  = "recipes_normalized.json"
	RecipeVocabularyFile   = "recipe_vocab.json"
	VocabularyFile         = "vocabulary.json"
	ErrorsFile             = "errors.json"
	CollisionsFile         = "collisions.json"
	ModIndexFile           = "mod_index.txt"
)

// Exporter writes result files into one directory.
type Exporter struct {
	dir string
}

// NewExporter creates an Exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Path returns the location of an output file.
func (e *Exporter) Path(name string) string {
	return filepath.Join(e.dir, name)
}

// Write writes every output file concurrently. mods may be nil.
func (e *Exporter) Write(ctx context.Context, res *extract.Result, mods []filewalker.ModEntry) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	files := []struct {
		name    string
		compact bool
		value   any
	}{
		{ItemsFile, false, nonNil(res.Items)},
		{ItemsDisplayFile, false, itemDisplay(res.Items)},
		{ItemsNormalizedFile, true, itemNormalized(res.Items)},
		{PropertyVocabularyFile, false, propertyCounts(res.Items)},
		{RecipesFile, false, nonNil(res.Recipes)},
		{RecipesDisplayFile, false, recipeDisplay(res.Recipes)},
		{RecipesNormalizedFile, true, recipeNormalized(res.Recipes)},
		{RecipeVocabularyFile, false, parser.VocabularyOf(res.Recipes)},
		{VocabularyFile, false, res.Vocabulary},
		{ErrorsFile, false, nonNil(res.Diagnostics)},
		{CollisionsFile, false, nonNil(res.Collisions)},
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.writeJSON(f.name, f.value, f.compact)
		})
	}
	g.Go(func() error {
		return e.writeModIndex(mods)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().
		Str("dir", e.dir).
		Int("items", len(res.Items)).
		Int("recipes", len(res.Recipes)).
		Int("diagnostics", len(res.Diagnostics)).
		Msg("Exported extraction results")
	return nil
}

func (e *Exporter) writeJSON(name string, v any, compact bool) error {
	path := e.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	encoder := json.NewEncoder(bw)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

func (e *Exporter) writeModIndex(mods []filewalker.ModEntry) error {
	f, err := os.Create(e.Path(ModIndexFile))
	if err != nil {
		return fmt.Errorf("create %s: %w", ModIndexFile, err)
	}
	defer f.Close()
	if err := filewalker.WriteModIndex(f, mods); err != nil {
		return err
	}
	return f.Close()
}

// propertyCounts is the item property-key vocabulary as a flat map.
func propertyCounts(items []*parser.Block) map[string]int {
	counts := parser.VocabularyOf(items)[parser.VocabProperties]
	if counts == nil {
		counts = map[string]int{}
	}
	return counts
}

// ReadJSON decodes an exported file.
func ReadJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", path, err)
	}
	return v, nil
}
