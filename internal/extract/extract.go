// Package extract runs the parser over a batch of discovered script files and
// merges the per-file results in a reproducible order.
package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"pzscript/internal/filewalker"
	"pzscript/internal/parser"
	"pzscript/internal/worker"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds the parse of a single file.
const DefaultTimeout = 30 * time.Second

// Options configures an extraction pass.
type Options struct {
	Workers int
	// Timeout is the per-file deadline. Zero selects DefaultTimeout.
	Timeout time.Duration
	Parse   parser.Options
	// AllBuilds reads recipes from every workshop file instead of only the
	// base game and "42*" build folders.
	AllBuilds bool
}

// Location is where one definition of a colliding identity lives.
type Location struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
}

// Collision lists every definition sharing one identity.
type Collision struct {
	Kind      parser.Kind `json:"kind"`
	Identity  string      `json:"identity"`
	Locations []Location  `json:"locations"`
}

// Result is the merged output of a pass.
type Result struct {
	Files       int
	Lines       int
	Items       []*parser.Block
	Recipes     []*parser.Block
	Diagnostics []parser.Diagnostic
	Vocabulary  parser.Vocabulary
	Collisions  []Collision
}

// Errors counts error-severity diagnostics.
func (r *Result) Errors() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == parser.SeverityError {
			n++
		}
	}
	return n
}

// Extractor parses script files concurrently.
type Extractor struct {
	opts Options
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Extractor{opts: opts}
}

// Run parses every file. Per-file failures become diagnostics; the returned
// error is non-nil only when ctx ends before the pass completes.
func (e *Extractor) Run(ctx context.Context, files []filewalker.ScriptFile) (*Result, error) {
	start := time.Now()
	pool := worker.NewPool(e.opts.Workers, e.opts.Timeout, e.parseFile)
	tasks := pool.Execute(ctx, files)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract scripts: %w", err)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Input.Path < tasks[j].Input.Path
	})

	res := &Result{
		Files:      len(files),
		Vocabulary: parser.NewVocabulary(),
	}
	for _, task := range tasks {
		if task.Err != nil {
			res.Diagnostics = append(res.Diagnostics, e.failure(task.Input, task.Err))
			continue
		}
		fr := task.Result
		res.Lines += fr.Lines
		res.Items = append(res.Items, fr.Items...)
		res.Recipes = append(res.Recipes, fr.Recipes...)
		res.Diagnostics = append(res.Diagnostics, fr.Diagnostics...)
		res.Vocabulary.Merge(fr.Vocabulary)
	}

	res.Collisions = append(collisions(parser.KindItem, res.Items), collisions(parser.KindRecipe, res.Recipes)...)
	if len(res.Collisions) > 0 {
		log.Warn().Int("identities", len(res.Collisions)).Msg("Identity collisions found")
	}

	log.Info().
		Int("files", res.Files).
		Int("lines", res.Lines).
		Int("items", len(res.Items)).
		Int("recipes", len(res.Recipes)).
		Int("errors", res.Errors()).
		Dur("elapsed", time.Since(start)).
		Msg("Extraction complete")
	return res, nil
}

func (e *Extractor) parseFile(ctx context.Context, f filewalker.ScriptFile) (*parser.FileResult, error) {
	opts := e.opts.Parse
	if !e.opts.AllBuilds && !filewalker.IsBuild42(f) {
		opts.SkipRecipes = true
	}
	return parser.ParseFile(ctx, f.Source(), opts)
}

func (e *Extractor) failure(f filewalker.ScriptFile, err error) parser.Diagnostic {
	d := parser.Diagnostic{
		FilePath: f.Path,
		Severity: parser.SeverityError,
		Kind:     parser.DiagFileRead,
		Message:  err.Error(),
	}
	if errors.Is(err, context.DeadlineExceeded) {
		d.Kind = parser.DiagTimeout
		d.Message = fmt.Sprintf("parse did not finish within %s; results of this file discarded", e.opts.Timeout)
	}
	log.Warn().Err(err).Str("path", f.Path).Str("kind", string(d.Kind)).Msg("Skipping script file")
	return d
}

// collisions groups blocks by identity and keeps identities defined more than once.
func collisions(kind parser.Kind, blocks []*parser.Block) []Collision {
	byIdentity := make(map[string][]Location)
	var order []string
	for _, b := range blocks {
		id := b.Identity()
		if _, seen := byIdentity[id]; !seen {
			order = append(order, id)
		}
		byIdentity[id] = append(byIdentity[id], Location{FilePath: b.FilePath, StartLine: b.StartLine})
	}
	sort.Strings(order)

	var out []Collision
	for _, id := range order {
		if locs := byIdentity[id]; len(locs) > 1 {
			out = append(out, Collision{Kind: kind, Identity: id, Locations: locs})
		}
	}
	return out
}
