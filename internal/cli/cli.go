package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"pzscript/internal/config"
	"pzscript/internal/export"
	"pzscript/internal/extract"
	"pzscript/internal/filewalker"
	"pzscript/internal/page"
	"pzscript/internal/parser"
	"pzscript/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the configuration shared by every command.
type app struct {
	v   *viper.Viper
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:          "pzscript",
		Short:        "Extract items and craft recipes from Project Zomboid scripts",
		Long:         "Scans base game and workshop mod script files, parses item and craftrecipe blocks and exports them as JSON, search pages, PostgreSQL records and a Neo4j crafting graph.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				if key, ok := flagKeys[f.Name]; ok {
					_ = a.v.BindPFlag(key, f)
				}
			})
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return setupLogging(cfg.LogLevel, cfg.LogFormat)
		},
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")

	rootCmd.AddCommand(a.extractCmd())
	rootCmd.AddCommand(a.parseCmd())
	rootCmd.AddCommand(a.vocabCmd())
	rootCmd.AddCommand(a.pageCmd())
	rootCmd.AddCommand(a.storeCmd())
	rootCmd.AddCommand(a.similarCmd())
	rootCmd.AddCommand(a.graphCmd())
	rootCmd.AddCommand(a.usesCmd())

	return rootCmd
}

// setupLogging applies the configured level and output format.
func setupLogging(level, format string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)

	switch strings.ToLower(format) {
	case "", "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// flagKeys maps command line flags to config keys. Flags are bound for the
// command being run only, since several commands share flag names.
var flagKeys = map[string]string{
	"log-level":  "log_level",
	"log-format": "log_format",
	"workshop":   "workshop_root",
	"base":       "base_game_root",
	"app-id":     "workshop_app_id",
	"workers":    "worker_count",
	"timeout":    "parse_timeout",
	"warnings":   "warnings",
	"unclosed":   "unclosed_policy",
	"all-builds": "all_builds",
	"out":        "output_dir",
	"template":   "template_path",
	"page":       "page_output",
}

// scanFlags registers the flags shared by every command that scans roots.
func scanFlags(cmd *cobra.Command) {
	cmd.Flags().String("workshop", "", "Workshop content root (.../steamapps/workshop/content/108600)")
	cmd.Flags().String("base", "", "Base game install root (the folder holding media/scripts)")
	cmd.Flags().String("app-id", filewalker.DefaultAppID, "Steam application id used to locate workshop items")
	cmd.Flags().Int("workers", runtime.NumCPU(), "Number of concurrent parse workers")
	cmd.Flags().Duration("timeout", extract.DefaultTimeout, "Per-file parse timeout")
	cmd.Flags().Bool("warnings", true, "Report skipped headers and partially emitted blocks")
	cmd.Flags().String("unclosed", "error", "Blocks still open at end of file: error, drop or partial")
	cmd.Flags().Bool("all-builds", false, "Parse craft recipes outside build 42 folders too")
}

func (a *app) extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Parse every script file and write the JSON exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract()
		},
	}
	scanFlags(cmd)
	cmd.Flags().String("out", "output", "Output directory")
	return cmd
}

func (a *app) parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a single script file and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runParse(cmd, args[0])
		},
	}
	cmd.Flags().Bool("warnings", true, "Report skipped headers and partially emitted blocks")
	cmd.Flags().String("unclosed", "error", "Blocks still open at end of file: error, drop or partial")
	return cmd
}

func (a *app) vocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab [category]",
		Short: "Show the most frequent tokens of the last extraction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _ := cmd.Flags().GetInt("top")
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			return a.runVocab(cmd, category, top)
		},
	}
	cmd.Flags().Int("top", 20, "Number of tokens to show per category (0 shows all)")
	cmd.Flags().String("out", "output", "Directory holding the exports")
	return cmd
}

func (a *app) pageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page <items|recipes>",
		Short: "Build a self-contained search page from the exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPage(page.Kind(args[0]))
		},
	}
	cmd.Flags().String("template", "template.html", "HTML template holding the payload markers")
	cmd.Flags().String("page", "", "Output page path (default <out>/<kind>.html)")
	cmd.Flags().String("out", "output", "Directory holding the exports")
	return cmd
}

func (a *app) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Parse every script file and persist the run to PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStore()
		},
	}
	scanFlags(cmd)
	return cmd
}

func (a *app) similarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar <identity>",
		Short: "List the stored definitions closest to one identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _ := cmd.Flags().GetInt("limit")
			return a.runSimilar(cmd, args[0], k)
		},
	}
	cmd.Flags().IntP("limit", "k", 10, "Number of matches")
	return cmd
}

func (a *app) graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Parse every script file and load the crafting graph into Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGraph()
		},
	}
	scanFlags(cmd)
	return cmd
}

func (a *app) usesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uses <item-id>",
		Short: "List the recipes consuming or producing an item (module.name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUses(cmd, args[0])
		},
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// initPostgres connects to PostgreSQL and verifies the connection.
func initPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// initNeo4j creates the Neo4j driver and verifies connectivity.
func initNeo4j(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")

	return driver, nil
}

// scan discovers and parses every script file under the configured roots.
func (a *app) scan(ctx context.Context) (*extract.Result, *filewalker.Discovery, error) {
	if a.cfg.BaseGameRoot == "" && a.cfg.WorkshopRoot == "" {
		return nil, nil, errors.New("nothing to scan: set --base or --workshop")
	}

	opts, err := a.cfg.ExtractOptions()
	if err != nil {
		return nil, nil, err
	}

	disc, err := filewalker.NewWalker(a.cfg.WorkshopAppID).Walk(a.cfg.BaseGameRoot, a.cfg.WorkshopRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("discover script files: %w", err)
	}

	res, err := extract.New(opts).Run(ctx, disc.Files)
	if err != nil {
		return nil, nil, fmt.Errorf("extract definitions: %w", err)
	}
	return res, disc, nil
}

// runExtract handles the `extract` command.
func (a *app) runExtract() error {
	ctx, cancel := setupContext()
	defer cancel()

	res, disc, err := a.scan(ctx)
	if err != nil {
		return err
	}

	exp := export.NewExporter(a.cfg.OutputDir)
	if err := exp.Write(ctx, res, disc.Mods); err != nil {
		return fmt.Errorf("write exports: %w", err)
	}

	log.Info().
		Int("files", res.Files).
		Int("items", len(res.Items)).
		Int("recipes", len(res.Recipes)).
		Int("errors", res.Errors()).
		Int("collisions", len(res.Collisions)).
		Str("output", a.cfg.OutputDir).
		Msg("Export complete")

	return nil
}

// parsedFile is the printed form of a single-file parse.
type parsedFile struct {
	Items       []*parser.Block     `json:"items"`
	Recipes     []*parser.Block     `json:"recipes"`
	Diagnostics []parser.Diagnostic `json:"errors"`
	Vocabulary  parser.Vocabulary   `json:"vocabulary"`
}

// runParse handles the `parse` command.
func (a *app) runParse(cmd *cobra.Command, path string) error {
	ctx, cancel := setupContext()
	defer cancel()

	opts, err := a.cfg.ParseOptions()
	if err != nil {
		return err
	}

	res, err := parser.ParseFile(ctx, filewalker.BaseFile(path).Source(), opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(parsedFile{
		Items:       nonNil(res.Items),
		Recipes:     nonNil(res.Recipes),
		Diagnostics: nonNil(res.Diagnostics),
		Vocabulary:  res.Vocabulary,
	})
}

// runVocab handles the `vocab` command.
func (a *app) runVocab(cmd *cobra.Command, category string, top int) error {
	path := export.NewExporter(a.cfg.OutputDir).Path(export.VocabularyFile)
	vocab, err := export.ReadJSON[parser.Vocabulary](path)
	if err != nil {
		return fmt.Errorf("load vocabulary: %w", err)
	}

	categories := vocab.Categories()
	if category != "" {
		if _, ok := vocab[category]; !ok {
			return fmt.Errorf("unknown vocabulary category %q (have %s)", category, strings.Join(categories, ", "))
		}
		categories = []string{category}
	}

	out := cmd.OutOrStdout()
	for _, c := range categories {
		fmt.Fprintf(out, "%s (%d)\n", c, len(vocab[c]))
		for _, tc := range vocab.Top(c, top) {
			fmt.Fprintf(out, "  %6d  %s\n", tc.Count, tc.Token)
		}
	}
	return nil
}

// runPage handles the `page` command.
func (a *app) runPage(kind page.Kind) error {
	markers, err := page.Markers(kind)
	if err != nil {
		return err
	}

	exp := export.NewExporter(a.cfg.OutputDir)
	files := map[string]string{
		page.ItemsMarker:         export.ItemsNormalizedFile,
		page.PropertyVocabMarker: export.PropertyVocabularyFile,
		page.RecipesMarker:       export.RecipesNormalizedFile,
		page.RecipeVocabMarker:   export.RecipeVocabularyFile,
	}
	payloads := make([]page.Payload, 0, len(markers))
	for _, m := range markers {
		payloads = append(payloads, page.Payload{Marker: m, Path: exp.Path(files[m])})
	}

	output := a.cfg.PageOutput
	if output == "" {
		output = filepath.Join(a.cfg.OutputDir, string(kind)+".html")
	}
	return page.Build(a.cfg.TemplatePath, output, payloads)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
