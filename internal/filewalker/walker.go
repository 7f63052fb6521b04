package filewalker

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pzscript/internal/parser"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultAppID is the workshop content folder of the game.
	DefaultAppID = "108600"

	baseSourceTag  = "BASE"
	baseModTag     = "BaseGame"
	baseSourceRoot = "base"
	scriptExt      = ".txt"
)

// ScriptFile is a discovered script file ready for parsing.
type ScriptFile struct {
	SourceTag  string
	ModTag     string
	SourceRoot string
	Path       string
}

// Source converts the file to the parser's provenance record.
func (f ScriptFile) Source() parser.Source {
	return parser.Source{
		SourceTag:  f.SourceTag,
		ModTag:     f.ModTag,
		SourceRoot: f.SourceRoot,
		FilePath:   f.Path,
	}
}

// BaseFile tags path as a base game script.
func BaseFile(path string) ScriptFile {
	return ScriptFile{
		SourceTag:  baseSourceTag,
		ModTag:     baseModTag,
		SourceRoot: baseSourceRoot,
		Path:       path,
	}
}

// IsBase reports whether the file belongs to the base game.
func (f ScriptFile) IsBase() bool {
	return f.SourceTag == baseSourceTag
}

// ModEntry locates one mod folder inside the workshop tree.
type ModEntry struct {
	WorkshopID string
	ModID      string
	Path       string
}

// Discovery is the outcome of a walk.
type Discovery struct {
	Files []ScriptFile
	Mods  []ModEntry
}

// Walker finds script files in the base game install and the workshop tree.
type Walker struct {
	appID string
}

// NewWalker creates a Walker. An empty appID selects DefaultAppID.
func NewWalker(appID string) *Walker {
	if appID == "" {
		appID = DefaultAppID
	}
	return &Walker{appID: appID}
}

// Walk discovers script files. Either root may be empty to skip it.
// Base game files come first, each group in lexical path order.
func (w *Walker) Walk(baseRoot, workshopRoot string) (*Discovery, error) {
	d := &Discovery{}

	if baseRoot != "" {
		files, err := w.walkBase(baseRoot)
		if err != nil {
			return nil, err
		}
		d.Files = append(d.Files, files...)
	}

	if workshopRoot != "" {
		files, mods, err := w.walkWorkshop(workshopRoot)
		if err != nil {
			return nil, err
		}
		d.Files = append(d.Files, files...)
		d.Mods = mods
	}

	log.Info().
		Int("files", len(d.Files)).
		Int("mods", len(d.Mods)).
		Msg("Discovered script files")
	return d, nil
}

func (w *Walker) walkBase(root string) ([]ScriptFile, error) {
	scripts := filepath.Join(root, "media", "scripts")
	if err := checkDir(scripts); err != nil {
		return nil, fmt.Errorf("base game scripts: %w", err)
	}

	var files []ScriptFile
	err := filepath.Walk(scripts, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if info.IsDir() || !isScript(path) {
			return nil
		}
		files = append(files, BaseFile(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk base game scripts: %w", err)
	}
	return files, nil
}

func (w *Walker) walkWorkshop(root string) ([]ScriptFile, []ModEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve workshop root: %w", err)
	}
	if err := checkDir(root); err != nil {
		return nil, nil, fmt.Errorf("workshop root: %w", err)
	}

	var files []ScriptFile
	mods := make(map[[2]string]string)

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		parts := strings.Split(filepath.ToSlash(path), "/")
		loc, ok := w.locate(parts)

		if info.IsDir() {
			if ok {
				mods[[2]string{loc.workshopID, loc.modID}] = filepath.FromSlash(strings.Join(parts[:loc.modIdx+1], "/"))
			}
			return nil
		}
		if !isScript(path) {
			return nil
		}
		// The mod folder must contain the file, not be the file.
		if !ok || loc.modIdx >= len(parts)-1 {
			log.Debug().Str("path", path).Msg("Skipping script outside a mod folder")
			return nil
		}

		files = append(files, ScriptFile{
			SourceTag:  loc.workshopID,
			ModTag:     loc.modID,
			SourceRoot: sourceRoot(parts[loc.modIdx+1:]),
			Path:       path,
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk workshop root: %w", err)
	}

	entries := make([]ModEntry, 0, len(mods))
	for key, path := range mods {
		entries = append(entries, ModEntry{WorkshopID: key[0], ModID: key[1], Path: path})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].WorkshopID != entries[j].WorkshopID {
			return entries[i].WorkshopID < entries[j].WorkshopID
		}
		return entries[i].ModID < entries[j].ModID
	})
	return files, entries, nil
}

type location struct {
	workshopID string
	modID      string
	// modIdx is the index of the mod folder segment.
	modIdx int
}

// locate finds the <appID>/<workshopID>/.../mods/<modID> segments of a path.
func (w *Walker) locate(parts []string) (location, bool) {
	app := indexOf(parts, w.appID, 0)
	if app < 0 || app+1 >= len(parts) {
		return location{}, false
	}
	mods := indexOf(parts, "mods", app+2)
	if mods < 0 || mods+1 >= len(parts) {
		return location{}, false
	}
	return location{
		workshopID: parts[app+1],
		modID:      parts[mods+1],
		modIdx:     mods + 1,
	}, true
}

// sourceRoot picks the build folder below the mod folder: "common", a folder
// starting with "42", or "unknown".
func sourceRoot(parts []string) string {
	for _, p := range parts {
		pl := strings.ToLower(p)
		if pl == "common" {
			return "common"
		}
		if strings.HasPrefix(pl, "42") {
			return p
		}
	}
	return "unknown"
}

// IsBuild42 reports whether recipes should be read from a file. The base game
// always qualifies; workshop files only from a "42*" build folder.
func IsBuild42(f ScriptFile) bool {
	return f.IsBase() || strings.HasPrefix(strings.ToLower(f.SourceRoot), "42")
}

// WriteModIndex writes one "<workshopID> <modID>" line followed by the mod
// path and a blank line per entry.
func WriteModIndex(out io.Writer, mods []ModEntry) error {
	bw := bufio.NewWriter(out)
	for _, m := range mods {
		if _, err := fmt.Fprintf(bw, "%s %s\n%s\n\n", m.WorkshopID, m.ModID, m.Path); err != nil {
			return fmt.Errorf("write mod index: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write mod index: %w", err)
	}
	return nil
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}
	return nil
}

func isScript(path string) bool {
	return strings.EqualFold(filepath.Ext(path), scriptExt)
}

func indexOf(parts []string, want string, from int) int {
	for i := from; i < len(parts); i++ {
		if parts[i] == want {
			return i
		}
	}
	return -1
}
