package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pzscript/internal/export"
	"pzscript/internal/page"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = `module Base
{
	item Axe
	{
		DisplayName = Axe,
		Weight = 3,
	}

	craftRecipe SawLogs
	{
		time = 50,
		inputs
		{
			item 1 [Base.Log],
			item 1 tags[Saw] mode:keep flags[MayDegradeLight],
		}
		outputs
		{
			item 2 Base.Plank,
		}
	}
}
`

func writeScript(t *testing.T, dir, name, text string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	path := writeScript(t, t.TempDir(), "items.txt", script)

	out, err := run(t, "parse", path)
	require.NoError(t, err)

	var got parsedFile
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 1)
	require.Len(t, got.Recipes, 1)
	assert.Equal(t, "BASE.BaseGame.Base.Axe", got.Items[0].Identity())
	assert.Equal(t, "SawLogs", got.Recipes[0].Name)
	assert.Empty(t, got.Diagnostics)
	assert.Equal(t, 1, got.Vocabulary.Count("tags", "saw"))
}

func TestParseCommand_MissingFile(t *testing.T) {
	_, err := run(t, "parse", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestExtractVocabAndPage(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "game")
	writeScript(t, filepath.Join(base, "media", "scripts"), "items.txt", script)
	out := filepath.Join(root, "out")

	_, err := run(t, "extract", "--base", base, "--out", out, "--workers", "2")
	require.NoError(t, err)

	for _, name := range []string{export.ItemsFile, export.RecipesNormalizedFile, export.VocabularyFile, export.ErrorsFile} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	text, err := run(t, "vocab", "properties", "--out", out, "--top", "5")
	require.NoError(t, err)
	assert.Contains(t, text, "displayname")
	assert.Contains(t, text, "weight")

	_, err = run(t, "vocab", "nonsense", "--out", out)
	assert.Error(t, err)

	tmpl := writeScript(t, root, "template.html",
		"<script>const r=\""+page.RecipesMarker+"\";const v=\""+page.RecipeVocabMarker+"\";</script>")
	pagePath := filepath.Join(root, "recipes.html")
	_, err = run(t, "page", "recipes", "--out", out, "--template", tmpl, "--page", pagePath)
	require.NoError(t, err)

	html, err := os.ReadFile(pagePath)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(html), page.RecipesMarker))
	assert.False(t, strings.Contains(string(html), page.RecipeVocabMarker))
}

func TestExtractCommand_NoRoots(t *testing.T) {
	_, err := run(t, "extract", "--out", t.TempDir())
	assert.ErrorContains(t, err, "nothing to scan")
}

func TestExtractCommand_BadUnclosedPolicy(t *testing.T) {
	base := t.TempDir()
	writeScript(t, filepath.Join(base, "media", "scripts"), "items.txt", script)

	_, err := run(t, "extract", "--base", base, "--out", t.TempDir(), "--unclosed", "explode")
	assert.ErrorContains(t, err, "unclosed policy")
}

func TestPageCommand_UnknownKind(t *testing.T) {
	_, err := run(t, "page", "weapons", "--out", t.TempDir())
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug", "json"))
	assert.NoError(t, setupLogging("info", "console"))
	assert.Error(t, setupLogging("loud", "console"))
	assert.Error(t, setupLogging("info", "xml"))
}
