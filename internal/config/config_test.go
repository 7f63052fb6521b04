package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pzscript/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "108600", cfg.WorkshopAppID)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, 30*time.Second, cfg.ParseTimeout)
	assert.True(t, cfg.Warnings)
	assert.Equal(t, "error", cfg.UnclosedPolicy)
	assert.Positive(t, cfg.WorkerCount)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("WORKSHOP_ROOT", "/steam/workshop/content/108600")
	t.Setenv("WORKER_COUNT", "3")
	t.Setenv("PARSE_TIMEOUT", "5s")
	t.Setenv("WARNINGS", "false")

	cfg, err := Load(NewViper(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/steam/workshop/content/108600", cfg.WorkshopRoot)
	assert.Equal(t, 3, cfg.WorkerCount)
	assert.Equal(t, 5*time.Second, cfg.ParseTimeout)
	assert.False(t, cfg.Warnings)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "base_game_root: /games/pz\nunclosed_policy: partial\nbatch_size: 50\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pzscript.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(NewViper(), dir)
	require.NoError(t, err)

	assert.Equal(t, "/games/pz", cfg.BaseGameRoot)
	assert.Equal(t, "partial", cfg.UnclosedPolicy)
	assert.Equal(t, 50, cfg.BatchSize)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pzscript.yaml"), []byte("batch_size: [\n"), 0o644))

	_, err := Load(NewViper(), dir)
	assert.Error(t, err)
}

func TestConfig_ParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    parser.Options
		wantErr bool
	}{
		{name: "defaults", cfg: Config{UnclosedPolicy: "error", Warnings: true}, want: parser.Options{Unclosed: parser.UnclosedError}},
		{name: "parity", cfg: Config{UnclosedPolicy: "drop", Warnings: false}, want: parser.Options{Unclosed: parser.UnclosedDrop, SuppressWarnings: true}},
		{name: "partial", cfg: Config{UnclosedPolicy: "Partial", Warnings: true}, want: parser.Options{Unclosed: parser.UnclosedPartial}},
		{name: "unknown", cfg: Config{UnclosedPolicy: "explode"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.ParseOptions()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_ExtractOptions(t *testing.T) {
	cfg := Config{WorkerCount: 4, ParseTimeout: time.Second, UnclosedPolicy: "error", Warnings: true, AllBuilds: true}
	opts, err := cfg.ExtractOptions()
	require.NoError(t, err)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, time.Second, opts.Timeout)
	assert.True(t, opts.AllBuilds)
}
