package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"pzscript/internal/extract"
	"pzscript/internal/filewalker"
	"pzscript/internal/parser"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds every setting of the tool. Keys map to upper-case
// environment variables of the same name.
type Config struct {
	WorkshopRoot   string        `mapstructure:"workshop_root"`
	BaseGameRoot   string        `mapstructure:"base_game_root"`
	WorkshopAppID  string        `mapstructure:"workshop_app_id"`
	OutputDir      string        `mapstructure:"output_dir"`
	TemplatePath   string        `mapstructure:"template_path"`
	PageOutput     string        `mapstructure:"page_output"`
	WorkerCount    int           `mapstructure:"worker_count"`
	ParseTimeout   time.Duration `mapstructure:"parse_timeout"`
	BatchSize      int           `mapstructure:"batch_size"`
	Warnings       bool          `mapstructure:"warnings"`
	UnclosedPolicy string        `mapstructure:"unclosed_policy"`
	AllBuilds      bool          `mapstructure:"all_builds"`
	DatabaseURL    string        `mapstructure:"database_url"`
	Neo4jURI       string        `mapstructure:"neo4j_uri"`
	Neo4jUser      string        `mapstructure:"neo4j_user"`
	Neo4jPassword  string        `mapstructure:"neo4j_password"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
}

// NewViper returns a viper instance with every default registered, so that
// environment variables are picked up for all keys.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("workshop_root", "")
	v.SetDefault("base_game_root", "")
	v.SetDefault("workshop_app_id", filewalker.DefaultAppID)
	v.SetDefault("output_dir", "output")
	v.SetDefault("template_path", "template.html")
	v.SetDefault("page_output", "")
	v.SetDefault("worker_count", runtime.NumCPU())
	v.SetDefault("parse_timeout", extract.DefaultTimeout)
	v.SetDefault("batch_size", 500)
	v.SetDefault("warnings", true)
	v.SetDefault("unclosed_policy", "error")
	v.SetDefault("all_builds", false)
	v.SetDefault("database_url", "postgres://localhost:5432/pzscript?sslmode=disable")
	v.SetDefault("neo4j_uri", "bolt://localhost:7687")
	v.SetDefault("neo4j_user", "neo4j")
	v.SetDefault("neo4j_password", "password")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetConfigName("pzscript")
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	return v
}

// Load reads .env, an optional pzscript.yaml from the given directories
// (the working directory when none are given) and the environment.
func Load(v *viper.Viper, paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		log.Debug().Str("path", v.ConfigFileUsed()).Msg("Loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ParseOptions converts the parser-related settings.
func (c *Config) ParseOptions() (parser.Options, error) {
	unclosed, err := parser.ParseUnclosedPolicy(c.UnclosedPolicy)
	if err != nil {
		return parser.Options{}, err
	}
	return parser.Options{
		Unclosed:         unclosed,
		SuppressWarnings: !c.Warnings,
	}, nil
}

// ExtractOptions converts the extraction settings.
func (c *Config) ExtractOptions() (extract.Options, error) {
	opts, err := c.ParseOptions()
	if err != nil {
		return extract.Options{}, err
	}
	return extract.Options{
		Workers:   c.WorkerCount,
		Timeout:   c.ParseTimeout,
		Parse:     opts,
		AllBuilds: c.AllBuilds,
	}, nil
}
