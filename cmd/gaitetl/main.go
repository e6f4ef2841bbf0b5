package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/rehabmetrics/gaitetl/pkg/pipeline"
	"github.com/rehabmetrics/gaitetl/pkg/warehouse"
)

var version = "0.1.0-dev"

// Config is the run configuration, YAML or TOML by file extension.
type Config struct {
	OutputDir string                     `yaml:"output_dir" toml:"output_dir"`
	Warehouse string                     `yaml:"warehouse" toml:"warehouse"`
	Parquet   bool                       `yaml:"parquet" toml:"parquet"`
	Datasets  map[string]pipeline.Source `yaml:"datasets" toml:"datasets"`
}

func loadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		err = fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "data/processed"
	}
	return &cfg, nil
}

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "", "Path to run config (YAML or TOML)")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Println("gaitetl", version)
		return
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "no config provided; try --config <file> or --version")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	loader := &pipeline.Loader{OutputDir: cfg.OutputDir, Parquet: cfg.Parquet}
	if cfg.Warehouse != "" {
		db, err := warehouse.Open(cfg.Warehouse)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		loader.Warehouse = db
	}

	orch := pipeline.NewOrchestrator(loader)
	results, err := orch.Run(context.Background(), cfg.Datasets)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
