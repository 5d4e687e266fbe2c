// Package main is the Bunrui CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/bunrui/internal/classify"
	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/conflict"
	"github.com/hyperjump/bunrui/internal/extract"
	"github.com/hyperjump/bunrui/internal/history"
	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/internal/modelstore"
	"github.com/hyperjump/bunrui/internal/server"
	"github.com/hyperjump/bunrui/internal/sorter"
	"github.com/hyperjump/bunrui/internal/vectormodel"
	"github.com/hyperjump/bunrui/internal/watcher"
	"github.com/hyperjump/bunrui/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/bunrui/config.yaml"

// loadConfig loads config from path. When path is the default, it first
// looks for config.yaml in the current directory (for development); if
// that exists it is used. Returns the config and the path that was
// actually loaded.
func loadConfig(path string, logger *zap.Logger) (*config.Config, string) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback, logger), fallback
			}
		}
	}
	return config.Load(path, logger), path
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "sort":
		runSort()
	case "train":
		runTrain()
	case "watch":
		runWatch()
	case "serve":
		runServe()
	case "history":
		runHistory()
	case "version", "--version", "-v":
		fmt.Printf("bunrui version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds the initialized sorting pipeline.
type Components struct {
	Config     *config.Config
	Categories []models.Category
	Classifier *classify.Classifier
	Extractor  *extract.Extractor
	Resolver   *conflict.Resolver
	Logger     *zap.Logger
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) *Components {
	categories := cfg.CategoryModels()
	rules := classify.NewRuleClassifier(categories, cfg.Sorter.MinConfidenceScore)

	model := loadModel(cfg, logger)
	classifier := classify.New(rules, model, cfg.Sorter.UseML, cfg.Sorter.MLConfidenceThreshold, logger)
	resolver := conflict.New(conflict.Policy(cfg.Sorter.ConflictResolution), logger)

	return &Components{
		Config:     cfg,
		Categories: categories,
		Classifier: classifier,
		Extractor:  extract.NewExtractor(),
		Resolver:   resolver,
		Logger:     logger,
	}
}

// loadModel loads the persisted vector model when ML is enabled. A missing
// or broken model degrades to rules-only classification.
func loadModel(cfg *config.Config, logger *zap.Logger) *vectormodel.Model {
	if !cfg.Sorter.UseML {
		return nil
	}
	store := modelstore.New(cfg.Model.Dir, cfg.Model.PretrainedPath, logger)
	m, err := store.Load()
	if err != nil {
		logger.Warn("vector model unavailable, using rules only", zap.Error(err))
		return nil
	}
	return m
}

// newSorter builds a sorter over the given directories from the shared
// components.
func (c *Components) newSorter(sourceDir, targetDir string) *sorter.Sorter {
	return sorter.New(sorter.Config{
		SourceDir:  sourceDir,
		TargetDir:  targetDir,
		Extensions: c.Config.Sorter.SupportedExtensions,
		CopyFiles:  c.Config.Sorter.CopyFilesOrDefault(),
	}, c.Categories, c.Extractor, c.Classifier, c.Resolver, c.Logger)
}

func runSort() {
	fs := flag.NewFlagSet("sort", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	output := fs.String("output", "text", "output format: text or json")
	noHistory := fs.Bool("no-history", false, "do not record the run in history")
	move := fs.Bool("move", false, "move files instead of copying")
	conflictPolicy := fs.String("conflict", "", "conflict policy: skip, overwrite, or rename (overrides config)")
	ml := fs.Bool("ml", false, "enable the vector model (overrides config)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: bunrui sort [flags] <source-dir> <target-dir>")
		os.Exit(1)
	}
	sourceDir, targetDir := fs.Arg(0), fs.Arg(1)

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	applyOverrides(cfg, fs, *move, *conflictPolicy, *ml)

	components := initializeComponents(cfg, logger)
	started := time.Now().UTC()
	stats, err := components.newSorter(sourceDir, targetDir).Run()
	if err != nil {
		logger.Fatal("sort failed", zap.Error(err))
	}

	if !*noHistory {
		recordRun(cfg, logger, started, sourceDir, targetDir, stats)
	}

	switch *output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(stats)
	default:
		for _, line := range statsLines(stats, components.Categories) {
			fmt.Println(line)
		}
	}
	if stats.Failed > 0 {
		os.Exit(1)
	}
}

func recordRun(cfg *config.Config, logger *zap.Logger, started time.Time, sourceDir, targetDir string, stats *models.RunStatistics) {
	store, err := history.Open(cfg.History.DatabasePath, logger)
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
		return
	}
	defer store.Close()
	if _, err := store.Record(history.Run{
		StartedAt: started,
		SourceDir: sourceDir,
		TargetDir: targetDir,
		Stats:     *stats,
	}); err != nil {
		logger.Warn("failed to record run", zap.Error(err))
	}
}

// statsLines renders run statistics for terminal output, category counts
// sorted by name with their display markers.
func statsLines(stats *models.RunStatistics, categories []models.Category) []string {
	lines := []string{
		fmt.Sprintf("Processed %d files: %d sorted, %d skipped, %d failed (method: %s, conflicts: %s)",
			stats.Total, stats.Sorted, stats.Skipped, stats.Failed, stats.MethodUsed, stats.ConflictPolicy),
	}
	names := make([]string, 0, len(stats.ByCategory))
	for name := range stats.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		marker := models.MarkerFor(categories, name)
		if marker == "" {
			marker = "[ ]"
		}
		lines = append(lines, fmt.Sprintf("  %s %s: %d", marker, name, stats.ByCategory[name]))
	}
	return lines
}

func runTrain() {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: bunrui train [flags] <training-data.yaml>")
		os.Exit(1)
	}
	dataPath := fs.Arg(0)

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	if err := trainModel(cfg, logger, dataPath); err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}
	fmt.Println("Model trained and saved.")
}

// trainModel trains the vector model from a YAML file mapping category
// names to training texts and persists the result.
func trainModel(cfg *config.Config, logger *zap.Logger, dataPath string) error {
	training, err := readTrainingData(dataPath)
	if err != nil {
		return err
	}
	m := vectormodel.New(nil, nil, logger)
	opts := trainingOptions(cfg)
	if err := m.Train(training, opts); err != nil {
		return err
	}
	store := modelstore.New(cfg.Model.Dir, "", logger)
	return store.Save(m)
}

// readTrainingData parses a YAML mapping of category name to a list of
// training texts.
func readTrainingData(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read training data: %w", err)
	}
	var training map[string][]string
	if err := yaml.Unmarshal(data, &training); err != nil {
		return nil, fmt.Errorf("parse training data: %w", err)
	}
	if len(training) == 0 {
		return nil, fmt.Errorf("training data is empty")
	}
	return training, nil
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	move := fs.Bool("move", false, "move files instead of copying")
	conflictPolicy := fs.String("conflict", "", "conflict policy: skip, overwrite, or rename (overrides config)")
	ml := fs.Bool("ml", false, "enable the vector model (overrides config)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: bunrui watch [flags] <source-dir> <target-dir>")
		os.Exit(1)
	}
	sourceDir, targetDir := fs.Arg(0), fs.Arg(1)

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	applyOverrides(cfg, fs, *move, *conflictPolicy, *ml)

	components := initializeComponents(cfg, logger)
	s := components.newSorter(sourceDir, targetDir)

	// Settled files trigger a full run; the mutex keeps runs sequential
	// when several files settle close together.
	var runMu sync.Mutex
	onFile := func(path string) {
		runMu.Lock()
		defer runMu.Unlock()
		stats, err := s.Run()
		if err != nil {
			logger.Error("watch run failed", zap.Error(err))
			return
		}
		if stats.Total > 0 {
			recordRun(cfg, logger, time.Now().UTC(), sourceDir, targetDir, stats)
		}
	}

	watchOpts := []watcher.Option{}
	if cfg.Debug || *debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w := watcher.New(sourceDir, cfg.Sorter.SupportedExtensions, onFile, watchOpts...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		logger.Fatal("failed to start watcher", zap.Error(err))
	}
	defer w.Stop()

	// Sort whatever is already waiting before watching for new files.
	onFile(sourceDir)

	logger.Info("watching", zap.String("source", sourceDir), zap.String("target", targetDir))
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	trainData := fs.String("train-data", "", "training data YAML served by POST /api/v1/train")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	components := initializeComponents(cfg, logger)

	hist, err := history.Open(cfg.History.DatabasePath, logger)
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
		hist = nil
	} else {
		defer hist.Close()
	}

	sortFn := func(sourceDir, targetDir string) (*models.RunStatistics, error) {
		return components.newSorter(sourceDir, targetDir).Run()
	}
	var trainFn server.TrainFunc
	if *trainData != "" {
		trainFn = func() error {
			return trainModel(cfg, logger, *trainData)
		}
	}

	srv := server.NewServer(sortFn, trainFn, hist, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of runs to show (0 = all)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	store, err := history.Open(cfg.History.DatabasePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.List(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		os.Exit(1)
	}

	if *output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(runs)
		return
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %s -> %s  total=%d sorted=%d skipped=%d failed=%d method=%s\n",
			run.StartedAt.Format(time.RFC3339), run.ID,
			run.SourceDir, run.TargetDir,
			run.Stats.Total, run.Stats.Sorted, run.Stats.Skipped, run.Stats.Failed,
			run.Stats.MethodUsed)
	}
}

// applyOverrides folds explicitly passed sort flags into the config.
// Boolean flags only override when present on the command line, so config
// values survive when the flag is omitted.
func applyOverrides(cfg *config.Config, fs *flag.FlagSet, move bool, conflictPolicy string, ml bool) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "move":
			copyFiles := !move
			cfg.Sorter.CopyFiles = &copyFiles
		case "ml":
			cfg.Sorter.UseML = ml
		}
	})
	if conflictPolicy != "" {
		cfg.Sorter.ConflictResolution = conflictPolicy
		config.Validate(cfg, nil)
	}
}

// setup loads the config and creates the logger for a subcommand.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	bootstrap, err := utils.NewLogger(debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	cfg, resolvedPath := loadConfig(configPath, bootstrap)
	debugMode := cfg.Debug || debug
	logger := bootstrap
	if debugMode != debug {
		logger, err = utils.NewLogger(debugMode)
		if err != nil {
			fmt.Printf("Failed to create logger: %v\n", err)
			os.Exit(1)
		}
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath), zap.Bool("debug", debugMode))
	return cfg, logger
}

// trainingOptions maps model config to training options; zero values fall
// back to the trainer defaults.
func trainingOptions(cfg *config.Config) vectormodel.TrainingOptions {
	opts := vectormodel.DefaultTrainingOptions()
	if cfg.Model.VectorSize > 0 {
		opts.VectorSize = cfg.Model.VectorSize
	}
	if cfg.Model.Window > 0 {
		opts.Window = cfg.Model.Window
	}
	if cfg.Model.Epochs > 0 {
		opts.Epochs = cfg.Model.Epochs
	}
	return opts
}

func printUsage() {
	fmt.Println(`bunrui - Content-based file sorter

Usage:
  bunrui sort [flags] <source-dir> <target-dir>    Sort files once
  bunrui watch [flags] <source-dir> <target-dir>   Sort continuously as files arrive
  bunrui train [flags] <training-data.yaml>        Train the vector model
  bunrui serve [flags]                             Start the HTTP API
  bunrui history [flags]                           Show recorded runs
  bunrui version                                   Show version
  bunrui help                                      Show this help

Sort Flags:
  --config string    Config file path (default: /usr/local/etc/bunrui/config.yaml)
  --debug            Enable debug logging
  --output string    Output format: text or json (default: text)
  --no-history       Do not record the run in history
  --move             Move files instead of copying
  --conflict string  Conflict policy: skip, overwrite, or rename (overrides config)
  --ml               Enable the vector model (overrides config)

Train Flags:
  --config string    Config file path
  --debug            Enable debug logging

Watch Flags:
  --config string    Config file path
  --debug            Enable debug logging
  --move             Move files instead of copying
  --conflict string  Conflict policy: skip, overwrite, or rename (overrides config)
  --ml               Enable the vector model (overrides config)

Serve Flags:
  --config string      Config file path
  --debug              Enable debug logging
  --train-data string  Training data YAML served by POST /api/v1/train

History Flags:
  --config string    Config file path
  --limit int        Number of runs to show, 0 = all (default: 20)
  --output string    Output format: text or json (default: text)

Examples:
  bunrui sort ~/Downloads ~/Documents/sorted
  bunrui sort --output json ~/Downloads ~/Documents/sorted
  bunrui watch ~/Downloads ~/Documents/sorted
  bunrui train training.yaml
  bunrui serve
  bunrui history --limit 5`)
}
