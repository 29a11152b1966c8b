// Package main is the Shiori CLI entry point.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/anchor"
	"github.com/hyperjump/shiori/internal/cli"
	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/docstore"
	"github.com/hyperjump/shiori/internal/extract"
	"github.com/hyperjump/shiori/internal/index"
	"github.com/hyperjump/shiori/internal/loader"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/progress"
	"github.com/hyperjump/shiori/internal/search"
	"github.com/hyperjump/shiori/internal/server"
	"github.com/hyperjump/shiori/internal/storage"
	"github.com/hyperjump/shiori/internal/topic"
	"github.com/hyperjump/shiori/internal/watcher"
	"github.com/hyperjump/shiori/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shiori/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used instead.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "index":
		runIndex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("shiori version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds the wired application core shared by the subcommands.
type Components struct {
	Store       *docstore.Store
	Index       *index.Index
	Builder     *index.Builder
	Engine      *search.Engine
	Topics      *topic.Aggregator
	Manager     *anchor.Manager
	Progress    *progress.Writer
	Annotations *storage.Annotations
	Loader      *loader.Loader
	kv          storage.KV
}

// Close flushes pending writes and releases storage.
func (c *Components) Close() {
	c.Builder.Wait()
	c.Progress.Flush()
	if c.kv != nil {
		_ = c.kv.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	kv, err := storage.NewSQLiteKV(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var debugLogger *zap.Logger
	if debug {
		debugLogger = logger
	}
	annotations := storage.NewAnnotations(kv, annotationsOpts(debugLogger)...)
	store := docstore.New()
	ix := index.New()

	var builderOpts []index.BuilderOption
	var loaderOpts []loader.Option
	if debugLogger != nil {
		builderOpts = append(builderOpts, index.WithLogger(debugLogger))
		loaderOpts = append(loaderOpts, loader.WithLogger(debugLogger))
	}
	builder := index.NewBuilder(ix, store, builderOpts...)
	engine := search.NewEngine(ix, store, &cfg.Search)
	topics := topic.New(store)
	resolver := anchor.NewResolver(&cfg.Anchor)
	manager := anchor.NewManager(resolver, store, annotations)
	writer := progress.NewWriter(annotations, cfg.Search.ProgressThrottle)
	ld := loader.New(store, ix, builder, extract.NewExtractor(), &cfg.Content, loaderOpts...)

	return &Components{
		Store:       store,
		Index:       ix,
		Builder:     builder,
		Engine:      engine,
		Topics:      topics,
		Manager:     manager,
		Progress:    writer,
		Annotations: annotations,
		Loader:      ld,
		kv:          kv,
	}, nil
}

func annotationsOpts(debugLogger *zap.Logger) []storage.AnnotationsOption {
	if debugLogger == nil {
		return nil
	}
	return []storage.AnnotationsOption{storage.WithLogger(debugLogger)}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file loading, index builds, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	n, err := components.Loader.LoadAll(context.Background())
	if err != nil {
		logger.Fatal("Failed to load content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("documents", n),
		zap.Int("topics", len(components.Store.Topics())),
	)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if cfg.Content.WatchOrDefault() {
		ld := components.Loader
		manager := components.Manager
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.New(
			&cfg.Content,
			func(path string) {
				doc, changed, err := ld.ReloadPath(path)
				if err != nil {
					logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
					return
				}
				if changed {
					manager.Reanchor(doc)
				}
			},
			func(path string) {
				ld.RemovePath(path)
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		components.Engine,
		components.Store,
		components.Index,
		components.Builder,
		components.Topics,
		components.Manager,
		components.Progress,
		components.Annotations,
		components.Loader.ReloadDocument,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topicFilter := fs.String("topic", "", "restrict results to one topic")
	limit := fs.Int("limit", 0, "maximum number of results (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	interactive := fs.Bool("interactive", false, "read queries from stdin, one per line")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: shiori search [flags] <query>\n\n")
		fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n")
		fmt.Fprintf(fs.Output(), "With -interactive, queries are read from stdin instead.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() == 0 && !*interactive {
		fs.Usage()
		os.Exit(1)
	}
	query := strings.Join(fs.Args(), " ")

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if _, err := components.Loader.LoadAll(context.Background()); err != nil {
		logger.Fatal("Failed to load content", zap.Error(err))
	}

	format := cli.OutputText
	if *output == "json" {
		format = cli.OutputJSON
	}
	if *interactive {
		runInteractiveSearch(components.Engine, cfg, *topicFilter, *limit, format)
		return
	}

	response, err := components.Engine.Search(context.Background(), &models.SearchQuery{
		Query:      query,
		Topic:      *topicFilter,
		MaxResults: *limit,
	})
	if err != nil {
		logger.Fatal("Search failed", zap.Error(err))
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		logger.Fatal("Failed to write results", zap.Error(err))
	}
}

// runInteractiveSearch reads queries from stdin, one per line, debounced so a
// pasted or piped burst only executes its final query. End of input flushes
// the pending query before returning.
func runInteractiveSearch(engine *search.Engine, cfg *config.Config, topicFilter string, limit int, format cli.SearchOutputFormat) {
	deb := search.NewDebouncer(engine, cfg.Search.QueryDebounce, func(resp *models.SearchResponse) {
		_ = cli.WriteSearchResults(os.Stdout, resp, format)
	})
	defer deb.Stop()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		deb.Query(&models.SearchQuery{Query: q, Topic: topicFilter, MaxResults: limit})
	}
	deb.Flush()
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	n, err := components.Loader.LoadAll(context.Background())
	if err != nil {
		logger.Fatal("Failed to load content", zap.Error(err))
	}
	fmt.Printf("Loaded %d documents across %d topics (%d indexed, %d tokens)\n",
		n, len(components.Store.Topics()),
		components.Index.DocumentCount(), components.Index.TokenCount())
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	n, err := components.Loader.LoadAll(context.Background())
	if err != nil {
		logger.Fatal("Failed to load content", zap.Error(err))
	}

	fmt.Printf("Config:    %s\n", resolvedConfigPath)
	fmt.Printf("Database:  %s\n", cfg.Storage.DatabasePath)
	fmt.Printf("Roots:     %s\n", strings.Join(cfg.Content.Roots, ", "))
	fmt.Printf("Documents: %d\n", n)
	fmt.Printf("Topics:    %d\n", len(components.Store.Topics()))
	fmt.Printf("Indexed:   %d documents, %d tokens\n",
		components.Index.DocumentCount(), components.Index.TokenCount())
}

func printUsage() {
	fmt.Println(`shiori - Content search and annotation engine for learning material

Usage:
  shiori server [flags]           Start the HTTP server
  shiori search [flags] <query>   Search loaded content
  shiori index [flags]            Load and index the content roots
  shiori status [flags]           Show content/index status
  shiori version                  Show version
  shiori help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/shiori/config.yaml)
  --debug            Enable debug logging (file loading, index builds, etc.)

Search Flags:
  --config string    Config file path
  --topic string     Restrict results to one topic
  --limit int        Maximum number of results
  --output string    Output format: text or json (default: text)
  --interactive      Read queries from stdin, one per line

Index/Status Flags:
  --config string    Config file path

Examples:
  shiori server
  shiori search inner join
  shiori search --topic sql "left join"
  shiori search --output json "context cancellation"
  shiori index
  shiori status`)
}
