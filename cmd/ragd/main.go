// Package main is the ragd CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tmammadov17503/rag-ml-ops/internal/chat"
	"github.com/tmammadov17503/rag-ml-ops/internal/config"
	"github.com/tmammadov17503/rag-ml-ops/internal/embedding"
	"github.com/tmammadov17503/rag-ml-ops/internal/history"
	"github.com/tmammadov17503/rag-ml-ops/internal/llm"
	"github.com/tmammadov17503/rag-ml-ops/internal/models"
	"github.com/tmammadov17503/rag-ml-ops/internal/server"
	"github.com/tmammadov17503/rag-ml-ops/internal/store"
	"github.com/tmammadov17503/rag-ml-ops/pkg/utils"
)

var version = "dev"

func main() {
	// A .env next to the binary is a development convenience; absence is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch command := os.Args[1]; command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("ragd version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: ragd <command> [flags]

Commands:
  server    start the RAG HTTP server
  search    query a running server
  status    show index and history counters of a running server
  version   print the version

Configuration comes from a YAML file (-config), environment variables, and
a .env file in the working directory, in increasing order of precedence
for the environment over the file.
`)
}

type components struct {
	Store    *store.Store
	Embedder *embedding.SafeEmbedder
	Streamer *chat.Streamer
	History  *history.Store
	Logger   *zap.Logger
}

func (c *components) Close() {
	if c.History != nil {
		_ = c.History.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	client := llm.NewClient(&cfg.Service, llm.WithLogger(logger))

	embedder := embedding.NewSafeEmbedder(
		client,
		cfg.Embedding.ModelID,
		cfg.Embedding.Dimensions,
		embedding.WithLogger(logger),
		embedding.WithCache(cfg.Embedding.CacheSize),
	)

	st, err := store.Default(cfg, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize retrieval store: %w", err)
	}

	hist, err := history.Open(cfg.Storage.HistoryDBPath)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open history store: %w", err)
	}

	streamer := chat.NewStreamer(st, client, hist, &cfg.Chat, logger)

	return &components{
		Store:    st,
		Embedder: embedder,
		Streamer: streamer,
		History:  hist,
		Logger:   logger,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (empty = defaults + environment)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
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
		zap.String("config_path", *configPath),
		zap.Bool("debug", debugMode),
		zap.String("corpus_root", cfg.Corpus.RootDir),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	srv := server.NewServer(comps.Store, comps.Embedder, comps.Streamer, comps.History, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
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

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8000", "server URL")
	k := fs.Int("k", 0, "number of results (0 = server default)")
	hybrid := fs.Bool("hybrid", false, "fuse keyword and semantic scores")
	outputJSON := fs.Bool("json", false, "print the raw JSON response")
	_ = fs.Parse(os.Args[2:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: ragd search [flags] <query>")
		os.Exit(1)
	}

	resp, err := searchViaHTTP(*serverURL, &models.SearchRequest{Query: query, K: *k, Hybrid: *hybrid})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
		return
	}
	if len(resp.Hits) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, hit := range resp.Hits {
		fmt.Printf("%d. [%.4f] %s\n", i+1, hit.Score, summarize(hit.Text))
	}
	fmt.Printf("(%d results in %dms)\n", len(resp.Hits), resp.QueryTime)
}

func searchViaHTTP(serverURL string, req *models.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpResp, err := http.Post(
		strings.TrimRight(serverURL, "/")+"/api/v1/search",
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("server returned %d: %s", httpResp.StatusCode, strings.TrimSpace(string(b)))
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// summarize collapses a passage to a single short line for terminal output.
func summarize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	const max = 120
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8000", "server URL")
	_ = fs.Parse(os.Args[2:])

	httpResp, err := http.Get(strings.TrimRight(*serverURL, "/") + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", httpResp.StatusCode, strings.TrimSpace(string(b)))
		os.Exit(1)
	}
	var status map[string]interface{}
	if err := json.NewDecoder(httpResp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Bad status response: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(status)
}
