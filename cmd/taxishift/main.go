package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/taxishift/internal/scanning"
	"github.com/zombor/taxishift/internal/tracker"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("taxishift")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "taxishift.db", "Database file path")
		storagePath = fs.StringLong("storage", "./receipts", "Directory for archived summary photos")
		scannerType = fs.StringLong("scanner", "gemini", "Scanner type: 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", scanning.DefaultGeminiModel, "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", scanning.DefaultOllamaURL, "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", scanning.DefaultOllamaModel, "Ollama vision model name (e.g., llava, qwen2-vl, llama3.2-vision)")
		sessionTTL  = fs.DurationLong("session-ttl", tracker.DefaultSessionTTL, "How long a login stays valid")
		maxUploadMB = fs.IntLong("max-upload", int(tracker.DefaultMaxImageSize>>20), "Largest accepted summary photo in MB")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("TAXISHIFT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...", "path", *dbPath)
	db, err := tracker.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	scanner, err := newScanner(*scannerType, *geminiKey, *geminiModel, *ollamaURL, *ollamaModel)
	if err != nil {
		slog.Error("Failed to initialize scanner", "type", *scannerType, "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	// Initialize storage
	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := tracker.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := tracker.NewService(db, scanner, store, tracker.NewSessionStore(*sessionTTL))
	service.SetMaxImageSize(int64(*maxUploadMB) << 20)

	server := tracker.NewServer(service)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
}

// newScanner sets up the extraction provider. A missing Gemini key is not fatal:
// the server starts and every upload reports that scanning needs configuring.
func newScanner(scannerType, geminiKey, geminiModel, ollamaURL, ollamaModel string) (scanning.Scanner, error) {
	switch scannerType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner...", "model", geminiModel)
		scanner, err := scanning.NewGemini(context.Background(), apiKey, geminiModel)
		if errors.Is(err, scanning.ErrConfiguration) {
			slog.Warn("Gemini API key is not set; uploads will fail until --gemini-key or GEMINI_API_KEY is provided")
			return &scanning.Unconfigured{Reason: "no Gemini API key"}, nil
		}
		if err != nil {
			return nil, err
		}
		return scanner, nil
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", ollamaURL, "model", ollamaModel)
		scanner, err := scanning.NewOllama(ollamaURL, ollamaModel)
		if err != nil {
			return nil, err
		}
		return scanner, nil
	default:
		return nil, fmt.Errorf("invalid scanner type %q, valid: gemini or ollama", scannerType)
	}
}
