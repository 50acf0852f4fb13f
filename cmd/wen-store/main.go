// ABOUTME: Entry point for wen-store, the remote record store server
// ABOUTME: Serves users, entries and history over HTTP/JSON backed by SQLite

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/wen/internal/api"
	"github.com/2389/wen/internal/config"
	"github.com/2389/wen/internal/logging"
	"github.com/2389/wen/internal/telemetry"
)

// Version is set at build time.
var version = "dev"

const banner = `
 __      _____ _ __        ___| |_ ___  _ __ ___
 \ \ /\ / / _ \ '_ \ _____/ __| __/ _ \| '__/ _ \
  \ V  V /  __/ | | |_____\__ \ || (_) | | |  __/
   \_/\_/ \___|_| |_|     |___/\__\___/|_|  \___|
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: wen-store <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                      Start the record store")
		fmt.Println("  init                       Create a new config file interactively")
		fmt.Println("  token --identity ID        Issue a bearer token for an identity")
		fmt.Println("  health                     Check record store health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "token":
		err = runToken()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := config.StoreConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.LoadStore(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Auth:      ")
	if cfg.Auth.JWTSecret != "" {
		cyan.Println("bearer tokens")
	} else {
		yellow.Println("disabled")
	}
	fmt.Println()

	shutdownTracing, err := telemetry.Setup(ctx, "wen-store")
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flushing traces", "error", err)
		}
	}()

	logger.Info("starting wen-store",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	srv, err := api.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating record store: %w", err)
	}

	return srv.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := logging.ParseLevel(cfg.Level, slog.LevelInfo)

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = logging.NewColorHandler(os.Stdout, level)
	}

	return slog.New(handler)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.LoadStore(config.StoreConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr := cfg.Server.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	url := fmt.Sprintf("http://%s/health", addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// runToken issues a bearer token for an identity using the configured secret.
// Supports both "--identity value" and "--identity=value".
func runToken() error {
	var identity string
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--identity" || arg == "-i":
			if i+1 >= len(args) {
				return fmt.Errorf("--identity requires a value")
			}
			identity = args[i+1]
			i++
		case strings.HasPrefix(arg, "--identity="):
			identity = strings.TrimPrefix(arg, "--identity=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	identity = strings.TrimSpace(identity)
	if identity == "" {
		return fmt.Errorf("--identity flag is required")
	}

	cfg, err := config.LoadStore(config.StoreConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret not configured (required for tokens)")
	}

	// The server is only built to mint the token; it never listens.
	srv, err := api.New(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		return fmt.Errorf("opening record store: %w", err)
	}
	defer srv.Shutdown(context.Background())

	token, err := srv.IssueToken(identity)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	color.New(color.FgHiBlack).Fprintf(os.Stderr, "  expires in %s; export WEN_TOKEN=<token> for the wen CLI\n", cfg.Auth.TokenTTL)
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("wen-store configuration setup")
	fmt.Println("=============================")
	fmt.Println()

	defaults := config.DefaultStoreConfig()

	outputFile := prompt(reader, "Config file path", config.StoreConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", defaults.Server.HTTPAddr)

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaults.Database.Path)

	fmt.Println("\n--- Authentication ---")
	enableAuth := prompt(reader, "Require bearer tokens?", "yes")
	var jwtSecret string
	if strings.ToLower(enableAuth) == "yes" || strings.ToLower(enableAuth) == "y" {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret = base64.StdEncoding.EncodeToString(secretBytes)
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", defaults.Logging.Level)
	logFormat := prompt(reader, "Log format (text/json)", defaults.Logging.Format)

	var cfg strings.Builder
	cfg.WriteString("# wen-store configuration\n")
	cfg.WriteString("# Generated by wen-store init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  jwt_secret: \"%s\"\n", jwtSecret))
	cfg.WriteString("  token_ttl: \"720h\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("entries:\n")
	cfg.WriteString("  dedupe_ttl: \"24h\"\n")
	cfg.WriteString(fmt.Sprintf("  dedupe_size: %d\n", defaults.Entries.DedupeSize))
	cfg.WriteString("\n")

	cfg.WriteString("history:\n")
	cfg.WriteString(fmt.Sprintf("  default_limit: %d\n", defaults.History.DefaultLimit))
	cfg.WriteString(fmt.Sprintf("  max_limit: %d\n", defaults.History.MaxLimit))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// The file may hold the JWT secret.
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  wen-store serve\n")
	if jwtSecret != "" {
		fmt.Println("\nTo issue a token for the wen CLI:")
		fmt.Printf("  wen-store token --identity <name>\n")
	}

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
