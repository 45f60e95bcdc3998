package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/acme/autocert"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/zaloga/internal/api"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// secretAuto selects the secret stored in the database.
const secretAuto = "auto"

func main() {
	fs := flag.NewFlagSet("zaloga-sheet", flag.ContinueOnError)

	var dbPath string
	fs.StringVar(&dbPath, "db", "zaloga-sheet.sqlite3", "")
	fs.StringVar(&dbPath, "d", "zaloga-sheet.sqlite3", "")

	var addr string
	fs.StringVar(&addr, "addr", ":8081", "")
	fs.StringVar(&addr, "a", ":8081", "")

	var masterPath string
	fs.StringVar(&masterPath, "master", "", "")
	fs.StringVar(&masterPath, "m", "", "")

	var secret string
	fs.StringVar(&secret, "secret", "", "")

	var tlsDomain string
	fs.StringVar(&tlsDomain, "tls-domain", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: zaloga-sheet [flags]

Serves the inventory spreadsheet API (/exec) the zaloga app talks to.

Flags:
  -d, -db <path>          SQLite database path (default: zaloga-sheet.sqlite3)
  -a, -addr <host:port>   listen address (default: :8081)
  -m, -master <path>      YAML file with categories and locations to load
  -secret <value|auto>    require signed requests; "auto" uses the secret
                          stored in the database (default: no auth)
  -tls-domain <domain>    serve HTTPS with a Let's Encrypt certificate
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	closeLog, err := logging.Setup(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	_, statErr := os.Stat(dbPath)
	firstRun := os.IsNotExist(statErr)

	database, err := db.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "path", dbPath)

	ctx := context.Background()

	if masterPath != "" {
		if err := loadMaster(ctx, database, masterPath); err != nil {
			slog.Error("failed to load master data", "path", masterPath, "error", err)
			os.Exit(1)
		}
		slog.Info("master data loaded", "path", masterPath)
	}

	if secret == secretAuto {
		secret, err = store.GetAPISecret(ctx, database)
		if err != nil {
			slog.Error("failed to get API secret", "error", err)
			os.Exit(1)
		}
		if firstRun {
			printSecret(dbPath, secret)
		}
	}
	if secret == "" {
		slog.Warn("API authentication disabled, anyone who can reach the server can change the inventory")
	}

	handler := api.LoggingMiddleware(api.NewRouter(database, secret))

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var challenge *http.Server
	if tlsDomain != "" {
		manager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(tlsDomain),
			Cache:      autocert.DirCache(dbPath + ".certs"),
		}
		server.TLSConfig = &tls.Config{
			GetCertificate: manager.GetCertificate,
			NextProtos:     []string{"h2", "http/1.1", "acme-tls/1"},
		}
		challenge = &http.Server{
			Addr:              ":80",
			Handler:           manager.HTTPHandler(nil),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := challenge.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("acme challenge server error", "error", err)
			}
		}()
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if challenge != nil {
			challenge.Shutdown(ctx)
		}
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", addr, "tls_domain", tlsDomain, "auth", secret != "")
	if tlsDomain != "" {
		err = server.ListenAndServeTLS("", "")
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// loadMaster replaces the master data with the contents of a YAML file:
//
//	categories: [配管, 電気]
//	locations: [倉庫A, 車両]
func loadMaster(ctx context.Context, database *sql.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading master file: %w", err)
	}

	var m model.MasterData
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing master file: %w", err)
	}
	return store.SetMaster(ctx, database, m)
}

// printSecret prints the generated API secret to stdout on first run.
func printSecret(dbPath, secret string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println()
	fmt.Println("API secret generated:")
	fmt.Printf("  %s\n", secret)
	fmt.Println()
	fmt.Println("Start zaloga with -secret set to this value.")
	fmt.Println()
}
