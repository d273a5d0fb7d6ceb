package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/NoahCxrest/ERMSupport/internal/bot"
	"github.com/NoahCxrest/ERMSupport/internal/config"
	"github.com/NoahCxrest/ERMSupport/internal/funfact"
	"github.com/NoahCxrest/ERMSupport/internal/ops"
	"github.com/NoahCxrest/ERMSupport/internal/sentry"
	"github.com/NoahCxrest/ERMSupport/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the cronus bot (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running cronus bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cronus status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "cronus.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "cronus version %s\n", version)

	// A .env next to the binary feeds the CRONUS_* overrides; absence
	// is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Refuse to double-start: probe the ops endpoint, then claim the PID file.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, probeErr := healthClient.Get(healthURL); probeErr == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("cronus is already running (PID %d)", pid)
			return fmt.Errorf("already running (PID %d)", pid)
		}
		printWarning("cronus is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	started := time.Now()

	// Assemble the command modules and router.
	searcher := sentry.NewClient(
		cfg.Sentry.BaseURL,
		cfg.Sentry.Organization,
		cfg.Sentry.Project,
		cfg.Sentry.APIKey,
		cfg.Sentry.FetchTimeout,
	)
	lookup := sentry.NewLookup(searcher, sentry.LookupConfig{
		MaxAttempts:     cfg.Sentry.MaxAttempts,
		InitialInterval: cfg.Sentry.InitialInterval,
		Multiplier:      cfg.Sentry.Multiplier,
		IssueURLBase:    cfg.Sentry.IssueURLBase,
	})

	router := bot.NewRouter(cfg.Discord.Prefix, cfg.Discord.TagPrefix, slog.Default())
	support := &bot.Support{
		Lookup:      lookup,
		Store:       store,
		SupportRole: cfg.Discord.SupportRole,
		Logger:      slog.Default(),
	}
	support.Register(router)
	fun := &bot.Fun{Client: funfact.New(cfg.Fun)}
	fun.Register(router)

	b, err := bot.New(cfg.Discord, router, slog.Default())
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}

	util := &bot.Utility{
		Version: version,
		Started: started,
		Store:   store,
		Latency: b.Latency,
	}
	util.Register(router)

	opsHandler := ops.NewHandler(ops.Deps{
		Version: version,
		Started: started,
		Tickets: store,
		Logger:  slog.Default(),
	})
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: opsHandler,
	}

	// Gateway session and ops endpoint ride the same lifetime: the first
	// to fail takes the other down via the group context.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.Run(gctx)
	})

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "cronus ops endpoint on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops endpoint: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func stopServer() error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("cronus is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop cronus (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to cronus (PID %d)", pid)
	return nil
}

func showStatus() error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Bot", "stopped")
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		return nil
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		printStatus("Bot", "error (HTTP %d)", resp.StatusCode)
		return nil
	}
	printStatus("Bot", "running on port %d", cfg.Server.Port)

	stResp, err := client.Get(serverURL + "/status")
	if err == nil {
		var st ops.Status
		if json.NewDecoder(stResp.Body).Decode(&st) == nil {
			printStatus("Version", "%s", st.Version)
			printStatus("Uptime", "%s", (time.Duration(st.UptimeSeconds) * time.Second).String())
			printStatus("Goroutines", "%d", st.Goroutines)
			printStatus("Closed tickets", "%d", st.ClosedTickets)
		}
		stResp.Body.Close()
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
