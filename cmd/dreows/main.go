// dreows connects to the Dreo cloud WebSocket and streams messages to the console.
// Usage: go run ./cmd/dreows --config configs/dreows.example.yaml
//
// Required environment variables (when using the example config):
//
//	DREO_ACCESS_TOKEN - access token from the Dreo login API, optionally with a ":EU" suffix
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/dreo-ws/internal/config"
	"github.com/rickgao/dreo-ws/internal/connection"
	"github.com/rickgao/dreo-ws/internal/metrics"
	"github.com/rickgao/dreo-ws/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	token := flag.String("token", "", "access token (overrides session.access_token)")
	verbose := flag.Bool("verbose", false, "pretty-print JSON messages")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting dreows", version.LogAttrs(), "config", *configPath)

	if err := run(cfg, *verbose, logger); err != nil {
		logger.Error("dreows failed", "error", err)
		os.Exit(1)
	}

	logger.Info("dreows stopped")
}

func loadConfig(path, token string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if token != "" {
		cfg.Session.AccessToken = token
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func run(cfg *config.Config, verbose bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	session := connection.NewSession(cfg.Session.AccessToken,
		connection.WithLogger(logger),
		connection.WithEndpoints(cfg.Endpoints()),
		connection.WithMetrics(metrics.New(reg)),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Port > 0 {
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           createHandler(session, reg, cfg.Metrics.Path),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		// A finished stream also stops the metrics server
		defer cancel()
		return stream(ctx, session, cfg, verbose, logger)
	})

	return g.Wait()
}

// errRemoteClosed ends the errgroup when the server drops the stream abnormally.
var errRemoteClosed = errors.New("connection closed by server")

// stream runs the session until ctx is done or the connection closes.
func stream(ctx context.Context, session *connection.Session, cfg *config.Config, verbose bool, logger *slog.Logger) error {
	closed := make(chan int, 1)

	handlers := connection.Handlers{
		OnOpen: func() {
			logger.Info("connected", "region", session.Region())
		},
		OnMessage: func(payload []byte) {
			printMessage(payload, verbose)
		},
		OnError: func(err error) {
			logger.Warn("websocket error", "error", err)
		},
		OnClose: func(code int, reason string) {
			logger.Info("disconnected", "code", code, "reason", reason)
			closed <- code
		},
	}

	if err := session.Connect(handlers, cfg.RunOptions()); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	logger.Info("streaming started - press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
		session.Disconnect(cfg.Connection.DisconnectTimeout)
		return nil
	case code := <-closed:
		session.Disconnect(cfg.Connection.DisconnectTimeout)
		if code == websocket.CloseNormalClosure {
			return nil
		}
		return fmt.Errorf("%w (code %d)", errRemoteClosed, code)
	}
}

func printMessage(payload []byte, verbose bool) {
	if verbose {
		var out bytes.Buffer
		if err := json.Indent(&out, payload, "", "  "); err == nil {
			fmt.Printf("[MESSAGE] %s\n", out.Bytes())
			return
		}
	}
	fmt.Printf("[MESSAGE] %s\n", payload)
}
