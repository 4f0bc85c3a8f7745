package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/quintal-labs/graphmem/internal/config"
	"github.com/quintal-labs/graphmem/internal/graph"
	"github.com/quintal-labs/graphmem/internal/server"
	"github.com/quintal-labs/graphmem/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	transport := flag.String("transport", cfg.Transport, "Transport mode: stdio or http")
	port := flag.String("port", cfg.Port, "HTTP port (only used with --transport http)")
	dataDir := flag.String("data-dir", cfg.DataDir, "Base directory for project graph stores")
	flag.Parse()

	// Logs go to stderr; the stdio transport owns stdout.
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := storage.NewGraphStore(*dataDir)
	if err != nil {
		logger.Fatal("open graph store", zap.Error(err))
	}
	reg, err := storage.OpenRegistry(*dataDir)
	if err != nil {
		logger.Fatal("open project registry", zap.Error(err))
	}
	defer reg.Close()

	svc := graph.NewService(store, reg, logger)
	srv := server.New(svc)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch *transport {
	case "stdio":
		logger.Info("graphmem server starting",
			zap.String("transport", "stdio"), zap.String("data_dir", *dataDir))
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case "http":
		addr := ":" + *port
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		logger.Info("graphmem server listening",
			zap.String("addr", addr), zap.String("data_dir", *dataDir))
		if err := http.ListenAndServe(addr, handler); err != nil {
			logger.Fatal("http server error", zap.Error(err))
		}
	default:
		logger.Fatal("unknown transport", zap.String("transport", *transport))
	}
}
