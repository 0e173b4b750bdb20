package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/seantiz/lchgate/internal/backend"
	"github.com/seantiz/lchgate/internal/backend/command"
	"github.com/seantiz/lchgate/internal/backend/star"
	"github.com/seantiz/lchgate/internal/config"
	"github.com/seantiz/lchgate/internal/host"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	reg := backend.NewRegistry()
	reg.Register(star.Name, star.New(cfg.MaxSteps))
	reg.Register(command.Name, command.New())

	exec, err := reg.Resolve(cfg.Executor)
	if err != nil {
		var names []string
		for _, info := range reg.List() {
			names = append(names, info.Name)
		}
		log.Fatalf("resolve executor: %v (available: %s)", err, strings.Join(names, ", "))
	}

	logger.Info("lch-host: starting",
		"listen_addr", cfg.ListenAddr,
		"executor", cfg.Executor,
		"loop_interval", cfg.LoopInterval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := host.New(cfg, exec, logger, os.Stdout)
	if err := h.Start(ctx); err != nil {
		log.Fatalf("start host: %v", err)
	}

	if err := h.Run(ctx); err != nil {
		logger.Error("host loop", "error", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.Stop(shutdownCtx); err != nil {
		log.Fatalf("stop host: %v", err)
	}
}
