package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/chandra/internal/server"
	"github.com/danielpatrickdp/chandra/internal/store"
)

var (
	listenAddr string
	noPersist  bool
)

// #region serve

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the diagnostic gRPC service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&noPersist, "no-persist", false, "Do not store reports")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}

	a, err := cfg.NewAnalyzer(logger)
	if err != nil {
		return err
	}
	opts := []server.Option{server.WithLogger(logger)}
	if !noPersist {
		st, err := store.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer st.Close()
		opts = append(opts, server.WithStore(st))
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("serving",
		zap.String("addr", lis.Addr().String()),
		zap.String("service", server.ServiceName),
		zap.Bool("persist", !noPersist))
	if err := server.New(a, opts...).Serve(ctx, lis); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// #endregion serve
