package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Brownie44l1/agri-api/internal/logger"
	"github.com/Brownie44l1/agri-api/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP server (default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.Int("port", 8080, "port the HTTP server listens on")
	flags.Int64("max-upload-bytes", 10<<20, "largest accepted image upload")
	flags.Bool("cors", true, "allow cross-origin requests")

	for key, flag := range map[string]string{
		"server.port":           "port",
		"server.maxUploadBytes": "max-upload-bytes",
		"server.cors":           "cors",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func runServe() error {
	logger.Infof("agri-api %s starting on port %d", cfg.Version, cfg.Server.Port)
	logger.Infof("models directory: %s", cfg.Models.Dir)

	srv := server.New(cfg, server.Load(cfg))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Stop(ctx)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}
	case sig := <-stop:
		logger.Infof("received %v signal, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			logger.Warnf("error during shutdown: %v", err)
		}
	}
	logger.Sync()
	return nil
}
