package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/ehsan18t/easy-mingw-installer/pkg/cli/config"
	controller "github.com/ehsan18t/easy-mingw-installer/pkg/controller/http"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

func cmdServe() *cli.Command {
	var (
		serverCfg  config.Server
		githubCfg  config.GitHub
		buildCfg   config.Build
		storageCfg config.Storage
		notifyCfg  config.Notify
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, buildCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting easy-mingw server",
				slog.String("addr", serverCfg.Addr),
			)

			buildUC, cleanup, err := newBuildUseCase(ctx, &githubCfg, &buildCfg, &storageCfg, &notifyCfg)
			if err != nil {
				return err
			}
			defer cleanup()

			// Every request starts from the flag configuration
			newRequest := func(labels []string) (*model.BuildRequest, error) {
				cfg := buildCfg
				if len(labels) > 0 {
					cfg.Archs = labels
				}
				return cfg.Request()
			}

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				buildUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithTriggerSecret(serverCfg.TriggerSecret),
				controller.WithRequestFactory(newRequest),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
