package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/cli/config"
	httpctrl "github.com/secmon-lab/plantops/pkg/controller/http"
	"github.com/secmon-lab/plantops/pkg/service/worker"
	"github.com/secmon-lab/plantops/pkg/utils/async"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"github.com/secmon-lab/plantops/pkg/utils/metrics"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var maxUpload int64
	var disableTipRefresh bool
	var flagsCfg appFlags
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("PLANTOPS_ADDR"),
			Destination: &addr,
		},
		&cli.Int64Flag{
			Name:        "max-upload-bytes",
			Usage:       "Maximum size of an uploaded image or audio file",
			Value:       httpctrl.DefaultMaxUploadBytes,
			Sources:     cli.EnvVars("PLANTOPS_MAX_UPLOAD_BYTES"),
			Destination: &maxUpload,
		},
		&cli.BoolFlag{
			Name:        "disable-tip-refresh",
			Usage:       "Do not refresh care tips in the background",
			Sources:     cli.EnvVars("PLANTOPS_DISABLE_TIP_REFRESH"),
			Destination: &disableTipRefresh,
		},
	}

	// Add shared config flags
	flags = append(flags, flagsCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			m := metrics.New()
			rt, err := flagsCfg.build(ctx, m)
			if err != nil {
				return err
			}
			defer rt.close()

			// Start tip refresh worker if the analysis engine is available
			var tipWorker *worker.TipRefreshWorker
			if rt.uc.Care.Enabled() && !disableTipRefresh {
				tipWorker = worker.NewTipRefreshWorker(rt.uc.Care, rt.cfg.Tips.RefreshInterval.Duration)
				if err := tipWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start tip refresh worker")
				}
			}

			server := &http.Server{
				Addr: addr,
				Handler: httpctrl.New(rt.uc,
					httpctrl.WithImages(rt.images),
					httpctrl.WithMetrics(m),
					httpctrl.WithMaxUploadBytes(maxUpload),
				),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				if tipWorker != nil {
					tipWorker.Stop()
				}
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop tip refresh worker first
				if tipWorker != nil {
					tipWorker.Stop()
				}

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				if err := async.Wait(shutdownCtx); err != nil {
					logging.Default().Warn("Pending alerts were not delivered", "error", err)
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
