package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"assetgate/internal/auth"
	"assetgate/internal/core"
	"assetgate/internal/storage"
)

var version = "dev"

func Run(ctx context.Context, settings core.Settings) error {

	handler := log.NewWithOptions(os.Stdout, log.Options{
		Level:           settings.Level(),
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		TimeFunction:    log.NowUTC,
		ReportCaller:    true,
	})

	slog.SetDefault(slog.New(handler))

	minioStore, err := storage.NewMinioStore(storage.MinioOptions{
		Endpoint:     settings.MinioURL,
		AccessKey:    settings.MinioAccess,
		SecretKey:    settings.MinioSecret,
		Region:       settings.MinioRegion,
		ListPageSize: settings.ListPageSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create object store client: %w", err)
	}

	if settings.CreateBuckets {
		for _, bucket := range []string{settings.Bucket, settings.ImagesBucket} {
			if err := minioStore.EnsureBucket(ctx, bucket); err != nil {
				return err
			}
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := storage.NewInstrumentedStore(minioStore, "", reg)
	if err != nil {
		return err
	}

	authenticator, err := auth.NewKeySetAuthEngine(settings.JWTPublicKey)
	if err != nil {
		return fmt.Errorf("failed to load JWT public key: %w", err)
	}

	server, err := core.NewServer(core.NewConfig(
		core.WithStore(store),
		core.WithAuthEngine(authenticator),
		core.WithBucket(settings.Bucket),
		core.WithImagesBucket(settings.ImagesBucket),
		core.WithBatchConcurrency(settings.BatchConcurrency),
		core.WithMaxUploadBytes(settings.MaxUploadBytes),
		core.WithRegistry(reg),
	))
	if err != nil {
		return fmt.Errorf("failed to create asset server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              settings.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 20 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	eg.Go(func() error {
		slog.Info("Starting asset gateway", "listen", settings.Listen, "bucket", settings.Bucket, "store", settings.MinioURL)
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	return eg.Wait()
}

func newRootCmd() *cobra.Command {
	v := core.NewViper()
	var configFile string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the asset gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
			}

			settings, err := core.LoadSettings(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return Run(ctx, settings)
		},
	}

	flags := serveCmd.Flags()
	flags.String("listen", ":8080", "HTTP listen address")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("create-buckets", false, "create the asset and image buckets if they do not exist")
	_ = v.BindPFlag("listen", flags.Lookup("listen"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("create_buckets", flags.Lookup("create-buckets"))

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd := &cobra.Command{
		Use:           "assetgate",
		Short:         "HTTP gateway for image, audio and video assets in an S3-compatible store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (yaml, json or toml)")
	rootCmd.Flags().AddFlagSet(flags)
	rootCmd.AddCommand(serveCmd, versionCmd)

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Asset gateway exited with error", "error", err)
		os.Exit(1)
	}
}
