package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FullBlownAinz/dotcom/internal/cache"
	"github.com/FullBlownAinz/dotcom/internal/config"
	"github.com/FullBlownAinz/dotcom/internal/gateway"
	"github.com/FullBlownAinz/dotcom/internal/gateway/local"
	"github.com/FullBlownAinz/dotcom/internal/gateway/remote"
	"github.com/FullBlownAinz/dotcom/internal/logging"
	"github.com/FullBlownAinz/dotcom/internal/server"
	"github.com/FullBlownAinz/dotcom/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const sessionSweepInterval = 30 * time.Second

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fba-site",
		Short: "Full Blown Ainz site server",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("gateway-url", defaults.GetString("gateway.url"), "Hosted backend base URL")
	cmd.PersistentFlags().String("gateway-anon-key", "", "Hosted backend public API key (overrides env)")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path for the local gateway")
	cmd.PersistentFlags().String("media-dir", defaults.GetString("media.dir"), "Directory for locally stored uploads")
	cmd.PersistentFlags().String("operator-email", defaults.GetString("operator.email"), "Operator login identifier for the local gateway")
	cmd.PersistentFlags().String("operator-password-hash", "", "SHA-256 hex digest of the operator secret (overrides env)")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "gateway.url", "gateway-url")
	bindFlag(cmd, "gateway.anon_key", "gateway-anon-key")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "media.dir", "media-dir")
	bindFlag(cmd, "operator.email", "operator-email")
	bindFlag(cmd, "operator.password_hash", "operator-password-hash")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func buildGateway(appConfig config.AppConfig, logger *zap.Logger) (gateway.Gateway, func(), error) {
	switch appConfig.Mode() {
	case config.ModeRemote:
		gw, err := remote.New(remote.Config{
			BaseURL: appConfig.GatewayURL,
			AnonKey: appConfig.GatewayAnonKey,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return gw, func() {}, nil
	case config.ModeLocal:
		gw, err := local.New(local.Config{
			DatabasePath:  appConfig.DatabasePath,
			MediaDir:      appConfig.MediaDir,
			SigningSecret: []byte(appConfig.SigningSecret),
			Operators:     map[string]string{appConfig.OperatorEmail: appConfig.OperatorSecretHash},
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return gw, func() { _ = gw.Close() }, nil
	default:
		logger.Warn("no gateway configured, serving sample content read-only")
		return nil, func() {}, nil
	}
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	gw, closeGateway, err := buildGateway(appConfig, logger)
	if err != nil {
		return err
	}
	defer closeGateway()

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	contentCache := cache.New(cache.Config{Gateway: gw, Logger: logger})
	if gw != nil {
		if err := contentCache.Refresh(signalCtx); err != nil {
			logger.Warn("initial content refresh failed, serving sample content", zap.Error(err))
		}
		unsubscribe, err := contentCache.Start(signalCtx)
		if err != nil {
			logger.Warn("change stream unavailable", zap.Error(err))
		} else {
			defer unsubscribe()
		}
	}

	gate := session.NewGate(session.GateConfig{Logger: logger})
	go gate.WatchExpiry(signalCtx, sessionSweepInterval)

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Gateway:  gw,
		Cache:    contentCache,
		Gate:     gate,
		MediaDir: appConfig.MediaDir,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("gateway_mode", string(appConfig.Mode())))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
