package cmd

import (
	"context"
	"net/http"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/wallet-bridge/pkg/app"
	"github.com/code-payments/wallet-bridge/pkg/bridge"
	"github.com/code-payments/wallet-bridge/pkg/host"
	"github.com/code-payments/wallet-bridge/pkg/interaction"
	"github.com/code-payments/wallet-bridge/pkg/metrics"
	"github.com/code-payments/wallet-bridge/pkg/wallet/adapter"
	adapterlocal "github.com/code-payments/wallet-bridge/pkg/wallet/adapter/local"
	localwallet "github.com/code-payments/wallet-bridge/pkg/wallet/local"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wallet component to the host page",
	RunE: func(*cobra.Command, []string) error {
		return app.Run(
			newBridgeApp(adapterlocal.NewFactory(adapterConfig(), localwallet.WithEnvConfigs())),
			app.WithConfigPath(configPath),
		)
	},
}

// bridgeConfig is the app section of the config file.
type bridgeConfig struct {
	AutoConnect bool `mapstructure:"auto_connect"`
}

type bridgeApp struct {
	log     *logrus.Entry
	factory adapter.Factory

	bridge *bridge.Bridge
	server *host.Server

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

func newBridgeApp(factory adapter.Factory) *bridgeApp {
	return &bridgeApp{
		log:        logrus.StandardLogger().WithField("type", "cmd/serve"),
		factory:    factory,
		shutdownCh: make(chan struct{}),
	}
}

func (a *bridgeApp) Init(config app.Config, metricsProvider *newrelic.Application) error {
	var conf bridgeConfig
	if err := mapstructure.Decode(config, &conf); err != nil {
		return errors.Wrap(err, "invalid app config")
	}

	ctx := metrics.NewContext(context.Background(), metricsProvider)

	var opts []bridge.Option
	if conf.AutoConnect {
		opts = append(opts, bridge.WithAutoConnect())
	}

	channel := host.NewChannel()
	a.bridge = bridge.New(a.factory, channel, opts...)
	a.server = host.NewServer(
		host.WithEnvConfigs(),
		channel,
		a.bridge,
		interaction.NewDemonstrator(interaction.WithEnvConfigs()),
	)

	// A failed initialization is reported through the status endpoint. The
	// host retries it with the init endpoint, and connect retries it too.
	if err := a.bridge.Init(ctx); err != nil {
		a.log.WithError(err).Warn("wallet bridge failed to initialize")
	}
	channel.SetReady()

	return nil
}

func (a *bridgeApp) HTTPHandler() http.Handler {
	return a.server.Handler()
}

func (a *bridgeApp) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

func (a *bridgeApp) Stop() {
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
		if a.bridge != nil {
			closeBridge(a.log, a.bridge)
		}
	})
}
