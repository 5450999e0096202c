package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ZentaChain/zentalk-client/pkg/api"
	"github.com/ZentaChain/zentalk-client/pkg/client"
	"github.com/ZentaChain/zentalk-client/pkg/config"
	"github.com/ZentaChain/zentalk-client/pkg/crypto"
	"github.com/ZentaChain/zentalk-client/pkg/logging"
	"github.com/ZentaChain/zentalk-client/pkg/network"
	"github.com/ZentaChain/zentalk-client/pkg/protocol"
	"github.com/ZentaChain/zentalk-client/pkg/session"
	"github.com/ZentaChain/zentalk-client/pkg/storage"
)

type app struct {
	cfg        *config.Config
	log        *zap.Logger
	registry   *prometheus.Registry
	history    *storage.MessageDB
	dispatcher *client.Dispatcher
}

// unreachable stands in for the transport when the server address could
// not be loaded, so every action fails without a connection attempt
type unreachable struct {
	err error
}

func (u unreachable) Exchange(ctx context.Context, request []byte) (*protocol.ResponseHeader, []byte, error) {
	return nil, nil, protocol.NewError(protocol.KindTransport, "exchange", u.err)
}

func loadConfig(flags Flags) (*config.Config, error) {
	cfg := config.Default()
	if flags.ConfigFile != "" {
		var err error
		if cfg, err = config.LoadFile(flags.ConfigFile); err != nil {
			return nil, fmt.Errorf("failed to load config file '%v': %w", flags.ConfigFile, err)
		}
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
		if err := cfg.FixupAndValidate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newApp wires the client from configuration. A saved identity that fails
// to load is an error.
func newApp(flags Flags, out io.Writer) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logger, err := logging.Setup(cfg.Logging)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	network.RegisterMetrics(registry)

	var ex client.Exchanger
	addr, err := network.LoadAddress(storage.NewLineFile(cfg.Paths.ServerInfo))
	if err != nil {
		fmt.Fprintf(out, "Can not use server address from '%s': %v\n", cfg.Paths.ServerInfo, err)
		logger.Warn("server address unavailable", zap.String("path", cfg.Paths.ServerInfo), zap.Error(err))
		ex = unreachable{err: err}
	} else {
		ex = network.NewClient(addr, network.Options{DialTimeout: cfg.DialTimeout(), Logger: logger})
	}

	a := &app{cfg: cfg, log: logger, registry: registry}

	opts := client.Options{
		DownloadsDir:     cfg.Paths.DownloadsDir,
		WrapSymmetricKey: cfg.Session.WrapSymmetricKey,
		Logger:           logger,
	}
	if cfg.Paths.HistoryDB != "" {
		if a.history, err = storage.NewMessageDB(cfg.Paths.HistoryDB, cfg.Session.HistoryPassphrase); err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		opts.History = a.history
	}

	provider := crypto.Provider{}
	store := session.NewIdentityStore(storage.NewLineFile(cfg.Paths.IdentityFile), provider)
	a.dispatcher = client.New(ex, provider, store, opts)

	if _, err := a.dispatcher.LoadIdentity(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load identity from '%s': %w", cfg.Paths.IdentityFile, err)
	}

	return a, nil
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Warn("failed to close history", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func runMenu(ctx context.Context, flags Flags, in io.Reader, out io.Writer) error {
	a, err := newApp(flags, out)
	if err != nil {
		return err
	}
	defer a.Close()

	return newMenu(a.dispatcher, in, out).Run(ctx)
}

func runServe(ctx context.Context, flags Flags) error {
	a, err := newApp(flags, io.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := api.DefaultConfig()
	cfg.Address = a.cfg.API.Address
	cfg.Gatherer = a.registry
	cfg.Logger = a.log

	return api.NewServer(a.dispatcher, cfg).Start(ctx)
}
