package main

import (
	"path/filepath"
	"time"

	"peer-chat/application/chat/auth"
	"peer-chat/application/chat/directory"
	"peer-chat/application/chat/msglog"
	"peer-chat/application/chat/relay"
	"peer-chat/application/chat/web"
	"peer-chat/application/http/actor/server"
	"peer-chat/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	directoryFile = "peer_connections.json"
	usersFile     = "users.json"

	deliveryTimeout = 3 * time.Second
)

func newTrackerCmd(configFile *string) *cobra.Command {
	cfg := defaultConfig(9000)

	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Run the tracker hosting the peer directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.load(*configFile, cmd.Flags()); err != nil {
				return err
			}
			return runTracker(cmd, cfg)
		},
	}
	cfg.bindFlags(cmd.Flags())

	return cmd
}

func runTracker(cmd *cobra.Command, cfg Config) error {
	logger, err := cfg.logger()
	if err != nil {
		return err
	}
	logger = logger.With("role", "tracker")
	clk := clock.New()

	dir, err := directory.New(filepath.Join(cfg.DataDir, directoryFile), logger)
	if err != nil {
		return err
	}
	creds, err := auth.OpenCredentials(filepath.Join(cfg.WWWDir, usersFile))
	if err != nil {
		return err
	}
	logs := msglog.New(cfg.DataDir, clk)

	cache := relay.NewAddrCache()
	sender := relay.NewDirectSender(tcp.Dialer{Timeout: deliveryTimeout}, tcp.NewAddr, clk, deliveryTimeout)
	local := relay.NewLocalRelay(dir, sender)

	app := web.New(web.Config{
		Directory:   relay.WithAddrCache(dir, cache),
		Messenger:   relay.NewMessenger(local, dir, cache, sender, logs, logger, relay.DefaultOptions()),
		Logs:        logs,
		Credentials: creds,
		Sessions:    auth.NewSessions(clk, auth.DefaultSessionTTL),
		Pages:       web.FilePages{Dir: cfg.WWWDir},
		Relay:       local,
		Logger:      logger,
	})

	lis, err := tcp.Listen(cfg.ServerIP, cfg.ServerPort)
	if err != nil {
		return errors.Wrapf(err, "listening on %s:%d", cfg.ServerIP, cfg.ServerPort)
	}

	srv := server.New(lis, logger, clk, app.Handle, server.DefaultOptions())
	srv.Start()
	logger.Info("tracker started", "addr", srv.Addr().String())

	<-cmd.Context().Done()
	logger.Info("shutting down")

	return srv.Close()
}
