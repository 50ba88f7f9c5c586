package main

import (
	"context"
	"path/filepath"

	"peer-chat/application/chat/auth"
	"peer-chat/application/chat/directory"
	"peer-chat/application/chat/msglog"
	"peer-chat/application/chat/node"
	"peer-chat/application/chat/relay"
	"peer-chat/application/chat/web"
	"peer-chat/application/http/actor/client"
	"peer-chat/application/http/actor/server"
	"peer-chat/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newNodeCmd(configFile *string) *cobra.Command {
	cfg := defaultConfig(8000)

	cmd := &cobra.Command{
		Use:   "node",
		Short: "Run a chat peer registered with the tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.load(*configFile, cmd.Flags()); err != nil {
				return err
			}
			if cfg.ID == "" {
				return errors.New("a peer id is required (--id)")
			}
			return runNode(cmd, cfg)
		},
	}
	cfg.bindFlags(cmd.Flags())
	cfg.bindNodeFlags(cmd.Flags())

	return cmd
}

func runNode(cmd *cobra.Command, cfg Config) error {
	logger, err := cfg.logger()
	if err != nil {
		return err
	}
	logger = logger.With("role", "node")
	clk := clock.New()

	creds, err := auth.OpenCredentials(filepath.Join(cfg.WWWDir, usersFile))
	if err != nil {
		return err
	}
	logs := msglog.New(cfg.DataDir, clk)

	httpClient := client.New(tcp.Dialer{}, tcp.NewAddr, logger, clk, client.DefaultOptions())
	cache := relay.NewAddrCache()
	dir := relay.WithAddrCache(directory.NewRemote(httpClient, cfg.Tracker), cache)
	sender := relay.NewDirectSender(tcp.Dialer{Timeout: deliveryTimeout}, tcp.NewAddr, clk, deliveryTimeout)

	app := web.New(web.Config{
		Directory: dir,
		Messenger: relay.NewMessenger(
			relay.NewHTTPRelay(httpClient, cfg.Tracker), dir, cache, sender, logs, logger, relay.DefaultOptions(),
		),
		Logs:        logs,
		Credentials: creds,
		Sessions:    auth.NewSessions(clk, auth.DefaultSessionTTL),
		Pages:       web.FilePages{Dir: cfg.WWWDir},
		Logger:      logger,
	})

	webLis, err := tcp.Listen(cfg.ServerIP, cfg.ServerPort)
	if err != nil {
		return errors.Wrapf(err, "listening on %s:%d", cfg.ServerIP, cfg.ServerPort)
	}
	peerLis, err := tcp.Listen(cfg.ServerIP, cfg.PeerPort)
	if err != nil {
		webLis.Close()
		return errors.Wrapf(err, "listening for peers on %s:%d", cfg.ServerIP, cfg.PeerPort)
	}

	opts := node.DefaultOptions()
	opts.ID = cfg.ID
	opts.Host = cfg.AdvertiseHost
	opts.Port = cfg.PeerPort
	rt := node.New(peerLis, dir, logs, logger, clk, opts)

	srv := server.New(webLis, logger, clk, app.Handle, server.DefaultOptions())
	srv.Start()
	logger.Info("node started", "web", srv.Addr().String(), "peer", peerLis.Addr().String(), "tracker", cfg.Tracker)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return rt.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		return srv.Close()
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
