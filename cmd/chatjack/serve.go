package main

import (
	"fmt"
	"os"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/chatjack/internal/broadcast"
	"github.com/lox/chatjack/internal/gameid"
	"github.com/lox/chatjack/internal/server"
	"github.com/lox/chatjack/internal/session"
	"github.com/lox/chatjack/internal/twitch"
)

// ServeCmd runs a table for a stream: chat votes in, renderers out
type ServeCmd struct {
	Config       string        `short:"c" default:"chatjack.hcl" type:"path" help:"Configuration file"`
	Addr         string        `help:"Renderer bridge address (overrides server.address)"`
	Channel      string        `help:"Twitch channel to play in (overrides twitch.channel)"`
	Seed         int64         `help:"Shuffle seed, 0 for time based (overrides game.seed)"`
	VoteDuration time.Duration `help:"Vote window (overrides vote.duration)"`
	Session      string        `help:"Resume under an existing session id so spectators keep their broadcast channel"`
	Debug        bool          `help:"Enable debug logging"`
}

func sessionOptions(id string) ([]session.Option, error) {
	if id == "" {
		return nil, nil
	}
	if err := gameid.Validate(id); err != nil {
		return nil, fmt.Errorf("--session: %w", err)
	}
	return []session.Option{session.WithID(id)}, nil
}

func (c *ServeCmd) Run() error {
	sessOpts, err := sessionOptions(c.Session)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c.Config, overrides{
		Addr:         c.Addr,
		Channel:      c.Channel,
		Seed:         c.Seed,
		VoteDuration: c.VoteDuration,
	})
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, levelFor(cfg.LogLevel(), c.Debug), true)
	ctx, cancel := signalContext(logger)
	defer cancel()

	clock := quartz.NewReal()
	sess, err := session.New(logger, clock, cfg.Session(), sessOpts...)
	if err != nil {
		return err
	}

	logger.Info("Starting chatjack",
		"session", sess.ID(),
		"seed", sess.Seed(),
		"addr", cfg.Server.Address,
		"channel", cfg.Twitch.Channel,
		"players", cfg.Game.Players,
		"vote", cfg.VoteDuration())

	g, ctx := errgroup.WithContext(ctx)

	// Everything subscribes to the bus before the session starts so the
	// first wait-for-start reaches every consumer.
	srv := server.NewServer(logger, clock, sess, server.Config{
		Addr:    cfg.Server.Address,
		AutoAck: cfg.AutoAck(),
	})
	defer srv.Attach()()
	g.Go(func() error { return srv.Run(ctx) })

	if cfg.Twitch.Channel != "" {
		client := twitch.NewClient(logger, clock, twitch.Config{
			Channel:  cfg.Twitch.Channel,
			Username: cfg.Twitch.Username,
			Token:    cfg.Twitch.Token,
		}, sess)
		g.Go(func() error { return client.Run(ctx) })

		if cfg.Twitch.Username != "" {
			announcer := twitch.NewAnnouncer(logger, client)
			defer announcer.Subscribe(sess.Bus())()
			g.Go(func() error { return announcer.Run(ctx) })
		}
	} else {
		logger.Warn("No Twitch channel configured, the table only takes renderer acknowledgements")
	}

	if cfg.Broadcast.RedisAddr != "" {
		rdb, err := broadcast.Dial(ctx, cfg.Broadcast.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()

		publisher := broadcast.New(logger, rdb, cfg.Broadcast.Channel, sess.ID())
		defer publisher.Subscribe(sess.Bus())()
		g.Go(func() error { return publisher.Run(ctx) })
		logger.Info("Broadcasting to Redis", "addr", cfg.Broadcast.RedisAddr, "channel", publisher.Channel())
	}

	g.Go(func() error { return sess.Run(ctx) })

	return g.Wait()
}
