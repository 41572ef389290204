package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/pkg/retrylimit"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsDirectMessageReactions |
	discordgo.IntentMessageContent

// Handler receives every converted inbound event.
type Handler func(platform.Event)

type ClientOptions struct {
	Token   string
	Limiter *retrylimit.AdaptiveLimiter
	Retry   retrylimit.Config
	Logger  *zap.Logger
}

// Client owns the websocket session and exposes it as a platform.Gateway.
type Client struct {
	*Gateway
	session *discordgo.Session
	log     *zap.Logger
}

// NewClient creates the session and identifies the bot user over REST.
// Nothing is received until Open.
func NewClient(opts ClientOptions) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "discord"))

	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.Identify.Intents = intents

	me, err := s.User("@me")
	if err != nil {
		return nil, fmt.Errorf("failed to identify bot user: %w", classify("identify", err))
	}
	return &Client{
		Gateway: NewGateway(s, me.ID, opts.Limiter, opts.Retry, logger),
		session: s,
		log:     logger,
	}, nil
}

// Open registers handle for inbound events and opens the websocket.
func (c *Client) Open(handle Handler) error {
	log := c.log
	c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Info("discord session ready",
			zap.String("user", r.User.Username),
			zap.Int("guilds", len(r.Guilds)))
	})
	c.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if ev, ok := MessageCreateEvent(m); ok {
			handle(ev)
		}
	})
	c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if ev, ok := ReactionAddEvent(r); ok {
			handle(ev)
		}
	})
	c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		if ev, ok := ReactionRemoveEvent(r); ok {
			handle(ev)
		}
	})

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	log.Info("connected", zap.String("self", c.SelfID()))
	return nil
}

// Latency is the last heartbeat round trip.
func (c *Client) Latency() time.Duration { return c.session.HeartbeatLatency() }

// Run blocks until ctx ends, then closes the websocket.
func (c *Client) Run(ctx context.Context) error {
	<-ctx.Done()
	c.log.Info("closing discord session")
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}
