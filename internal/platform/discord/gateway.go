// Package discord adapts a discordgo session to the platform interfaces.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/pkg/retrylimit"
)

// RESTSession is the part of *discordgo.Session the gateway calls.
type RESTSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionsRemoveAll(channelID, messageID string, options ...discordgo.RequestOption) error
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// Gateway implements platform.Gateway over REST calls. Every call goes
// through the adaptive limiter and is retried on 429 and 5xx.
type Gateway struct {
	rest    RESTSession
	selfID  string
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.Config
	log     *zap.Logger
}

var _ platform.Gateway = (*Gateway)(nil)

func NewGateway(rest RESTSession, selfID string, limiter *retrylimit.AdaptiveLimiter, retry retrylimit.Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retry.Logger == nil {
		retry.Logger = logger
	}
	return &Gateway{rest: rest, selfID: selfID, limiter: limiter, retry: retry, log: logger}
}

func (g *Gateway) SelfID() string { return g.selfID }

func (g *Gateway) do(ctx context.Context, op string, fn func(opt discordgo.RequestOption) error) error {
	err := retrylimit.Do(ctx, g.limiter, g.retry, func(ctx context.Context) error {
		return classify(op, fn(discordgo.WithContext(ctx)))
	})
	if err != nil {
		g.log.Debug("discord request failed", zap.String("op", op), zap.Error(err))
	}
	return err
}

func (g *Gateway) SendMessage(ctx context.Context, channelID string, p platform.Prompt) (*platform.Message, error) {
	send := &discordgo.MessageSend{Content: p.Content}
	if e := toEmbed(p.Embed); e != nil {
		send.Embeds = []*discordgo.MessageEmbed{e}
	}
	var out *discordgo.Message
	err := g.do(ctx, "send", func(opt discordgo.RequestOption) (err error) {
		out, err = g.rest.ChannelMessageSendComplex(channelID, send, opt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fromMessage(out), nil
}

func (g *Gateway) EditMessage(ctx context.Context, channelID, messageID string, p platform.Prompt) (*platform.Message, error) {
	content := p.Content
	embeds := []*discordgo.MessageEmbed{}
	if e := toEmbed(p.Embed); e != nil {
		embeds = append(embeds, e)
	}
	edit := &discordgo.MessageEdit{ID: messageID, Channel: channelID, Content: &content, Embeds: &embeds}

	var out *discordgo.Message
	err := g.do(ctx, "edit", func(opt discordgo.RequestOption) (err error) {
		out, err = g.rest.ChannelMessageEditComplex(edit, opt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fromMessage(out), nil
}

func (g *Gateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return g.do(ctx, "delete", func(opt discordgo.RequestOption) error {
		return g.rest.ChannelMessageDelete(channelID, messageID, opt)
	})
}

func (g *Gateway) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return g.do(ctx, "react", func(opt discordgo.RequestOption) error {
		return g.rest.MessageReactionAdd(channelID, messageID, emoji, opt)
	})
}

func (g *Gateway) RemoveAllReactions(ctx context.Context, channelID, messageID string) error {
	return g.do(ctx, "clear_reactions", func(opt discordgo.RequestOption) error {
		return g.rest.MessageReactionsRemoveAll(channelID, messageID, opt)
	})
}

func (g *Gateway) Permissions(ctx context.Context, userID, channelID string) (int64, error) {
	var perms int64
	err := g.do(ctx, "permissions", func(opt discordgo.RequestOption) (err error) {
		perms, err = g.rest.UserChannelPermissions(userID, channelID, opt)
		return err
	})
	return perms, err
}

// classify turns discordgo REST failures into *platform.ClientError.
// Other errors pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("discord %s: %w", op, err)
	}
	ce := &platform.ClientError{Op: op, Err: err}
	if rest.Response != nil {
		ce.Status = rest.Response.StatusCode
	}
	if rest.Message != nil {
		ce.Code = rest.Message.Code
		ce.Message = rest.Message.Message
	}
	if ce.Message == "" && ce.Status != 0 {
		ce.Message = http.StatusText(ce.Status)
	}
	if ce.Status == http.StatusUnauthorized {
		return &retrylimit.FatalError{Err: ce}
	}
	return ce
}
