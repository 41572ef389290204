package recovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/internal/storage"
)

const (
	reportColor    = 0xb01e66
	maxDiagnostic  = 200
	replyTimeout   = 10 * time.Second
	reportRawLimit = 500
)

// Options configures the default chain.
type Options struct {
	// OpsChannelID receives incident reports. Empty disables them.
	OpsChannelID string
	Logger       *zap.Logger
	Observer     func(handler string)
	// NewIncidentID is replaced in tests.
	NewIncidentID func() string
}

// NewDefault returns the chain every command and menu action runs through.
func NewDefault(opts Options) *Chain {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "recovery"))
	newID := opts.NewIncidentID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	ch := New(
		WithLogger(logger),
		WithObserver(opts.Observer),
		WithFallback(incidentFallback(logger, opts.OpsChannelID, newID)),
	)

	Register(ch, "failed", func(ctx context.Context, c *command.Context, err *command.FailedError) error {
		reply(ctx, c, "❌ "+err.Message)
		return nil
	})
	Register(ch, "validation", func(ctx context.Context, c *command.Context, err *command.ValidationError) error {
		reply(ctx, c, "⚠️ "+err.Error())
		return nil
	})
	Register(ch, "permission", func(ctx context.Context, c *command.Context, err *command.PermissionDeniedError) error {
		logger.Info("permission denied",
			zap.String("command", err.Command),
			zap.String("author", c.AuthorID()),
			zap.String("required_name", err.Requirement.Name),
			zap.Stringer("required_level", err.Requirement.Level))
		reply(ctx, c, c.T(i18n.NotAllowed))
		return nil
	})
	Register(ch, "client", func(ctx context.Context, c *command.Context, err *platform.ClientError) error {
		logger.Warn("platform request failed", zap.Error(err), zap.String("op", err.Op))
		msg := c.T(i18n.ClientFailure, err.Status, sanitize(err.Message))
		if err.Forbidden() {
			msg += "\n" + c.T(i18n.ForbiddenHint)
		}
		reply(ctx, c, msg)
		return nil
	})
	Register(ch, "storage", func(ctx context.Context, c *command.Context, err *storage.Error) error {
		logger.Error("storage failure", zap.Error(err), zap.String("backend", err.Backend), zap.String("op", err.Op))
		reply(ctx, c, c.T(i18n.StorageUnavailable))
		return nil
	})
	RegisterIs(ch, "discarded", platform.ErrDiscarded, func(_ context.Context, c *command.Context, err error) error {
		logger.Debug("request discarded", zap.Error(err))
		return nil
	})
	RegisterIs(ch, "canceled", context.Canceled, func(_ context.Context, c *command.Context, err error) error {
		logger.Debug("invocation canceled", zap.Error(err))
		return nil
	})
	return ch
}

// reply never fails the handler: if the platform refuses the reply there
// is nobody left to tell.
func reply(ctx context.Context, c *command.Context, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
	defer cancel()
	if _, err := c.Reply(ctx, text); err != nil {
		c.Logger().Warn("failed to send error reply", zap.Error(err))
	}
}

// sanitize trims platform diagnostics to one short line.
func sanitize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxDiagnostic {
		s = s[:maxDiagnostic] + "…"
	}
	if s == "" {
		return "-"
	}
	return s
}

func incidentFallback(logger *zap.Logger, opsChannelID string, newID func() string) Fallback {
	return func(ctx context.Context, c *command.Context, err error) {
		incident := newID()
		fields := []zap.Field{
			zap.String("incident", incident),
			zap.String("author", c.AuthorID()),
			zap.String("channel", c.ChannelID()),
			zap.String("raw", c.Raw()),
			zap.String("error_type", fmt.Sprintf("%T", err)),
			zap.Error(err),
		}
		var pe *command.PanicError
		if errors.As(err, &pe) {
			fields = append(fields, zap.ByteString("stack", pe.Stack))
		} else {
			fields = append(fields, zap.Stack("stack"))
		}
		logger.Error("unhandled error", fields...)

		reply(ctx, c, c.T(i18n.Apology, incident))

		if opsChannelID == "" || c.Gateway() == nil {
			return
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
		defer cancel()
		if _, rerr := c.Gateway().SendMessage(rctx, opsChannelID, incidentReport(incident, c, err)); rerr != nil {
			logger.Warn("failed to send incident report", zap.String("incident", incident), zap.Error(rerr))
		}
	}
}

func incidentReport(incident string, c *command.Context, err error) platform.Prompt {
	raw := c.Raw()
	if len(raw) > reportRawLimit {
		raw = raw[:reportRawLimit] + "…"
	}
	name := "-"
	if cmd := c.Command(); cmd != nil {
		name = cmd.Name()
	}
	return platform.Prompt{Embed: &platform.Embed{
		Title: "Incident " + incident,
		Color: reportColor,
		Fields: []platform.EmbedField{
			{Name: "Author", Value: fmt.Sprintf("%s (%s)", c.AuthorName(), c.AuthorID()), Inline: true},
			{Name: "Channel", Value: c.ChannelID(), Inline: true},
			{Name: "Guild", Value: orDash(c.GuildID()), Inline: true},
			{Name: "Command", Value: name, Inline: true},
			{Name: "Input", Value: "```" + orDash(raw) + "```"},
			{Name: "Error", Value: fmt.Sprintf("%T: %s", err, sanitize(err.Error()))},
		},
		Footer: time.Now().UTC().Format(time.RFC3339),
	}}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
