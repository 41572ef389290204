// Command console runs the bot against an in-memory platform on the
// terminal. Every line typed is a message from the current user; lines
// starting with "/" drive reactions and identity.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/commands/core"
	"github.com/keshon/gdbot/internal/commands/gd"
	"github.com/keshon/gdbot/internal/config"
	"github.com/keshon/gdbot/internal/dispatch"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/logging"
	"github.com/keshon/gdbot/internal/menu"
	"github.com/keshon/gdbot/internal/permission"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/internal/platform/console"
	"github.com/keshon/gdbot/internal/recovery"
	"github.com/keshon/gdbot/internal/storage"
	"github.com/keshon/gdbot/pkg/jobmgr"
	"github.com/keshon/gdbot/pkg/tokenizer"
)

const (
	selfID    = "bot"
	channelID = "console"
	guildID   = "console-guild"
)

// Reaction shortcuts accepted by /react.
var emojiAliases = map[string]string{
	"prev": menu.EmojiPrev,
	"next": menu.EmojiNext,
	"stop": menu.EmojiStop,
	"yes":  "✅",
	"no":   "❌",
}

type options struct {
	user    string
	dm      bool
	owner   bool
	admin   bool
	envFile []string
}

func main() {
	var o options
	root := &cobra.Command{
		Use:           "console",
		Short:         "Talk to the bot from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(o.envFile...)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return repl(ctx, cfg, o, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	root.Flags().StringVar(&o.user, "user", "alice", "user ID to speak as")
	root.Flags().BoolVar(&o.dm, "dm", false, "talk in a private channel instead of a guild")
	root.Flags().BoolVar(&o.owner, "owner", true, "treat the user as a bot owner")
	root.Flags().BoolVar(&o.admin, "admin", true, "give the user server administrator rights")
	root.Flags().StringSliceVar(&o.envFile, "env-file", nil, "dotenv files to load")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func repl(ctx context.Context, cfg *config.Config, o options, in io.Reader, out io.Writer) error {
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath, cfg.CacheTTL, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := i18n.New(cfg.DefaultLocale)
	if err != nil {
		return err
	}

	gw := console.New(selfID, out)
	if o.admin {
		gw.SetPermissions(o.user, platform.PermAdministrator)
	}
	bus := platform.NewBus(logger)
	defer bus.Close()

	chain := recovery.NewDefault(recovery.Options{OpsChannelID: cfg.OpsChannelID, Logger: logger})
	owners := cfg.OwnerIDs
	if o.owner {
		owners = append(owners, o.user)
	}
	checker := permission.NewChecker()
	permission.RegisterDefaults(checker, permission.Defaults{Owners: owners, Grants: store, Platform: gw})

	menus := menu.NewEngine(menu.Options{
		Gateway:    gw,
		Bus:        bus,
		Errors:     chain,
		Logger:     logger,
		Timeout:    cfg.MenuTimeout,
		FlagPrefix: cfg.FlagPrefix,
	})
	defer menus.CloseAll()

	commands := command.NewRegistry()
	core.Register(commands, core.Deps{
		Store:         store,
		Menus:         menus,
		Catalog:       catalog,
		DefaultPrefix: cfg.Prefix,
	})
	commands.Register(gd.NewRankCommand(gd.Sample(), menus))

	jobs := jobmgr.NewManager(ctx, logger)
	defer func() {
		jobs.StopAll()
		wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = jobs.Wait(wctx)
	}()

	router, err := dispatch.New(dispatch.Options{
		Gateway:  gw,
		Bus:      bus,
		Commands: commands,
		Pipeline: dispatch.NewPipeline(dispatch.PipelineOptions{
			Errors:  chain,
			Checker: checker,
			History: store,
		}),
		Settings:      store,
		Catalog:       catalog,
		Jobs:          jobs,
		DefaultPrefix: cfg.Prefix,
		FlagPrefix:    cfg.FlagPrefix,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	s := &shell{gw: gw, router: router, user: o.user, out: out}
	if !o.dm {
		s.guild = guildID
	}
	fmt.Fprintf(out, "talking as %s in #%s; try %shelp, /react <id> next, /as <user>, /quit\n", s.user, channelID, cfg.Prefix)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || !s.handle(line) {
				return nil
			}
		}
	}
}

type shell struct {
	gw     *console.Gateway
	router *dispatch.Router
	user   string
	guild  string
	out    io.Writer
}

// handle processes one line. It returns false on /quit.
func (s *shell) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, "/") {
		s.say(line)
		return true
	}

	args := tokenizer.Args(tokenizer.Split(line[1:]))
	switch args.At(0) {
	case "quit", "exit":
		return false
	case "as":
		if u := args.At(1); u != "" {
			s.user = u
		}
		fmt.Fprintf(s.out, "now talking as %s\n", s.user)
	case "react", "unreact":
		kind := platform.EventReactionAdd
		if args.At(0) == "unreact" {
			kind = platform.EventReactionRemove
		}
		emoji := args.At(2)
		if alias, ok := emojiAliases[emoji]; ok {
			emoji = alias
		}
		if args.At(1) == "" || emoji == "" {
			fmt.Fprintln(s.out, "usage: /react <message id> <emoji|prev|next|stop|yes|no>")
			return true
		}
		s.router.Handle(platform.ReactionEvent(kind, &platform.Reaction{
			UserID: s.user, ChannelID: channelID, GuildID: s.guild, MessageID: args.At(1),
			Emoji: platform.Emoji{Name: emoji},
		}))
	default:
		fmt.Fprintf(s.out, "unknown directive %q\n", args.At(0))
	}
	return true
}

func (s *shell) say(content string) {
	kind := platform.ChannelGroup
	if s.guild == "" {
		kind = platform.ChannelPrivate
	}
	msg := &platform.Message{
		ID:          s.gw.NextID(),
		ChannelID:   channelID,
		ChannelKind: kind,
		GuildID:     s.guild,
		AuthorID:    s.user,
		AuthorName:  s.user,
		Content:     content,
	}
	s.gw.RecordInbound(msg)
	s.router.Handle(platform.MessageEvent(msg))
}
