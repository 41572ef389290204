package menu

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/platform"
)

const (
	EmojiPrev = "◀️"
	EmojiNext = "▶️"
	EmojiStop = "⏹️"

	PageTrigger = "page"

	PageVar   = "page"
	boundsVar = "page.bounds"
)

// Provider renders the zero-based page. It returns *PageOutOfRangeError
// when page is outside the available range.
type Provider func(ctx context.Context, page int) (platform.Prompt, error)

type pageConfig struct {
	start   int
	timeout time.Duration
	key     string
}

type PageOption func(*pageConfig)

func StartPage(n int) PageOption { return func(c *pageConfig) { c.start = n } }

func PageTimeout(d time.Duration) PageOption { return func(c *pageConfig) { c.timeout = d } }

func PageKey(key string) PageOption { return func(c *pageConfig) { c.key = key } }

type bounds struct{ min, max int }

func (b bounds) wrap(p int) int {
	n := b.max - b.min + 1
	if n <= 0 {
		return b.min
	}
	return b.min + ((p-b.min)%n+n)%n
}

func (b bounds) contains(p int) bool { return p >= b.min && p <= b.max }

type pager struct {
	provider Provider
}

// Paginate opens a session browsing provider's pages with ◀️ ▶️ ⏹️ and
// "page <n>". The prompt is deleted when the session ends.
func (e *Engine) Paginate(ctx context.Context, c *command.Context, provider Provider, opts ...PageOption) (*Session, error) {
	cfg := pageConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	first, page, b, err := renderFirst(ctx, provider, cfg.start)
	if err != nil {
		return nil, err
	}

	p := &pager{provider: provider}
	m := New(first).
		Var(PageVar, page).
		OnReaction(EmojiPrev, func(ctx context.Context, in *Interaction) error { return p.step(ctx, in, -1) }).
		OnReaction(EmojiNext, func(ctx context.Context, in *Interaction) error { return p.step(ctx, in, +1) }).
		OnReaction(EmojiStop, func(_ context.Context, in *Interaction) error {
			in.CloseMenu()
			return nil
		}).
		OnMessage(PageTrigger, p.jump).
		DeleteOnClose(true).
		DeleteOnTimeout(true).
		Timeout(cfg.timeout).
		Key(cfg.key)
	if b != nil {
		m.Var(boundsVar, *b)
	}
	return e.Open(ctx, c, m)
}

func renderFirst(ctx context.Context, provider Provider, start int) (platform.Prompt, int, *bounds, error) {
	prompt, err := provider(ctx, start)
	var oor *PageOutOfRangeError
	if !errors.As(err, &oor) {
		return prompt, start, nil, err
	}
	b := bounds{min: oor.Min, max: oor.Max}
	page := b.wrap(start)
	prompt, err = provider(ctx, page)
	return prompt, page, &b, err
}

// step moves by delta, wrapping around once the bounds are known.
func (p *pager) step(ctx context.Context, in *Interaction, delta int) error {
	vars := in.Vars()
	b, known := Load[bounds](vars, boundsVar)
	_, page := Update(vars, PageVar, func(old int) int {
		if known {
			return b.wrap(old + delta)
		}
		return old + delta
	})

	prompt, err := p.provider(ctx, page)
	var oor *PageOutOfRangeError
	if errors.As(err, &oor) {
		b = LoadOrStore(vars, boundsVar, bounds{min: oor.Min, max: oor.Max})
		wrapped := b.wrap(page)
		Update(vars, PageVar, func(old int) int {
			if old == page {
				return wrapped
			}
			return old
		})
		prompt, err = p.provider(ctx, wrapped)
	}
	if err != nil {
		return err
	}
	return in.Edit(ctx, prompt)
}

// jump handles "page <n>" with n counted from 1.
func (p *pager) jump(ctx context.Context, in *Interaction) error {
	vars := in.Vars()
	c := in.Context()
	b, known := Load[bounds](vars, boundsVar)

	outOfRange := func(b bounds) error {
		return Retry("%s", c.T(i18n.PageBounds, b.min+1, b.max+1))
	}

	n, err := strconv.Atoi(in.Args().At(0))
	if err != nil {
		if known {
			return outOfRange(b)
		}
		return Retry("%s", c.T(i18n.PageNotNumber))
	}
	target := n - 1
	if known && !b.contains(target) {
		return outOfRange(b)
	}

	prev, _ := Update(vars, PageVar, func(int) int { return target })
	restore := func() {
		Update(vars, PageVar, func(old int) int {
			if old == target {
				return prev
			}
			return old
		})
	}

	prompt, err := p.provider(ctx, target)
	var oor *PageOutOfRangeError
	if errors.As(err, &oor) {
		restore()
		return outOfRange(LoadOrStore(vars, boundsVar, bounds{min: oor.Min, max: oor.Max}))
	}
	if err != nil {
		restore()
		return err
	}
	if err := in.Edit(ctx, prompt); err != nil {
		return err
	}
	if err := in.DeleteTrigger(ctx); err != nil {
		in.session.log.Debug("delete page trigger failed", zap.Error(err))
	}
	return nil
}

// Chunk serves lines perPage at a time. render receives the zero-based
// page, the page count and the lines of that page.
func Chunk(lines []string, perPage int, render func(page, pages int, chunk []string) platform.Prompt) Provider {
	if perPage <= 0 {
		perPage = 10
	}
	pages := max(1, (len(lines)+perPage-1)/perPage)
	return func(_ context.Context, page int) (platform.Prompt, error) {
		if page < 0 || page >= pages {
			return platform.Prompt{}, &PageOutOfRangeError{Min: 0, Max: pages - 1}
		}
		lo := page * perPage
		hi := min(lo+perPage, len(lines))
		return render(page, pages, lines[lo:hi]), nil
	}
}
