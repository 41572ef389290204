// Package console is an in-memory platform. It records everything the bot
// does and can print it, which makes it both the test double and the
// backend of the console binary.
package console

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/keshon/gdbot/internal/platform"
)

// Op names a gateway operation for failure injection.
type Op string

const (
	OpSend          Op = "send"
	OpEdit          Op = "edit"
	OpDelete        Op = "delete"
	OpReact         Op = "react"
	OpClearReaction Op = "clear_reactions"
	OpPermissions   Op = "permissions"
)

// Gateway implements platform.Gateway in memory.
type Gateway struct {
	mu        sync.Mutex
	selfID    string
	nextID    int
	messages  map[string]*platform.Message
	prompts   map[string]platform.Prompt
	order     []string
	deleted   map[string]bool
	reactions map[string][]string
	edits     map[string]int
	perms     map[string]int64
	failures  map[Op][]error
	forbidden map[Op]bool
	out       io.Writer
}

// New returns a gateway whose bot user is selfID. Sent messages are
// printed to out when it is not nil.
func New(selfID string, out io.Writer) *Gateway {
	return &Gateway{
		selfID:    selfID,
		messages:  make(map[string]*platform.Message),
		prompts:   make(map[string]platform.Prompt),
		deleted:   make(map[string]bool),
		reactions: make(map[string][]string),
		edits:     make(map[string]int),
		perms:     make(map[string]int64),
		failures:  make(map[Op][]error),
		forbidden: make(map[Op]bool),
		out:       out,
	}
}

func (g *Gateway) SelfID() string { return g.selfID }

// NextID hands out message IDs shared with inbound messages so they never
// collide with bot messages.
func (g *Gateway) NextID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nextIDLocked()
}

func (g *Gateway) nextIDLocked() string {
	g.nextID++
	return strconv.Itoa(g.nextID)
}

// Forbid makes every call of op fail with a 403 until lifted.
func (g *Gateway) Forbid(op Op, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forbidden[op] = on
}

// FailNext queues err for the next call of op.
func (g *Gateway) FailNext(op Op, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = append(g.failures[op], err)
}

// SetPermissions sets the bits returned for userID in every channel.
func (g *Gateway) SetPermissions(userID string, bits int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.perms[userID] = bits
}

func (g *Gateway) failure(op Op) error {
	if g.forbidden[op] {
		return &platform.ClientError{Op: string(op), Status: http.StatusForbidden, Code: 50013, Message: "Missing Permissions"}
	}
	if q := g.failures[op]; len(q) > 0 {
		g.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (g *Gateway) SendMessage(ctx context.Context, channelID string, p platform.Prompt) (*platform.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(OpSend); err != nil {
		return nil, err
	}
	m := &platform.Message{
		ID:        g.nextIDLocked(),
		ChannelID: channelID,
		AuthorID:  g.selfID,
		AuthorBot: true,
		Content:   p.Content,
	}
	g.messages[m.ID] = m
	g.prompts[m.ID] = p
	g.order = append(g.order, m.ID)
	g.print("send", m.ID, channelID, Render(p))
	cp := *m
	return &cp, nil
}

func (g *Gateway) EditMessage(ctx context.Context, channelID, messageID string, p platform.Prompt) (*platform.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(OpEdit); err != nil {
		return nil, err
	}
	m, ok := g.messages[messageID]
	if !ok || g.deleted[messageID] || m.ChannelID != channelID {
		return nil, notFound(OpEdit)
	}
	m.Content = p.Content
	g.prompts[messageID] = p
	g.edits[messageID]++
	g.print("edit", messageID, channelID, Render(p))
	cp := *m
	return &cp, nil
}

func (g *Gateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(OpDelete); err != nil {
		return err
	}
	if g.deleted[messageID] {
		return notFound(OpDelete)
	}
	g.deleted[messageID] = true
	g.print("delete", messageID, channelID, "")
	return nil
}

func (g *Gateway) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(OpReact); err != nil {
		return err
	}
	if g.deleted[messageID] {
		return notFound(OpReact)
	}
	if !slices.Contains(g.reactions[messageID], emoji) {
		g.reactions[messageID] = append(g.reactions[messageID], emoji)
	}
	return nil
}

func (g *Gateway) RemoveAllReactions(ctx context.Context, channelID, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(OpClearReaction); err != nil {
		return err
	}
	delete(g.reactions, messageID)
	g.print("clear reactions", messageID, channelID, "")
	return nil
}

func (g *Gateway) Permissions(ctx context.Context, userID, channelID string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure(OpPermissions); err != nil {
		return 0, err
	}
	return g.perms[userID], nil
}

// RecordInbound stores a user message so the bot can delete it later.
func (g *Gateway) RecordInbound(m *platform.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *m
	g.messages[m.ID] = &cp
}

// Sent returns the bot's messages in a channel, oldest first, including
// deleted ones.
func (g *Gateway) Sent(channelID string) []platform.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []platform.Message
	for _, id := range g.order {
		if m := g.messages[id]; m.ChannelID == channelID {
			out = append(out, *m)
		}
	}
	return out
}

// Last returns the newest bot message in a channel.
func (g *Gateway) Last(channelID string) (platform.Message, bool) {
	sent := g.Sent(channelID)
	if len(sent) == 0 {
		return platform.Message{}, false
	}
	return sent[len(sent)-1], true
}

// Prompt returns the current prompt of a bot message.
func (g *Gateway) Prompt(messageID string) (platform.Prompt, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.prompts[messageID]
	return p, ok
}

func (g *Gateway) Deleted(messageID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deleted[messageID]
}

func (g *Gateway) Reactions(messageID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.reactions[messageID])
}

func (g *Gateway) Edits(messageID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.edits[messageID]
}

func (g *Gateway) print(verb, messageID, channelID, body string) {
	if g.out == nil {
		return
	}
	if body == "" {
		fmt.Fprintf(g.out, "[%s #%s] %s\n", verb, channelID, messageID)
		return
	}
	fmt.Fprintf(g.out, "[%s #%s] %s\n%s\n", verb, channelID, messageID, body)
}

func notFound(op Op) error {
	return &platform.ClientError{Op: string(op), Status: http.StatusNotFound, Code: 10008, Message: "Unknown Message"}
}

// Render turns a prompt into plain text.
func Render(p platform.Prompt) string {
	var b strings.Builder
	b.WriteString(p.Content)
	if e := p.Embed; e != nil {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		if e.Title != "" {
			b.WriteString("== " + e.Title + " ==\n")
		}
		if e.Description != "" {
			b.WriteString(e.Description + "\n")
		}
		for _, f := range e.Fields {
			b.WriteString(f.Name + ": " + f.Value + "\n")
		}
		if e.Footer != "" {
			b.WriteString("-- " + e.Footer)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
