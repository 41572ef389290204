package command

import "context"

// Pipeline is the ordered middleware stack every invocation runs through.
// The first middleware is the outermost.
type Pipeline struct {
	mws []Middleware
}

func NewPipeline(mws ...Middleware) *Pipeline {
	return &Pipeline{mws: append([]Middleware(nil), mws...)}
}

// Use returns a new pipeline with mws appended innermost.
func (p *Pipeline) Use(mws ...Middleware) *Pipeline {
	out := make([]Middleware, 0, len(p.mws)+len(mws))
	out = append(out, p.mws...)
	out = append(out, mws...)
	return &Pipeline{mws: out}
}

// Executable is a command bound to one invocation context.
type Executable struct {
	cmd Command
	ctx *Context
}

// Bind wraps cmd with the pipeline for a single invocation.
func (p *Pipeline) Bind(cmd Command, c *Context) *Executable {
	return &Executable{cmd: Apply(cmd, p.mws...), ctx: c}
}

func (e *Executable) Command() Command  { return Root(e.cmd) }
func (e *Executable) Context() *Context { return e.ctx }

// Run executes the bound command. An error is returned only when nothing
// in the pipeline claimed it.
func (e *Executable) Run(ctx context.Context) error {
	return e.cmd.Run(ctx, e.ctx)
}
