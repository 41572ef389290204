package dispatch

import (
	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/permission"
	"github.com/keshon/gdbot/internal/recovery"
)

type PipelineOptions struct {
	Errors  *recovery.Chain
	Checker *permission.Checker
	// History is optional; nil disables the command log.
	History command.History
	// Metrics is optional.
	Metrics command.Observer
}

// NewPipeline builds the middleware stack commands run through, outermost
// first: logging, metrics, scope, recovery, command log, permission, panic
// recovery. The command log sits inside recovery so it records the error
// before a handler claims it.
func NewPipeline(o PipelineOptions) *command.Pipeline {
	mws := []command.Middleware{command.WithLogging()}
	if o.Metrics != nil {
		mws = append(mws, command.WithMetrics(o.Metrics))
	}
	mws = append(mws, command.WithScope(), recovery.Middleware(o.Errors))
	if o.History != nil {
		mws = append(mws, command.WithCommandLog(o.History))
	}
	mws = append(mws, command.WithPermission(o.Checker), command.WithPanicRecovery())
	return command.NewPipeline(mws...)
}
