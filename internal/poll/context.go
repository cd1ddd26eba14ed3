package poll

import "context"

// Context is a Canceler backed by a context.Context, for loops that must
// also stop when a parent context ends.
//
// Each Done() is a non-blocking select on ctx.Done(), noticeably slower
// than Flag in a tight spin.
type Context struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewContext creates a Context canceled by Cancel or by the parent.
func NewContext(parent context.Context) *Context {
	ctx, cancel := context.WithCancel(parent)
	return &Context{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Done returns true if the context has been canceled.
func (c *Context) Done() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Cancel cancels the context.
func (c *Context) Cancel() {
	c.cancel()
}

// Context returns the underlying context.Context.
func (c *Context) Context() context.Context {
	return c.ctx
}
