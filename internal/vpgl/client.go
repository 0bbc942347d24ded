// Package vpgl invokes the camera processes of the native vision library
// through a batch-process host. Every method sets the inputs of one named
// process by position, runs it and turns the outputs into handles or Go
// values. The geometry itself lives in the host.
package vpgl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/batchcam/internal/batch"
	"github.com/seantiz/batchcam/internal/model"
)

// ErrInvalidArgument is returned when arguments are rejected before the host
// is called.
var ErrInvalidArgument = errors.New("invalid argument")

// Client calls camera processes on a batch host. The host contract is
// stateful, so calls made through one Client are serialised.
type Client struct {
	mu     sync.Mutex
	host   batch.Host
	logger *slog.Logger
}

// New creates a client over host. A nil logger discards log output.
func New(host batch.Host, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{host: host, logger: logger}
}

func (c *Client) exec(ctx context.Context, call *batch.Call, read func(r *batch.Reader)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	err := batch.Exec(ctx, c.host, call, read)
	if err != nil {
		c.logger.Debug("process call failed",
			"process", call.Name,
			"inputs", len(call.Inputs),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return err
	}
	c.logger.Debug("process call",
		"process", call.Name,
		"inputs", len(call.Inputs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// run executes a call that produces no outputs.
func (c *Client) run(ctx context.Context, call *batch.Call) error {
	return c.exec(ctx, call, nil)
}

// handle executes a call whose only output is a database object.
func (c *Client) handle(ctx context.Context, call *batch.Call) (model.Handle, error) {
	var h model.Handle
	err := c.exec(ctx, call, func(r *batch.Reader) {
		h = r.Handle(0)
	})
	if err != nil {
		return model.Handle{}, err
	}
	return h, nil
}

// Release removes a value from the host database.
func (c *Client) Release(ctx context.Context, h model.Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host.RemoveData(ctx, h.ID)
}

// CallOption overrides a defaulted process argument.
type CallOption func(*callOptions)

type callOptions struct {
	level      uint32
	initFinish bool
}

// WithLevel sets the pyramid level of a generic camera conversion. The
// default is 0.
func WithLevel(level uint32) CallOption {
	return func(o *callOptions) { o.level = level }
}

// WithInitFinish sets whether a footprint call opens and closes the KML
// document. The default is true.
func WithInitFinish(initFinish bool) CallOption {
	return func(o *callOptions) { o.initFinish = initFinish }
}

func resolve(opts []CallOption) callOptions {
	o := callOptions{level: 0, initFinish: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
