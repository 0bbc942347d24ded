// Package hostclient implements batch.Host against a remote batchcam host
// over its HTTP API.
package hostclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seantiz/batchcam/internal/batch"
	"github.com/seantiz/batchcam/internal/model"
)

// ErrNotFound is returned when the host answers 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-success response from the host.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("host returned %d: %s", e.StatusCode, e.Message)
}

// Is makes a 404 match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Health is the body of GET /healthz.
type Health struct {
	Status    string `json:"status"`
	Processes int    `json:"processes"`
}

// RunList is one page of GET /v1/runs.
type RunList struct {
	Runs   []*model.Run `json:"runs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type runRequest struct {
	Inputs   []model.IndexedValue `json:"inputs"`
	TimeoutS int                  `json:"timeout_s,omitempty"`
}

// Client talks to one host. As a batch.Host it buffers the pending call
// locally and sends it when RunProcess is called, so it must not be shared
// between goroutines while a call is being built.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	timeoutS int

	name    string
	inputs  []model.IndexedValue
	outputs []model.Handle
	lastRun *model.Run
}

var _ batch.Host = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger requests are traced to at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout sets the run timeout in seconds sent with every run. Zero
// leaves the host default.
func WithTimeout(seconds int) Option {
	return func(c *Client) { c.timeoutS = seconds }
}

// New creates a client for the host at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InitProcess selects the named process. The name is checked by the host
// when the run is sent.
func (c *Client) InitProcess(name string) error {
	c.name = name
	c.inputs = nil
	c.outputs = nil
	c.lastRun = nil
	return nil
}

// SetInput sets the input at index, replacing any value set there before.
func (c *Client) SetInput(index int, v model.Value) error {
	if c.name == "" {
		return batch.ErrNoProcess
	}
	for i := range c.inputs {
		if c.inputs[i].Index == index {
			c.inputs[i].Value = v
			return nil
		}
	}
	c.inputs = append(c.inputs, model.IndexedValue{Index: index, Value: v})
	return nil
}

// RunProcess sends the pending call and waits for the run to finish. A run
// the host reports as failed returns an error wrapping batch.ErrRunFailed.
func (c *Client) RunProcess(ctx context.Context) error {
	if c.name == "" {
		return batch.ErrNoProcess
	}
	c.outputs = nil

	body := runRequest{Inputs: c.inputs, TimeoutS: c.timeoutS}
	if body.Inputs == nil {
		body.Inputs = []model.IndexedValue{}
	}
	path := "/v1/processes/" + url.PathEscape(c.name) + "/runs"

	var run model.Run
	status, err := c.do(ctx, http.MethodPost, path, body, &run, http.StatusCreated, http.StatusUnprocessableEntity)
	if err != nil {
		return fmt.Errorf("run %s: %w", c.name, err)
	}
	c.lastRun = &run
	if status == http.StatusUnprocessableEntity {
		return fmt.Errorf("%w: %s", batch.ErrRunFailed, run.Error)
	}
	c.outputs = run.Outputs
	return nil
}

// CommitOutput returns the database handle of output index of the last run.
func (c *Client) CommitOutput(index int) (model.Handle, error) {
	if index < 0 || index >= len(c.outputs) {
		return model.Handle{}, fmt.Errorf("%w: %d of %d", batch.ErrOutputIndex, index, len(c.outputs))
	}
	return c.outputs[index], nil
}

// GetOutput fetches a committed value.
func (c *Client) GetOutput(ctx context.Context, id uint64) (model.Value, error) {
	var v model.Value
	if _, err := c.do(ctx, http.MethodGet, valuePath(id), nil, &v, http.StatusOK); err != nil {
		return model.Value{}, fmt.Errorf("get value %d: %w", id, err)
	}
	return v, nil
}

// RemoveData drops a committed value.
func (c *Client) RemoveData(ctx context.Context, id uint64) error {
	if _, err := c.do(ctx, http.MethodDelete, valuePath(id), nil, nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("remove value %d: %w", id, err)
	}
	return nil
}

// LastRun returns the run record of the last RunProcess call, or nil.
func (c *Client) LastRun() *model.Run {
	return c.lastRun
}

// Health reports the host status.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if _, err := c.do(ctx, http.MethodGet, "/healthz", nil, &h, http.StatusOK); err != nil {
		return Health{}, fmt.Errorf("health: %w", err)
	}
	return h, nil
}

// ListProcesses returns the signatures of every process the host serves.
func (c *Client) ListProcesses(ctx context.Context) ([]model.Signature, error) {
	var sigs []model.Signature
	if _, err := c.do(ctx, http.MethodGet, "/v1/processes", nil, &sigs, http.StatusOK); err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return sigs, nil
}

// GetRun returns one run record.
func (c *Client) GetRun(ctx context.Context, id string) (*model.Run, error) {
	var run model.Run
	if _, err := c.do(ctx, http.MethodGet, "/v1/runs/"+url.PathEscape(id), nil, &run, http.StatusOK); err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns a page of runs, newest first.
func (c *Client) ListRuns(ctx context.Context, limit, offset int) (RunList, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var list RunList
	if _, err := c.do(ctx, http.MethodGet, "/v1/runs?"+q.Encode(), nil, &list, http.StatusOK); err != nil {
		return RunList{}, fmt.Errorf("list runs: %w", err)
	}
	return list, nil
}

func valuePath(id uint64) string {
	return "/v1/data/" + strconv.FormatUint(id, 10)
}

// do sends a request and decodes the response into out when its status is
// one of accept. Any other status is returned as an *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any, accept ...int) (int, error) {
	start := time.Now()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("host request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	for _, code := range accept {
		if resp.StatusCode != code {
			continue
		}
		if out == nil {
			return code, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return code, fmt.Errorf("decode response: %w", err)
		}
		return code, nil
	}
	return resp.StatusCode, decodeError(resp)
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
