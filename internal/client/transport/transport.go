// Package transport talks to the world interface over HTTP. All coordinates
// on this boundary are global.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

var (
	// ErrTransport marks every failure raised by this package.
	ErrTransport = errors.New("transport")
	// ErrBadResponse marks a response body that could not be understood.
	ErrBadResponse = errors.New("unexpected response")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, strings.TrimSpace(e.Body))
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// IsTransient reports whether retrying the same request may succeed: network
// failures, 5xx and 429 responses. Context cancellation and unreadable
// response bodies are not transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrBadResponse) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return errors.Is(err, ErrTransport)
}

// Placement is one block write in global coordinates.
type Placement struct {
	X, Y, Z int
	Block   string
}

// BatchIDHeader carries the id of a batched write; retries reuse it.
const BatchIDHeader = "X-Batch-Id"

// Client is an HTTP client for one world interface.
type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

// New creates a Client for baseURL (e.g. http://localhost:9000). A zero
// timeout leaves requests bounded only by their context.
func New(baseURL string, timeout time.Duration, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse server url: unsupported scheme %q", u.Scheme)
	}
	if log == nil {
		log = slog.Default()
	}
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = timeout
	return &Client{base: u, http: hc, log: log}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

func coords(x, y, z int) url.Values {
	return url.Values{
		"x": {strconv.Itoa(x)},
		"y": {strconv.Itoa(y)},
		"z": {strconv.Itoa(z)},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, header http.Header) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", ErrTransport, path, err)
	}
	c.log.Debug("world interface request", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// GetBlock returns the namespaced id of the block at (x, y, z).
func (c *Client) GetBlock(ctx context.Context, x, y, z int) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/blocks", coords(x, y, z), nil, nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PutBlock places one block and returns the server's response text.
func (c *Client) PutBlock(ctx context.Context, x, y, z int, block string) (string, error) {
	data, err := c.do(ctx, http.MethodPut, "/blocks", coords(x, y, z), []byte(block), nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// EncodeBatch renders placements as the line-oriented batch body.
func EncodeBatch(batch []Placement) []byte {
	var buf bytes.Buffer
	for i, p := range batch {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "%d %d %d %s", p.X, p.Y, p.Z, p.Block)
	}
	return buf.Bytes()
}

// PutBlocks sends placements as one request, in order. batchID is passed in
// the BatchIDHeader when non-empty.
func (c *Client) PutBlocks(ctx context.Context, batchID string, batch []Placement) (string, error) {
	var header http.Header
	if batchID != "" {
		header = http.Header{BatchIDHeader: {batchID}}
	}
	data, err := c.do(ctx, http.MethodPut, "/blocks", coords(0, 0, 0), EncodeBatch(batch), header)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RunCommand executes a server command and returns its output.
func (c *Client) RunCommand(ctx context.Context, command string) (string, error) {
	data, err := c.do(ctx, http.MethodPost, "/command", nil, []byte(command), nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetChunks returns the raw NBT payload of dx×dz chunks starting at chunk (x, z).
func (c *Client) GetChunks(ctx context.Context, x, z, dx, dz int) ([]byte, error) {
	q := url.Values{
		"x":  {strconv.Itoa(x)},
		"z":  {strconv.Itoa(z)},
		"dx": {strconv.Itoa(dx)},
		"dz": {strconv.Itoa(dz)},
	}
	return c.do(ctx, http.MethodGet, "/chunks", q, nil, http.Header{"Accept": {"application/octet-stream"}})
}
