// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatapi is the client for the remote chat endpoint.
//
// The endpoint takes one user message and returns one reply:
//
//	POST /api/chat  {"userMessage": "..."}  ->  {"reply": "..."}
//
// There is no session, history, or authentication on the wire. Each call is
// independent and is made exactly once: no retries.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/elysian-tui/internal/logging"
	"github.com/jeranaias/elysian-tui/internal/util"
)

// Configuration constants.
const (
	// DefaultEndpoint is where the chat API listens in local development.
	DefaultEndpoint = "http://localhost:8081/api/chat"

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024
)

// Error classes. Every error returned by Send wraps exactly one of these.
var (
	// ErrTransport means the request never produced an HTTP response.
	ErrTransport = errors.New("chat request failed")

	// ErrStatus means the server answered with a non-2xx status and a body
	// that could not be decoded. It always accompanies ErrDecode.
	ErrStatus = errors.New("chat endpoint returned an error status")

	// ErrDecode means the response body was not a JSON object.
	ErrDecode = errors.New("chat response could not be decoded")
)

// StatusError carries the status of a non-2xx response whose body could not
// be decoded. A non-2xx response with a decodable body is not an error.
type StatusError struct {
	Status int
	Body   string
	Err    error
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat endpoint error (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("chat endpoint error (HTTP %d): %s", e.Status, e.Body)
}

// Is lets errors.Is(err, ErrStatus) match.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Unwrap returns the decode error.
func (e *StatusError) Unwrap() error { return e.Err }

// Request is the JSON body sent to the endpoint.
type Request struct {
	UserMessage string `json:"userMessage"`
}

// Response is the JSON body returned by the endpoint. Reply is nil when the
// field is absent or null.
type Response struct {
	Reply *string `json:"reply"`
}

// Text returns the reply, or "" when absent.
func (r Response) Text() string {
	if r.Reply == nil {
		return ""
	}
	return *r.Reply
}

// Sender is what the request coordinator needs from a client.
type Sender interface {
	// Send posts text and returns the reply field ("" when absent).
	Send(ctx context.Context, text string) (string, error)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one chat endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

// NewClient creates a client for endpoint with no request timeout.
func NewClient(endpoint string) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		// No Timeout: a request waits as long as the server does
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: "elysian/" + Version,
	}
}

// Version is reported in the User-Agent header. Set by main at start-up.
var Version = "dev"

// WithTimeout bounds each request. Zero means no bound.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithUserAgent overrides the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send implements Sender.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	resp, err := c.Do(ctx, Request{UserMessage: text})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Do performs one request.
func (c *Client) Do(ctx context.Context, reqBody Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := logging.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logging.WithRequestID(ctx, requestID)
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrTransport, err)
	}
	c.setHeaders(req, requestID)

	c.logRequest(ctx, req, len(reqBody.UserMessage))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	c.logResponse(ctx, resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	// The status is diagnostic only: a decodable body is used whatever the
	// status, and only an undecodable one fails the request.
	out, err := decodeResponse(body)
	if err != nil && !isSuccess(resp.StatusCode) {
		return nil, &StatusError{Status: resp.StatusCode, Body: snippet(body), Err: err}
	}
	return out, err
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

// statusClass returns "2xx", "4xx" and so on.
func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}

// setHeaders sets the headers sent with every request.
func (c *Client) setHeaders(req *http.Request, requestID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
}

// logRequest logs method, path and message size. The message itself is not
// logged.
func (c *Client) logRequest(ctx context.Context, req *http.Request, chars int) {
	logging.Event(ctx, slog.LevelInfo, "CHAT_REQUEST",
		"method", req.Method, "path", req.URL.Path, "chars", chars)
}

func (c *Client) logResponse(ctx context.Context, resp *http.Response, duration time.Duration) {
	level := slog.LevelInfo
	if !isSuccess(resp.StatusCode) {
		level = slog.LevelWarn
	}
	logging.Event(ctx, level, "CHAT_RESPONSE",
		"status", resp.StatusCode, "class", statusClass(resp.StatusCode),
		"duration_ms", duration.Milliseconds())
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	// Read one byte past the limit to tell "exactly at limit" from "over"
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// decodeResponse requires a JSON object. A reply field of a non-string type
// is a decode error.
func decodeResponse(body []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrDecode)
	}
	var out Response
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &out, nil
}

func snippet(body []byte) string {
	return util.TruncateRunes(strings.TrimSpace(string(body)), 200)
}

// Classify names the error class for logs: transport, status, decode, or other.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "other"
	}
}
