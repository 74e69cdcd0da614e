package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client talks JSON over HTTP to the validation and advisory endpoints. It
// implements both Validator and Advisor.
type Client struct {
	http        *http.Client
	validateURL string
	adviseURL   string
	timeout     time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds each round-trip.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithAdviseURL enables the advisory endpoint. Without it, Advise reports an
// error that callers swallow per the advisory contract.
func WithAdviseURL(url string) ClientOption {
	return func(c *Client) {
		c.adviseURL = url
	}
}

// NewClient constructs a Client for the given validation endpoint.
func NewClient(validateURL string, options ...ClientOption) *Client {
	c := &Client{
		http:        &http.Client{},
		validateURL: validateURL,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Validate implements Validator. Transport failures and non-2xx statuses are
// returned as errors; the gate maps them to an invalid outcome with a generic
// retry message.
func (c *Client) Validate(ctx context.Context, req Request) (Outcome, error) {
	var outcome Outcome
	if err := c.post(ctx, c.validateURL, req, &outcome); err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

type advisoryReply struct {
	Reply string `json:"reply,omitempty"`
}

// Advise implements Advisor.
func (c *Client) Advise(ctx context.Context, req AdvisoryRequest) (string, error) {
	if c.adviseURL == "" {
		return "", errors.New("gate: advisory endpoint is not configured")
	}
	var reply advisoryReply
	if err := c.post(ctx, c.adviseURL, req, &reply); err != nil {
		return "", err
	}
	return reply.Reply, nil
}

func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	if url == "" {
		return errors.New("gate: endpoint url is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gate: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("gate: unexpected status " + resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gate: decode response: %w", err)
	}
	return nil
}
