package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const sessionHeader = "X-Session-UUID"

// Transport performs one round trip. A nil or empty reply means the peer
// sent nothing back.
type Transport interface {
	Send(ctx context.Context, payload []byte) ([]byte, error)
}

type TransportFunc func(ctx context.Context, payload []byte) ([]byte, error)

func (f TransportFunc) Send(ctx context.Context, payload []byte) ([]byte, error) {
	return f(ctx, payload)
}

// HTTPTransport POSTs payloads to a node. Every request carries the same
// session id, so a node serves the transport one request at a time.
type HTTPTransport struct {
	URL       string
	SessionID string
	Client    *http.Client
}

func NewHTTPTransport(url string) *HTTPTransport {
	return &HTTPTransport{
		URL:       url,
		SessionID: uuid.New().String(),
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *HTTPTransport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.SessionID != "" {
		req.Header.Set(sessionHeader, t.SessionID)
	}

	hc := t.Client
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(body))
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return body, nil
}
