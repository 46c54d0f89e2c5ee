// Package client sends requests to a JSON-RPC peer over a Transport and
// validates what comes back. Every failure it returns is an *rpc.Error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/akyaiy/rpcnode/internal/server/rpc"
)

// ErrBatchConsumed is yielded when a Batch is traversed a second time.
var ErrBatchConsumed = rpc.NewError(rpc.ErrUnknown, "batch response already consumed", nil)

type Client struct {
	transport Transport
	log       *slog.Logger
	seq       atomic.Int64
}

type Option func(*Client)

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func New(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers one request. Notifications always return nil, nil once the
// transport succeeded; whatever the peer replied is not looked at.
func (c *Client) Send(ctx context.Context, req rpc.Request) (*rpc.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, rpc.FromError(err)
	}
	c.log.Debug("sending request", slog.String("method", req.Method()), slog.String("id", req.ID().String()))

	reply, err := c.transport.Send(ctx, payload)
	if err != nil {
		c.log.Debug("transport failed", slog.String("err", err.Error()))
		return nil, rpc.FromError(err)
	}
	if req.IsNotification() {
		return nil, nil
	}
	if len(bytes.TrimSpace(reply)) == 0 {
		return nil, nil
	}

	v, err := rpc.Decode(reply)
	if err != nil {
		return nil, rpc.NewParseError(err.Error())
	}
	resp, err := rpc.ResponseFromDecoded(v)
	if err != nil {
		return nil, rpc.FromError(err)
	}
	return &resp, nil
}

// SendBatch delivers reqs as one batch. Transport failures are returned
// here; problems with the reply surface while iterating the Batch.
func (c *Client) SendBatch(ctx context.Context, reqs ...rpc.Request) (*Batch, error) {
	if reqs == nil {
		reqs = []rpc.Request{}
	}
	payload, err := json.Marshal(reqs)
	if err != nil {
		return nil, rpc.FromError(err)
	}
	c.log.Debug("sending batch", slog.Int("size", len(reqs)))

	reply, err := c.transport.Send(ctx, payload)
	if err != nil {
		c.log.Debug("transport failed", slog.String("err", err.Error()))
		return nil, rpc.FromError(err)
	}
	return &Batch{reply: reply}, nil
}

// Call sends a request with the next sequential id and returns its result.
// An error response is returned as the *rpc.Error it carries.
func (c *Client) Call(ctx context.Context, method string, params any) (any, error) {
	req, err := rpc.NewCall(method, params, rpc.IntID(c.seq.Add(1)))
	if err != nil {
		return nil, rpc.FromError(err)
	}
	resp, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, rpc.NewError(rpc.ErrResponsePayload, "", nil)
	}
	if resp.IsError() {
		return nil, resp.Err()
	}
	if !resp.ID().Equal(req.ID()) {
		return nil, rpc.NewError(rpc.ErrResponseID, "Invalid response: id does not match the request", nil)
	}
	return resp.Result(), nil
}

func (c *Client) Notify(ctx context.Context, method string, params any) error {
	req, err := rpc.NewNotification(method, params)
	if err != nil {
		return rpc.FromError(err)
	}
	_, err = c.Send(ctx, req)
	return err
}

// Batch is the reply to SendBatch. It can be traversed once.
type Batch struct {
	reply    []byte
	consumed atomic.Bool
}

// All yields the responses in the order the peer sent them. Items are
// decoded and validated as the consumer reaches them; the first broken
// item yields an error and ends the sequence. An empty reply or a reply
// that is not an array yields nothing.
func (b *Batch) All() iter.Seq2[*rpc.Response, error] {
	return func(yield func(*rpc.Response, error) bool) {
		if !b.consumed.CompareAndSwap(false, true) {
			yield(nil, ErrBatchConsumed)
			return
		}
		if len(bytes.TrimSpace(b.reply)) == 0 {
			return
		}

		dec := json.NewDecoder(bytes.NewReader(b.reply))
		dec.UseNumber()
		tok, err := dec.Token()
		if err != nil {
			yield(nil, rpc.NewParseError(err.Error()))
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return
		}

		for dec.More() {
			var v any
			if err := dec.Decode(&v); err != nil {
				yield(nil, rpc.NewParseError(err.Error()))
				return
			}
			resp, err := rpc.ResponseFromDecoded(v)
			if err != nil {
				yield(nil, rpc.FromError(err))
				return
			}
			if !yield(&resp, nil) {
				return
			}
		}
	}
}
