package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/akyaiy/rpcnode/internal/core/utils"
	"github.com/akyaiy/rpcnode/internal/server/rpc"
)

const (
	msgInvalidTopLevel = "Invalid request"
	msgUnencodable     = "Result could not be encoded"
)

// Dispatcher turns one inbound payload into zero or one outbound payload.
// It holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	registry Registry
	log      *slog.Logger

	// strict drops every reply to a notification, including lookup and
	// validation failures that are reported by default.
	strict   bool
	workers  int
	maxBatch int
}

type DispatcherOption func(*Dispatcher)

func WithLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

func WithStrictNotifications(strict bool) DispatcherOption {
	return func(d *Dispatcher) { d.strict = strict }
}

// WithBatchWorkers runs batch items on up to n goroutines. Responses keep
// the request order whatever n is.
func WithBatchWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) { d.workers = n }
}

// WithMaxBatch rejects batches longer than n items. Zero disables the limit.
func WithMaxBatch(n int) DispatcherOption {
	return func(d *Dispatcher) { d.maxBatch = n }
}

func NewDispatcher(registry Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		log:      slog.New(slog.DiscardHandler),
		workers:  1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle processes a single request or a batch and returns the encoded reply.
// A nil result means nothing must be sent back.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte) []byte {
	payload = bytes.TrimSpace(payload)
	if !json.Valid(payload) {
		d.log.Info("invalid request received", slog.String("issue", rpc.ErrParseErrorS))
		return d.encode(rpc.NewErrorResponse(rpc.NewParseError(""), rpc.NoID()))
	}

	switch payload[0] {
	case '{':
		resp, ok := d.executeProcedure(ctx, payload)
		if !ok {
			return nil
		}
		return d.encode(resp)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return d.encode(rpc.NewErrorResponse(rpc.NewParseError(""), rpc.NoID()))
		}
		if len(items) == 0 {
			d.log.Info("invalid request received", slog.String("issue", "empty batch"))
			return d.encode(rpc.NewErrorResponse(rpc.NewInvalidRequest(msgInvalidTopLevel), rpc.NoID()))
		}
		if d.maxBatch > 0 && len(items) > d.maxBatch {
			d.log.Info("invalid request received", slog.String("issue", "batch too large"), slog.Int("size", len(items)))
			return d.encode(rpc.NewErrorResponse(rpc.NewInvalidRequest(fmt.Sprintf("Batch exceeds %d requests", d.maxBatch)), rpc.NoID()))
		}
		return d.executeBatch(ctx, items)
	}

	d.log.Info("invalid request received", slog.String("issue", "top-level value is not an object or array"))
	return d.encode(rpc.NewErrorResponse(rpc.NewInvalidRequest(msgInvalidTopLevel), rpc.NoID()))
}

// encode marshals one response. A result that cannot be encoded is replaced
// by an internal error carrying the same id.
func (d *Dispatcher) encode(resp rpc.Response) []byte {
	data, err := json.Marshal(resp)
	if err == nil {
		return data
	}
	d.log.Error("failed to encode response", slog.String("id", resp.ID().String()), slog.String("err", err.Error()))
	data, _ = json.Marshal(rpc.NewErrorResponse(rpc.NewInternalError(msgUnencodable), resp.ID()))
	return data
}

// executeBatch returns the encoded array of responses, or nil when every
// item was a notification.
func (d *Dispatcher) executeBatch(ctx context.Context, items []json.RawMessage) []byte {
	slots := make([][]byte, len(items))
	run := func(i int) {
		if resp, ok := d.executeProcedure(ctx, items[i]); ok {
			slots[i] = d.encode(resp)
		}
	}

	if d.workers <= 1 || len(items) == 1 {
		for i := range items {
			run(i)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for range min(d.workers, len(items)) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					run(i)
				}
			}()
		}
		for i := range items {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	var buf bytes.Buffer
	for _, data := range slots {
		if data == nil {
			continue
		}
		if buf.Len() == 0 {
			buf.WriteByte('[')
		} else {
			buf.WriteByte(',')
		}
		buf.Write(data)
	}
	if buf.Len() == 0 {
		return nil
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// executeProcedure runs one item. The bool is false when the item produces
// no response.
func (d *Dispatcher) executeProcedure(ctx context.Context, raw []byte) (rpc.Response, bool) {
	decoded, err := rpc.Decode(raw)
	if err != nil {
		return rpc.NewErrorResponse(rpc.NewParseError(""), rpc.RecoverID(raw)), true
	}
	req, err := rpc.RequestFromDecoded(decoded)
	if err != nil {
		d.log.Info("invalid request received", slog.String("issue", err.Error()))
		return rpc.NewErrorResponse(rpc.FromError(err), rpc.RecoverID(raw)), true
	}

	log := d.log.With(slog.String("method", req.Method()), slog.String("id", req.ID().String()))
	log.Debug("request accepted", slog.Bool("notification", req.IsNotification()))

	proc, rerr := d.lookup(req.Method())
	if rerr != nil {
		log.Info("invalid request received", slog.String("issue", rpc.ErrMethodNotFoundS))
		return d.reject(req, rerr)
	}

	if err := ctx.Err(); err != nil {
		return d.reject(req, rpc.NewInternalError(err.Error()))
	}

	params := req.ParamsOrEmpty()
	if err := d.guard(log, func() error { return proc.Validate(ctx, params) }); err != nil {
		log.Info("invalid request received", slog.String("issue", err.Error()))
		return d.reject(req, validationError(err))
	}

	var result any
	err = d.guard(log, func() error {
		var err error
		result, err = proc.Execute(ctx, params, req.ID())
		return err
	})
	if err != nil {
		rerr := rpc.FromError(err)
		if req.IsNotification() {
			log.Error("notification failed", slog.Int("code", rerr.Code), slog.String("message", rerr.Message))
			return rpc.Response{}, false
		}
		log.Debug("procedure failed", slog.Int("code", rerr.Code), slog.String("message", rerr.Message))
		return rpc.NewErrorResponse(rerr, req.ID()), true
	}
	if req.IsNotification() {
		return rpc.Response{}, false
	}
	return rpc.NewResponse(result, req.ID()), true
}

func (d *Dispatcher) lookup(method string) (Procedure, *rpc.Error) {
	if !d.registry.Has(method) {
		return nil, rpc.NewMethodNotFound("Invalid method: " + method)
	}
	proc, ok := d.registry.Get(method).(Procedure)
	if !ok {
		return nil, rpc.NewMethodNotFound("Invalid method: " + method)
	}
	return proc, nil
}

// reject reports a failure that happened before execution. Notifications
// get a null-id error unless strict mode is on.
func (d *Dispatcher) reject(req rpc.Request, rerr *rpc.Error) (rpc.Response, bool) {
	if req.IsNotification() && d.strict {
		return rpc.Response{}, false
	}
	return rpc.NewErrorResponse(rerr, req.ID()), true
}

func (d *Dispatcher) guard(log *slog.Logger, fn func() error) (err error) {
	defer utils.CatchPanicWithFallback(func(rec any) {
		log.Error("panic caught in procedure", slog.Any("error", rec))
		err = rpc.NewInternalError("")
	})
	return fn()
}

// validationError keeps protocol errors and reports anything else as
// invalid params.
func validationError(err error) *rpc.Error {
	var rerr *rpc.Error
	if errors.As(err, &rerr) {
		return rerr
	}
	return rpc.NewInvalidParams(err.Error())
}
