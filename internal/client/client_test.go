package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/akyaiy/rpcnode/internal/server/gateway"
	"github.com/akyaiy/rpcnode/internal/server/rpc"
	"github.com/akyaiy/rpcnode/internal/server/session"
)

func fixedReply(reply string, err error) (TransportFunc, *[]string) {
	var sent []string
	return func(_ context.Context, payload []byte) ([]byte, error) {
		sent = append(sent, string(payload))
		if reply == "" {
			return nil, err
		}
		return []byte(reply), err
	}, &sent
}

func mustCall(t *testing.T, method string, params any, id rpc.ID) rpc.Request {
	t.Helper()
	req, err := rpc.NewCall(method, params, id)
	if err != nil {
		t.Fatalf("NewCall failed: %v", err)
	}
	return req
}

func mustNotification(t *testing.T, method string, params any) rpc.Request {
	t.Helper()
	req, err := rpc.NewNotification(method, params)
	if err != nil {
		t.Fatalf("NewNotification failed: %v", err)
	}
	return req
}

func TestClient_Send(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		transErr error
		wantNil  bool
		wantCode int
		check    func(t *testing.T, resp *rpc.Response)
	}{
		{
			name:  "result",
			reply: `{"jsonrpc":"2.0","result":19,"id":1}`,
			check: func(t *testing.T, resp *rpc.Response) {
				if resp.IsError() || resp.Result() != json.Number("19") || resp.ID().String() != "1" {
					t.Errorf("response = %+v; want result 19 id 1", resp)
				}
			},
		},
		{
			name:  "error response",
			reply: `{"jsonrpc":"2.0","error":{"code":-32601,"message":"Invalid method: x"},"id":1}`,
			check: func(t *testing.T, resp *rpc.Response) {
				if !resp.IsError() || resp.Err().Code != rpc.ErrMethodNotFound {
					t.Errorf("response = %+v; want method not found", resp)
				}
			},
		},
		{name: "empty reply", reply: "", wantNil: true},
		{name: "blank reply", reply: " \n", wantNil: true},
		{name: "transport failure", transErr: errors.New("connection refused"), wantCode: rpc.ErrInternalError},
		{name: "garbage", reply: `{"jsonrpc":`, wantCode: rpc.ErrParseError},
		{name: "bad version", reply: `{"jsonrpc":"1.0","result":1,"id":1}`, wantCode: rpc.ErrResponseVersion},
		{name: "no payload", reply: `{"jsonrpc":"2.0","id":1}`, wantCode: rpc.ErrResponsePayload},
		{name: "no id", reply: `{"jsonrpc":"2.0","result":1}`, wantCode: rpc.ErrResponseID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, sent := fixedReply(tt.reply, tt.transErr)
			c := New(tr)
			resp, err := c.Send(context.Background(), mustCall(t, "subtract", []int{42, 23}, rpc.IntID(1)))

			if want := `{"jsonrpc":"2.0","method":"subtract","params":[42,23],"id":1}`; len(*sent) != 1 || (*sent)[0] != want {
				t.Errorf("sent %v; want [%s]", *sent, want)
			}
			if tt.wantCode != 0 {
				var rerr *rpc.Error
				if !errors.As(err, &rerr) || rerr.Code != tt.wantCode {
					t.Fatalf("Send() error = %v; want code %d", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Send failed: %v", err)
			}
			if tt.wantNil {
				if resp != nil {
					t.Errorf("Send() = %+v; want nil", resp)
				}
				return
			}
			tt.check(t, resp)
		})
	}
}

func TestClient_SendNotificationIgnoresReply(t *testing.T) {
	for _, reply := range []string{"", `{"jsonrpc":"2.0","result":1,"id":null}`, `not json at all`} {
		t.Run(reply, func(t *testing.T) {
			tr, sent := fixedReply(reply, nil)
			resp, err := New(tr).Send(context.Background(), mustNotification(t, "update", []int{1, 2}))
			if err != nil || resp != nil {
				t.Errorf("Send(notification) = %v, %v; want nil, nil", resp, err)
			}
			if len(*sent) != 1 {
				t.Errorf("transport called %d times; want 1", len(*sent))
			}
		})
	}
}

func collect(b *Batch) ([]*rpc.Response, error) {
	var out []*rpc.Response
	for resp, err := range b.All() {
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func TestClient_SendBatch(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantIDs  []string
		wantCode int
	}{
		{
			name:    "in order",
			reply:   `[{"jsonrpc":"2.0","result":7,"id":"1"},{"jsonrpc":"2.0","error":{"code":-32601,"message":"m"},"id":"5"},{"jsonrpc":"2.0","result":19,"id":"2"}]`,
			wantIDs: []string{`"1"`, `"5"`, `"2"`},
		},
		{name: "empty reply", reply: ""},
		{name: "not an array", reply: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"Invalid request"},"id":null}`},
		{name: "empty array", reply: `[]`},
		{
			name:     "broken item stops the sequence",
			reply:    `[{"jsonrpc":"2.0","result":1,"id":1},{"jsonrpc":"2.0","id":2},{"jsonrpc":"2.0","result":3,"id":3}]`,
			wantIDs:  []string{"1"},
			wantCode: rpc.ErrResponsePayload,
		},
		{
			name:     "truncated reply",
			reply:    `[{"jsonrpc":"2.0","result":1,"id":1},{"jsonrpc":"2.0","res`,
			wantIDs:  []string{"1"},
			wantCode: rpc.ErrParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, sent := fixedReply(tt.reply, nil)
			b, err := New(tr).SendBatch(context.Background(),
				mustCall(t, "sum", []int{1, 2, 4}, rpc.StringID("1")),
				mustNotification(t, "notify_hello", []int{7}),
			)
			if err != nil {
				t.Fatalf("SendBatch failed: %v", err)
			}
			if want := `[{"jsonrpc":"2.0","method":"sum","params":[1,2,4],"id":"1"},{"jsonrpc":"2.0","method":"notify_hello","params":[7]}]`; (*sent)[0] != want {
				t.Errorf("sent %s; want %s", (*sent)[0], want)
			}

			got, err := collect(b)
			if tt.wantCode != 0 {
				if !rpc.HasCode(err, tt.wantCode) {
					t.Errorf("iteration error = %v; want code %d", err, tt.wantCode)
				}
			} else if err != nil {
				t.Fatalf("iteration failed: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d responses; want %d", len(got), len(tt.wantIDs))
			}
			for i, resp := range got {
				if resp.ID().String() != tt.wantIDs[i] {
					t.Errorf("response %d id = %s; want %s", i, resp.ID().String(), tt.wantIDs[i])
				}
			}
		})
	}
}

func TestBatch_SinglePass(t *testing.T) {
	tr, _ := fixedReply(`[{"jsonrpc":"2.0","result":1,"id":1},{"jsonrpc":"2.0","result":2,"id":2}]`, nil)
	b, err := New(tr).SendBatch(context.Background(), mustCall(t, "a", nil, rpc.IntID(1)), mustCall(t, "b", nil, rpc.IntID(2)))
	if err != nil {
		t.Fatalf("SendBatch failed: %v", err)
	}

	for resp, err := range b.All() {
		if err != nil || resp.ID().String() != "1" {
			t.Fatalf("first item = %v, %v", resp, err)
		}
		break
	}

	got, err := collect(b)
	if !errors.Is(err, ErrBatchConsumed) || len(got) != 0 {
		t.Errorf("second traversal = %v, %v; want ErrBatchConsumed", got, err)
	}
	var rerr *rpc.Error
	if !errors.As(err, &rerr) || rerr.Message != "batch response already consumed" {
		t.Errorf("second traversal error = %#v; want an *rpc.Error", err)
	}
}

func TestClient_SendBatchTransportFailure(t *testing.T) {
	tr, _ := fixedReply("", errors.New("broken pipe"))
	_, err := New(tr).SendBatch(context.Background(), mustCall(t, "a", nil, rpc.IntID(1)))
	if !rpc.HasCode(err, rpc.ErrInternalError) {
		t.Errorf("SendBatch error = %v; want internal error", err)
	}
}

type echoID struct{}

func (echoID) Validate(context.Context, any) error { return nil }

func (echoID) Execute(_ context.Context, params any, id rpc.ID) (any, error) {
	return map[string]any{"params": params, "id": id}, nil
}

func newTestNode(t *testing.T) *httptest.Server {
	t.Helper()
	reg := gateway.MapRegistry{
		"echo": echoID{},
		"fail": gateway.ProcedureFunc(func(context.Context, any, rpc.ID) (any, error) {
			return nil, rpc.NewError(-32001, "denied", nil)
		}),
	}
	gs := gateway.InitGateway(&gateway.GatewayServerInit{
		Dispatcher: gateway.NewDispatcher(reg),
		SM:         session.New(time.Minute),
	})
	srv := httptest.NewServer(gateway.NewRouter(gs, gateway.RouterOptions{Route: "/rpc"}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_OverHTTP(t *testing.T) {
	srv := newTestNode(t)
	c := New(NewHTTPTransport(srv.URL + "/rpc"))
	ctx := context.Background()

	t.Run("call", func(t *testing.T) {
		for want := range 3 {
			got, err := c.Call(ctx, "echo", map[string]any{"n": want})
			if err != nil {
				t.Fatalf("Call failed: %v", err)
			}
			m := got.(map[string]any)
			if m["id"] != json.Number(strconv.Itoa(want+1)) {
				t.Errorf("id = %v; want %d", m["id"], want+1)
			}
		}
	})

	t.Run("error", func(t *testing.T) {
		_, err := c.Call(ctx, "fail", nil)
		if !rpc.HasCode(err, -32001) {
			t.Errorf("Call error = %v; want code -32001", err)
		}
	})

	t.Run("notify", func(t *testing.T) {
		if err := c.Notify(ctx, "echo", []int{1}); err != nil {
			t.Errorf("Notify failed: %v", err)
		}
	})

	t.Run("batch", func(t *testing.T) {
		b, err := c.SendBatch(ctx,
			mustCall(t, "echo", nil, rpc.StringID("a")),
			mustNotification(t, "echo", nil),
			mustCall(t, "missing", nil, rpc.IntID(0)),
		)
		if err != nil {
			t.Fatalf("SendBatch failed: %v", err)
		}
		got, err := collect(b)
		if err != nil {
			t.Fatalf("iteration failed: %v", err)
		}
		if len(got) != 2 || got[0].ID().String() != `"a"` || got[1].ID().String() != "0" || !got[1].IsError() {
			t.Errorf("batch responses = %+v", got)
		}
	})

	t.Run("all notifications", func(t *testing.T) {
		b, err := c.SendBatch(ctx, mustNotification(t, "echo", nil))
		if err != nil {
			t.Fatalf("SendBatch failed: %v", err)
		}
		if got, err := collect(b); err != nil || len(got) != 0 {
			t.Errorf("batch = %v, %v; want no responses", got, err)
		}
	})

	t.Run("http error status", func(t *testing.T) {
		tr := NewHTTPTransport(srv.URL + "/nowhere")
		_, err := New(tr).Call(ctx, "echo", nil)
		if !rpc.HasCode(err, rpc.ErrInternalError) {
			t.Errorf("Call error = %v; want internal error", err)
		}
	})
}

func TestHTTPTransport_SessionHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(sessionHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL)
	reply, err := tr.Send(context.Background(), []byte(`{}`))
	if err != nil || reply != nil {
		t.Fatalf("Send() = %q, %v; want nil, nil", reply, err)
	}
	if got == "" || got != tr.SessionID {
		t.Errorf("session header = %q; want %q", got, tr.SessionID)
	}
}
