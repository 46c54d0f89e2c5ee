package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akyaiy/rpcnode/internal/server/rpc"
	"github.com/akyaiy/rpcnode/internal/server/session"
)

func newTestGateway(registry Registry, o RouterOptions) (*GatewayServer, http.Handler) {
	gs := InitGateway(&GatewayServerInit{
		Dispatcher: NewDispatcher(registry),
		SM:         session.New(time.Minute),
		Timeout:    time.Second,
	})
	if o.Route == "" {
		o.Route = "/rpc"
	}
	return gs, NewRouter(gs, o)
}

func TestGateway_Handle(t *testing.T) {
	_, h := newTestGateway(testRegistry(), RouterOptions{})

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "call",
			method:     http.MethodPost,
			body:       `{"jsonrpc":"2.0","method":"subtract","params":[42,23],"id":1}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"jsonrpc":"2.0","result":19,"id":1}`,
		},
		{
			name:       "notification",
			method:     http.MethodPost,
			body:       `{"jsonrpc":"2.0","method":"notify_hello","params":[7]}`,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "parse error",
			method:     http.MethodPost,
			body:       `{"jsonrpc":"2.0","method":"foobar,"params":"bar","baz]`,
			wantStatus: http.StatusOK,
			wantBody:   `{"jsonrpc":"2.0","error":{"code":-32700,"message":"Invalid json received by the server","data":null},"id":null}`,
		},
		{
			name:       "wrong http method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/rpc", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %s; want %s", rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusNoContent && rec.Body.Len() != 0 {
				t.Errorf("body = %q; want empty", rec.Body.String())
			}
		})
	}
}

func TestGateway_Session(t *testing.T) {
	t.Run("generated when missing", func(t *testing.T) {
		_, h := newTestGateway(testRegistry(), RouterOptions{})
		req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(`{"jsonrpc":"2.0","method":"sum","params":[1],"id":1}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Header().Get(SessionHeader) == "" {
			t.Errorf("response has no %s header", SessionHeader)
		}
	})

	t.Run("visible to procedures", func(t *testing.T) {
		var seen string
		reg := MapRegistry{"who": ProcedureFunc(func(ctx context.Context, _ any, _ rpc.ID) (any, error) {
			seen = session.IDFromContext(ctx)
			return seen, nil
		})}
		_, h := newTestGateway(reg, RouterOptions{})
		req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(`{"jsonrpc":"2.0","method":"who","id":1}`))
		req.Header.Set(SessionHeader, "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if seen != "abc" {
			t.Errorf("session seen by procedure = %q; want %q", seen, "abc")
		}
		if got := rec.Header().Get(SessionHeader); got != "abc" {
			t.Errorf("%s = %q; want %q", SessionHeader, got, "abc")
		}
	})

	t.Run("busy session is rejected", func(t *testing.T) {
		gs, h := newTestGateway(testRegistry(), RouterOptions{})
		if !gs.sm.Add("busy") {
			t.Fatal("could not occupy session")
		}
		req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(`{"jsonrpc":"2.0","method":"sum","params":[1],"id":1}`))
		req.Header.Set(SessionHeader, "busy")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		want := `{"jsonrpc":"2.0","error":{"code":-32030,"message":"The session is already taken","data":null},"id":null}`
		if got := strings.TrimSpace(rec.Body.String()); got != want {
			t.Errorf("body = %s; want %s", got, want)
		}
		if !gs.sm.Add("other") {
			t.Error("unrelated session reported busy")
		}
	})

	t.Run("released after the request", func(t *testing.T) {
		gs, h := newTestGateway(testRegistry(), RouterOptions{})
		req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(`{"jsonrpc":"2.0","method":"sum","params":[1],"id":1}`))
		req.Header.Set(SessionHeader, "s1")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if gs.sm.Len() != 0 {
			t.Errorf("%d sessions still held after the request", gs.sm.Len())
		}
	})
}

func TestGateway_RateLimit(t *testing.T) {
	_, h := newTestGateway(testRegistry(), RouterOptions{RateLimit: 0.001, RateBurst: 2})

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(`{"jsonrpc":"2.0","method":"sum","params":[1],"id":1}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: status = %d; want %d", i, codes[i], want[i])
		}
	}
}

func TestGateway_Favicon(t *testing.T) {
	_, h := newTestGateway(testRegistry(), RouterOptions{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusNoContent)
	}
}
