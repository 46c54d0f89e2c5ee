package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/akyaiy/rpcnode/internal/core/utils"
	"github.com/akyaiy/rpcnode/internal/server/rpc"
	"github.com/akyaiy/rpcnode/internal/server/session"
	"github.com/google/uuid"
)

const SessionHeader = "X-Session-UUID"

// Handle serves POSTed JSON-RPC payloads. One session may only have one
// request in flight; a second one gets ErrSessionIsTaken.
func (gs *GatewayServer) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		_ = utils.WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionUUID := r.Header.Get(SessionHeader)
	if sessionUUID == "" {
		sessionUUID = uuid.New().String()
	}
	gs.log.Debug("new request", slog.String("session-uuid", sessionUUID), slog.Group("connection", slog.String("ip", r.RemoteAddr)))

	w.Header().Set(SessionHeader, sessionUUID)
	release, ok := gs.sm.Acquire(sessionUUID)
	if !ok {
		gs.log.Debug("session is busy", slog.String("session-uuid", sessionUUID))
		writeResponse(w, rpc.NewErrorResponse(rpc.NewError(rpc.ErrSessionIsTaken, "", nil), rpc.NoID()))
		return
	}
	defer release()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, gs.maxBody))
	if err != nil {
		gs.log.Info("invalid request received", slog.String("issue", "failed to read body"), slog.String("err", err.Error()))
		_ = utils.WriteJSONError(w, http.StatusRequestEntityTooLarge, "failed to read body")
		return
	}

	ctx := session.WithID(r.Context(), sessionUUID)
	if gs.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gs.timeout)
		defer cancel()
	}

	out := gs.dispatcher.Handle(ctx, body)
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

func writeResponse(w http.ResponseWriter, resp rpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
