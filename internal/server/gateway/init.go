package gateway

import (
	"log/slog"
	"time"

	"github.com/akyaiy/rpcnode/internal/server/session"
)

// GatewayServerInit structure only for initialization gateway server.
type GatewayServerInit struct {
	Log        *slog.Logger
	Dispatcher *Dispatcher
	SM         *session.SessionManager

	// Timeout bounds one HTTP request including every item of a batch.
	// Zero leaves the request context untouched.
	Timeout time.Duration

	// MaxBodyBytes caps the request body. Zero means 1 MiB.
	MaxBodyBytes int64
}

// GatewayServer is the HTTP face of a Dispatcher.
type GatewayServer struct {
	log        *slog.Logger
	dispatcher *Dispatcher
	sm         *session.SessionManager
	timeout    time.Duration
	maxBody    int64
}

const defaultMaxBodyBytes = 1 << 20

// InitGateway initializes a new GatewayServer with the provided configuration.
func InitGateway(o *GatewayServerInit) *GatewayServer {
	gs := &GatewayServer{
		log:        o.Log,
		dispatcher: o.Dispatcher,
		sm:         o.SM,
		timeout:    o.Timeout,
		maxBody:    o.MaxBodyBytes,
	}
	if gs.log == nil {
		gs.log = slog.New(slog.DiscardHandler)
	}
	if gs.sm == nil {
		gs.sm = session.New(time.Minute)
	}
	if gs.maxBody <= 0 {
		gs.maxBody = defaultMaxBodyBytes
	}
	return gs
}
