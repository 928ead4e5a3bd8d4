package signal

import (
	"context"

	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, Message{Type: TypePong})
}

// handleRegister is idempotent: a socket keeps the identity it got first.
func (ctl *SignalWSController) handleRegister(cancel context.CancelFunc, conn *WsSignalConn) {
	if conn.pid == "" {
		conn.pid = ctl.Registry.Register(conn, cancel)
	}
	log.Info().Str("module", "signal").Str("pid", string(conn.pid)).Msg("register")
	ctl.sendJSON(conn, Message{Type: TypeRegistered, ID: conn.pid})
}
