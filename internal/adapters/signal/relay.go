package signal

import (
	"errors"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleRouted forwards a call message to its recipient with the sender
// stamped in From. The sender cannot choose its own From.
func (ctl *SignalWSController) handleRouted(conn *WsSignalConn, msg Message) {
	if conn.pid == "" {
		ctl.sendJSON(conn, Message{Type: TypeError, Code: CodeNotRegistered, CallID: msg.CallID})
		return
	}
	if msg.Type == TypeOffer && !ctl.Limiter.Allow(conn.pid) {
		log.Warn().Str("module", "signal").Str("pid", string(conn.pid)).Msg("offer rate limited")
		ctl.sendJSON(conn, Message{Type: TypeError, Code: CodeRateLimited, CallID: msg.CallID})
		return
	}

	to := msg.To
	msg.From = conn.pid
	msg.To = ""
	err := ctl.Relay.Send(to, msg.Type, msg)
	switch {
	case err == nil:
		log.Debug().Str("module", "signal").Str("type", msg.Type).Str("from", string(msg.From)).Str("to", string(to)).Msg("relayed")
	case errors.Is(err, domain.ErrPeerUnreachable):
		log.Info().Str("module", "signal").Str("type", msg.Type).Str("to", string(to)).Msg("peer unreachable")
		ctl.sendJSON(conn, Message{Type: TypeError, Code: CodePeerUnreachable, CallID: msg.CallID, From: to})
	default:
		log.Warn().Err(err).Str("module", "signal").Str("type", msg.Type).Str("to", string(to)).Msg("relay failed")
	}
}
