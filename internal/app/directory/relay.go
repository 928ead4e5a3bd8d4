package directory

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Relay delivers encoded messages to registered participants.
type Relay struct {
	Registry *Registry
	Policy   Policy
}

func NewRelay(reg *Registry, p Policy) *Relay {
	if p == nil {
		p = SimplePolicy{}
	}
	return &Relay{Registry: reg, Policy: p}
}

// Send encodes v and queues it for to. msgType only feeds the backpressure
// policy.
func (r *Relay) Send(to domain.ParticipantID, msgType string, v any) error {
	conn, ok := r.Registry.Lookup(to)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPeerUnreachable, to)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	err = conn.TrySend(core.Frame(b))
	if err == nil || !errors.Is(err, core.ErrBackpressure) {
		return err
	}
	switch r.Policy.OnBackPressure(to, msgType) {
	case DropFrame:
		log.Warn().Str("module", "directory.relay").Str("pid", string(to)).Str("type", msgType).Msg("queue full, frame dropped")
		return nil
	case Disconnect:
		log.Warn().Str("module", "directory.relay").Str("pid", string(to)).Str("type", msgType).Msg("queue full, disconnecting")
		r.Registry.Cancel(to)
		conn.Close()
	}
	return err
}
