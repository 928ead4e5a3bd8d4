package http

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Huddle/internal/domain"
)

// memberList accepts either a JSON array of names or the comma separated
// string the invite form submits.
type memberList []string

func (m *memberList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*m = list
		return nil
	}
	var csv string
	if err := json.Unmarshal(b, &csv); err != nil {
		return errors.New("members must be an array or a comma separated string")
	}
	*m = domain.SplitMembers(csv)
	return nil
}
