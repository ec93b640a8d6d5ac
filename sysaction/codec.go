package sysaction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tos-network/gvault/params"
)

// ErrInvalidSysAction wraps every way tx.Data can fail to decode as a
// system action envelope.
var ErrInvalidSysAction = errors.New("invalid system action payload")

// Decode parses tx.Data into a SysAction. The envelope is capped at
// params.MaxSysActionBytes and must name a non-empty action kind; the
// payload stays raw for the handler to interpret.
func Decode(data []byte) (*SysAction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidSysAction)
	}
	if len(data) > params.MaxSysActionBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrInvalidSysAction, len(data), params.MaxSysActionBytes)
	}
	var sa SysAction
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSysAction, err)
	}
	if sa.Action == "" {
		return nil, fmt.Errorf("%w: missing action field", ErrInvalidSysAction)
	}
	return &sa, nil
}

// DecodePayload unmarshals sa.Payload into dst. An absent payload leaves
// dst untouched, so actions without parameters decode into zero values.
func DecodePayload(sa *SysAction, dst interface{}) error {
	if len(sa.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(sa.Payload, dst)
}

// Encode renders a SysAction as tx.Data bytes.
func Encode(sa *SysAction) ([]byte, error) {
	return json.Marshal(sa)
}

// MakeSysAction marshals payload and wraps it in an encoded envelope of
// the given kind. A nil payload encodes an envelope without one.
func MakeSysAction(kind ActionKind, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return Encode(&SysAction{Action: kind, Payload: raw})
}
