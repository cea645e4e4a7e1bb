package wire

import (
	"encoding/json"

	"github.com/onepost/notifier/internal/ierr"
)

const (
	EventJoin      = "join"
	EventLeave     = "leave"
	EventHeartbeat = "heartbeat"

	EventJoined          = "joined"
	EventLeft            = "left"
	EventError           = "error"
	EventNewNotification = "new_notification"
)

// Frame is the envelope for every message on the websocket, in both directions.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewFrame(event string, payload any) (Frame, error) {
	if payload == nil {
		return Frame{Event: event}, nil
	}

	rawJson, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}

	return Frame{
		Event:   event,
		Payload: rawJson,
	}, nil
}

func (f Frame) HasPayload() bool {
	return len(f.Payload) > 0 && string(f.Payload) != "null"
}

func (f Frame) DecodePayload(v any) error {
	return json.Unmarshal(f.Payload, v)
}

type ErrorPayload struct {
	Code    ierr.ErrorCode `json:"code"`
	Message string         `json:"message"`
}

func NewErrorFrame(err ierr.Error) Frame {
	frame, _ := NewFrame(EventError, ErrorPayload{
		Code:    err.Code,
		Message: err.Message,
	})

	return frame
}

type UserPayload struct {
	UserId string `json:"userId"`
}
