package dto

import (
	"encoding/json"
	"time"
)

// Call signaling payloads. Session descriptions and ICE candidates are
// opaque blobs routed by call id; the relay never interprets them.

// CallUserEvent initiates a call towards another user.
type CallUserEvent struct {
	CalleeID uint            `json:"calleeId" validate:"required"`
	Payload  json.RawMessage `json:"payload"`
}

// AnswerCallEvent accepts a ringing call.
type AnswerCallEvent struct {
	CallID  string          `json:"callId" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

// CallSignalEvent forwards an in-call signaling blob to the other party.
type CallSignalEvent struct {
	CallID  string          `json:"callId" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

// RejectCallEvent declines a ringing call.
type RejectCallEvent struct {
	CallID string `json:"callId" validate:"required"`
}

// EndCallEvent hangs up a call.
type EndCallEvent struct {
	CallID string `json:"callId" validate:"required"`
}

// IncomingCallEvent is pushed to the callee's personal channel on initiate.
type IncomingCallEvent struct {
	CallID   string          `json:"callId"`
	CallerID uint            `json:"callerId"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// CallAcceptedEvent notifies the caller that the callee picked up.
type CallAcceptedEvent struct {
	CallID   string          `json:"callId"`
	CalleeID uint            `json:"calleeId"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// CallSignalBroadcast carries a forwarded signaling blob.
type CallSignalBroadcast struct {
	CallID     string          `json:"callId"`
	FromUserID uint            `json:"fromUserId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// CallEndedEvent notifies the other party that the call is over.
type CallEndedEvent struct {
	CallID string `json:"callId"`
	ByID   uint   `json:"byUserId,omitempty"`
	Reason string `json:"reason"`
}

// CallSessionResponse describes an in-progress call for operational visibility.
type CallSessionResponse struct {
	ID        string    `json:"id"`
	CallerID  uint      `json:"caller_id"`
	CalleeID  uint      `json:"callee_id"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}
