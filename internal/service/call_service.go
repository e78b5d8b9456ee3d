package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rescuelink/rescue-go-api/internal/dto"
	"github.com/rescuelink/rescue-go-api/internal/observability"
	"github.com/rescuelink/rescue-go-api/internal/realtime"
)

// CallState enumerates the lifecycle of a call session.
type CallState string

// Valid transitions: ringing -> active -> ended, ringing -> rejected,
// ringing -> timed_out. Guard conditions resolve concurrent transitions:
// the first one wins, later ones fail.
const (
	CallStateRinging  CallState = "ringing"
	CallStateActive   CallState = "active"
	CallStateEnded    CallState = "ended"
	CallStateRejected CallState = "rejected"
	CallStateTimedOut CallState = "timed_out"
)

// CallSession is the in-memory state of one peer-to-peer call. Not persisted.
type CallSession struct {
	ID        string
	CallerID  uint
	CalleeID  uint
	State     CallState
	StartedAt time.Time
}

// CallService pairs caller and callee for peer-to-peer call setup, forwarding
// signaling payloads as opaque blobs routed by call id.
type CallService interface {
	Initiate(ctx context.Context, callerID uint, payload dto.CallUserEvent) (dto.CallSessionResponse, error)
	Accept(ctx context.Context, calleeID uint, payload dto.AnswerCallEvent) error
	Signal(ctx context.Context, fromUserID uint, payload dto.CallSignalEvent) error
	Reject(ctx context.Context, byUserID uint, payload dto.RejectCallEvent) error
	End(ctx context.Context, byUserID uint, payload dto.EndCallEvent) error
	Expire(ctx context.Context, callID string) error
	Active(ctx context.Context) []dto.CallSessionResponse
}

type callService struct {
	mu        sync.Mutex
	sessions  map[string]*CallSession
	publisher realtime.Publisher
	logger    zerolog.Logger
}

// NewCallService constructs a call signaling relay. Ringing sessions are not
// expired internally; an external timer is expected to call Expire.
func NewCallService(publisher realtime.Publisher, logger zerolog.Logger) CallService {
	return &callService{
		sessions:  make(map[string]*CallSession),
		publisher: publisher,
		logger:    logger.With().Str("component", "call_service").Logger(),
	}
}

func (s *callService) Initiate(ctx context.Context, callerID uint, payload dto.CallUserEvent) (dto.CallSessionResponse, error) {
	if payload.CalleeID == callerID {
		return dto.CallSessionResponse{}, fmt.Errorf("cannot call self: %w", ErrInvalidState)
	}

	session := &CallSession{
		ID:        uuid.NewString(),
		CallerID:  callerID,
		CalleeID:  payload.CalleeID,
		State:     CallStateRinging,
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	observability.CallSessionsActive().Inc()

	s.publisher.Publish(ctx, realtime.UserChannel(payload.CalleeID), realtime.Event{
		Name: realtime.EventIncomingCall,
		Data: dto.IncomingCallEvent{
			CallID:   session.ID,
			CallerID: callerID,
			Payload:  payload.Payload,
		},
	}, nil)

	s.logger.Info().Str("call_id", session.ID).Uint("caller_id", callerID).Uint("callee_id", payload.CalleeID).Msg("call initiated")

	return newCallSessionResponse(*session), nil
}

func (s *callService) Accept(ctx context.Context, calleeID uint, payload dto.AnswerCallEvent) error {
	s.mu.Lock()
	session, ok := s.sessions[payload.CallID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("call %s: %w", payload.CallID, ErrNotFound)
	}
	if session.State != CallStateRinging {
		state := session.State
		s.mu.Unlock()
		return fmt.Errorf("call %s is %s, not ringing: %w", payload.CallID, state, ErrInvalidState)
	}
	if session.CalleeID != calleeID {
		s.mu.Unlock()
		return fmt.Errorf("user %d is not the callee of %s: %w", calleeID, payload.CallID, ErrInvalidState)
	}
	session.State = CallStateActive
	callerID := session.CallerID
	s.mu.Unlock()

	s.publisher.Publish(ctx, realtime.UserChannel(callerID), realtime.Event{
		Name: realtime.EventCallAccepted,
		Data: dto.CallAcceptedEvent{
			CallID:   payload.CallID,
			CalleeID: calleeID,
			Payload:  payload.Payload,
		},
	}, nil)

	return nil
}

func (s *callService) Signal(ctx context.Context, fromUserID uint, payload dto.CallSignalEvent) error {
	s.mu.Lock()
	session, ok := s.sessions[payload.CallID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("call %s: %w", payload.CallID, ErrNotFound)
	}

	var target uint
	switch fromUserID {
	case session.CallerID:
		target = session.CalleeID
	case session.CalleeID:
		target = session.CallerID
	default:
		s.mu.Unlock()
		return fmt.Errorf("user %d is not a party of %s: %w", fromUserID, payload.CallID, ErrInvalidState)
	}
	s.mu.Unlock()

	s.publisher.Publish(ctx, realtime.UserChannel(target), realtime.Event{
		Name: realtime.EventCallSignal,
		Data: dto.CallSignalBroadcast{
			CallID:     payload.CallID,
			FromUserID: fromUserID,
			Payload:    payload.Payload,
		},
	}, nil)

	return nil
}

func (s *callService) Reject(ctx context.Context, byUserID uint, payload dto.RejectCallEvent) error {
	other, err := s.finish(payload.CallID, byUserID, CallStateRejected, CallStateRinging)
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, realtime.UserChannel(other), realtime.Event{
		Name: realtime.EventCallRejected,
		Data: dto.CallEndedEvent{CallID: payload.CallID, ByID: byUserID, Reason: string(CallStateRejected)},
	}, nil)

	return nil
}

func (s *callService) End(ctx context.Context, byUserID uint, payload dto.EndCallEvent) error {
	other, err := s.finish(payload.CallID, byUserID, CallStateEnded, CallStateRinging, CallStateActive)
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, realtime.UserChannel(other), realtime.Event{
		Name: realtime.EventCallEnded,
		Data: dto.CallEndedEvent{CallID: payload.CallID, ByID: byUserID, Reason: string(CallStateEnded)},
	}, nil)

	return nil
}

// Expire transitions a ringing call to timed_out. Integration point for an
// external timer collaborator; nothing in this service schedules it.
func (s *callService) Expire(ctx context.Context, callID string) error {
	s.mu.Lock()
	session, ok := s.sessions[callID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("call %s: %w", callID, ErrNotFound)
	}
	if session.State != CallStateRinging {
		state := session.State
		s.mu.Unlock()
		return fmt.Errorf("call %s is %s, not ringing: %w", callID, state, ErrInvalidState)
	}
	callerID, calleeID := session.CallerID, session.CalleeID
	delete(s.sessions, callID)
	s.mu.Unlock()

	observability.CallSessionsActive().Dec()

	event := realtime.Event{
		Name: realtime.EventCallEnded,
		Data: dto.CallEndedEvent{CallID: callID, Reason: string(CallStateTimedOut)},
	}
	s.publisher.Publish(ctx, realtime.UserChannel(callerID), event, nil)
	s.publisher.Publish(ctx, realtime.UserChannel(calleeID), event, nil)

	s.logger.Info().Str("call_id", callID).Msg("call timed out")

	return nil
}

func (s *callService) Active(ctx context.Context) []dto.CallSessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]dto.CallSessionResponse, 0, len(s.sessions))
	for _, session := range s.sessions {
		if session.State == CallStateRinging || session.State == CallStateActive {
			out = append(out, newCallSessionResponse(*session))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })

	return out
}

// finish removes the session after a terminal transition, returning the other
// party to notify. The from-states guard makes concurrent terminations race
// safely: exactly one caller wins.
func (s *callService) finish(callID string, byUserID uint, to CallState, from ...CallState) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[callID]
	if !ok {
		return 0, fmt.Errorf("call %s: %w", callID, ErrNotFound)
	}

	allowed := false
	for _, state := range from {
		if session.State == state {
			allowed = true
			break
		}
	}
	if !allowed {
		return 0, fmt.Errorf("call %s is %s: %w", callID, session.State, ErrInvalidState)
	}

	var other uint
	switch byUserID {
	case session.CallerID:
		other = session.CalleeID
	case session.CalleeID:
		other = session.CallerID
	default:
		return 0, fmt.Errorf("user %d is not a party of %s: %w", byUserID, callID, ErrInvalidState)
	}

	session.State = to
	delete(s.sessions, callID)
	observability.CallSessionsActive().Dec()

	return other, nil
}

func newCallSessionResponse(session CallSession) dto.CallSessionResponse {
	return dto.CallSessionResponse{
		ID:        session.ID,
		CallerID:  session.CallerID,
		CalleeID:  session.CalleeID,
		State:     string(session.State),
		StartedAt: session.StartedAt,
	}
}
