package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Event names produced by the core.
const (
	EventNewMessage             = "newMessage"
	EventNewMessageNotification = "newMessageNotification"
	EventChatListUpdate         = "chatListUpdate"
	EventTyping                 = "typing"
	EventStopTyping             = "stopTyping"
	EventMessageRead            = "messageRead"
	EventLocationUpdate         = "locationUpdate"
	EventIncomingCall           = "incomingCall"
	EventCallAccepted           = "callAccepted"
	EventCallSignal             = "callSignal"
	EventCallRejected           = "callRejected"
	EventCallEnded              = "callEnded"
	EventError                  = "error"
)

// Event names consumed from clients.
const (
	EventJoinUser        = "joinUser"
	EventJoinAsVolunteer = "joinAsVolunteer"
	EventJoinChat        = "joinChat"
	EventJoinRescueRoom  = "joinRescueRoom"
	EventMessageSent     = "messageSent"
	EventCallUser        = "callUser"
	EventAnswerCall      = "answerCall"
	EventRejectCall      = "rejectCall"
	EventEndCall         = "endCall"
)

// Event is a named payload delivered to the subscribers of a channel.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

// InboundEvent is the tagged union read from a client connection. Data stays
// raw until the dispatcher knows which payload shape to decode.
type InboundEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// VolunteersChannel is the broadcast group joined via joinAsVolunteer.
const VolunteersChannel = "volunteers"

// UserChannel names the personal channel of a user.
func UserChannel(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}

// ConversationChannel names the channel of a conversation.
func ConversationChannel(conversationID uint) string {
	return strconv.FormatUint(uint64(conversationID), 10)
}

// RescueChannel names the tracking channel of a rescue.
func RescueChannel(rescueID uint) string {
	return fmt.Sprintf("rescue_%d", rescueID)
}
