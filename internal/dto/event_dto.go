package dto

import "time"

// Event payloads exchanged over the realtime socket. Field names follow the
// established wire protocol (camelCase), unlike the REST DTOs.

// JoinUserEvent subscribes the connection to its personal channel.
type JoinUserEvent struct {
	UserID uint `json:"userId" validate:"required"`
}

// JoinChatEvent subscribes the connection to a conversation channel.
type JoinChatEvent struct {
	ConversationID uint `json:"chatId" validate:"required"`
}

// JoinRescueRoomEvent subscribes the connection to a rescue-tracking channel.
type JoinRescueRoomEvent struct {
	RescueID uint `json:"rescueId" validate:"required"`
	UserID   uint `json:"userId"`
}

// MessageSentEvent is the out-of-band signal a client sends after its own
// send confirmation, used to refresh the receiver's conversation list.
type MessageSentEvent struct {
	ConversationID  uint      `json:"chatId" validate:"required"`
	ToUserID        uint      `json:"toUserId" validate:"required"`
	LastMessageText string    `json:"lastMessageText"`
	Timestamp       time.Time `json:"timestamp"`
}

// TypingEvent marks the start or end of typing within a conversation.
type TypingEvent struct {
	ConversationID uint `json:"chatId" validate:"required"`
	UserID         uint `json:"userId"`
}

// MessageReadEvent confirms a read receipt within a conversation.
type MessageReadEvent struct {
	ConversationID uint `json:"chatId" validate:"required"`
	UserID         uint `json:"userId"`
}

// Coordinates is a geographic position carried by location updates.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationUpdateEvent reports volunteer movement within a rescue room.
type LocationUpdateEvent struct {
	RescueID uint        `json:"rescueId" validate:"required"`
	UserID   uint        `json:"userId"`
	Coords   Coordinates `json:"coords"`
}

// NewMessageEvent is broadcast to a conversation channel after a message
// has been persisted.
type NewMessageEvent struct {
	Text      string    `json:"text"`
	Image     string    `json:"image,omitempty"`
	Audio     string    `json:"audio,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	SenderID  uint      `json:"senderId"`
}

// NewMessageNotificationEvent is pushed to the receiver's personal channel.
type NewMessageNotificationEvent struct {
	ConversationID uint   `json:"chatId"`
	Message        string `json:"message"`
	SenderName     string `json:"senderName"`
	SenderID       uint   `json:"senderId"`
}

// ChatListUpdateEvent is the lightweight summary push for conversation lists.
type ChatListUpdateEvent struct {
	ConversationID  uint      `json:"chatId"`
	LastMessageText string    `json:"lastMessageText"`
	Timestamp       time.Time `json:"timestamp"`
}

// TypingBroadcast is relayed to the other members of a conversation.
type TypingBroadcast struct {
	UserID uint `json:"userId"`
}

// MessageReadBroadcast is delivered to everyone in the conversation,
// sender included.
type MessageReadBroadcast struct {
	ConversationID uint `json:"chatId"`
	UserID         uint `json:"userId"`
}

// LocationBroadcast is relayed to the other members of a rescue room.
type LocationBroadcast struct {
	UserID uint        `json:"userId"`
	Coords Coordinates `json:"coords"`
}
