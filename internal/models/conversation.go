package models

import "time"

const (
	SenderUser  = "user"
	SenderAdmin = "admin"

	ConversationStarted = "Conversation started"
)

type Conversation struct {
	ID                string    `bson:"_id" json:"id"`
	UserID            string    `bson:"userId" json:"userId"`
	UserName          string    `bson:"userName,omitempty" json:"userName,omitempty"`
	Guest             bool      `bson:"guest,omitempty" json:"guest,omitempty"`
	LastMessage       string    `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	LastMessageSender string    `bson:"lastMessageSender,omitempty" json:"lastMessageSender,omitempty"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Message struct {
	ID             string    `bson:"_id" json:"id"`
	ConversationID string    `bson:"conversationId" json:"conversationId"`
	Text           string    `bson:"text" json:"text" validate:"required,max=2000"`
	Sender         string    `bson:"sender" json:"sender" validate:"oneof=user admin"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}
