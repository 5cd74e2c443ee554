package models

import "time"

// Message is one direct message between two users. HiddenFor and ReadBy are
// per-user overlay sets loaded from the message_flags table; they never reach
// clients, so they are excluded from serialization.
type Message struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"senderId"`
	RecipientID int64     `json:"recipientId"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sentAt"`
	HiddenFor   []int64   `json:"-"`
	ReadBy      []int64   `json:"-"`
}

// HiddenForUser reports membership in the hidden overlay set.
func (m *Message) HiddenForUser(userID int64) bool {
	return containsID(m.HiddenFor, userID)
}

// ReadByUser reports membership in the read overlay set.
func (m *Message) ReadByUser(userID int64) bool {
	return containsID(m.ReadBy, userID)
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// ContactSummary is the derived contact-list entry pushed over the delivery
// bus and returned by search/listing endpoints. It is recomputed on every
// read, never cached.
type ContactSummary struct {
	ID                 int64      `json:"id"`
	Username           string     `json:"username"`
	ProfilePic         *string    `json:"profilePic"`
	LastMessageContent *string    `json:"lastMessageContent"`
	LastMessageTime    *time.Time `json:"lastMessageTime"`
	UnreadCount        int        `json:"unreadCount"`
}

// ContactRemoval identifies a contact dropped from an owner's list.
type ContactRemoval struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
