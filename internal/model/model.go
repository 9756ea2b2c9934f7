package model

import "time"

// MessageType discriminates the payload a message carries.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeAudio MessageType = "audio"
	TypeFile  MessageType = "file"
)

// User is an identity record. Created lazily on first join,
// immutable afterwards (no rename).
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Participant is a live connection's association with a User.
// In-memory only — destroyed on disconnect, never persisted.
// 同じユーザーが複数タブで接続した場合、Participantは接続ごとに別。
type Participant struct {
	ConnectionID string    `json:"connectionId"`
	UserID       int64     `json:"userId"`
	Username     string    `json:"username"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// ParentMessage is the summary of a reply's parent attached to
// enriched messages.
type ParentMessage struct {
	ID       int64       `json:"id"`
	Content  string      `json:"content"`
	Type     MessageType `json:"type"`
	UserID   int64       `json:"userId"`
	Username string      `json:"username"`
}

// Reaction is a single (message, user, emoji) triple.
type Reaction struct {
	MessageID int64  `json:"messageId"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	Emoji     string `json:"emoji"`
}

// Message is the enriched wire form: the stored row plus author
// username, attached reactions and, for replies, the parent summary.
type Message struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	Username  string      `json:"username"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	IsEdited  bool        `json:"isEdited"`
	IsDeleted bool        `json:"isDeleted"`

	ParentMessageID *int64         `json:"parentMessageId,omitempty"`
	ParentMessage   *ParentMessage `json:"parentMessage,omitempty"`

	// type=audio のみ
	AudioURL      string  `json:"audioUrl,omitempty"`
	AudioDuration float64 `json:"audioDuration,omitempty"`

	// type=file のみ
	FileURL  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	IsImage  bool   `json:"isImage,omitempty"`

	// Always non-nil on the wire so clients can range over it.
	Reactions []Reaction `json:"reactions"`
}

// ReactionToggle is the broadcast payload for addReaction.
// Removed is set when the toggle deleted an existing reaction.
type ReactionToggle struct {
	MessageID int64  `json:"messageId"`
	Emoji     string `json:"emoji"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	Removed   bool   `json:"removed,omitempty"`
}
