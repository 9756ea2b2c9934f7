package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joeboy77/chat-app/internal/model"
)

// Fixed content labels for non-text messages.
// 音声・ファイルメッセージの content はユーザー入力ではなく固定ラベル。
const (
	audioContentLabel = "Voice message"
	fileContentLabel  = "File"
)

// FileAttachment describes an already-uploaded file referenced by a
// file message. The upload endpoint validates type and size before
// the service ever sees it.
type FileAttachment struct {
	URL     string
	Name    string
	Type    string
	Size    int64
	IsImage bool
}

// Service owns the message state transitions: create, edit, delete,
// toggle reaction. The database is the single source of truth; every
// result returned here already carries the acting user's username so
// broadcasting never needs a second lookup.
type Service struct {
	db *sql.DB
}

// NewService creates a message service on top of the durable store.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// LookupOrCreateUser returns the User for a username, creating the
// row on first join. Joining twice with the same name reuses the id.
func (s *Service) LookupOrCreateUser(username string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, ValidationError("username is required")
	}

	u, err := s.findUser(username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	now := time.Now()
	res, err := s.db.Exec("INSERT INTO users (username, created_at) VALUES (?, ?)", username, now)
	if err != nil {
		// 同名ユーザーが同時にjoinした場合、UNIQUE制約でINSERTが負ける。
		// その場合は勝った方の行を使う。
		if u, selErr := s.findUser(username); selErr == nil {
			return u, nil
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("failed to read user id: %w", err)
	}
	return model.User{ID: id, Username: username, CreatedAt: now}, nil
}

func (s *Service) findUser(username string) (model.User, error) {
	var u model.User
	err := s.db.QueryRow("SELECT id, username, created_at FROM users WHERE username = ?", username).
		Scan(&u.ID, &u.Username, &u.CreatedAt)
	return u, err
}

// CreateText persists a plain text message and returns the enriched
// result. A brand-new message cannot have reactions, so none are read.
func (s *Service) CreateText(author model.Participant, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ValidationError("message content is required")
	}
	return s.insertMessage(author, content, model.TypeText, nil, nil)
}

// CreateReply persists a text message referencing a parent. The
// parent must exist at creation time; it may itself be soft-deleted.
func (s *Service) CreateReply(author model.Participant, content string, parentMessageID int64) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ValidationError("message content is required")
	}

	parent, err := s.fetchParent(parentMessageID)
	if err != nil {
		return nil, err
	}

	msg, err := s.insertMessage(author, content, model.TypeText, &parentMessageID, nil)
	if err != nil {
		return nil, err
	}
	msg.ParentMessage = parent
	return msg, nil
}

// CreateAudio persists an audio message. Duration defaults to 0 when
// the client does not supply one.
func (s *Service) CreateAudio(author model.Participant, audioURL string, duration float64) (*model.Message, error) {
	if strings.TrimSpace(audioURL) == "" {
		return nil, ValidationError("audioUrl is required")
	}

	return s.insertMessage(author, audioContentLabel, model.TypeAudio, nil, func(m *model.Message) {
		m.AudioURL = audioURL
		m.AudioDuration = duration
	})
}

// CreateFile persists a file message. The caption falls back to a
// fixed label when empty.
func (s *Service) CreateFile(author model.Participant, file FileAttachment, caption string) (*model.Message, error) {
	if strings.TrimSpace(file.URL) == "" {
		return nil, ValidationError("fileUrl is required")
	}

	caption = strings.TrimSpace(caption)
	if caption == "" {
		caption = fileContentLabel
	}

	return s.insertMessage(author, caption, model.TypeFile, nil, func(m *model.Message) {
		m.FileURL = file.URL
		m.FileName = file.Name
		m.FileType = file.Type
		m.FileSize = file.Size
		m.IsImage = file.IsImage
	})
}

// insertMessage writes the row and builds the enriched message from
// what is already in hand (author username attached at call time).
func (s *Service) insertMessage(author model.Participant, content string, typ model.MessageType, parentID *int64, decorate func(*model.Message)) (*model.Message, error) {
	now := time.Now()

	msg := &model.Message{
		UserID:    author.UserID,
		Username:  author.Username,
		Content:   content,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
		Reactions: []model.Reaction{},
	}
	if parentID != nil {
		id := *parentID
		msg.ParentMessageID = &id
	}
	if decorate != nil {
		decorate(msg)
	}

	res, err := s.db.Exec(`INSERT INTO messages
		(user_id, content, type, created_at, updated_at, parent_message_id,
		 audio_url, audio_duration, file_url, file_name, file_type, file_size, is_image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		author.UserID, content, string(typ), now, now, msg.ParentMessageID,
		nullableString(msg.AudioURL), msg.AudioDuration,
		nullableString(msg.FileURL), nullableString(msg.FileName), nullableString(msg.FileType),
		msg.FileSize, msg.IsImage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read message id: %w", err)
	}
	msg.ID = id
	return msg, nil
}

// Edit replaces the content of the author's own message and marks it
// edited. Soft-deleted messages can no longer be edited — otherwise
// an author could silently "un-delete" content through edit.
func (s *Service) Edit(author model.Participant, messageID int64, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ValidationError("message content is required")
	}

	if err := s.authorize(author, messageID, false); err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := s.db.Exec(
		"UPDATE messages SET content = ?, is_edited = TRUE, updated_at = ? WHERE id = ?",
		content, now, messageID,
	); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	return s.fetchMessage(messageID)
}

// Delete soft-deletes the author's own message. The row (and its
// content) stays in storage; clients render it as deleted.
func (s *Service) Delete(author model.Participant, messageID int64) (*model.Message, error) {
	if err := s.authorize(author, messageID, true); err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := s.db.Exec(
		"UPDATE messages SET is_deleted = TRUE, updated_at = ? WHERE id = ?",
		now, messageID,
	); err != nil {
		return nil, fmt.Errorf("failed to delete message: %w", err)
	}

	return s.fetchMessage(messageID)
}

// authorize checks that the message exists and belongs to the acting
// user. allowDeleted permits operating on an already-deleted row
// (delete is idempotent, edit is not).
func (s *Service) authorize(author model.Participant, messageID int64, allowDeleted bool) error {
	var ownerID int64
	var isDeleted bool
	err := s.db.QueryRow("SELECT user_id, is_deleted FROM messages WHERE id = ?", messageID).
		Scan(&ownerID, &isDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up message: %w", err)
	}
	if ownerID != author.UserID {
		return ErrForbidden
	}
	if isDeleted && !allowDeleted {
		return ErrMessageDeleted
	}
	return nil
}

// ToggleReaction adds the (message, user, emoji) reaction if absent
// and removes it if present. Toggling twice restores the prior state.
func (s *Service) ToggleReaction(author model.Participant, messageID int64, emoji string) (*model.ReactionToggle, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, ValidationError("emoji is required")
	}

	var exists int
	err := s.db.QueryRow("SELECT 1 FROM messages WHERE id = ?", messageID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up message: %w", err)
	}

	toggle := &model.ReactionToggle{
		MessageID: messageID,
		Emoji:     emoji,
		UserID:    author.UserID,
		Username:  author.Username,
	}

	res, err := s.db.Exec(
		"DELETE FROM reactions WHERE message_id = ? AND user_id = ? AND emoji = ?",
		messageID, author.UserID, emoji,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle reaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		toggle.Removed = true
		return toggle, nil
	}

	if _, err := s.db.Exec(
		"INSERT INTO reactions (message_id, user_id, emoji, created_at) VALUES (?, ?, ?, ?)",
		messageID, author.UserID, emoji, time.Now(),
	); err != nil {
		return nil, fmt.Errorf("failed to save reaction: %w", err)
	}
	return toggle, nil
}

// fetchParent loads the parent summary attached to reply messages.
func (s *Service) fetchParent(parentMessageID int64) (*model.ParentMessage, error) {
	var p model.ParentMessage
	err := s.db.QueryRow(`SELECT m.id, m.content, m.type, m.user_id, u.username
		FROM messages m JOIN users u ON u.id = m.user_id
		WHERE m.id = ?`, parentMessageID).
		Scan(&p.ID, &p.Content, &p.Type, &p.UserID, &p.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up parent message: %w", err)
	}
	return &p, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
