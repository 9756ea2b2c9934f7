package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Joeboy77/chat-app/internal/model"
)

// historyLimit caps the messages delivered on join.
const historyLimit = 50

// messageColumns is the joined row shape shared by history and
// single-message fetches.
const messageColumns = `m.id, m.user_id, u.username, m.content, m.type,
	m.created_at, m.updated_at, m.is_edited, m.is_deleted, m.parent_message_id,
	m.audio_url, m.audio_duration, m.file_url, m.file_name, m.file_type,
	m.file_size, m.is_image`

// RecentMessages reconstructs the room context delivered on join: the
// most recent messages in chronological order, each reply carrying its
// resolved parent summary and every message carrying its aggregated
// reactions. Soft-deleted messages are included — clients render them
// as deleted.
//
// Enrichment is best-effort: a failed parent or reaction fetch is
// logged and the history is delivered without it. Only the base
// message query can fail the join.
func (s *Service) RecentMessages() ([]model.Message, error) {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT %s
		FROM messages m JOIN users u ON u.id = m.user_id
		ORDER BY m.id DESC LIMIT ?`, messageColumns), historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load message history: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load message history: %w", err)
	}

	// 新しい順で取得したので古い順に並べ直す
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if len(messages) == 0 {
		return []model.Message{}, nil
	}

	s.attachParents(messages)
	s.attachReactions(messages)
	return messages, nil
}

// attachParents bulk-resolves the distinct parent ids among the batch
// in a single query and attaches the summaries to each reply.
func (s *Service) attachParents(messages []model.Message) {
	seen := make(map[int64]bool)
	var parentIDs []int64
	for _, m := range messages {
		if m.ParentMessageID != nil && !seen[*m.ParentMessageID] {
			seen[*m.ParentMessageID] = true
			parentIDs = append(parentIDs, *m.ParentMessageID)
		}
	}
	if len(parentIDs) == 0 {
		return
	}

	query := fmt.Sprintf(`SELECT m.id, m.content, m.type, m.user_id, u.username
		FROM messages m JOIN users u ON u.id = m.user_id
		WHERE m.id IN (%s)`, placeholders(len(parentIDs)))
	rows, err := s.db.Query(query, int64Args(parentIDs)...)
	if err != nil {
		// 親の解決に失敗してもhistory自体は返す（degraded read）
		log.Printf("[history] ⚠️ failed to resolve parent messages: %v", err)
		return
	}
	defer rows.Close()

	parents := make(map[int64]*model.ParentMessage, len(parentIDs))
	for rows.Next() {
		var p model.ParentMessage
		if err := rows.Scan(&p.ID, &p.Content, &p.Type, &p.UserID, &p.Username); err != nil {
			log.Printf("[history] ⚠️ failed to scan parent row: %v", err)
			continue
		}
		parents[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		log.Printf("[history] ⚠️ failed to resolve parent messages: %v", err)
	}

	for i := range messages {
		if messages[i].ParentMessageID != nil {
			messages[i].ParentMessage = parents[*messages[i].ParentMessageID]
		}
	}
}

// attachReactions bulk-loads all reactions for the batch in a single
// query (no N+1) and groups them per message. On failure the join
// proceeds with empty reaction lists.
func (s *Service) attachReactions(messages []model.Message) {
	ids := make([]int64, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}

	query := fmt.Sprintf(`SELECT r.message_id, r.user_id, u.username, r.emoji
		FROM reactions r JOIN users u ON u.id = r.user_id
		WHERE r.message_id IN (%s)
		ORDER BY r.id`, placeholders(len(ids)))
	rows, err := s.db.Query(query, int64Args(ids)...)
	if err != nil {
		log.Printf("[history] ⚠️ failed to load reactions, delivering history without them: %v", err)
		return
	}
	defer rows.Close()

	grouped := make(map[int64][]model.Reaction)
	for rows.Next() {
		var r model.Reaction
		if err := rows.Scan(&r.MessageID, &r.UserID, &r.Username, &r.Emoji); err != nil {
			log.Printf("[history] ⚠️ failed to scan reaction row: %v", err)
			continue
		}
		grouped[r.MessageID] = append(grouped[r.MessageID], r)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[history] ⚠️ failed to load reactions: %v", err)
	}

	for i := range messages {
		if rs, ok := grouped[messages[i].ID]; ok {
			messages[i].Reactions = rs
		}
	}
}

// fetchMessage loads one enriched message (row + username + current
// reactions). Used after edit/delete where reactions may exist.
func (s *Service) fetchMessage(messageID int64) (*model.Message, error) {
	row := s.db.QueryRow(fmt.Sprintf(`SELECT %s
		FROM messages m JOIN users u ON u.id = m.user_id
		WHERE m.id = ?`, messageColumns), messageID)

	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}

	batch := []model.Message{*msg}
	s.attachReactions(batch)
	return &batch[0], nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var (
		m        model.Message
		parentID sql.NullInt64
		audioURL sql.NullString
		fileURL  sql.NullString
		fileName sql.NullString
		fileType sql.NullString
	)

	err := row.Scan(&m.ID, &m.UserID, &m.Username, &m.Content, &m.Type,
		&m.CreatedAt, &m.UpdatedAt, &m.IsEdited, &m.IsDeleted, &parentID,
		&audioURL, &m.AudioDuration, &fileURL, &fileName, &fileType,
		&m.FileSize, &m.IsImage)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		m.ParentMessageID = &parentID.Int64
	}
	m.AudioURL = audioURL.String
	m.FileURL = fileURL.String
	m.FileName = fileName.String
	m.FileType = fileType.String
	m.Reactions = []model.Reaction{}
	return &m, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
