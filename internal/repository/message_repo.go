package repository

import (
	"context"
	"errors"
	"time"

	"github.com/premkumar3616/junk-chat/internal/models"
)

// ErrInvalidParty is returned when a message's sender and recipient are the
// same user. Distinct-party validation of the ids themselves is the caller's
// job; the store only enforces the structural invariant.
var ErrInvalidParty = errors.New("message sender and recipient must differ")

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append persists a new message with empty overlay sets and returns it with
// its assigned id.
func (r *MessageRepository) Append(
	ctx context.Context,
	senderID int64,
	recipientID int64,
	content string,
	sentAt time.Time,
) (*models.Message, error) {
	if senderID == recipientID {
		return nil, ErrInvalidParty
	}

	query := `
		INSERT INTO messages (sender_id, recipient_id, content, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sender_id, recipient_id, content, sent_at
	`

	var message models.Message
	err := r.db.QueryRow(ctx, query, senderID, recipientID, content, sentAt.UTC()).Scan(
		&message.ID,
		&message.SenderID,
		&message.RecipientID,
		&message.Content,
		&message.SentAt,
	)
	if err != nil {
		return nil, err
	}

	message.HiddenFor = []int64{}
	message.ReadBy = []int64{}
	return &message, nil
}

// Conversation returns every message between the pair, oldest first (ties
// broken by id), with overlay sets loaded. Visibility is not applied here.
func (r *MessageRepository) Conversation(ctx context.Context, userA, userB int64) ([]models.Message, error) {
	query := `
		SELECT
			m.id,
			m.sender_id,
			m.recipient_id,
			m.content,
			m.sent_at,
			COALESCE((
				SELECT array_agg(f.user_id) FROM message_flags f
				WHERE f.message_id = m.id AND f.kind = 'hidden'
			), '{}'),
			COALESCE((
				SELECT array_agg(f.user_id) FROM message_flags f
				WHERE f.message_id = m.id AND f.kind = 'read'
			), '{}')
		FROM messages m
		WHERE (m.sender_id = $1 AND m.recipient_id = $2)
		   OR (m.sender_id = $2 AND m.recipient_id = $1)
		ORDER BY m.sent_at ASC, m.id ASC
	`

	rows, err := r.db.Query(ctx, query, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.SenderID,
			&message.RecipientID,
			&message.Content,
			&message.SentAt,
			&message.HiddenFor,
			&message.ReadBy,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// Hide marks every message in the conversation as hidden for userID. The
// insert-select is one atomic statement, so concurrent hides cannot lose
// updates, and a message appended after the statement's snapshot is never
// retroactively hidden.
func (r *MessageRepository) Hide(ctx context.Context, userID, contactID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_flags (message_id, user_id, kind)
		SELECT m.id, $1, 'hidden'
		FROM messages m
		WHERE (m.sender_id = $1 AND m.recipient_id = $2)
		   OR (m.sender_id = $2 AND m.recipient_id = $1)
		ON CONFLICT DO NOTHING
	`, userID, contactID)
	return err
}

// MarkRead marks every message sent by contactID to userID as read by
// userID. Returns the number of messages newly marked, so callers can treat
// nothing-unread as a no-op.
func (r *MessageRepository) MarkRead(ctx context.Context, userID, contactID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO message_flags (message_id, user_id, kind)
		SELECT m.id, $1, 'read'
		FROM messages m
		WHERE m.sender_id = $2 AND m.recipient_id = $1
		ON CONFLICT DO NOTHING
	`, userID, contactID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// LatestVisible returns the most recent message between the pair that is not
// hidden for userID, or pgx.ErrNoRows when the visible conversation is empty.
func (r *MessageRepository) LatestVisible(ctx context.Context, userID, contactID int64) (*models.Message, error) {
	query := `
		SELECT m.id, m.sender_id, m.recipient_id, m.content, m.sent_at
		FROM messages m
		WHERE ((m.sender_id = $1 AND m.recipient_id = $2)
		   OR (m.sender_id = $2 AND m.recipient_id = $1))
		  AND NOT EXISTS (
			SELECT 1 FROM message_flags f
			WHERE f.message_id = m.id AND f.user_id = $1 AND f.kind = 'hidden'
		  )
		ORDER BY m.sent_at DESC, m.id DESC
		LIMIT 1
	`

	var message models.Message
	err := r.db.QueryRow(ctx, query, userID, contactID).Scan(
		&message.ID,
		&message.SenderID,
		&message.RecipientID,
		&message.Content,
		&message.SentAt,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// CountUnread recomputes the number of messages sent by contactID that
// ownerID can see and has not read. Hidden messages do not count.
func (r *MessageRepository) CountUnread(ctx context.Context, ownerID, contactID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		WHERE m.sender_id = $2
		  AND m.recipient_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM message_flags f
			WHERE f.message_id = m.id AND f.user_id = $1 AND f.kind = 'hidden'
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM message_flags f
			WHERE f.message_id = m.id AND f.user_id = $1 AND f.kind = 'read'
		  )
	`

	var count int
	if err := r.db.QueryRow(ctx, query, ownerID, contactID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// PurgeOlderThan deletes messages whose sent_at predates now minus the given
// age, regardless of overlay state, and returns the number deleted. Flag rows
// go with their message via ON DELETE CASCADE.
func (r *MessageRepository) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)
	tag, err := r.db.Exec(ctx, `
		DELETE FROM messages
		WHERE sent_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
