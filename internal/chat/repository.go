package chat

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// foreignKeyViolation is the SQLSTATE Postgres raises when a referenced row
// is missing.
const foreignKeyViolation = "23503"

// Repository is the Postgres-backed Store.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const messageColumns = `
	m.id, m.conversation_id, m.sender_id, m.receiver_id, m.body, m.message_type,
	m.file_url, m.file_name, m.file_size, m.status, m.read_at,
	m.is_edited, m.edited_at, m.reply_to, m.created_at
`

func (r *Repository) FindOrCreateConversation(ctx context.Context, userA, userB int) (int, error) {
	a, b := pairKey(userA, userB)
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO conversations (user_a, user_b) VALUES ($1, $2)
		ON CONFLICT (user_a, user_b) DO UPDATE SET user_a = EXCLUDED.user_a
		RETURNING id
	`
	var id int
	if err := r.db.QueryRowContext(ctx, query, a, b).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return 0, ErrRecipientNotFound
		}
		return 0, err
	}
	return id, nil
}

func (r *Repository) FindConversation(ctx context.Context, userA, userB int) (int, bool, error) {
	a, b := pairKey(userA, userB)
	var id int
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE user_a = $1 AND user_b = $2`, a, b,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *Repository) InsertMessage(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO messages
			(conversation_id, sender_id, receiver_id, body, message_type,
			 file_url, file_name, file_size, reply_to)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, 0), $9)
		RETURNING id, status, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		m.ConversationID, m.SenderID, m.ReceiverID, m.Body, m.Type,
		m.FileURL, m.FileName, m.FileSize, m.ReplyTo,
	).Scan(&m.ID, &m.Status, &m.CreatedAt)
}

func (r *Repository) Messages(ctx context.Context, conversationID int) ([]*Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages m WHERE m.conversation_id = $1 ORDER BY m.id`
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	byID := make(map[int]*Message)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachConversationReactions(ctx, conversationID, byID); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *Repository) GetMessage(ctx context.Context, id int) (*Message, bool, error) {
	query := `SELECT ` + messageColumns + ` FROM messages m WHERE m.id = $1`
	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := r.attachReactions(ctx, m); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (r *Repository) MarkDelivered(ctx context.Context, messageID int) (bool, error) {
	// Conditional update keeps the status monotonic: a message the receiver
	// already read must not regress to delivered.
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET status = 'delivered' WHERE id = $1 AND status = 'sent'`,
		messageID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) MarkRead(ctx context.Context, conversationID, readerID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET status = 'read', read_at = NOW()
		WHERE conversation_id = $1 AND receiver_id = $2 AND status <> 'read'
	`, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *Repository) ToggleReaction(ctx context.Context, messageID, userID int, emoji string) (bool, error) {
	// Insert-or-delete on the unique (message, user, emoji) key. The unique
	// constraint is the concurrency guard; no read-modify-write.
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING
	`, messageID, userID, emoji)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	_, err = r.db.ExecContext(ctx,
		`DELETE FROM reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3`,
		messageID, userID, emoji,
	)
	return false, err
}

func (r *Repository) UpdateBody(ctx context.Context, messageID int, body string) (*Message, error) {
	query := `
		UPDATE messages m SET body = $2, is_edited = TRUE, edited_at = NOW()
		WHERE m.id = $1
		RETURNING ` + messageColumns
	m, err := scanMessage(r.db.QueryRowContext(ctx, query, messageID, body))
	if err != nil {
		return nil, err
	}
	if err := r.attachReactions(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository) attachReactions(ctx context.Context, m *Message) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message_id, user_id, emoji, created_at
		FROM reactions WHERE message_id = $1 ORDER BY id
	`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var re Reaction
		if err := rows.Scan(&re.ID, &re.MessageID, &re.UserID, &re.Emoji, &re.CreatedAt); err != nil {
			return err
		}
		m.Reactions = append(m.Reactions, re)
	}
	return rows.Err()
}

func (r *Repository) attachConversationReactions(ctx context.Context, conversationID int, byID map[int]*Message) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.message_id, r.user_id, r.emoji, r.created_at
		FROM reactions r
		JOIN messages m ON r.message_id = m.id
		WHERE m.conversation_id = $1
		ORDER BY r.id
	`, conversationID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var re Reaction
		if err := rows.Scan(&re.ID, &re.MessageID, &re.UserID, &re.Emoji, &re.CreatedAt); err != nil {
			return err
		}
		if m, ok := byID[re.MessageID]; ok {
			m.Reactions = append(m.Reactions, re)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*Message, error) {
	m := &Message{}
	var (
		fileURL  sql.NullString
		fileName sql.NullString
		fileSize sql.NullInt64
		readAt   sql.NullTime
		editedAt sql.NullTime
		replyTo  sql.NullInt64
	)
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Body, &m.Type,
		&fileURL, &fileName, &fileSize, &m.Status, &readAt,
		&m.IsEdited, &editedAt, &replyTo, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.FileURL = fileURL.String
	m.FileName = fileName.String
	m.FileSize = fileSize.Int64
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}
	if editedAt.Valid {
		m.EditedAt = &editedAt.Time
	}
	if replyTo.Valid {
		v := int(replyTo.Int64)
		m.ReplyTo = &v
	}
	return m, nil
}
