package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, sender_id, receiver_id, text, image, seen, created_at`

// MessageRepository abstracts message persistence.
type MessageRepository interface {
	Create(ctx context.Context, senderID, receiverID int64, text, image string) (models.Message, error)
	GetByID(ctx context.Context, messageID int64) (models.Message, error)
	MarkSeen(ctx context.Context, messageID, receiverID int64) error
	Conversation(ctx context.Context, userID, otherID int64) ([]models.Message, error)
	UnseenCounts(ctx context.Context, receiverID int64) (map[int64]int, error)
}

// MessageRepo is a sqlx-backed MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create stores a message with seen=false.
func (r *MessageRepo) Create(ctx context.Context, senderID, receiverID int64, text, image string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, text, image)
         VALUES ($1, $2, $3, $4)
         RETURNING `+messageColumns,
		senderID, receiverID, text, image).StructScan(&msg)
	return msg, err
}

// GetByID retrieves a single message.
func (r *MessageRepo) GetByID(ctx context.Context, messageID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkSeen flips seen to true. Only the receiver may mark a message;
// marking an already-seen message is a no-op success. A missing message
// or a non-receiver caller both report ErrMessageNotFound.
func (r *MessageRepo) MarkSeen(ctx context.Context, messageID, receiverID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET seen = TRUE WHERE id=$1 AND receiver_id=$2`, messageID, receiverID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Conversation returns all messages between the two users, both
// directions, in creation order. The serial id breaks timestamp ties.
func (r *MessageRepo) Conversation(ctx context.Context, userID, otherID int64) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
         ORDER BY created_at ASC, id ASC`,
		userID, otherID)
	return msgs, err
}

// UnseenCounts returns, per sender, how many of their messages to the
// receiver are still unseen. Computed by grouped query so it can never
// drift from the message rows.
func (r *MessageRepo) UnseenCounts(ctx context.Context, receiverID int64) (map[int64]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT sender_id, COUNT(*) FROM messages
         WHERE receiver_id=$1 AND seen = FALSE
         GROUP BY sender_id`, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[int64]int{}
	for rows.Next() {
		var senderID int64
		var count int
		if err := rows.Scan(&senderID, &count); err != nil {
			return nil, err
		}
		counts[senderID] = count
	}
	return counts, rows.Err()
}
