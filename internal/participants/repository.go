package participants

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/webinar-service/internal/models"
	"github.com/aura-webinar/webinar-service/pkg/database"
)

// Repository handles webinar participant persistence.
type Repository struct {
	db *database.DB
}

// NewRepository creates a participant repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// ListByWebinar returns the participants of a webinar in insertion order.
func (r *Repository) ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Participant, error) {
	const q = `SELECT id, webinar_id, user_id, created_at FROM webinar_participants
		WHERE webinar_id = $1 ORDER BY created_at, user_id`
	rows, err := r.db.Conn(ctx).Query(ctx, q, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.WebinarID, &p.UserID, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// InsertMany adds userIDs to a webinar. Pairs already present are skipped.
func (r *Repository) InsertMany(ctx context.Context, webinarID uuid.UUID, userIDs []uuid.UUID, createdAt time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	const q = `INSERT INTO webinar_participants (id, webinar_id, user_id, created_at)
		SELECT gen_random_uuid(), $1, u, $3 FROM unnest($2::uuid[]) AS u
		ON CONFLICT (webinar_id, user_id) DO NOTHING`
	_, err := r.db.Conn(ctx).Exec(ctx, q, webinarID, userIDs, createdAt)
	return err
}

// DeleteByWebinar removes every participant of a webinar and returns how many were removed.
func (r *Repository) DeleteByWebinar(ctx context.Context, webinarID uuid.UUID) (int64, error) {
	const q = `DELETE FROM webinar_participants WHERE webinar_id = $1`
	tag, err := r.db.Conn(ctx).Exec(ctx, q, webinarID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
