package webinars

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/category"
	"github.com/aura-webinar/webinar-service/internal/models"
	"github.com/aura-webinar/webinar-service/pkg/database"
)

const webinarColumns = `id, title, category, start_time, end_time, platform_url, course_id, language_code,
	only_course_participants, created_by, created_at, updated_at, preview_filename, preview_url`

// Repository handles webinar persistence.
type Repository struct {
	db *database.DB
}

// NewRepository creates a webinar repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func scanWebinar(row pgx.Row) (*models.Webinar, error) {
	var w models.Webinar
	err := row.Scan(&w.ID, &w.Title, &w.Category, &w.StartTime, &w.EndTime, &w.PlatformURL, &w.CourseID,
		&w.LanguageCode, &w.OnlyCourseParticipants, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt,
		&w.PreviewFilename, &w.PreviewURL)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func notFound(id uuid.UUID, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(apperr.CodeWebinarNotFound, fmt.Sprintf("webinar not found with id: %s", id))
	}
	return fmt.Errorf("load webinar: %w", err)
}

// Create inserts a new webinar and sets its ID.
func (r *Repository) Create(ctx context.Context, w *models.Webinar) error {
	const q = `INSERT INTO webinars (id, title, category, start_time, end_time, platform_url, course_id, language_code,
		only_course_participants, created_by, created_at, preview_filename, preview_url)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	return r.db.Conn(ctx).QueryRow(ctx, q, w.Title, w.Category, w.StartTime, w.EndTime, w.PlatformURL, w.CourseID,
		w.LanguageCode, w.OnlyCourseParticipants, w.CreatedBy, w.CreatedAt, w.PreviewFilename, w.PreviewURL).
		Scan(&w.ID)
}

// GetByID returns a webinar by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error) {
	q := `SELECT ` + webinarColumns + ` FROM webinars WHERE id = $1`
	w, err := scanWebinar(r.db.Conn(ctx).QueryRow(ctx, q, id))
	if err != nil {
		return nil, notFound(id, err)
	}
	return w, nil
}

// GetForUpdate loads a webinar and locks its row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Webinar, error) {
	q := `SELECT ` + webinarColumns + ` FROM webinars WHERE id = $1 FOR UPDATE`
	w, err := scanWebinar(r.db.Conn(ctx).QueryRow(ctx, q, id))
	if err != nil {
		return nil, notFound(id, err)
	}
	return w, nil
}

// Update overwrites every mutable column of w.
func (r *Repository) Update(ctx context.Context, w *models.Webinar) error {
	const q = `UPDATE webinars SET title = $1, category = $2, start_time = $3, end_time = $4, platform_url = $5,
		course_id = $6, language_code = $7, only_course_participants = $8, updated_at = $9,
		preview_filename = $10, preview_url = $11
		WHERE id = $12`
	tag, err := r.db.Conn(ctx).Exec(ctx, q, w.Title, w.Category, w.StartTime, w.EndTime, w.PlatformURL, w.CourseID,
		w.LanguageCode, w.OnlyCourseParticipants, w.UpdatedAt, w.PreviewFilename, w.PreviewURL, w.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(w.ID, pgx.ErrNoRows)
	}
	return nil
}

// Delete removes a webinar by ID. Participants go with it through the foreign key.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM webinars WHERE id = $1`
	tag, err := r.db.Conn(ctx).Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(id, pgx.ErrNoRows)
	}
	return nil
}

// PreviewInUse reports whether any webinar references the stored preview filename.
func (r *Repository) PreviewInUse(ctx context.Context, filename string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM webinars WHERE preview_filename = $1)`
	var inUse bool
	err := r.db.Conn(ctx).QueryRow(ctx, q, filename).Scan(&inUse)
	return inUse, err
}

// whereClause renders filter as an SQL condition with positional args.
func whereClause(f category.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.StartAfter != nil {
		args = append(args, *f.StartAfter)
		conds = append(conds, fmt.Sprintf("start_time > $%d", len(args)))
	}
	if f.EndAtOrBefore != nil {
		args = append(args, *f.EndAtOrBefore)
		conds = append(conds, fmt.Sprintf("end_time <= $%d", len(args)))
	}
	if f.CreatedBy != nil {
		args = append(args, *f.CreatedBy)
		conds = append(conds, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of webinars matching filter in sort order, and the total match count.
func (r *Repository) List(ctx context.Context, filter category.Filter, sort category.Sort, limit, offset int) ([]models.Webinar, int64, error) {
	where, args := whereClause(filter)
	conn := r.db.Conn(ctx)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM webinars`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count webinars: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	q := fmt.Sprintf(`SELECT %s FROM webinars%s %s LIMIT $%d OFFSET $%d`,
		webinarColumns, where, sort.OrderBy(), len(args)+1, len(args)+2)
	rows, err := conn.Query(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Webinar
	for rows.Next() {
		w, err := scanWebinar(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *w)
	}
	return list, total, rows.Err()
}
