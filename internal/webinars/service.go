package webinars

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/category"
	"github.com/aura-webinar/webinar-service/internal/i18n"
	"github.com/aura-webinar/webinar-service/internal/models"
	"github.com/aura-webinar/webinar-service/internal/participants"
	"github.com/aura-webinar/webinar-service/pkg/queue"
	"github.com/aura-webinar/webinar-service/pkg/storage"
)

// Store persists webinars. Implementations take the transaction from ctx.
type Store interface {
	Create(ctx context.Context, w *models.Webinar) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Webinar, error)
	Update(ctx context.Context, w *models.Webinar) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter category.Filter, sort category.Sort, limit, offset int) ([]models.Webinar, int64, error)
}

// Participants manages the participant set of a webinar.
type Participants interface {
	AddToExisting(ctx context.Context, webinarID uuid.UUID, identifiers []string) (participants.Mapping, error)
	ReplaceAll(ctx context.Context, webinarID uuid.UUID, identifiers []string) (participants.Mapping, error)
	Clear(ctx context.Context, webinarID uuid.UUID) (int64, error)
	List(ctx context.Context, webinarID uuid.UUID) ([]models.Participant, error)
}

// Courses validates courses against the course service.
type Courses interface {
	Exists(ctx context.Context, courseID uuid.UUID) (bool, error)
	MentorID(ctx context.Context, courseID uuid.UUID) (uuid.UUID, error)
	FilterEnrolled(ctx context.Context, courseID uuid.UUID, userIDs []uuid.UUID) (map[uuid.UUID]struct{}, error)
}

// Presenters looks up display info of webinar creators.
type Presenters interface {
	ShortInfoBulk(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ShortInfo, error)
}

// Previews stores preview images.
type Previews interface {
	Store(ctx context.Context, originalName, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, filename string) error
	URL(filename string) string
}

// CleanupScheduler defers deletion of previews no webinar references.
type CleanupScheduler interface {
	EnqueuePreviewCleanup(ctx context.Context, payload queue.PreviewCleanupPayload) error
}

// TxRunner runs fn in one transaction carried by ctx.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps are the collaborators of Service. Cleanup may be nil, in which case orphaned previews are deleted inline.
type Deps struct {
	Tx           TxRunner
	Store        Store
	Participants Participants
	Courses      Courses
	Presenters   Presenters
	Previews     Previews
	Cleanup      CleanupScheduler
}

// Service coordinates webinar use cases.
type Service struct {
	Deps
	maxPreviewBytes int64
	now             func() time.Time
	logger          *zap.Logger
}

// NewService creates the webinar service. maxPreviewBytes <= 0 uses the storage default.
func NewService(deps Deps, maxPreviewBytes int64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Deps: deps, maxPreviewBytes: maxPreviewBytes, now: time.Now, logger: logger}
}

// Create validates the course and caller, stores the optional preview and persists the webinar with
// its participants in one transaction.
func (s *Service) Create(ctx context.Context, caller Caller, cmd CreateCommand, preview *PreviewUpload) (*WebinarResponse, error) {
	if !caller.valid() {
		return nil, apperr.Unauthorized("missing caller identity")
	}
	if err := validateCommand(cmd, cmd.Category); err != nil {
		return nil, err
	}
	if err := s.validatePreview(preview); err != nil {
		return nil, err
	}
	s.logger.Info("creating webinar",
		zap.String("title", cmd.Title),
		zap.String("course_id", cmd.CourseID.String()),
		zap.String("user_id", caller.UserID.String()),
	)

	if err := s.authorizeCourse(ctx, caller, cmd.CourseID); err != nil {
		return nil, err
	}

	now := s.now()
	w := &models.Webinar{
		Title:                  cmd.Title,
		Category:               resolveCategory(cmd.Category, cmd.EndTime, now),
		StartTime:              cmd.StartTime,
		EndTime:                cmd.EndTime,
		PlatformURL:            cmd.PlatformURL,
		CourseID:               cmd.CourseID,
		LanguageCode:           cmd.LanguageCode,
		OnlyCourseParticipants: cmd.OnlyCourseParticipants,
		CreatedBy:              caller.UserID,
		CreatedAt:              now,
	}

	stored, err := s.storePreview(ctx, preview)
	if err != nil {
		return nil, err
	}
	if stored != "" {
		url := s.Previews.URL(stored)
		w.PreviewFilename = &stored
		w.PreviewURL = &url
	}

	var parts []models.Participant
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Store.Create(ctx, w); err != nil {
			return fmt.Errorf("insert webinar: %w", err)
		}
		added, err := s.Participants.AddToExisting(ctx, w.ID, cmd.Participants)
		if err != nil {
			return err
		}
		if w.OnlyCourseParticipants {
			if err := s.checkEnrolled(ctx, w.CourseID, added); err != nil {
				return err
			}
		}
		parts, err = s.Participants.List(ctx, w.ID)
		return err
	})
	if err != nil {
		if stored != "" {
			s.discardPreview(ctx, stored, uuid.Nil, "create rolled back")
		}
		return nil, err
	}

	s.logger.Info("webinar created",
		zap.String("webinar_id", w.ID.String()),
		zap.Int("participants", len(parts)),
	)
	return newWebinarResponse(w, parts), nil
}

// Update overwrites a webinar's fields under a row lock. Participants are replaced only when the
// command carries a participant list.
func (s *Service) Update(ctx context.Context, caller Caller, cmd UpdateCommand, preview *PreviewUpload) (*WebinarResponse, error) {
	if !caller.valid() {
		return nil, apperr.Unauthorized("missing caller identity")
	}
	if err := validateCommand(cmd, cmd.Category); err != nil {
		return nil, err
	}
	if err := s.validatePreview(preview); err != nil {
		return nil, err
	}
	s.logger.Info("updating webinar", zap.String("webinar_id", cmd.ID.String()))

	var (
		w          *models.Webinar
		parts      []models.Participant
		stored     string
		oldPreview string
	)
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		w, err = s.Store.GetForUpdate(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if err := s.authorizeCourse(ctx, caller, cmd.CourseID); err != nil {
			return err
		}

		if preview != nil {
			if w.PreviewFilename != nil {
				oldPreview = *w.PreviewFilename
			}
			stored, err = s.storePreview(ctx, preview)
			if err != nil {
				return err
			}
			url := s.Previews.URL(stored)
			w.PreviewFilename = &stored
			w.PreviewURL = &url
		}

		now := s.now()
		w.Title = cmd.Title
		w.Category = resolveCategory(cmd.Category, cmd.EndTime, now)
		w.StartTime = cmd.StartTime
		w.EndTime = cmd.EndTime
		w.PlatformURL = cmd.PlatformURL
		w.CourseID = cmd.CourseID
		w.LanguageCode = cmd.LanguageCode
		w.OnlyCourseParticipants = cmd.OnlyCourseParticipants
		w.UpdatedAt = &now
		if err := s.Store.Update(ctx, w); err != nil {
			return fmt.Errorf("update webinar: %w", err)
		}

		if cmd.Participants != nil {
			replaced, err := s.Participants.ReplaceAll(ctx, w.ID, cmd.Participants)
			if err != nil {
				return err
			}
			if w.OnlyCourseParticipants {
				if err := s.checkEnrolled(ctx, w.CourseID, replaced); err != nil {
					return err
				}
			}
		}
		parts, err = s.Participants.List(ctx, w.ID)
		return err
	})
	if err != nil {
		if stored != "" {
			s.discardPreview(ctx, stored, cmd.ID, "update rolled back")
		}
		return nil, err
	}

	// The replaced preview stays referenced until commit.
	if oldPreview != "" {
		if err := s.Previews.Delete(ctx, oldPreview); err != nil {
			s.logger.Warn("delete old preview failed",
				zap.String("webinar_id", w.ID.String()),
				zap.String("filename", oldPreview),
				zap.Error(err),
			)
			s.discardPreview(ctx, oldPreview, w.ID, "preview replaced")
		}
	}

	s.logger.Info("webinar updated",
		zap.String("webinar_id", w.ID.String()),
		zap.Int("participants", len(parts)),
	)
	return newWebinarResponse(w, parts), nil
}

// Delete removes a webinar, its participants and its stored preview.
func (s *Service) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	if !caller.valid() {
		return apperr.Unauthorized("missing caller identity")
	}
	var preview string
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := s.Store.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if w.PreviewFilename != nil {
			preview = *w.PreviewFilename
		}
		removed, err := s.Participants.Clear(ctx, id)
		if err != nil {
			return err
		}
		s.logger.Info("cleared participants",
			zap.String("webinar_id", id.String()),
			zap.Int64("count", removed),
		)
		return s.Store.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if preview != "" {
		if err := s.Previews.Delete(ctx, preview); err != nil {
			s.logger.Warn("delete preview failed", zap.String("filename", preview), zap.Error(err))
			s.discardPreview(ctx, preview, id, "webinar deleted")
		} else {
			s.logger.Info("deleted preview", zap.String("filename", preview))
		}
	}
	s.logger.Info("webinar deleted", zap.String("webinar_id", id.String()))
	return nil
}

// Get returns one webinar with its participants.
func (s *Service) Get(ctx context.Context, caller Caller, id uuid.UUID) (*WebinarResponse, error) {
	if !caller.valid() {
		return nil, apperr.Unauthorized("missing caller identity")
	}
	w, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == models.RoleMentor && w.CreatedBy != caller.UserID {
		return nil, apperr.Forbidden("webinar belongs to another mentor")
	}
	parts, err := s.Participants.List(ctx, id)
	if err != nil {
		return nil, err
	}
	return newWebinarResponse(w, parts), nil
}

// List returns one page of a category. Mentors only see their own webinars. The category order
// always applies.
func (s *Service) List(ctx context.Context, caller Caller, q ListQuery) (*ListPage, error) {
	if !caller.valid() {
		return nil, apperr.Unauthorized("missing caller identity")
	}
	strategy, err := category.Get(q.Category)
	if err != nil {
		return nil, err
	}
	q = q.normalized()

	filter := strategy.Filter(s.now())
	if caller.Role == models.RoleMentor {
		filter = filter.WithCreator(caller.UserID)
	}

	rows, total, err := s.Store.List(ctx, filter, strategy.Sort(), q.Size, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("list webinars: %w", err)
	}

	var presenters map[uuid.UUID]models.ShortInfo
	if len(rows) > 0 {
		presenters, err = s.Presenters.ShortInfoBulk(ctx, creatorIDs(rows))
		if err != nil {
			return nil, err
		}
	}

	page := &ListPage{
		Items:         make([]ListItem, 0, len(rows)),
		Page:          q.Page,
		Size:          q.Size,
		TotalPages:    totalPages(total, q.Size),
		TotalElements: total,
		Empty:         len(rows) == 0,
	}
	for _, w := range rows {
		page.Items = append(page.Items, newListItem(w, presenters))
	}
	if page.Empty {
		page.Message = i18n.Message(q.Language, i18n.KeyWebinarsEmpty)
	}
	s.logger.Debug("listed webinars",
		zap.String("category", string(strategy.Category)),
		zap.Int("count", len(rows)),
		zap.Int64("total", total),
	)
	return page, nil
}

// authorizeCourse checks the course exists and the caller may attach webinars to it.
func (s *Service) authorizeCourse(ctx context.Context, caller Caller, courseID uuid.UUID) error {
	exists, err := s.Courses.Exists(ctx, courseID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound(apperr.CodeCourseNotFound, fmt.Sprintf("course not found: %s", courseID))
	}
	switch {
	case caller.Role.IsElevated():
		return nil
	case caller.Role == models.RoleMentor:
		mentorID, err := s.Courses.MentorID(ctx, courseID)
		if err != nil {
			return err
		}
		if mentorID != caller.UserID {
			return apperr.Forbidden("course belongs to another mentor")
		}
		return nil
	default:
		return apperr.Forbidden("role may not manage webinars")
	}
}

// checkEnrolled fails with NotEnrolled naming the identifiers of users outside the course.
func (s *Service) checkEnrolled(ctx context.Context, courseID uuid.UUID, m participants.Mapping) error {
	if len(m) == 0 {
		return nil
	}
	ids := m.UserIDs()
	enrolled, err := s.Courses.FilterEnrolled(ctx, courseID, ids)
	if err != nil {
		return err
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := enrolled[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	s.logger.Info("participants not enrolled",
		zap.String("course_id", courseID.String()),
		zap.Int("count", len(missing)),
	)
	return apperr.NotEnrolled(courseID, m.Identifiers(missing))
}

func (s *Service) validatePreview(p *PreviewUpload) error {
	if p == nil {
		return nil
	}
	if err := storage.ValidatePreview(p.ContentType, p.Filename, p.Size, s.maxPreviewBytes); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

func (s *Service) storePreview(ctx context.Context, p *PreviewUpload) (string, error) {
	if p == nil {
		return "", nil
	}
	name, err := s.Previews.Store(ctx, p.Filename, p.ContentType, p.Body, p.Size)
	if err != nil {
		return "", apperr.Unavailable("store preview", err)
	}
	return name, nil
}

// discardPreview schedules removal of a preview no webinar points at, deleting inline when
// no scheduler is configured or enqueueing fails.
func (s *Service) discardPreview(ctx context.Context, filename string, webinarID uuid.UUID, reason string) {
	ctx = context.WithoutCancel(ctx)
	if s.Cleanup != nil {
		err := s.Cleanup.EnqueuePreviewCleanup(ctx, queue.PreviewCleanupPayload{
			Filename:  filename,
			WebinarID: webinarID,
			Reason:    reason,
		})
		if err == nil {
			return
		}
		s.logger.Warn("enqueue preview cleanup failed", zap.String("filename", filename), zap.Error(err))
	}
	if err := s.Previews.Delete(ctx, filename); err != nil {
		s.logger.Error("orphaned preview left in storage",
			zap.String("filename", filename),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}

func creatorIDs(rows []models.Webinar) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, w := range rows {
		if _, ok := seen[w.CreatedBy]; ok {
			continue
		}
		seen[w.CreatedBy] = struct{}{}
		ids = append(ids, w.CreatedBy)
	}
	return ids
}
