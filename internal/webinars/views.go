package webinars

import (
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/webinar-service/internal/models"
)

// Pagination defaults and limits. Pages are zero-based.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListQuery selects one page of a category listing. Language only picks the empty-state message.
type ListQuery struct {
	Category string
	Language string
	Page     int
	Size     int
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	return q
}

// Offset returns the row offset of the page.
func (q ListQuery) Offset() int {
	return q.Page * q.Size
}

// totalPages is ceiling(total / size); 0 when size is 0.
func totalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// WebinarResponse is the full view of a webinar.
type WebinarResponse struct {
	ID                     uuid.UUID       `json:"id"`
	Title                  string          `json:"title"`
	Category               models.Category `json:"category"`
	StartTime              time.Time       `json:"startTime"`
	EndTime                time.Time       `json:"endTime"`
	PlatformURL            string          `json:"platformUrl"`
	CourseID               uuid.UUID       `json:"courseId"`
	LanguageCode           string          `json:"languageCode"`
	OnlyCourseParticipants bool            `json:"onlyCourseParticipants"`
	Participants           []string        `json:"participants"`
	CreatedBy              uuid.UUID       `json:"createdBy"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              *time.Time      `json:"updatedAt,omitempty"`
	PreviewFilename        *string         `json:"previewFilename,omitempty"`
	PreviewURL             *string         `json:"previewUrl,omitempty"`
}

// Presenter is the display info of the user who created a webinar.
type Presenter struct {
	UserID     uuid.UUID   `json:"userId"`
	FirstName  string      `json:"firstName"`
	LastName   string      `json:"lastName"`
	MiddleName string      `json:"middleName,omitempty"`
	Role       models.Role `json:"role,omitempty"`
}

// ListItem is one row of a listing.
type ListItem struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	StartTime   time.Time   `json:"startTime"`
	EndTime     time.Time   `json:"endTime"`
	PlatformURL string      `json:"platformUrl"`
	PreviewURL  *string     `json:"previewUrl,omitempty"`
	Tutors      []Presenter `json:"tutors"`
}

// ListPage is the listing envelope.
type ListPage struct {
	Items         []ListItem `json:"items"`
	Page          int        `json:"page"`
	Size          int        `json:"size"`
	TotalPages    int        `json:"totalPages"`
	TotalElements int64      `json:"totalElements"`
	Empty         bool       `json:"empty"`
	Message       string     `json:"message,omitempty"`
}

func newWebinarResponse(w *models.Webinar, parts []models.Participant) *WebinarResponse {
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, p.UserID.String())
	}
	return &WebinarResponse{
		ID:                     w.ID,
		Title:                  w.Title,
		Category:               w.Category,
		StartTime:              w.StartTime,
		EndTime:                w.EndTime,
		PlatformURL:            w.PlatformURL,
		CourseID:               w.CourseID,
		LanguageCode:           w.LanguageCode,
		OnlyCourseParticipants: w.OnlyCourseParticipants,
		Participants:           ids,
		CreatedBy:              w.CreatedBy,
		CreatedAt:              w.CreatedAt,
		UpdatedAt:              w.UpdatedAt,
		PreviewFilename:        w.PreviewFilename,
		PreviewURL:             w.PreviewURL,
	}
}

func newListItem(w models.Webinar, presenters map[uuid.UUID]models.ShortInfo) ListItem {
	item := ListItem{
		ID:          w.ID,
		Title:       w.Title,
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		PlatformURL: w.PlatformURL,
		PreviewURL:  w.PreviewURL,
		Tutors:      []Presenter{},
	}
	if info, ok := presenters[w.CreatedBy]; ok {
		item.Tutors = append(item.Tutors, Presenter{
			UserID:     w.CreatedBy,
			FirstName:  info.FirstName,
			LastName:   info.LastName,
			MiddleName: info.MiddleName,
			Role:       info.Role,
		})
	}
	return item
}
