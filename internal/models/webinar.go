package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is the temporal category of a webinar.
type Category string

const (
	CategoryPlanned Category = "PLANNED"
	CategoryPast    Category = "PAST"
)

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(CategoryPlanned):
		return CategoryPlanned, true
	case string(CategoryPast):
		return CategoryPast, true
	}
	return "", false
}

// CategoryAt derives the category of a time window relative to now.
func CategoryAt(end, now time.Time) Category {
	if !end.After(now) {
		return CategoryPast
	}
	return CategoryPlanned
}

// Webinar represents a scheduled webinar bound to a course.
// Participants are stored separately and reached through the participants package.
type Webinar struct {
	ID                     uuid.UUID  `json:"id"`
	Title                  string     `json:"title"`
	Category               Category   `json:"category"`
	StartTime              time.Time  `json:"start_time"`
	EndTime                time.Time  `json:"end_time"`
	PlatformURL            string     `json:"platform_url"`
	CourseID               uuid.UUID  `json:"course_id"`
	LanguageCode           string     `json:"language_code"`
	OnlyCourseParticipants bool       `json:"only_course_participants"`
	CreatedBy              uuid.UUID  `json:"created_by"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              *time.Time `json:"updated_at,omitempty"`
	PreviewFilename        *string    `json:"preview_filename,omitempty"`
	PreviewURL             *string    `json:"preview_url,omitempty"`
}

// Participant links a platform user to a webinar. (WebinarID, UserID) is unique.
type Participant struct {
	ID        uuid.UUID `json:"id"`
	WebinarID uuid.UUID `json:"webinar_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
