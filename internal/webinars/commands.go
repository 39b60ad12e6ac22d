package webinars

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/models"
)

// Caller is the authenticated user on whose behalf an operation runs.
type Caller struct {
	UserID uuid.UUID
	Role   models.Role
}

func (c Caller) valid() bool {
	return c.UserID != uuid.Nil && c.Role != ""
}

// CreateCommand is the metadata of a new webinar.
// Category is optional; when blank it is derived from the time window.
type CreateCommand struct {
	Title                  string    `json:"title" validate:"required,max=100"`
	Category               string    `json:"category"`
	StartTime              time.Time `json:"startTime" validate:"required"`
	EndTime                time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	PlatformURL            string    `json:"platformUrl" validate:"required,url"`
	CourseID               uuid.UUID `json:"courseId" validate:"required"`
	LanguageCode           string    `json:"languageCode" validate:"required,max=50"`
	OnlyCourseParticipants bool      `json:"onlyCourseParticipants"`
	Participants           []string  `json:"participants"`
}

// UpdateCommand replaces every mutable field of webinar ID.
// A nil Participants leaves the stored participants unchanged; an empty list clears them.
type UpdateCommand struct {
	ID uuid.UUID `json:"id" validate:"required"`
	CreateCommand
}

// PreviewUpload is an optional preview image sent with create or update.
type PreviewUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateCommand checks struct tags and the category keyword.
func validateCommand(cmd any, category string) error {
	if err := validate.Struct(cmd); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperr.Validation("invalid webinar command", err)
		}
		fields := make(map[string]any, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		e := apperr.Validation("invalid webinar command", err)
		e.Details = map[string]any{"fields": fields}
		return e
	}
	if strings.TrimSpace(category) != "" {
		if _, ok := models.ParseCategory(category); !ok {
			return apperr.UnsupportedCategory(category)
		}
	}
	return nil
}

// resolveCategory returns the explicit category or the one implied by the window end.
func resolveCategory(keyword string, end, now time.Time) models.Category {
	if c, ok := models.ParseCategory(keyword); ok {
		return c
	}
	return models.CategoryAt(end, now)
}
