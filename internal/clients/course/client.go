// Package course is the client of the course service: existence, mentor ownership and enrollment checks.
package course

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/clients"
)

// Client calls the course service over HTTP.
type Client struct {
	api *clients.JSONClient
}

// NewClient creates a course service client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{api: clients.NewJSONClient("course-service", baseURL, timeout, logger)}
}

// Exists reports whether the course exists. A 404 answer means false.
func (c *Client) Exists(ctx context.Context, courseID uuid.UUID) (bool, error) {
	var exists bool
	err := c.api.Do(ctx, http.MethodGet, "/internal/courses/"+courseID.String(), nil, &exists)
	if clients.IsStatus(err, http.StatusNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Unavailable("course service existence check failed", err)
	}
	return exists, nil
}

// MentorID returns the mentor owning the course, uuid.Nil when it has none.
func (c *Client) MentorID(ctx context.Context, courseID uuid.UUID) (uuid.UUID, error) {
	var mentorID *uuid.UUID
	err := c.api.Do(ctx, http.MethodGet, "/"+courseID.String()+"/mentor", nil, &mentorID)
	if clients.IsStatus(err, http.StatusNotFound) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, apperr.Unavailable("course service mentor lookup failed", err)
	}
	if mentorID == nil {
		return uuid.Nil, nil
	}
	return *mentorID, nil
}

// FilterEnrolled returns the subset of userIDs enrolled in the course.
func (c *Client) FilterEnrolled(ctx context.Context, courseID uuid.UUID, userIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	enrolled := make(map[uuid.UUID]struct{}, len(userIDs))
	if len(userIDs) == 0 {
		return enrolled, nil
	}
	var ids []uuid.UUID
	if err := c.api.Do(ctx, http.MethodPost, "/"+courseID.String()+"/enrolled/check", userIDs, &ids); err != nil {
		return nil, apperr.Unavailable("course service enrollment check failed", err)
	}
	for _, id := range ids {
		enrolled[id] = struct{}{}
	}
	return enrolled, nil
}
