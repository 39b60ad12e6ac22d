// Package userdir is the client of the user service: identifier search and presenter short info.
package userdir

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/clients"
	"github.com/aura-webinar/webinar-service/internal/models"
)

const (
	pathBulkSearch = "/api/v1/internal/users/bulk-search"
	pathShortInfo  = "/api/v1/internal/users/short-info"
)

type searchQuery struct {
	Query string `json:"query"`
}

type bulkSearchRequest struct {
	Queries []searchQuery `json:"queries"`
}

type bulkSearchResponse struct {
	Users []models.ResolvedUser `json:"users"`
}

// Client calls the user service over HTTP.
type Client struct {
	api *clients.JSONClient
}

// NewClient creates a user service client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{api: clients.NewJSONClient("user-service", baseURL, timeout, logger)}
}

// BulkSearch issues one query per identifier and returns every matching user.
func (c *Client) BulkSearch(ctx context.Context, queries []string) ([]models.ResolvedUser, error) {
	req := bulkSearchRequest{Queries: make([]searchQuery, 0, len(queries))}
	for _, q := range queries {
		req.Queries = append(req.Queries, searchQuery{Query: q})
	}
	var resp bulkSearchResponse
	if err := c.api.Do(ctx, http.MethodPost, pathBulkSearch, req, &resp); err != nil {
		return nil, apperr.Unavailable("user service bulk search failed", err)
	}
	return resp.Users, nil
}

// ShortInfoBulk returns display info keyed by user id. Unknown ids are absent from the map.
func (c *Client) ShortInfoBulk(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ShortInfo, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.ShortInfo{}, nil
	}
	resp := make(map[uuid.UUID]models.ShortInfo, len(ids))
	if err := c.api.Do(ctx, http.MethodPost, pathShortInfo, ids, &resp); err != nil {
		return nil, apperr.Unavailable("user service short info failed", err)
	}
	return resp, nil
}
