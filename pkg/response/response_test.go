package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/webinar-service/internal/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestError(t *testing.T) {
	courseID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "validation", err: apperr.Validation("bad"), wantStatus: http.StatusBadRequest, wantCode: apperr.CodeValidation},
		{name: "unsupported category", err: apperr.UnsupportedCategory("future"), wantStatus: http.StatusBadRequest, wantCode: apperr.CodeUnsupportedCategory},
		{name: "not found", err: apperr.NotFound(apperr.CodeWebinarNotFound, "missing"), wantStatus: http.StatusNotFound, wantCode: apperr.CodeWebinarNotFound},
		{name: "forbidden", err: apperr.Forbidden("no"), wantStatus: http.StatusForbidden, wantCode: apperr.CodeForbidden},
		{name: "not enrolled", err: apperr.NotEnrolled(courseID, []string{"b", "a"}), wantStatus: http.StatusUnprocessableEntity, wantCode: apperr.CodeNotEnrolled},
		{name: "unavailable", err: apperr.Unavailable("down"), wantStatus: http.StatusServiceUnavailable, wantCode: apperr.CodeUnavailable},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: apperr.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Error(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestError_NotEnrolledDetails(t *testing.T) {
	courseID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, apperr.NotEnrolled(courseID, []string{"c@x.com", "a@x.com"}))

	var body struct {
		Details struct {
			CourseID    string   `json:"courseId"`
			NotEnrolled []string `json:"notEnrolled"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, courseID.String(), body.Details.CourseID)
	assert.Equal(t, []string{"a@x.com", "c@x.com"}, body.Details.NotEnrolled)
}
