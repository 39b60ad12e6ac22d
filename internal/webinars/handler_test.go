package webinars

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/auth"
	"github.com/aura-webinar/webinar-service/internal/middleware"
	"github.com/aura-webinar/webinar-service/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUseCases struct {
	caller    Caller
	createCmd CreateCommand
	updateCmd UpdateCommand
	preview   []byte
	listQuery ListQuery
	deletedID uuid.UUID
	err       error
}

func (s *stubUseCases) Create(ctx context.Context, caller Caller, cmd CreateCommand, preview *PreviewUpload) (*WebinarResponse, error) {
	s.caller, s.createCmd = caller, cmd
	if preview != nil {
		s.preview, _ = io.ReadAll(preview.Body)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &WebinarResponse{ID: uuid.New(), Title: cmd.Title}, nil
}

func (s *stubUseCases) Update(ctx context.Context, caller Caller, cmd UpdateCommand, preview *PreviewUpload) (*WebinarResponse, error) {
	s.caller, s.updateCmd = caller, cmd
	if s.err != nil {
		return nil, s.err
	}
	return &WebinarResponse{ID: cmd.ID, Title: cmd.Title}, nil
}

func (s *stubUseCases) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	s.caller, s.deletedID = caller, id
	return s.err
}

func (s *stubUseCases) Get(ctx context.Context, caller Caller, id uuid.UUID) (*WebinarResponse, error) {
	s.caller = caller
	if s.err != nil {
		return nil, s.err
	}
	return &WebinarResponse{ID: id}, nil
}

func (s *stubUseCases) List(ctx context.Context, caller Caller, q ListQuery) (*ListPage, error) {
	s.caller, s.listQuery = caller, q
	if s.err != nil {
		return nil, s.err
	}
	return &ListPage{Items: []ListItem{}, Empty: true, Message: "empty"}, nil
}

type handlerFixture struct {
	router *gin.Engine
	stub   *stubUseCases
	jwt    *auth.JWTService
}

func newHandlerFixture() *handlerFixture {
	stub := &stubUseCases{}
	jwtService := auth.NewJWTService("secret", 1)
	r := gin.New()
	NewHandler(stub).RegisterRoutes(r.Group("/api/v1"), middleware.JWT(jwtService))
	return &handlerFixture{router: r, stub: stub, jwt: jwtService}
}

func (f *handlerFixture) do(t *testing.T, req *http.Request, role models.Role) *httptest.ResponseRecorder {
	t.Helper()
	token, err := f.jwt.Generate(uuid.New(), "u@x.com", role)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, method, url, metadata string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if metadata != "" {
		require.NoError(t, mw.WriteField("metadata", metadata))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "cover.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const createMetadata = `{"title":"Intro","startTime":"2026-04-01T10:00:00Z","endTime":"2026-04-01T11:00:00Z",
	"platformUrl":"https://meet.example.com/r","courseId":"11111111-1111-1111-1111-111111111111",
	"languageCode":"en","participants":["a@x.com"]}`

func TestHandler_Create(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, multipartRequest(t, http.MethodPost, "/api/v1/webinars", createMetadata, []byte("img")), models.RoleMentor)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Intro", f.stub.createCmd.Title)
	assert.Equal(t, []string{"a@x.com"}, f.stub.createCmd.Participants)
	assert.Equal(t, models.RoleMentor, f.stub.caller.Role)
	assert.Equal(t, []byte("img"), f.stub.preview)
}

func TestHandler_CreateMissingMetadata(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, multipartRequest(t, http.MethodPost, "/api/v1/webinars", "", nil), models.RoleMentor)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CreateForbiddenForStudents(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, multipartRequest(t, http.MethodPost, "/api/v1/webinars", createMetadata, nil), models.RoleStudent)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_CreateNotEnrolled(t *testing.T) {
	f := newHandlerFixture()
	courseID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	f.stub.err = apperr.NotEnrolled(courseID, []string{"a@x.com"})

	w := f.do(t, multipartRequest(t, http.MethodPost, "/api/v1/webinars", createMetadata, nil), models.RoleMentor)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperr.CodeNotEnrolled, body["code"])
}

func TestHandler_UpdateDistinguishesNullParticipants(t *testing.T) {
	f := newHandlerFixture()
	id := uuid.New()
	meta := `{"id":"` + id.String() + `","title":"Renamed"}`

	w := f.do(t, multipartRequest(t, http.MethodPut, "/api/v1/webinars", meta, nil), models.RoleAdmin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, f.stub.updateCmd.ID)
	assert.Nil(t, f.stub.updateCmd.Participants)

	meta = `{"id":"` + id.String() + `","title":"Renamed","participants":[]}`
	w = f.do(t, multipartRequest(t, http.MethodPut, "/api/v1/webinars", meta, nil), models.RoleAdmin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, f.stub.updateCmd.Participants)
	assert.Empty(t, f.stub.updateCmd.Participants)
}

func TestHandler_Delete(t *testing.T) {
	f := newHandlerFixture()
	id := uuid.New()

	w := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/webinars/"+id.String(), nil), models.RoleMentor)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, id, f.stub.deletedID)

	w = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/webinars/not-a-uuid", nil), models.RoleMentor)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_DeleteNotFound(t *testing.T) {
	f := newHandlerFixture()
	f.stub.err = apperr.NotFound(apperr.CodeWebinarNotFound, "webinar not found")

	w := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/webinars/"+uuid.NewString(), nil), models.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_List(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/webinars/list?category=past&lang=uz&page=2&size=5", nil), models.RoleStudent)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ListQuery{Category: "past", Language: "uz", Page: 2, Size: 5}, f.stub.listQuery)

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/webinars/list?page=x", nil), models.RoleStudent)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ListLanguageFallsBackToHeader(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/webinars/list?lang=fr", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	w := f.do(t, req, models.RoleStudent)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "en-US,en;q=0.9", f.stub.listQuery.Language)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/webinars/list?lang=kaa", nil)
	req.Header.Set("Accept-Language", "en")
	w = f.do(t, req, models.RoleStudent)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kaa", f.stub.listQuery.Language)
}

func TestHandler_RequiresToken(t *testing.T) {
	f := newHandlerFixture()

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/webinars/list", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
