package participants

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/models"
)

type mockDirectory struct {
	byQuery map[string][]models.ResolvedUser
	calls   [][]string
	err     error
}

func (m *mockDirectory) BulkSearch(ctx context.Context, queries []string) ([]models.ResolvedUser, error) {
	m.calls = append(m.calls, queries)
	if m.err != nil {
		return nil, m.err
	}
	var out []models.ResolvedUser
	for _, q := range queries {
		out = append(out, m.byQuery[q]...)
	}
	return out, nil
}

type mockStore struct {
	byWebinar map[uuid.UUID][]models.Participant
	inserts   int
	err       error
}

func newMockStore() *mockStore {
	return &mockStore{byWebinar: make(map[uuid.UUID][]models.Participant)}
}

func (m *mockStore) ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Participant, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.Participant(nil), m.byWebinar[webinarID]...), nil
}

func (m *mockStore) InsertMany(ctx context.Context, webinarID uuid.UUID, userIDs []uuid.UUID, createdAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.inserts++
	for _, id := range userIDs {
		m.byWebinar[webinarID] = append(m.byWebinar[webinarID], models.Participant{
			ID: uuid.New(), WebinarID: webinarID, UserID: id, CreatedAt: createdAt,
		})
	}
	return nil
}

func (m *mockStore) DeleteByWebinar(ctx context.Context, webinarID uuid.UUID) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := int64(len(m.byWebinar[webinarID]))
	delete(m.byWebinar, webinarID)
	return n, nil
}

func (m *mockStore) userIDs(webinarID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range m.byWebinar[webinarID] {
		ids = append(ids, p.UserID)
	}
	return ids
}

func student(email string) models.ResolvedUser {
	return models.ResolvedUser{UserID: uuid.New(), Role: models.RoleStudent, Email: email}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]string{" a@x.com ", "", "   ", "a@x.com", "A@x.com", "12345678901234"})
	assert.Equal(t, []string{"a@x.com", "A@x.com", "12345678901234"}, got)
}

func TestResolve_EmptyInputSkipsDirectory(t *testing.T) {
	dir := &mockDirectory{}
	r := NewResolver(dir, newMockStore(), nil)

	got, err := r.Resolve(context.Background(), []string{"", "  "})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, dir.calls)
}

func TestResolve_ExcludesGuestsAndForeignUsers(t *testing.T) {
	alice := student("alice@x.com")
	guest := models.ResolvedUser{UserID: uuid.New(), Role: models.RoleGuest, Email: "guest@x.com"}
	stranger := student("stranger@x.com")
	dir := &mockDirectory{byQuery: map[string][]models.ResolvedUser{
		"alice@x.com": {alice, stranger},
		"guest@x.com": {guest},
	}}
	r := NewResolver(dir, newMockStore(), nil)

	got, err := r.Resolve(context.Background(), []string{"alice@x.com", "guest@x.com", "alice@x.com"})
	require.NoError(t, err)
	assert.Equal(t, Mapping{alice.UserID: "alice@x.com"}, got)
	require.Len(t, dir.calls, 1)
	assert.Equal(t, []string{"alice@x.com", "guest@x.com"}, dir.calls[0])
}

func TestResolve_MatchesNationalID(t *testing.T) {
	bob := models.ResolvedUser{UserID: uuid.New(), Role: models.RoleStudent, Email: "bob@x.com", NationalID: "31234567890123"}
	dir := &mockDirectory{byQuery: map[string][]models.ResolvedUser{"31234567890123": {bob}}}
	r := NewResolver(dir, newMockStore(), nil)

	got, err := r.Resolve(context.Background(), []string{"31234567890123"})
	require.NoError(t, err)
	assert.Equal(t, Mapping{bob.UserID: "31234567890123"}, got)
}

func TestResolve_EmailPreferredOverNationalID(t *testing.T) {
	carol := models.ResolvedUser{UserID: uuid.New(), Role: models.RoleMentor, Email: "carol@x.com", NationalID: "999"}
	dir := &mockDirectory{byQuery: map[string][]models.ResolvedUser{"carol@x.com": {carol}}}
	r := NewResolver(dir, newMockStore(), nil)

	got, err := r.Resolve(context.Background(), []string{"999", "carol@x.com"})
	require.NoError(t, err)
	assert.Equal(t, Mapping{carol.UserID: "carol@x.com"}, got)
}

func TestResolve_EmailMatchIgnoresCase(t *testing.T) {
	dana := student("dana@x.com")
	dir := &mockDirectory{byQuery: map[string][]models.ResolvedUser{"Dana@X.com": {dana}}}
	r := NewResolver(dir, newMockStore(), nil)

	got, err := r.ResolveStrict(context.Background(), []string{"Dana@X.com"})
	require.NoError(t, err)
	assert.Equal(t, Mapping{dana.UserID: "Dana@X.com"}, got)
}

func TestResolve_DirectoryFailureIsUnavailable(t *testing.T) {
	dir := &mockDirectory{err: errors.New("connection refused")}
	r := NewResolver(dir, newMockStore(), nil)

	_, err := r.Resolve(context.Background(), []string{"a@x.com"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestResolve_OutputSubsetOfDirectoryUsers(t *testing.T) {
	users := []models.ResolvedUser{
		student("u1@x.com"),
		{UserID: uuid.New(), Role: models.RoleGuest, Email: "u2@x.com"},
		{UserID: uuid.New(), Role: models.RoleAdmin, NationalID: "777"},
		student("unrelated@x.com"),
	}
	dir := &mockDirectory{byQuery: map[string][]models.ResolvedUser{"u1@x.com": users}}
	r := NewResolver(dir, newMockStore(), nil)

	got, err := r.Resolve(context.Background(), []string{"u1@x.com", "u2@x.com", "777", "nobody@x.com"})
	require.NoError(t, err)

	returned := make(map[uuid.UUID]models.ResolvedUser)
	for _, u := range users {
		returned[u.UserID] = u
	}
	for id := range got {
		u, ok := returned[id]
		require.True(t, ok, "user %s not returned by directory", id)
		assert.NotEqual(t, models.RoleGuest, u.Role)
	}
	assert.Len(t, got, 2)
}

func TestResolveStrict_UnmatchedIdentifier(t *testing.T) {
	dir := &mockDirectory{byQuery: map[string][]models.ResolvedUser{}}
	r := NewResolver(dir, newMockStore(), nil)

	_, err := r.ResolveStrict(context.Background(), []string{"ghost@x.com"})
	require.Error(t, err)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, e.Kind)
	assert.Equal(t, apperr.CodeUserNotFound, e.Code)
	assert.Contains(t, e.Message, "ghost@x.com")
	assert.Equal(t, "ghost@x.com", e.Details["identifier"])
}

func TestAddToExisting_Idempotent(t *testing.T) {
	alice, bob := student("alice@x.com"), student("bob@x.com")
	dir := &mockDirectory{byQuery: map[string][]models.ResolvedUser{
		"alice@x.com": {alice},
		"bob@x.com":   {bob},
	}}
	store := newMockStore()
	r := NewResolver(dir, store, nil)
	webinarID := uuid.New()
	input := []string{"alice@x.com", "bob@x.com"}

	first, err := r.AddToExisting(context.Background(), webinarID, input)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice.UserID, bob.UserID}, first.UserIDs())

	second, err := r.AddToExisting(context.Background(), webinarID, input)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 1, store.inserts)
	assert.ElementsMatch(t, []uuid.UUID{alice.UserID, bob.UserID}, store.userIDs(webinarID))
}

func TestAddToExisting_NoValidUsers(t *testing.T) {
	dir := &mockDirectory{byQuery: map[string][]models.ResolvedUser{}}
	store := newMockStore()
	r := NewResolver(dir, store, nil)

	got, err := r.AddToExisting(context.Background(), uuid.New(), []string{"nonexistent@x.com"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, store.inserts)
}

func TestReplaceAll_RoundTrip(t *testing.T) {
	alice, bob := student("alice@x.com"), student("bob@x.com")
	dir := &mockDirectory{byQuery: map[string][]models.ResolvedUser{
		"alice@x.com": {alice},
		"bob@x.com":   {bob},
	}}
	store := newMockStore()
	webinarID := uuid.New()
	previous := uuid.New()
	store.byWebinar[webinarID] = []models.Participant{{ID: uuid.New(), WebinarID: webinarID, UserID: previous}}
	r := NewResolver(dir, store, nil)

	got, err := r.ReplaceAll(context.Background(), webinarID, []string{"bob@x.com", "alice@x.com"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice.UserID, bob.UserID}, got.UserIDs())

	stored, err := r.List(context.Background(), webinarID)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, p := range stored {
		ids = append(ids, p.UserID)
	}
	assert.ElementsMatch(t, []uuid.UUID{alice.UserID, bob.UserID}, ids)
}

func TestReplaceAll_EmptyListClearsParticipants(t *testing.T) {
	dir := &mockDirectory{}
	store := newMockStore()
	webinarID := uuid.New()
	store.byWebinar[webinarID] = []models.Participant{{ID: uuid.New(), WebinarID: webinarID, UserID: uuid.New()}}
	r := NewResolver(dir, store, nil)

	got, err := r.ReplaceAll(context.Background(), webinarID, []string{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, store.byWebinar[webinarID])
	assert.Empty(t, dir.calls)
}

func TestReplaceAll_StrictFailure(t *testing.T) {
	alice := student("alice@x.com")
	dir := &mockDirectory{byQuery: map[string][]models.ResolvedUser{"alice@x.com": {alice}}}
	store := newMockStore()
	r := NewResolver(dir, store, nil)

	_, err := r.ReplaceAll(context.Background(), uuid.New(), []string{"alice@x.com", "ghost@x.com"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Zero(t, store.inserts)
}

func TestMappingIdentifiers(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	m := Mapping{a: "a@x.com", b: "b@x.com"}
	assert.Equal(t, []string{"b@x.com"}, m.Identifiers([]uuid.UUID{b, uuid.New()}))
}

func TestClear(t *testing.T) {
	store := newMockStore()
	webinarID := uuid.New()
	store.byWebinar[webinarID] = []models.Participant{
		{ID: uuid.New(), WebinarID: webinarID, UserID: uuid.New()},
		{ID: uuid.New(), WebinarID: webinarID, UserID: uuid.New()},
	}
	r := NewResolver(&mockDirectory{}, store, nil)

	removed, err := r.Clear(context.Background(), webinarID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Empty(t, store.byWebinar[webinarID])
}
