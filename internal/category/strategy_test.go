package category

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/models"
)

func TestGet(t *testing.T) {
	tests := []struct {
		keyword string
		want    models.Category
	}{
		{keyword: "", want: models.CategoryPlanned},
		{keyword: "   ", want: models.CategoryPlanned},
		{keyword: "planned", want: models.CategoryPlanned},
		{keyword: "PLANNED", want: models.CategoryPlanned},
		{keyword: "Past", want: models.CategoryPast},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			s, err := Get(tt.keyword)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Category)
		})
	}
}

func TestGetUnsupported(t *testing.T) {
	_, err := Get("java")
	require.Error(t, err)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Equal(t, apperr.CodeUnsupportedCategory, e.Code)
	assert.Contains(t, e.Message, "java")
}

func TestStrategyFilter(t *testing.T) {
	now := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	upcoming := models.Webinar{StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)}
	finished := models.Webinar{StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour)}
	endsNow := models.Webinar{StartTime: now.Add(-time.Hour), EndTime: now}
	startsNow := models.Webinar{StartTime: now, EndTime: now.Add(time.Hour)}

	plannedFilter := For(models.CategoryPlanned).Filter(now)
	pastFilter := For(models.CategoryPast).Filter(now)

	assert.True(t, plannedFilter.Match(upcoming))
	assert.False(t, pastFilter.Match(upcoming))

	assert.True(t, pastFilter.Match(finished))
	assert.False(t, plannedFilter.Match(finished))

	assert.True(t, pastFilter.Match(endsNow), "end == now counts as past")
	assert.False(t, plannedFilter.Match(startsNow), "start == now is not planned")
}

func TestFilterWithCreator(t *testing.T) {
	now := time.Now()
	mine, theirs := uuid.New(), uuid.New()
	f := For(models.CategoryPlanned).Filter(now).WithCreator(mine)

	assert.True(t, f.Match(models.Webinar{StartTime: now.Add(time.Hour), CreatedBy: mine}))
	assert.False(t, f.Match(models.Webinar{StartTime: now.Add(time.Hour), CreatedBy: theirs}))
}

func TestStrategySort(t *testing.T) {
	assert.Equal(t, "ORDER BY start_time ASC, id ASC", For(models.CategoryPlanned).Sort().OrderBy())
	assert.Equal(t, "ORDER BY end_time DESC, id DESC", For(models.CategoryPast).Sort().OrderBy())

	now := time.Now()
	soon := models.Webinar{ID: uuid.New(), StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)}
	later := models.Webinar{ID: uuid.New(), StartTime: now.Add(3 * time.Hour), EndTime: now.Add(4 * time.Hour)}

	assert.True(t, For(models.CategoryPlanned).Sort().Less(soon, later))
	assert.True(t, For(models.CategoryPast).Sort().Less(later, soon))
}
