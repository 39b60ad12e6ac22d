package webinars

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/aura-webinar/webinar-service/internal/category"
)

func TestWhereClause(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mentor := uuid.New()

	where, args := whereClause(category.For("PLANNED").Filter(now).WithCreator(mentor))
	assert.Equal(t, " WHERE start_time > $1 AND created_by = $2", where)
	assert.Equal(t, []any{now, mentor}, args)

	where, args = whereClause(category.For("PAST").Filter(now))
	assert.Equal(t, " WHERE end_time <= $1", where)
	assert.Equal(t, []any{now}, args)

	where, args = whereClause(category.Filter{})
	assert.Empty(t, where)
	assert.Nil(t, args)
}
