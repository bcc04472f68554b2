package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestNewPagination(t *testing.T) {
	p := newPagination(2, 20, 45)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, int64(45), p.Total)
	assert.Equal(t, 3, p.LastPage)

	// an empty set still reports one page
	p = newPagination(1, 20, 0)
	assert.Equal(t, 1, p.LastPage)

	p = newPagination(1, 20, 20)
	assert.Equal(t, 1, p.LastPage)

	p = newPagination(1, 20, 21)
	assert.Equal(t, 2, p.LastPage)
}

func TestStringListRoundTrip(t *testing.T) {
	assert.Nil(t, encodeStringList(nil))
	assert.Nil(t, encodeStringList([]string{}))

	enc := encodeStringList([]string{"go", "postgres", "redis"})
	assert.Equal(t, []string{"go", "postgres", "redis"}, decodeStringList(enc))

	assert.Nil(t, decodeStringList(nil))
	assert.Nil(t, decodeStringList(datatypes.JSON(`{"not":"a list"}`)))
}

func TestFieldErrors(t *testing.T) {
	errs := FieldErrors{}
	errs.Add("title", "Title is required")
	errs.Add("title", "Title must be at most 255 characters")
	errs.Add("budget_min", "Budget cannot be negative")

	assert.Len(t, errs, 2)
	assert.Len(t, errs["title"], 2)
}
