package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectApplyProgress(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("clamps below zero", func(t *testing.T) {
		p := Project{Status: ProjectStatusActive, ProgressPercentage: 40}
		completed := p.ApplyProgress(-10, now)
		assert.False(t, completed)
		assert.Equal(t, 0, p.ProgressPercentage)
		assert.Equal(t, ProjectStatusActive, p.Status)
	})

	t.Run("clamps above hundred and completes", func(t *testing.T) {
		p := Project{Status: ProjectStatusActive}
		completed := p.ApplyProgress(150, now)
		assert.True(t, completed)
		assert.Equal(t, 100, p.ProgressPercentage)
		assert.Equal(t, ProjectStatusCompleted, p.Status)
		require.NotNil(t, p.CompletionDate)
		assert.Equal(t, now, *p.CompletionDate)
	})

	t.Run("partial progress stays active", func(t *testing.T) {
		p := Project{Status: ProjectStatusActive}
		completed := p.ApplyProgress(60, now)
		assert.False(t, completed)
		assert.Equal(t, 60, p.ProgressPercentage)
		assert.Equal(t, ProjectStatusActive, p.Status)
		assert.Nil(t, p.CompletionDate)
	})

	t.Run("hundred on non-active does not complete", func(t *testing.T) {
		p := Project{Status: ProjectStatusCancelled}
		completed := p.ApplyProgress(100, now)
		assert.False(t, completed)
		assert.Equal(t, ProjectStatusCancelled, p.Status)
	})
}

func TestProjectMarkCompletedIdempotent(t *testing.T) {
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := first.Add(24 * time.Hour)

	p := Project{Status: ProjectStatusActive, ProgressPercentage: 80}
	p.MarkCompleted(first)
	require.NotNil(t, p.CompletionDate)
	assert.Equal(t, first, *p.CompletionDate)
	assert.Equal(t, 100, p.ProgressPercentage)

	p.MarkCompleted(later)
	assert.Equal(t, first, *p.CompletionDate, "second completion must keep the original date")
}

func TestProjectIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, (&Project{Status: ProjectStatusActive}).IsOverdue(now), "no deadline")
	assert.False(t, (&Project{Status: ProjectStatusActive, Deadline: &future}).IsOverdue(now))
	assert.True(t, (&Project{Status: ProjectStatusActive, Deadline: &past}).IsOverdue(now))
	assert.False(t, (&Project{Status: ProjectStatusCompleted, Deadline: &past}).IsOverdue(now))
	assert.False(t, (&Project{Status: ProjectStatusCancelled, Deadline: &past}).IsOverdue(now))
}
