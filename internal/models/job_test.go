package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobIsAcceptingProposals(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-48 * time.Hour)

	tests := []struct {
		name        string
		status      JobStatus
		deadline    *time.Time
		hasAccepted bool
		want        bool
	}{
		{"published no deadline", JobStatusPublished, nil, false, true},
		{"published future deadline", JobStatusPublished, &future, false, true},
		{"published past deadline", JobStatusPublished, &past, false, false},
		{"published but accepted", JobStatusPublished, nil, true, false},
		{"draft", JobStatusDraft, nil, false, false},
		{"in progress", JobStatusInProgress, nil, false, false},
		{"completed", JobStatusCompleted, nil, false, false},
		{"cancelled", JobStatusCancelled, &future, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := Job{Status: tt.status, Deadline: tt.deadline}
			assert.Equal(t, tt.want, j.IsAcceptingProposals(now, tt.hasAccepted))
		})
	}
}

func TestJobIsLocked(t *testing.T) {
	assert.False(t, (&Job{Status: JobStatusDraft}).IsLocked())
	assert.False(t, (&Job{Status: JobStatusPublished}).IsLocked())
	assert.False(t, (&Job{Status: JobStatusCancelled}).IsLocked())
	assert.True(t, (&Job{Status: JobStatusInProgress}).IsLocked())
	assert.True(t, (&Job{Status: JobStatusCompleted}).IsLocked())
}
