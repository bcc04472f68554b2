package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProposalTransitions(t *testing.T) {
	statuses := []ProposalStatus{
		ProposalStatusPending,
		ProposalStatusAccepted,
		ProposalStatusRejected,
		ProposalStatusWithdrawn,
	}

	for _, st := range statuses {
		p := Proposal{Status: st}
		pending := st == ProposalStatusPending

		assert.Equal(t, pending, p.CanBeWithdrawn(), "withdraw from %s", st)
		assert.Equal(t, pending, p.CanBeRejected(), "reject from %s", st)
		assert.Equal(t, pending, p.CanBeAccepted(true), "accept from %s", st)
		assert.False(t, p.CanBeAccepted(false), "accept from %s with closed job", st)
	}
}
