package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElectionStatusDerivation(t *testing.T) {
	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 17, 0, 0, 0, time.UTC)
	election := &Election{StartTime: start, EndTime: end}

	tests := []struct {
		name string
		now  time.Time
		want ElectionStatus
	}{
		{"well before start", start.Add(-24 * time.Hour), StatusPending},
		{"instant before start", start.Add(-time.Nanosecond), StatusPending},
		{"exactly at start", start, StatusLive},
		{"mid window", start.Add(4 * time.Hour), StatusLive},
		{"exactly at end", end, StatusLive},
		{"instant after end", end.Add(time.Nanosecond), StatusClosed},
		{"well after end", end.Add(24 * time.Hour), StatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, election.Status(tt.now))
			assert.Equal(t, tt.want == StatusLive, election.IsLive(tt.now))
		})
	}
}

func TestHasCandidate(t *testing.T) {
	election := &Election{
		Candidates: []Candidate{{ID: "c1"}, {ID: "c2"}},
	}

	assert.True(t, election.HasCandidate("c1"))
	assert.True(t, election.HasCandidate("c2"))
	assert.False(t, election.HasCandidate("c3"))
	// NOTA is a sentinel bucket, not a listed contestant.
	assert.False(t, election.HasCandidate(NOTACandidateID))
}
