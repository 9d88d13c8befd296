package domain

import "time"

// ElectionStatus is derived from timestamps, never stored. Persisting it
// would allow drift between the stored value and actual time.
type ElectionStatus string

const (
	StatusPending ElectionStatus = "pending"
	StatusLive    ElectionStatus = "live"
	StatusClosed  ElectionStatus = "closed"
)

// NOTACandidateID is the pseudo-candidate bucket for "None of the Above".
const NOTACandidateID = "NOTA"

// Election is a time-boxed vote for one cohort. Cohort and time fields are
// immutable after creation, except EndTime which a teacher may shorten via
// an explicit stop.
type Election struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Branch        string      `json:"branch"`
	Section       string      `json:"section"`
	AdmissionYear int         `json:"admission_year"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	NOTACount     int         `json:"nota_count"`
	CreatedBy     string      `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	Candidates    []Candidate `json:"candidates,omitempty"`
}

// Candidate is a contestant with a denormalized name and a tally counter.
type Candidate struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	VoteCount  int    `json:"vote_count"`
}

// Status derives the election state from the clock
func (e *Election) Status(now time.Time) ElectionStatus {
	if now.Before(e.StartTime) {
		return StatusPending
	}
	if now.After(e.EndTime) {
		return StatusClosed
	}
	return StatusLive
}

// IsLive reports whether the election accepts tickets and ballots at now
func (e *Election) IsLive(now time.Time) bool {
	return e.Status(now) == StatusLive
}

// HasCandidate reports whether id names a contestant of this election.
// The NOTA sentinel is not part of the candidate list.
func (e *Election) HasCandidate(id string) bool {
	for _, c := range e.Candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

// CreateElectionRequest is the teacher-facing creation payload
type CreateElectionRequest struct {
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	Branch        string                   `json:"branch"`
	Section       string                   `json:"section"`
	AdmissionYear int                      `json:"admission_year"`
	StartTime     time.Time                `json:"start_time"`
	EndTime       time.Time                `json:"end_time"`
	Candidates    []CreateCandidateRequest `json:"candidates"`
}

// CreateCandidateRequest names one contestant of a new election
type CreateCandidateRequest struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
}

// ElectionView is an election decorated with its derived status for display
type ElectionView struct {
	Election
	Status ElectionStatus `json:"status"`
}
