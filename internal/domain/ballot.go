package domain

import "time"

// Ballot is the immutable proof that a (election, student) pair has voted.
// Exactly one exists per pair, created by the same transaction that
// consumes the ticket.
type Ballot struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	StudentID   string    `json:"student_id"`
	CandidateID string    `json:"candidate_id"` // NOTACandidateID for the NOTA bucket
	CreatedAt   time.Time `json:"created_at"`
}

// CastVoteRequest is the ballot submission payload. The election comes
// from the route, never from the body.
type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
	TicketCode  string `json:"ticket_code"`
}

// CastVoteResponse acknowledges an accepted ballot
type CastVoteResponse struct {
	BallotID    string    `json:"ballot_id"`
	ElectionID  string    `json:"election_id"`
	CandidateID string    `json:"candidate_id"`
	Timestamp   time.Time `json:"timestamp"`
	Message     string    `json:"message"`
}

// CandidateResult is one row of the tally projection
type CandidateResult struct {
	Candidate
	Percentage float64 `json:"percentage"`
	IsWinner   bool    `json:"is_winner"`
}

// ElectionResults is the read-only tally projection. Winners holds every
// candidate tied at the maximum count; ties are reported, not broken.
type ElectionResults struct {
	ElectionID   string            `json:"election_id"`
	Title        string            `json:"title"`
	Status       ElectionStatus    `json:"status"`
	Candidates   []CandidateResult `json:"candidates"`
	NOTACount    int               `json:"nota_count"`
	TotalBallots int               `json:"total_ballots"`
	CohortSize   int               `json:"cohort_size"`
	Turnout      float64           `json:"turnout"`
	Winners      []string          `json:"winners"`
	Tie          bool              `json:"tie"`
	LastUpdate   time.Time         `json:"last_update"`
}

// VoteStatus reports whether the authenticated student has voted in an
// election, mirroring the used-ticket audit marker.
type VoteStatus struct {
	ElectionID string     `json:"election_id"`
	HasVoted   bool       `json:"has_voted"`
	VotedAt    *time.Time `json:"voted_at,omitempty"`
}
