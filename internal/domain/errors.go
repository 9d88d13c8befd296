package domain

import "errors"

// Expected, recoverable outcomes of the ticket and ballot operations.
// Each maps to a distinct user-visible message at the HTTP edge; conflating
// them (e.g. wrong ticket vs. already voted) changes what the student does
// next, so the taxonomy stays fine-grained.
var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrElectionNotFound   = errors.New("election not found")
	ErrNotEligible        = errors.New("student is not in the election's cohort")
	ErrElectionNotStarted = errors.New("election has not started yet")
	ErrElectionEnded      = errors.New("election has ended")
	ErrAlreadyVoted       = errors.New("a vote has already been cast for this election")
	ErrTicketExpired      = errors.New("ticket has expired")
	ErrInvalidTicket      = errors.New("ticket code does not match any issued ticket")
	ErrInvalidCandidate   = errors.New("candidate is not part of this election")
	ErrDeliveryFailed     = errors.New("ticket could not be delivered")
	ErrRateLimited        = errors.New("too many ticket requests")
	ErrResultsNotVisible  = errors.New("results are not available until the election closes")
)
