package domain

import "time"

// TicketValidity is the hard expiry window of an issued ticket. Short on
// purpose: it bounds exposure if the email is intercepted or delayed.
const TicketValidity = 5 * time.Minute

// Ticket is a single-use capability token bound to one (election, student)
// pair. At most one unused ticket exists per pair; a used ticket is never
// deleted and doubles as the vote-cast record.
type Ticket struct {
	ID         string     `json:"id"`
	ElectionID string     `json:"election_id"`
	StudentID  string     `json:"student_id"`
	Code       string     `json:"-"`
	Email      string     `json:"email"`
	Used       bool       `json:"used"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
}

// IsExpired reports whether the ticket is past its validity window at now
func (t *Ticket) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// TicketResponse is returned after a successful ticket request. The code
// itself travels only by email.
type TicketResponse struct {
	ElectionID string    `json:"election_id"`
	Email      string    `json:"email"`
	ExpiresAt  time.Time `json:"expires_at"`
	Message    string    `json:"message"`
}
