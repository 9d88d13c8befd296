package domain

import "time"

// Roles carried by the session token
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Student is a registered voter. The (branch, section, admission year)
// triple is the cohort key; eligibility is a pure match on it.
type Student struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Branch        string    `json:"branch"`
	Section       string    `json:"section"`
	AdmissionYear int       `json:"admission_year"`
	CreatedAt     time.Time `json:"created_at"`
}

// Identity is the authenticated principal attached to each request by the
// auth middleware. The core trusts this input.
type Identity struct {
	Sub   string `json:"sub"`
	Role  string `json:"role"`
	Email string `json:"email"`
}
