package service

import (
	"context"
	"sync"
	"time"

	"repvote/internal/domain"
)

// In-memory repositories sharing one mutex so the ballot commit can flip the
// ticket record and bump tallies under the same critical section a database
// transaction would.

type fakeStore struct {
	mu        sync.Mutex
	students  map[string]*domain.Student
	elections map[string]*domain.Election
	tickets   map[string]*domain.Ticket
	ballots   map[string]*domain.Ballot
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students:  make(map[string]*domain.Student),
		elections: make(map[string]*domain.Election),
		tickets:   make(map[string]*domain.Ticket),
		ballots:   make(map[string]*domain.Ballot),
	}
}

type fakeStudentRepo struct{ store *fakeStore }

func (r *fakeStudentRepo) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.students[id], nil
}

func (r *fakeStudentRepo) Create(ctx context.Context, student *domain.Student) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.students[student.ID] = student
	return nil
}

func (r *fakeStudentRepo) CountByCohort(ctx context.Context, branch, section string, admissionYear int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, s := range r.store.students {
		if s.Branch == branch && s.Section == section && s.AdmissionYear == admissionYear {
			count++
		}
	}
	return count, nil
}

type fakeElectionRepo struct{ store *fakeStore }

func (r *fakeElectionRepo) Create(ctx context.Context, election *domain.Election) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.elections[election.ID] = election
	return nil
}

func (r *fakeElectionRepo) GetByID(ctx context.Context, id string) (*domain.Election, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.elections[id], nil
}

func (r *fakeElectionRepo) ListByCohort(ctx context.Context, branch, section string, admissionYear int) ([]domain.Election, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Election
	for _, e := range r.store.elections {
		if e.Branch == branch && e.Section == section && e.AdmissionYear == admissionYear {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeElectionRepo) ListByCreator(ctx context.Context, teacherID string) ([]domain.Election, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Election
	for _, e := range r.store.elections {
		if e.CreatedBy == teacherID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeElectionRepo) Stop(ctx context.Context, id string, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.elections[id]
	if !ok || !e.EndTime.After(now) {
		return 0, nil
	}
	e.EndTime = now
	return 1, nil
}

func (r *fakeElectionRepo) FindStartedBetween(ctx context.Context, from, to time.Time) ([]domain.Election, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Election
	for _, e := range r.store.elections {
		if e.StartTime.After(from) && !e.StartTime.After(to) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeElectionRepo) FindEndedBetween(ctx context.Context, from, to time.Time) ([]domain.Election, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Election
	for _, e := range r.store.elections {
		if e.EndTime.After(from) && !e.EndTime.After(to) {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeTicketRepo struct{ store *fakeStore }

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	r.store.tickets[ticket.ID] = ticket
	return nil
}

func (r *fakeTicketRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.tickets, id)
	return nil
}

func (r *fakeTicketRepo) DeleteUnused(ctx context.Context, electionID, studentID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var removed int64
	for id, t := range r.store.tickets {
		if t.ElectionID == electionID && t.StudentID == studentID && !t.Used {
			delete(r.store.tickets, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeTicketRepo) GetByCode(ctx context.Context, electionID, studentID, code string) (*domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.tickets {
		if t.ElectionID == electionID && t.StudentID == studentID && t.Code == code {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTicketRepo) GetUsed(ctx context.Context, electionID, studentID string) (*domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.tickets {
		if t.ElectionID == electionID && t.StudentID == studentID && t.Used {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeBallotRepo struct{ store *fakeStore }

// ConsumeAndRecord mirrors the transactional commit: all checks first, then
// every mutation, under one lock.
func (r *fakeBallotRepo) ConsumeAndRecord(ctx context.Context, ticket *domain.Ticket, ballot *domain.Ballot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.tickets[ticket.ID]
	if !ok || stored.Used {
		return domain.ErrAlreadyVoted
	}

	for _, b := range r.store.ballots {
		if b.ElectionID == ballot.ElectionID && b.StudentID == ballot.StudentID {
			return domain.ErrAlreadyVoted
		}
	}

	election := r.store.elections[ballot.ElectionID]
	var candidate *domain.Candidate
	if ballot.CandidateID != domain.NOTACandidateID {
		for i := range election.Candidates {
			if election.Candidates[i].ID == ballot.CandidateID {
				candidate = &election.Candidates[i]
				break
			}
		}
		if candidate == nil {
			return domain.ErrInvalidCandidate
		}
	}

	now := time.Now()
	stored.Used = true
	stored.UsedAt = &now
	ticket.Used = true
	ticket.UsedAt = &now

	ballot.CreatedAt = now
	r.store.ballots[ballot.ID] = ballot

	if candidate != nil {
		candidate.VoteCount++
	} else {
		election.NOTACount++
	}

	return nil
}

func (r *fakeBallotRepo) GetByPair(ctx context.Context, electionID, studentID string) (*domain.Ballot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.ballots {
		if b.ElectionID == electionID && b.StudentID == studentID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeBallotRepo) CountByElection(ctx context.Context, electionID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, b := range r.store.ballots {
		if b.ElectionID == electionID {
			count++
		}
	}
	return count, nil
}

// fakeNotifier records sends and can be told to fail.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	codes []string
	fail  error
}

func (n *fakeNotifier) Send(ctx context.Context, email, ticketCode, electionTitle string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, email)
	n.codes = append(n.codes, ticketCode)
	return nil
}

func (n *fakeNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.codes) == 0 {
		return ""
	}
	return n.codes[len(n.codes)-1]
}

// fakeLimiter counts requests and blocks above a threshold; threshold 0 means
// never block.
type fakeLimiter struct {
	mu        sync.Mutex
	counts    map[string]int64
	threshold int64
}

func newFakeLimiter(threshold int64) *fakeLimiter {
	return &fakeLimiter{counts: make(map[string]int64), threshold: threshold}
}

func (l *fakeLimiter) Record(ctx context.Context, key string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key], nil
}

func (l *fakeLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.threshold > 0 && l.counts[key] >= l.threshold, nil
}

func (l *fakeLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, key)
	return nil
}
