package service

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"repvote/internal/domain"
)

func newTicketFixture(t *testing.T) (*fakeStore, *TicketService, *fakeNotifier, *fakeLimiter) {
	t.Helper()

	store := newFakeStore()
	now := time.Now()

	store.students["s1"] = &domain.Student{
		ID: "s1", FirstName: "Diya", LastName: "Patel",
		Email: "diya@college.example", Branch: "CSE", Section: "A", AdmissionYear: 2024,
	}
	store.students["s2"] = &domain.Student{
		ID: "s2", FirstName: "Rohan", LastName: "Gupta",
		Email: "rohan@college.example", Branch: "ECE", Section: "B", AdmissionYear: 2023,
	}
	store.elections["e1"] = &domain.Election{
		ID: "e1", Title: "Class Rep 2024",
		Branch: "CSE", Section: "A", AdmissionYear: 2024,
		StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
		CreatedBy: "t1",
		Candidates: []domain.Candidate{
			{ID: "c1", ElectionID: "e1", StudentID: "s1", Name: "Diya Patel"},
		},
	}

	studentRepo := &fakeStudentRepo{store: store}
	notif := &fakeNotifier{}
	lim := newFakeLimiter(0)
	svc := NewTicketService(
		studentRepo,
		&fakeElectionRepo{store: store},
		&fakeTicketRepo{store: store},
		NewEligibilityResolver(studentRepo, zap.NewNop()),
		notif,
		lim,
		zap.NewNop(),
	)
	return store, svc, notif, lim
}

func TestRequestTicketSuccess(t *testing.T) {
	store, svc, notif, _ := newTicketFixture(t)

	resp, err := svc.RequestTicket(context.Background(), "s1", "e1")
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, "e1", resp.ElectionID)
	assert.Equal(t, "diya@college.example", resp.Email)
	assert.WithinDuration(t, time.Now().Add(domain.TicketValidity), resp.ExpiresAt, 5*time.Second)

	require.Len(t, notif.sent, 1)
	assert.Equal(t, "diya@college.example", notif.sent[0])
	assert.Len(t, notif.lastCode(), ticketCodeBytes*2)

	require.Len(t, store.tickets, 1)
	for _, ticket := range store.tickets {
		assert.False(t, ticket.Used)
		assert.Equal(t, notif.lastCode(), ticket.Code)
	}
}

func TestRequestTicketPreconditions(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		setup   func(store *fakeStore)
		student string
		wantErr error
	}{
		{
			name:    "unknown student",
			student: "ghost",
			wantErr: domain.ErrStudentNotFound,
		},
		{
			name:    "student outside cohort",
			student: "s2",
			wantErr: domain.ErrNotEligible,
		},
		{
			name: "election not started",
			setup: func(store *fakeStore) {
				store.elections["e1"].StartTime = now.Add(time.Hour)
				store.elections["e1"].EndTime = now.Add(2 * time.Hour)
			},
			student: "s1",
			wantErr: domain.ErrElectionNotStarted,
		},
		{
			name: "election ended",
			setup: func(store *fakeStore) {
				store.elections["e1"].StartTime = now.Add(-2 * time.Hour)
				store.elections["e1"].EndTime = now.Add(-time.Hour)
			},
			student: "s1",
			wantErr: domain.ErrElectionEnded,
		},
		{
			name: "already voted",
			setup: func(store *fakeStore) {
				usedAt := now.Add(-time.Minute)
				store.tickets["t-used"] = &domain.Ticket{
					ID: "t-used", ElectionID: "e1", StudentID: "s1",
					Code: "deadbeef00000000", Used: true, UsedAt: &usedAt,
					ExpiresAt: now.Add(-time.Minute),
				}
			},
			student: "s1",
			wantErr: domain.ErrAlreadyVoted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, svc, _, _ := newTicketFixture(t)
			if tt.setup != nil {
				tt.setup(store)
			}

			resp, err := svc.RequestTicket(context.Background(), tt.student, "e1")
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequestTicketUnknownElection(t *testing.T) {
	_, svc, _, _ := newTicketFixture(t)

	_, err := svc.RequestTicket(context.Background(), "s1", "nope")
	assert.ErrorIs(t, err, domain.ErrElectionNotFound)
}

func TestRequestTicketReplacesUnusedTicket(t *testing.T) {
	store, svc, notif, _ := newTicketFixture(t)
	ctx := context.Background()

	_, err := svc.RequestTicket(ctx, "s1", "e1")
	require.NoError(t, err)
	firstCode := notif.lastCode()

	_, err = svc.RequestTicket(ctx, "s1", "e1")
	require.NoError(t, err)
	secondCode := notif.lastCode()

	assert.NotEqual(t, firstCode, secondCode)

	// Only the second ticket survives; the first code opens nothing.
	require.Len(t, store.tickets, 1)
	for _, ticket := range store.tickets {
		assert.Equal(t, secondCode, ticket.Code)
	}
}

func TestRequestTicketDeliveryFailureRemovesTicket(t *testing.T) {
	store, svc, notif, _ := newTicketFixture(t)
	notif.fail = errors.New("smtp unreachable")

	resp, err := svc.RequestTicket(context.Background(), "s1", "e1")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)

	// Compensating delete: no ticket the student never received.
	assert.Empty(t, store.tickets)
}

func TestGenerateTicketCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		code, err := generateTicketCode()
		require.NoError(t, err)
		assert.Len(t, code, ticketCodeBytes*2)
		_, err = hex.DecodeString(code)
		require.NoError(t, err)

		assert.False(t, seen[code], "codes must not repeat")
		seen[code] = true
	}
}

func TestRequestTicketRateLimited(t *testing.T) {
	_, svc, _, lim := newTicketFixture(t)
	lim.threshold = 1
	ctx := context.Background()

	_, err := svc.RequestTicket(ctx, "s1", "e1")
	require.NoError(t, err)

	_, err = svc.RequestTicket(ctx, "s1", "e1")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
