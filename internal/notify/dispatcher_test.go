package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetsimposio/backend/internal/models"
)

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	err   error
	delay time.Duration
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html string) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return m.err
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeLogStore struct {
	mu   sync.Mutex
	logs []models.EmailLog
}

func (s *fakeLogStore) Insert(ctx context.Context, log *models.EmailLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *log)
	return nil
}

func (s *fakeLogStore) snapshot() []models.EmailLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EmailLog, len(s.logs))
	copy(out, s.logs)
	return out
}

func testAttendee() *models.Attendee {
	return &models.Attendee{
		ID:         uuid.New(),
		FullName:   "Maria Torres",
		DNI:        "45678912",
		Email:      "maria@example.com",
		Phone:      "987654321",
		Role:       models.RoleStudent,
		Status:     models.StatusPaid,
		TicketCode: "VET-2026-001",
	}
}

func TestDispatchConfirmed(t *testing.T) {
	mailer := &fakeMailer{}
	logs := &fakeLogStore{}
	d := NewDispatcher(mailer, logs, "PEN", time.Second, nil)

	a := testAttendee()
	r := d.Dispatch(context.Background(), &a.ID, models.EmailTypePaymentConfirmation, a.Email, "subject", "<p>hi</p>")

	assert.True(t, r.Confirmed)
	assert.NoError(t, r.Err)
	require.Len(t, logs.snapshot(), 1)
	entry := logs.snapshot()[0]
	assert.Equal(t, models.EmailLogStatusSent, entry.Status)
	assert.Equal(t, a.Email, entry.RecipientEmail)
	assert.NotNil(t, entry.SentAt)
}

func TestDispatchMailerErrorIsContained(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp: connection refused")}
	logs := &fakeLogStore{}
	d := NewDispatcher(mailer, logs, "PEN", time.Second, nil)

	a := testAttendee()
	r := d.Dispatch(context.Background(), &a.ID, models.EmailTypePaymentRejected, a.Email, "subject", "body")

	assert.False(t, r.Confirmed)
	assert.Error(t, r.Err)
	require.Len(t, logs.snapshot(), 1)
	entry := logs.snapshot()[0]
	assert.Equal(t, models.EmailLogStatusFailed, entry.Status)
	assert.Contains(t, entry.ErrorMessage, "connection refused")
	assert.Nil(t, entry.SentAt)
}

func TestDispatchTimeoutReturnsNotConfirmed(t *testing.T) {
	mailer := &fakeMailer{delay: 200 * time.Millisecond}
	logs := &fakeLogStore{}
	d := NewDispatcher(mailer, logs, "PEN", 20*time.Millisecond, nil)

	a := testAttendee()
	start := time.Now()
	r := d.Dispatch(context.Background(), &a.ID, models.EmailTypePaymentConfirmation, a.Email, "subject", "body")

	assert.False(t, r.Confirmed)
	assert.NoError(t, r.Err)
	assert.Less(t, time.Since(start), 150*time.Millisecond, "should have returned at the timeout, not the send duration")

	// The detached send still completes and gets logged.
	assert.Eventually(t, func() bool {
		return len(logs.snapshot()) == 1 && mailer.sentCount() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, models.EmailLogStatusSent, logs.snapshot()[0].Status)
}

func TestDispatchNilMailerSkips(t *testing.T) {
	d := NewDispatcher(nil, &fakeLogStore{}, "PEN", time.Second, nil)
	a := testAttendee()
	r := d.Dispatch(context.Background(), &a.ID, models.EmailTypePaymentConfirmation, a.Email, "subject", "body")
	assert.False(t, r.Confirmed)
	assert.NoError(t, r.Err)
}

func TestSendRemindersCountsPerRecipient(t *testing.T) {
	mailer := &fakeMailer{}
	logs := &fakeLogStore{}
	d := NewDispatcher(mailer, logs, "PEN", time.Second, nil)

	attendees := []models.Attendee{*testAttendee(), *testAttendee(), *testAttendee()}
	res := d.SendReminders(context.Background(), attendees, 250, 7)

	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, 0, res.Failed)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 3, mailer.sentCount())
	assert.Len(t, logs.snapshot(), 3)
}

func TestSendRemindersAccumulatesFailures(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("mailbox full")}
	d := NewDispatcher(mailer, &fakeLogStore{}, "PEN", time.Second, nil)

	attendees := []models.Attendee{*testAttendee(), *testAttendee()}
	res := d.SendReminders(context.Background(), attendees, 250, 1)

	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "mailbox full")
}

func TestTemplatesCarryTicketDetails(t *testing.T) {
	a := testAttendee()
	data := ticketData(a, 262.5, "PEN")

	confirmation := PaymentConfirmationHTML(data)
	assert.Contains(t, confirmation, a.TicketCode)
	assert.Contains(t, confirmation, a.FullName)
	assert.Contains(t, confirmation, "PEN 262.50")
	assert.Contains(t, confirmation, "Estudiante")

	rejected := PaymentRejectedHTML(data, "Fondos insuficientes.")
	assert.Contains(t, rejected, "Fondos insuficientes.")
	assert.NotContains(t, rejected, a.TicketCode, "rejection email must not leak the ticket")

	reminder := EventReminderHTML(data, 1)
	assert.True(t, strings.Contains(reminder, "mañana"))
	assert.Contains(t, reminder, a.TicketCode)
}
