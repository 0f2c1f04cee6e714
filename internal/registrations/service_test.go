package registrations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetsimposio/backend/internal/models"
)

type fakeStore struct {
	byDNI   map[string]*models.Attendee
	byEmail map[string]*models.Attendee
	created []*models.Attendee
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byDNI:   make(map[string]*models.Attendee),
		byEmail: make(map[string]*models.Attendee),
	}
}

func (s *fakeStore) add(a *models.Attendee) {
	s.byDNI[a.DNI] = a
	s.byEmail[a.Email] = a
}

func (s *fakeStore) Create(ctx context.Context, a *models.Attendee) error {
	if s.err != nil {
		return s.err
	}
	a.ID = uuid.New()
	s.created = append(s.created, a)
	s.add(a)
	return nil
}

func (s *fakeStore) GetByDNI(ctx context.Context, dni string) (*models.Attendee, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byDNI[dni], nil
}

func (s *fakeStore) GetByEmail(ctx context.Context, email string) (*models.Attendee, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byEmail[email], nil
}

func validInput() RegisterInput {
	return RegisterInput{
		FullName:     "Carlos Quispe",
		DNI:          "12345678",
		Email:        "Carlos@Example.com",
		Phone:        "912345678",
		Role:         models.RoleProfessional,
		Organization: "Clinica San Marcos",
	}
}

func TestRegisterCreatesPendingAttendee(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	a, created, err := svc.Register(context.Background(), validInput())

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.StatusPending, a.Status)
	assert.Equal(t, "carlos@example.com", a.Email, "email should be normalized")
	assert.True(t, strings.HasPrefix(a.TicketCode, "VET-"))
	assert.Len(t, store.created, 1)
}

func TestRegisterResumesPendingByDNI(t *testing.T) {
	store := newFakeStore()
	existing := &models.Attendee{
		ID:     uuid.New(),
		DNI:    "12345678",
		Email:  "other@example.com",
		Status: models.StatusPending,
	}
	store.add(existing)
	svc := NewService(store, nil)

	a, created, err := svc.Register(context.Background(), validInput())

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, a.ID)
	assert.Empty(t, store.created, "no new row for a pending duplicate")
}

func TestRegisterResumesPendingByEmail(t *testing.T) {
	store := newFakeStore()
	existing := &models.Attendee{
		ID:     uuid.New(),
		DNI:    "87654321",
		Email:  "carlos@example.com",
		Status: models.StatusPending,
	}
	store.add(existing)
	svc := NewService(store, nil)

	a, created, err := svc.Register(context.Background(), validInput())

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, a.ID)
}

func TestRegisterRejectsPaidDuplicate(t *testing.T) {
	store := newFakeStore()
	existing := &models.Attendee{
		ID:         uuid.New(),
		DNI:        "12345678",
		Email:      "carlos@example.com",
		Status:     models.StatusPaid,
		TicketCode: "VET-AAAA1111",
	}
	store.add(existing)
	svc := NewService(store, nil)

	_, _, err := svc.Register(context.Background(), validInput())

	var dup *AlreadyPaidError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "DNI", dup.Field)
	assert.Equal(t, existing.TicketCode, dup.Attendee.TicketCode)
}

func TestRegisterStoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection reset")
	svc := NewService(store, nil)

	_, _, err := svc.Register(context.Background(), validInput())
	assert.Error(t, err)
}
