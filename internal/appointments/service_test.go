package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvconsultorios/turnos-api/internal/availability"
)

// Wednesday 2026-03-11 10:00 UTC. 2026-03-12 is a Thursday, 2026-03-14 a
// Saturday.
func fixedNow() time.Time {
	return time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
}

type recordingNotifier struct {
	created   []string
	confirmed []string
	cancelled []string
	fail      error
}

func (n *recordingNotifier) AppointmentCreated(_ context.Context, appt Appointment) error {
	n.created = append(n.created, appt.ID)
	return n.fail
}

func (n *recordingNotifier) AppointmentConfirmed(_ context.Context, appt Appointment) error {
	n.confirmed = append(n.confirmed, appt.ID)
	return n.fail
}

func (n *recordingNotifier) AppointmentCancelled(_ context.Context, appt Appointment) error {
	n.cancelled = append(n.cancelled, appt.ID)
	return n.fail
}

type recordingRegistry struct {
	visits int
	fail   error
}

func (r *recordingRegistry) RecordVisit(context.Context, string, string, string, string) error {
	r.visits++
	return r.fail
}

type countingRepository struct {
	*MemoryRepository
	creates int
}

func (c *countingRepository) Create(ctx context.Context, appt *Appointment) error {
	c.creates++
	return c.MemoryRepository.Create(ctx, appt)
}

type failingCreateRepository struct {
	*MemoryRepository
}

func (failingCreateRepository) Create(context.Context, *Appointment) error {
	return errors.New("insert failed")
}

type failingGetRepository struct {
	*MemoryRepository
}

func (failingGetRepository) GetByID(context.Context, string) (*Appointment, error) {
	return nil, errors.New("store down")
}

func testResolver(t *testing.T) *availability.Resolver {
	t.Helper()
	require.Equal(t, time.Wednesday, fixedNow().Weekday())
	return availability.NewResolver(
		availability.NewMemoryOverrides(),
		time.UTC,
		availability.WithClock(fixedNow),
	)
}

func newTestService(t *testing.T, cfg ServiceConfig) *Service {
	t.Helper()
	if cfg.Repo == nil {
		cfg.Repo = NewMemoryRepository()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = testResolver(t)
	}
	return NewService(cfg)
}

func createReq(slot string) *CreateRequest {
	return &CreateRequest{
		SpecialtyID:  1,
		PatientName:  "Ana García",
		PatientPhone: "2477504122",
		PatientEmail: "ana@example.com",
		DNI:          "12345678",
		Date:         "2026-03-12",
		Time:         slot,
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	notifier := &recordingNotifier{}
	registry := &recordingRegistry{}
	svc := newTestService(t, ServiceConfig{Notifier: notifier, Patients: registry})

	slots := []string{"09:00", "09:30", "10:00"}
	for i, slot := range slots {
		appt, err := svc.Create(context.Background(), createReq(slot))
		require.NoError(t, err)
		assert.Equal(t, []string{"TURNO-001", "TURNO-002", "TURNO-003"}[i], appt.ID)
		assert.Equal(t, StatusPending, appt.Status)
		assert.Equal(t, "DNI: 12345678 | Paciente ID: PAC-5678-4122", appt.Notes)
	}
	assert.Equal(t, 3, registry.visits)
	assert.Equal(t, []string{"TURNO-001", "TURNO-002", "TURNO-003"}, notifier.created)
}

func TestCreateRejectsInvalidDNIBeforeAnyWrite(t *testing.T) {
	repo := &countingRepository{MemoryRepository: NewMemoryRepository()}
	svc := newTestService(t, ServiceConfig{Repo: repo})

	req := createReq("09:00")
	req.DNI = "1234567"
	_, err := svc.Create(context.Background(), req)

	require.True(t, IsValidationError(err), "err = %v", err)
	assert.Zero(t, repo.creates, "validation must run before any store call")
}

func TestCreateRejectsWeekend(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})

	req := createReq("09:00")
	req.Date = "2026-03-14"
	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrDateUnavailable)
}

func TestCreateRejectsSlotOutsideGrid(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})

	req := createReq("08:00")
	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrDateUnavailable)
}

func TestCreateRejectsTakenSlot(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})

	_, err := svc.Create(context.Background(), createReq("09:00"))
	require.NoError(t, err)

	other := createReq("09:00")
	other.PatientPhone = "1122334455"
	other.DNI = "87654321"
	_, err = svc.Create(context.Background(), other)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestCancelledSlotIsFreeAgain(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})
	ctx := context.Background()

	appt, err := svc.Create(ctx, createReq("09:00"))
	require.NoError(t, err)

	free, err := svc.AvailableTimeSlots(ctx, 1, "2026-03-12")
	require.NoError(t, err)
	assert.NotContains(t, free, "09:00")

	_, err = svc.UpdateStatus(ctx, appt.ID, StatusCancelled)
	require.NoError(t, err)

	free, err = svc.AvailableTimeSlots(ctx, 1, "2026-03-12")
	require.NoError(t, err)
	assert.Contains(t, free, "09:00")

	_, err = svc.Create(ctx, createReq("09:00"))
	assert.NoError(t, err, "a cancelled slot must be bookable again")
}

func TestUpdateStatusStateMachine(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(t, ServiceConfig{Notifier: notifier})
	ctx := context.Background()

	appt, err := svc.Create(ctx, createReq("09:00"))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, appt.ID, StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending cannot jump to completed")

	_, err = svc.UpdateStatus(ctx, appt.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, []string{appt.ID}, notifier.confirmed)

	_, err = svc.UpdateStatus(ctx, appt.ID, StatusCompleted)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, appt.ID, StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition, "completed is terminal")
}

func TestUpdateStatusUnknownID(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})
	_, err := svc.UpdateStatus(context.Background(), "TURNO-999", StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})
	_, err := svc.UpdateStatus(context.Background(), "TURNO-001", Status("archived"))
	assert.True(t, IsValidationError(err), "err = %v", err)
}

func TestGetByIDReadsRepository(t *testing.T) {
	svc := newTestService(t, ServiceConfig{Mirror: &stubMirror{}})
	ctx := context.Background()

	appt, err := svc.Create(ctx, createReq("09:00"))
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, got.ID)
}

func TestGetByIDFallsBackToMirrorWhenStoreIsDown(t *testing.T) {
	mirror := &stubMirror{stored: map[string]Appointment{
		"TURNO-001": {ID: "TURNO-001", SpecialtyID: 1, Date: "2026-03-12", Time: "09:00", Status: StatusConfirmed},
	}}
	svc := newTestService(t, ServiceConfig{
		Repo:   failingGetRepository{NewMemoryRepository()},
		Mirror: mirror,
	})

	got, err := svc.GetByID(context.Background(), "TURNO-001")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)

	_, err = svc.GetByID(context.Background(), "TURNO-002")
	assert.Error(t, err, "store failure surfaces when the mirror has no copy")
}

func TestGetByIDMissIsNotMaskedByStaleMirror(t *testing.T) {
	mirror := &stubMirror{stored: map[string]Appointment{
		"TURNO-001": {ID: "TURNO-001", SpecialtyID: 1, Date: "2026-03-12", Time: "09:00", Status: StatusPending},
	}}
	svc := newTestService(t, ServiceConfig{Mirror: mirror})

	_, err := svc.GetByID(context.Background(), "TURNO-001")
	assert.ErrorIs(t, err, ErrNotFound, "an authoritative miss wins over a leftover cache entry")
}

func TestNotificationFailureDoesNotFailCreate(t *testing.T) {
	notifier := &recordingNotifier{fail: errors.New("whatsapp down")}
	svc := newTestService(t, ServiceConfig{Notifier: notifier})

	appt, err := svc.Create(context.Background(), createReq("09:00"))
	require.NoError(t, err)
	assert.Equal(t, []string{appt.ID}, notifier.created)

	got, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPatientUpsertFailureDoesNotFailCreate(t *testing.T) {
	registry := &recordingRegistry{fail: errors.New("directory down")}
	svc := newTestService(t, ServiceConfig{Patients: registry})

	_, err := svc.Create(context.Background(), createReq("09:00"))
	assert.NoError(t, err)
	assert.Equal(t, 1, registry.visits)
}

func TestCreatePropagatesPersistenceFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(t, ServiceConfig{
		Repo:     failingCreateRepository{NewMemoryRepository()},
		Notifier: notifier,
	})

	_, err := svc.Create(context.Background(), createReq("09:00"))
	require.Error(t, err)
	assert.Empty(t, notifier.created, "no notification after a failed insert")
}

// Two clients can both observe the slot free before either insert lands.
// There is no cross-client lock, so both bookings succeed. This pins the
// window rather than hiding it.
func TestSlotCheckThenInsertWindowAdmitsDoubleBooking(t *testing.T) {
	repo := NewMemoryRepository()
	resolver := testResolver(t)
	checker := NewChecker(repo, nil, resolver, nil)
	ctx := context.Background()

	bookedA, err := checker.IsTimeSlotBooked(ctx, 1, "2026-03-12", "09:00")
	require.NoError(t, err)
	bookedB, err := checker.IsTimeSlotBooked(ctx, 1, "2026-03-12", "09:00")
	require.NoError(t, err)
	require.False(t, bookedA)
	require.False(t, bookedB)

	require.NoError(t, repo.Create(ctx, &Appointment{
		ID: "TURNO-001", SpecialtyID: 1, Date: "2026-03-12", Time: "09:00", Status: StatusPending,
	}))
	require.NoError(t, repo.Create(ctx, &Appointment{
		ID: "TURNO-002", SpecialtyID: 1, Date: "2026-03-12", Time: "09:00", Status: StatusPending,
	}))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "both writes land on the same slot")
}

func TestFilters(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})
	ctx := context.Background()

	a, err := svc.Create(ctx, createReq("09:00"))
	require.NoError(t, err)
	b := createReq("09:30")
	b.Date = "2026-03-13"
	_, err = svc.Create(ctx, b)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, a.ID, StatusConfirmed)
	require.NoError(t, err)

	confirmed, err := svc.FilterByStatus(ctx, StatusConfirmed)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, a.ID, confirmed[0].ID)

	day, err := svc.FilterByDateRange(ctx, "2026-03-13", "2026-03-13")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "2026-03-13", day[0].Date)

	both, err := svc.FilterByDateRange(ctx, "2026-03-12", "2026-03-13")
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestStats(t *testing.T) {
	svc := newTestService(t, ServiceConfig{})
	ctx := context.Background()

	a, err := svc.Create(ctx, createReq("09:00"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createReq("09:30"))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, a.ID, StatusCancelled)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 2, Pending: 1, Cancelled: 1}, stats)
}
