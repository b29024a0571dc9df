package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/opencare/care-scheduler/internal/audit"
	"github.com/opencare/care-scheduler/internal/authz"
	domain "github.com/opencare/care-scheduler/internal/domain/appointment"
	"github.com/opencare/care-scheduler/internal/httperr"
	"github.com/opencare/care-scheduler/internal/locks"
	"github.com/opencare/care-scheduler/internal/models"
	"github.com/opencare/care-scheduler/internal/notify"
)

// ======================================================
// FAKES
// ======================================================

type fakeRepo struct {
	mu     sync.Mutex
	nextID uint

	appointments map[uint]models.Appointment
	facilities   map[uint]models.Facility
	receipts     []models.NotificationReceipt
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		appointments: make(map[uint]models.Appointment),
		facilities: map[uint]models.Facility{
			3: {ID: 3, Name: "Main Clinic", Timezone: "UTC", Is24Hours: true, Active: true},
		},
	}
}

func (r *fakeRepo) seed(ap models.Appointment) uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ap.ID = r.nextID
	r.appointments[ap.ID] = ap
	return ap.ID
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.appointments)
}

func (r *fakeRepo) BlockingAppointments(_ context.Context, axis domain.Axis, resourceID uint, w domain.Window, excludeID uint) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, ap := range r.appointments {
		var id uint
		switch axis {
		case domain.AxisProvider:
			id = ap.ProviderID
		case domain.AxisPatient:
			id = ap.PatientID
		case domain.AxisFacility:
			id = ap.FacilityID
		}
		if id == resourceID {
			out = append(out, ap)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetAppointment(_ context.Context, id uint) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ap, ok := r.appointments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &ap, nil
}

func (r *fakeRepo) GetAppointmentDetail(ctx context.Context, id uint) (*models.Appointment, error) {
	return r.GetAppointment(ctx, id)
}

func (r *fakeRepo) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ap.ID = r.nextID
	r.appointments[ap.ID] = *ap
	return nil
}

func (r *fakeRepo) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[ap.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.appointments[ap.ID] = *ap
	return nil
}

func (r *fakeRepo) ListAppointments(_ context.Context, filter domain.ListFilter) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, ap := range r.appointments {
		if filter.ProviderID != 0 && ap.ProviderID != filter.ProviderID {
			continue
		}
		if filter.PatientID != 0 && ap.PatientID != filter.PatientID {
			continue
		}
		if filter.Status != "" && ap.Status != filter.Status {
			continue
		}
		if !filter.After.IsZero() && !ap.StartTime.After(filter.After) {
			continue
		}
		out = append(out, ap)
	}
	return out, nil
}

func (r *fakeRepo) GetFacility(_ context.Context, id uint) (*models.Facility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.facilities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &f, nil
}

func (r *fakeRepo) AppendReceipts(_ context.Context, receipts []models.NotificationReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts = append(r.receipts, receipts...)
	return nil
}

var _ domain.Repository = (*fakeRepo)(nil)

type fakeOracle struct {
	providerOK bool
	patientOK  bool
}

func (o *fakeOracle) ProviderSchedulable(context.Context, uint) (bool, error) {
	return o.providerOK, nil
}

func (o *fakeOracle) PatientActive(context.Context, uint) (bool, error) {
	return o.patientOK, nil
}

type captureSink struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (s *captureSink) Append(_ context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *captureSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, notify.Event, *models.Appointment) []models.NotificationReceipt {
	return nil
}

// ======================================================
// HARNESS
// ======================================================

type harness struct {
	sched    *Scheduler
	repo     *fakeRepo
	sink     *captureSink
	recorder *audit.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := newFakeRepo()
	sink := &captureSink{}
	recorder := audit.NewRecorder(sink)
	t.Cleanup(recorder.Close)

	sched := NewScheduler(repo, &fakeOracle{providerOK: true, patientOK: true}, locks.NewMemoryLocker(), recorder, noopNotifier{})
	sched.lockWait = 200 * time.Millisecond

	return &harness{sched: sched, repo: repo, sink: sink, recorder: recorder}
}

func staffPrincipal() authz.Principal {
	return authz.Principal{UserID: 1, Role: models.RoleProvider, Authenticated: true}
}

func meta() audit.RequestMeta {
	return audit.RequestMeta{IPAddress: "198.51.100.4", UserAgent: "test", RequestID: "req-1"}
}

func tAt(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func createInput(start, end time.Time) CreateInput {
	return CreateInput{
		PatientID:       2,
		ProviderID:      1,
		FacilityID:      3,
		AppointmentType: "consultation",
		Reason:          "checkup",
		StartTime:       start,
		EndTime:         end,
	}
}

// ======================================================
// CREATE
// ======================================================

func TestCreateAppointment(t *testing.T) {
	h := newHarness(t)

	ap, err := h.sched.Create(context.Background(), staffPrincipal(), createInput(tAt(9, 0), tAt(9, 30)), meta())
	if err != nil {
		t.Fatal(err)
	}
	if ap.ID == 0 {
		t.Fatal("id not assigned")
	}
	if ap.Status != string(domain.StatusScheduled) {
		t.Fatalf("status = %s", ap.Status)
	}
	if ap.CreatedByID == nil || *ap.CreatedByID != 1 {
		t.Fatalf("created_by = %v", ap.CreatedByID)
	}

	h.recorder.Close()
	if got := h.sink.actions(); len(got) != 1 || got[0] != audit.ActionCreate {
		t.Fatalf("audit actions = %v", got)
	}
	if h.sink.entries[0].RequestID != "req-1" {
		t.Fatalf("audit entry missing request metadata: %+v", h.sink.entries[0])
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	if _, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(10, 0)), meta()); err != nil {
		t.Fatal(err)
	}

	_, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 30), tAt(10, 30)), meta())
	if !httperr.IsKind(err, httperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	e := err.(*httperr.Error)
	conflicts, ok := e.Details.(map[domain.Axis][]domain.Summary)
	if !ok {
		t.Fatalf("details = %T", e.Details)
	}
	if len(conflicts[domain.AxisProvider]) != 1 {
		t.Fatalf("conflicts = %v", conflicts)
	}

	if h.repo.count() != 1 {
		t.Fatalf("rejected create persisted a row: %d", h.repo.count())
	}
}

func TestCreateBackToBackAllowed(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	if _, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(10, 0)), meta()); err != nil {
		t.Fatal(err)
	}
	if _, err := h.sched.Create(context.Background(), p, createInput(tAt(10, 0), tAt(11, 0)), meta()); err != nil {
		t.Fatalf("back-to-back rejected: %v", err)
	}
}

func TestCreateNoShowStillHoldsSlot(t *testing.T) {
	h := newHarness(t)
	h.repo.seed(models.Appointment{
		ProviderID: 1, PatientID: 9, FacilityID: 3,
		Status:    string(domain.StatusNoShow),
		StartTime: tAt(9, 0), EndTime: tAt(10, 0),
	})

	_, err := h.sched.Create(context.Background(), staffPrincipal(), createInput(tAt(9, 0), tAt(10, 0)), meta())
	if !httperr.IsKind(err, httperr.KindConflict) {
		t.Fatalf("no-show slot rebooked: %v", err)
	}
}

func TestCreateCancelledSlotFreed(t *testing.T) {
	h := newHarness(t)
	h.repo.seed(models.Appointment{
		ProviderID: 1, PatientID: 9, FacilityID: 3,
		Status:    string(domain.StatusCancelled),
		StartTime: tAt(9, 0), EndTime: tAt(10, 0),
	})

	if _, err := h.sched.Create(context.Background(), staffPrincipal(), createInput(tAt(9, 0), tAt(10, 0)), meta()); err != nil {
		t.Fatalf("cancelled slot not freed: %v", err)
	}
}

func TestCreateDeniedRole(t *testing.T) {
	h := newHarness(t)
	patient := authz.Principal{UserID: 5, Role: models.RolePatient, Authenticated: true}

	_, err := h.sched.Create(context.Background(), patient, createInput(tAt(9, 0), tAt(9, 30)), meta())
	if !httperr.IsKind(err, httperr.KindAuthorization) {
		t.Fatalf("expected denial, got %v", err)
	}
	if h.repo.count() != 0 {
		t.Fatal("denied request reached storage")
	}
}

func TestCreateInvalidWindow(t *testing.T) {
	h := newHarness(t)

	_, err := h.sched.Create(context.Background(), staffPrincipal(), createInput(tAt(9, 0), tAt(9, 3)), meta())
	if !httperr.IsKind(err, httperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.repo.count() != 0 {
		t.Fatal("invalid window persisted")
	}
}

func TestCreateIneligibleProvider(t *testing.T) {
	h := newHarness(t)
	h.sched.oracle = &fakeOracle{providerOK: false, patientOK: true}

	_, err := h.sched.Create(context.Background(), staffPrincipal(), createInput(tAt(9, 0), tAt(9, 30)), meta())
	if !httperr.IsKind(err, httperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	e := err.(*httperr.Error)
	if _, ok := e.Fields["provider_id"]; !ok {
		t.Fatalf("fields = %v", e.Fields)
	}
}

func TestCreateOutsideFacilityHours(t *testing.T) {
	h := newHarness(t)
	h.repo.facilities[3] = models.Facility{
		ID: 3, Timezone: "America/New_York",
		OpeningTime: "08:00", ClosingTime: "17:00",
		Active: true,
	}

	// 13:00 UTC on 2026-03-10 is 09:00 in New York: inside hours.
	if _, err := h.sched.Create(context.Background(), staffPrincipal(), createInput(tAt(13, 0), tAt(14, 0)), meta()); err != nil {
		t.Fatalf("in-hours booking rejected: %v", err)
	}

	// 11:00 UTC is 07:00 local: before opening.
	_, err := h.sched.Create(context.Background(), staffPrincipal(), createInput(tAt(11, 0), tAt(11, 30)), meta())
	if !httperr.IsKind(err, httperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.(*httperr.Error).Code != "outside_operating_hours" {
		t.Fatalf("code = %s", err.(*httperr.Error).Code)
	}
}

func TestConcurrentCreatesExactlyOneWins(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var created, conflicted int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(9, 30)), meta())

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case httperr.IsKind(err, httperr.KindConflict):
				conflicted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("created = %d, want exactly 1", created)
	}
	if conflicted != workers-1 {
		t.Fatalf("conflicted = %d, want %d", conflicted, workers-1)
	}
	if h.repo.count() != 1 {
		t.Fatalf("rows = %d", h.repo.count())
	}
}

// ======================================================
// UPDATE
// ======================================================

func TestUpdateDoesNotConflictWithItself(t *testing.T) {
	h := newHarness(t)

	ap, err := h.sched.Create(context.Background(), staffPrincipal(), createInput(tAt(9, 0), tAt(10, 0)), meta())
	if err != nil {
		t.Fatal(err)
	}

	// Shift within the original window.
	start, end := tAt(9, 15), tAt(9, 45)
	updated, err := h.sched.Update(context.Background(), staffPrincipal(), ap.ID, UpdateInput{
		StartTime: &start,
		EndTime:   &end,
	}, meta())
	if err != nil {
		t.Fatalf("self-overlap rejected: %v", err)
	}
	if !updated.StartTime.Equal(start) {
		t.Fatalf("start = %v", updated.StartTime)
	}
}

func TestUpdateRejectsOverlapWithOther(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	if _, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(10, 0)), meta()); err != nil {
		t.Fatal(err)
	}
	ap, err := h.sched.Create(context.Background(), p, createInput(tAt(11, 0), tAt(12, 0)), meta())
	if err != nil {
		t.Fatal(err)
	}

	start, end := tAt(9, 30), tAt(10, 30)
	_, err = h.sched.Update(context.Background(), p, ap.ID, UpdateInput{StartTime: &start, EndTime: &end}, meta())
	if !httperr.IsKind(err, httperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateScheduleOfTerminalRejected(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	ap, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(10, 0)), meta())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.sched.Complete(context.Background(), p, ap.ID, meta()); err != nil {
		t.Fatal(err)
	}

	start := tAt(14, 0)
	end := tAt(15, 0)
	_, err = h.sched.Update(context.Background(), p, ap.ID, UpdateInput{StartTime: &start, EndTime: &end}, meta())
	if !httperr.IsKind(err, httperr.KindInvalidState) {
		t.Fatalf("expected invalid_state, got %v", err)
	}
}

func TestUpdateNonScheduleFieldOnTerminal(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	ap, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(10, 0)), meta())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.sched.Complete(context.Background(), p, ap.ID, meta()); err != nil {
		t.Fatal(err)
	}

	reason := "follow-up notes"
	updated, err := h.sched.Update(context.Background(), p, ap.ID, UpdateInput{Reason: &reason}, meta())
	if err != nil {
		t.Fatalf("non-schedule update on completed row: %v", err)
	}
	if updated.Reason != reason {
		t.Fatalf("reason = %q", updated.Reason)
	}
}

func TestUpdateNotFound(t *testing.T) {
	h := newHarness(t)

	reason := "x"
	_, err := h.sched.Update(context.Background(), staffPrincipal(), 999, UpdateInput{Reason: &reason}, meta())
	if !httperr.IsKind(err, httperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// ======================================================
// TRANSITIONS
// ======================================================

func TestTransitionEndpoints(t *testing.T) {
	tests := []struct {
		name   string
		act    func(h *harness, id uint) (*models.Appointment, error)
		status domain.Status
	}{
		{"cancel", func(h *harness, id uint) (*models.Appointment, error) {
			return h.sched.Cancel(context.Background(), staffPrincipal(), id, meta())
		}, domain.StatusCancelled},
		{"complete", func(h *harness, id uint) (*models.Appointment, error) {
			return h.sched.Complete(context.Background(), staffPrincipal(), id, meta())
		}, domain.StatusCompleted},
		{"mark no-show", func(h *harness, id uint) (*models.Appointment, error) {
			return h.sched.MarkNoShow(context.Background(), staffPrincipal(), id, meta())
		}, domain.StatusNoShow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ap, err := h.sched.Create(context.Background(), staffPrincipal(), createInput(tAt(9, 0), tAt(10, 0)), meta())
			if err != nil {
				t.Fatal(err)
			}

			moved, err := tt.act(h, ap.ID)
			if err != nil {
				t.Fatal(err)
			}
			if moved.Status != string(tt.status) {
				t.Fatalf("status = %s, want %s", moved.Status, tt.status)
			}

			// Second application must fail: terminal statuses have no exits.
			if _, err := tt.act(h, ap.ID); !httperr.IsKind(err, httperr.KindInvalidState) {
				t.Fatalf("repeat transition: %v", err)
			}
		})
	}
}

func TestConcurrentTransitionsExactlyOneWins(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	ap, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(10, 0)), meta())
	if err != nil {
		t.Fatal(err)
	}

	ops := []struct {
		run    func() (*models.Appointment, error)
		status domain.Status
	}{
		{func() (*models.Appointment, error) {
			return h.sched.Complete(context.Background(), p, ap.ID, meta())
		}, domain.StatusCompleted},
		{func() (*models.Appointment, error) {
			return h.sched.Cancel(context.Background(), p, ap.ID, meta())
		}, domain.StatusCancelled},
	}

	start := make(chan struct{})
	results := make([]error, len(ops))
	var wg sync.WaitGroup
	for i := range ops {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, results[i] = ops[i].run()
		}()
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, err := range results {
		switch {
		case err == nil:
			if winner != -1 {
				t.Fatal("both transitions succeeded on one row")
			}
			winner = i
		case httperr.IsKind(err, httperr.KindInvalidState):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winner == -1 {
		t.Fatalf("no transition succeeded: %v", results)
	}

	// The loser must not have overwritten the winner's terminal state.
	final, err := h.repo.GetAppointment(context.Background(), ap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != string(ops[winner].status) {
		t.Fatalf("final status = %s, want %s", final.Status, ops[winner].status)
	}
}

func TestConcurrentCancelAndUpdateKeepTerminalStatus(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	ap, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(10, 0)), meta())
	if err != nil {
		t.Fatal(err)
	}

	reason := "rebooked by phone"
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		h.sched.Cancel(context.Background(), p, ap.ID, meta())
	}()
	go func() {
		defer wg.Done()
		<-start
		h.sched.Update(context.Background(), p, ap.ID, UpdateInput{Reason: &reason}, meta())
	}()
	close(start)
	wg.Wait()

	// Whichever order they ran in, the update's save must not resurrect
	// the row to 'scheduled'.
	final, err := h.repo.GetAppointment(context.Background(), ap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != string(domain.StatusCancelled) {
		t.Fatalf("final status = %s, want cancelled", final.Status)
	}
}

func TestDeleteCancelsAndRecordsDeleteAction(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	ap, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(10, 0)), meta())
	if err != nil {
		t.Fatal(err)
	}

	gone, err := h.sched.Delete(context.Background(), p, ap.ID, meta())
	if err != nil {
		t.Fatal(err)
	}
	if gone.Status != string(domain.StatusCancelled) {
		t.Fatalf("status = %s", gone.Status)
	}
	// The row survives deletion.
	if h.repo.count() != 1 {
		t.Fatalf("rows = %d", h.repo.count())
	}

	h.recorder.Close()
	actions := h.sink.actions()
	if len(actions) != 2 || actions[1] != audit.ActionDelete {
		t.Fatalf("audit actions = %v", actions)
	}
}

// ======================================================
// CONFLICT PROBE / READS
// ======================================================

func TestCheckConflicts(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	ap, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(10, 0)), meta())
	if err != nil {
		t.Fatal(err)
	}

	has, _, err := h.sched.CheckConflicts(context.Background(), p, ap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Fatal("appointment conflicts with itself")
	}

	// Seed a competing no-show booking directly, bypassing the detector.
	h.repo.seed(models.Appointment{
		ProviderID: 1, PatientID: 9, FacilityID: 4,
		Status:    string(domain.StatusNoShow),
		StartTime: tAt(9, 30), EndTime: tAt(10, 30),
	})

	has, conflicts, err := h.sched.CheckConflicts(context.Background(), p, ap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !has || len(conflicts[domain.AxisProvider]) != 1 {
		t.Fatalf("has = %v, conflicts = %v", has, conflicts)
	}
}

func TestListIsAudited(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	if _, err := h.sched.Create(context.Background(), p, createInput(tAt(9, 0), tAt(10, 0)), meta()); err != nil {
		t.Fatal(err)
	}

	apps, err := h.sched.List(context.Background(), p, domain.ListFilter{ProviderID: 1}, meta())
	if err != nil {
		t.Fatal(err)
	}
	if len(apps) != 1 {
		t.Fatalf("apps = %d", len(apps))
	}

	h.recorder.Close()
	actions := h.sink.actions()
	if len(actions) != 2 || actions[1] != audit.ActionRead {
		t.Fatalf("audit actions = %v", actions)
	}
}

func TestUpcomingFiltersPastAndTerminal(t *testing.T) {
	h := newHarness(t)
	p := staffPrincipal()

	now := tAt(12, 0)
	h.sched.now = func() time.Time { return now }

	h.repo.seed(models.Appointment{
		ProviderID: 1, PatientID: 2, FacilityID: 3,
		Status: string(domain.StatusScheduled), StartTime: tAt(9, 0), EndTime: tAt(10, 0),
	})
	h.repo.seed(models.Appointment{
		ProviderID: 1, PatientID: 2, FacilityID: 3,
		Status: string(domain.StatusCancelled), StartTime: tAt(14, 0), EndTime: tAt(15, 0),
	})
	future := h.repo.seed(models.Appointment{
		ProviderID: 1, PatientID: 2, FacilityID: 3,
		Status: string(domain.StatusScheduled), StartTime: tAt(16, 0), EndTime: tAt(17, 0),
	})

	apps, err := h.sched.Upcoming(context.Background(), p, domain.ListFilter{}, meta())
	if err != nil {
		t.Fatal(err)
	}
	if len(apps) != 1 || apps[0].ID != future {
		t.Fatalf("upcoming = %+v", apps)
	}
}

// ======================================================
// CONTENTION
// ======================================================

func TestWithContentionRetryGivesUpEventually(t *testing.T) {
	h := newHarness(t)

	calls := 0
	err := h.sched.withContentionRetry(func() error {
		calls++
		return httperr.Busy()
	})
	if !httperr.IsKind(err, httperr.KindBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
	if calls != contentionRetries {
		t.Fatalf("calls = %d, want %d", calls, contentionRetries)
	}
}

func TestWithContentionRetryPassesBusinessOutcomesThrough(t *testing.T) {
	h := newHarness(t)

	calls := 0
	err := h.sched.withContentionRetry(func() error {
		calls++
		return httperr.Conflict("scheduling_conflict", "taken", nil)
	})
	if !httperr.IsKind(err, httperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("business outcome retried %d times", calls)
	}
}
