package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// Application repository
// ---------------------------------------------------------------------------

type mockApplicationRepository struct {
	mu                 sync.Mutex
	apps               map[string]model.LoanApplication
	history            map[string][]model.ApprovalHistoryEntry
	createFunc         func(ctx context.Context, app model.LoanApplication) error
	saveTransitionFunc func(ctx context.Context, app model.LoanApplication, entry model.ApprovalHistoryEntry) error
	created            []model.LoanApplication
	saveCalls          int
}

func newMockApplicationRepository(apps ...model.LoanApplication) *mockApplicationRepository {
	m := &mockApplicationRepository{
		apps:    map[string]model.LoanApplication{},
		history: map[string][]model.ApprovalHistoryEntry{},
	}
	for _, app := range apps {
		m.apps[app.ID()] = app.ClearEvents()
	}
	return m
}

func (m *mockApplicationRepository) Create(ctx context.Context, app model.LoanApplication) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, app); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[app.ID()] = app
	m.created = append(m.created, app)
	return nil
}

func (m *mockApplicationRepository) FindByID(_ context.Context, id string) (model.LoanApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return model.LoanApplication{}, valueobject.NotFound("application %s", id)
	}
	return app.ClearEvents(), nil
}

func (m *mockApplicationRepository) FindByNumber(_ context.Context, number string) (model.LoanApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, app := range m.apps {
		if app.ApplicationNumber() == number {
			return app.ClearEvents(), nil
		}
	}
	return model.LoanApplication{}, valueobject.NotFound("application %s", number)
}

func (m *mockApplicationRepository) ListByStatus(_ context.Context, status valueobject.ApplicationStatus) ([]model.LoanApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LoanApplication
	for _, app := range m.apps {
		if app.Status().Equal(status) {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

func (m *mockApplicationRepository) SaveTransition(ctx context.Context, app model.LoanApplication, entry model.ApprovalHistoryEntry) error {
	m.mu.Lock()
	m.saveCalls++
	m.mu.Unlock()
	if m.saveTransitionFunc != nil {
		if err := m.saveTransitionFunc(ctx, app, entry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.apps[app.ID()]
	if !ok {
		return valueobject.NotFound("application %s", app.ID())
	}
	if stored.Version() != app.PreviousVersion() {
		return valueobject.ErrConcurrentModification
	}
	m.apps[app.ID()] = app
	m.history[app.ID()] = append(m.history[app.ID()], entry)
	return nil
}

func (m *mockApplicationRepository) ListHistory(_ context.Context, applicationID string) ([]model.ApprovalHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ApprovalHistoryEntry(nil), m.history[applicationID]...), nil
}

func (m *mockApplicationRepository) stored(id string) model.LoanApplication {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apps[id]
}

// ---------------------------------------------------------------------------
// Schedule repository
// ---------------------------------------------------------------------------

type mockScheduleRepository struct {
	mu            sync.Mutex
	apps          *mockApplicationRepository
	offers        map[string]model.LoanOffer
	rows          map[string]model.EmiScheduleRow
	saveOfferFunc func(ctx context.Context, issue port.OfferIssue) error
	updateRowFunc func(ctx context.Context, row model.EmiScheduleRow) error
	issues        []port.OfferIssue
	updated       []model.EmiScheduleRow
}

func newMockScheduleRepository(apps *mockApplicationRepository) *mockScheduleRepository {
	return &mockScheduleRepository{
		apps:   apps,
		offers: map[string]model.LoanOffer{},
		rows:   map[string]model.EmiScheduleRow{},
	}
}

func (m *mockScheduleRepository) SaveOffer(ctx context.Context, issue port.OfferIssue) error {
	if m.saveOfferFunc != nil {
		if err := m.saveOfferFunc(ctx, issue); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	appID := issue.Offer.ApplicationID()
	if _, ok := m.offers[appID]; ok {
		return valueobject.ErrScheduleExists
	}
	if m.apps != nil {
		m.apps.mu.Lock()
		stored := m.apps.apps[appID]
		if stored.Version() != issue.Application.PreviousVersion() {
			m.apps.mu.Unlock()
			return valueobject.ErrConcurrentModification
		}
		m.apps.apps[appID] = issue.Application
		if issue.Entry != nil {
			m.apps.history[appID] = append(m.apps.history[appID], *issue.Entry)
		}
		m.apps.mu.Unlock()
	}
	m.offers[appID] = issue.Offer
	for _, r := range issue.Rows {
		m.rows[r.ID()] = r
	}
	m.issues = append(m.issues, issue)
	return nil
}

func (m *mockScheduleRepository) FindOffer(_ context.Context, applicationID string) (model.LoanOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[applicationID]
	if !ok {
		return model.LoanOffer{}, valueobject.NotFound("offer for application %s", applicationID)
	}
	return o, nil
}

func (m *mockScheduleRepository) FindRow(_ context.Context, rowID string) (model.EmiScheduleRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[rowID]
	if !ok {
		return model.EmiScheduleRow{}, valueobject.NotFound("schedule row %s", rowID)
	}
	return r, nil
}

func (m *mockScheduleRepository) ListRows(_ context.Context, applicationID string) ([]model.EmiScheduleRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EmiScheduleRow
	for _, r := range m.rows {
		if r.ApplicationID() == applicationID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmiNumber() < out[j].EmiNumber() })
	return out, nil
}

func (m *mockScheduleRepository) UpdateRow(ctx context.Context, row model.EmiScheduleRow) error {
	if m.updateRowFunc != nil {
		if err := m.updateRowFunc(ctx, row); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[row.ID()]
	if !ok {
		return valueobject.NotFound("schedule row %s", row.ID())
	}
	if stored.Version() != row.PreviousVersion() {
		return valueobject.ErrConcurrentModification
	}
	m.rows[row.ID()] = row
	m.updated = append(m.updated, row)
	return nil
}

func (m *mockScheduleRepository) ListPendingDueBefore(_ context.Context, day time.Time, limit int) ([]model.EmiScheduleRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EmiScheduleRow
	for _, r := range m.rows {
		if r.Status().Equal(valueobject.EmiStatusPending) && r.DueDate().Before(day) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate().Before(out[j].DueDate()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockScheduleRepository) put(rows ...model.EmiScheduleRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.rows[r.ID()] = r
	}
}

func (m *mockScheduleRepository) row(id string) model.EmiScheduleRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

// ---------------------------------------------------------------------------
// Actor directory and number generator
// ---------------------------------------------------------------------------

type mockActorDirectory struct {
	mu     sync.Mutex
	actors map[string]model.Actor
	saved  []model.Actor
}

func newMockActorDirectory(actors ...model.Actor) *mockActorDirectory {
	m := &mockActorDirectory{actors: map[string]model.Actor{}}
	for _, a := range actors {
		m.actors[a.Email()] = a
	}
	return m
}

func (m *mockActorDirectory) FindByEmail(_ context.Context, email string) (model.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actors[email]
	if !ok {
		return model.Actor{}, valueobject.NotFound("actor %s", email)
	}
	return a, nil
}

func (m *mockActorDirectory) Save(_ context.Context, actor model.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors[actor.Email()] = actor
	m.saved = append(m.saved, actor)
	return nil
}

// sequenceNumbers hands out numbers from fixed lists, repeating the last.
type sequenceNumbers struct {
	mu           sync.Mutex
	applications []string
	offers       []string
}

func (s *sequenceNumbers) ApplicationNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return next(&s.applications)
}

func (s *sequenceNumbers) OfferLetterNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return next(&s.offers)
}

func next(list *[]string) string {
	v := (*list)[0]
	if len(*list) > 1 {
		*list = (*list)[1:]
	}
	return v
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func mustActor(email string, role valueobject.Role) model.Actor {
	a, err := model.NewActor(email, "Staff Member", role, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return a
}

var (
	underwriter = mustActor("uw@bank.in", valueobject.RoleUnderwriter)
	managerL1   = mustActor("l1@bank.in", valueobject.RoleManagerL1)
	managerL2   = mustActor("l2@bank.in", valueobject.RoleManagerL2)
	admin       = mustActor("admin@bank.in", valueobject.RoleAdmin)
)

func allActors() *mockActorDirectory {
	return newMockActorDirectory(underwriter, managerL1, managerL2, admin)
}

// applicationAt builds a stored application in status at version 3.
func applicationAt(amount int64, status valueobject.ApplicationStatus) model.LoanApplication {
	pan, _ := valueobject.NewPAN("ABCDE1234F")
	aadhaar, _ := valueobject.NewAadhaar("123456789012")
	created := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	return model.ReconstructLoanApplication(
		"app-"+status.String(), "LA123456",
		model.Applicant{
			FullName:            "Ravi Kumar",
			PAN:                 pan,
			Aadhaar:             aadhaar,
			Email:               "ravi@example.com",
			Phone:               "9123456780",
			EmploymentType:      valueobject.EmploymentSalaried,
			MonthlyIncome:       decimal.NewFromInt(150_000),
			WorkExperienceYears: 8,
			LoanAmount:          decimal.NewFromInt(amount),
			TenureYears:         20,
			Purpose:             valueobject.PurposeHomePurchase,
		},
		status, 95, decimal.RequireFromString("8678.23"), 3, created, created,
	)
}
