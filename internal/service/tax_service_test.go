package service

import (
	"context"
	"testing"
	"time"

	"taxmanager/internal/model"
	"taxmanager/internal/repository"
	"taxmanager/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- In-memory fakes over the repository interfaces ---

type fakeTaxRepo struct {
	taxes map[uuid.UUID]*model.Tax
	// beforeUpdateStatus runs between the service's read and its CAS
	// write, to simulate a concurrent writer.
	beforeUpdateStatus func()
}

func newFakeTaxRepo() *fakeTaxRepo {
	return &fakeTaxRepo{taxes: make(map[uuid.UUID]*model.Tax)}
}

func (f *fakeTaxRepo) Create(_ context.Context, tax *model.Tax) error {
	if tax.ID == uuid.Nil {
		tax.ID = uuid.New()
	}
	tax.CreatedAt = time.Now()
	copied := *tax
	f.taxes[tax.ID] = &copied
	return nil
}

func (f *fakeTaxRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Tax, error) {
	tax, ok := f.taxes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *tax
	return &copied, nil
}

func (f *fakeTaxRepo) List(_ context.Context, _ repository.TaxFilter) ([]model.Tax, int64, error) {
	out := make([]model.Tax, 0, len(f.taxes))
	for _, tax := range f.taxes {
		out = append(out, *tax)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTaxRepo) Update(_ context.Context, tax *model.Tax) error {
	stored, ok := f.taxes[tax.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Amount = tax.Amount
	stored.DueDate = tax.DueDate
	stored.Description = tax.Description
	return nil
}

func (f *fakeTaxRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.taxes, id)
	return nil
}

func (f *fakeTaxRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to workflow.Status, paidDate *time.Time) (bool, error) {
	if f.beforeUpdateStatus != nil {
		f.beforeUpdateStatus()
	}
	tax, ok := f.taxes[id]
	if !ok || tax.Status != from {
		return false, nil
	}
	tax.Status = to
	tax.PaidDate = paidDate
	return true, nil
}

func (f *fakeTaxRepo) ListOverdue(_ context.Context, before time.Time) ([]model.Tax, error) {
	var out []model.Tax
	for _, tax := range f.taxes {
		if tax.Status == workflow.StatusPending && tax.DueDate.Before(before) {
			out = append(out, *tax)
		}
	}
	return out, nil
}

func (f *fakeTaxRepo) ListPendingWithoutReminder(_ context.Context, _ time.Time) ([]model.Tax, error) {
	return nil, nil
}

type fakeStationRepo struct {
	stations map[uuid.UUID]*model.ChargeStation
}

func (f *fakeStationRepo) Create(_ context.Context, s *model.ChargeStation) error {
	f.stations[s.ID] = s
	return nil
}

func (f *fakeStationRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ChargeStation, error) {
	s, ok := f.stations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeStationRepo) List(_ context.Context, _ *uuid.UUID, _, _ int) ([]model.ChargeStation, int64, error) {
	return nil, 0, nil
}

func (f *fakeStationRepo) Update(_ context.Context, _ *model.ChargeStation) error { return nil }

func (f *fakeStationRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

type fakeTypeRepo struct {
	types map[uuid.UUID]*model.TaxType
}

func (f *fakeTypeRepo) Create(_ context.Context, t *model.TaxType) error {
	f.types[t.ID] = t
	return nil
}

func (f *fakeTypeRepo) GetByID(_ context.Context, id uuid.UUID) (*model.TaxType, error) {
	t, ok := f.types[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeTypeRepo) List(_ context.Context) ([]model.TaxType, error) { return nil, nil }

func (f *fakeTypeRepo) Update(_ context.Context, _ *model.TaxType) error { return nil }

func (f *fakeTypeRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeTypeRepo) CountTaxes(_ context.Context, _ uuid.UUID) (int64, error) { return 0, nil }

type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) Record(_ context.Context, _, action, _, _ string, _ interface{}) {
	f.actions = append(f.actions, action)
}

func (f *fakeAudit) List(_ context.Context, _ string, _, _ int) ([]AuditEntryResponse, int64, error) {
	return nil, 0, nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) BroadcastEvent(event string, _ interface{}) {
	f.events = append(f.events, event)
}

// --- Fixture ---

type taxServiceFixture struct {
	svc      TaxService
	taxes    *fakeTaxRepo
	audit    *fakeAudit
	notifier *fakeNotifier

	station         *model.ChargeStation
	acquisitionType *model.TaxType
	propertyType    *model.TaxType
}

func newTaxServiceFixture(t *testing.T) *taxServiceFixture {
	t.Helper()

	station := &model.ChargeStation{
		ID:     uuid.New(),
		Name:   "강남 1호점",
		Status: model.StationActive,
		UserID: uuid.New(),
	}
	acquisition := &model.TaxType{
		ID:       uuid.New(),
		Name:     "취득세",
		Category: workflow.CategoryFromName("취득세"),
	}
	property := &model.TaxType{
		ID:       uuid.New(),
		Name:     "재산세",
		Category: workflow.CategoryFromName("재산세"),
	}

	taxes := newFakeTaxRepo()
	stations := &fakeStationRepo{stations: map[uuid.UUID]*model.ChargeStation{station.ID: station}}
	types := &fakeTypeRepo{types: map[uuid.UUID]*model.TaxType{acquisition.ID: acquisition, property.ID: property}}
	audit := &fakeAudit{}
	notifier := &fakeNotifier{}

	svc := NewTaxService(taxes, stations, types, audit, notifier, zap.NewNop())

	return &taxServiceFixture{
		svc:             svc,
		taxes:           taxes,
		audit:           audit,
		notifier:        notifier,
		station:         station,
		acquisitionType: acquisition,
		propertyType:    property,
	}
}

func (fx *taxServiceFixture) createTax(t *testing.T, taxType *model.TaxType) TaxResponse {
	t.Helper()
	res, err := fx.svc.CreateTax(context.Background(), CreateTaxRequest{
		ChargeStationID: fx.station.ID.String(),
		TaxTypeID:       taxType.ID.String(),
		Amount:          "1650000",
		DueDate:         "2024-02-15",
	}, uuid.NewString())
	require.NoError(t, err)
	return res
}

// --- Tests ---

func TestCreateTaxSeedsInitialStatus(t *testing.T) {
	fx := newTaxServiceFixture(t)

	acquisition := fx.createTax(t, fx.acquisitionType)
	assert.Equal(t, string(workflow.StatusAccountantReview), acquisition.Status)

	property := fx.createTax(t, fx.propertyType)
	assert.Equal(t, string(workflow.StatusPending), property.Status)
	assert.Nil(t, property.PaidDate)
}

func TestCreateTaxRejectsNonPositiveAmount(t *testing.T) {
	fx := newTaxServiceFixture(t)

	_, err := fx.svc.CreateTax(context.Background(), CreateTaxRequest{
		ChargeStationID: fx.station.ID.String(),
		TaxTypeID:       fx.propertyType.ID.String(),
		Amount:          "-100",
		DueDate:         "2024-02-15",
	}, uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive")
}

// TestAcquisitionTaxLifecycle follows the review-required flow through
// create, two advances, a payment revert, and re-payment, checking the
// paid date invariant at each step.
func TestAcquisitionTaxLifecycle(t *testing.T) {
	fx := newTaxServiceFixture(t)
	admin := uuid.NewString()

	created := fx.createTax(t, fx.acquisitionType)
	require.Equal(t, string(workflow.StatusAccountantReview), created.Status)
	require.NotNil(t, created.NextStatus)
	assert.Equal(t, string(workflow.StatusPending), *created.NextStatus)

	// accountant_review -> pending
	res, err := fx.svc.AdvanceStatus(context.Background(), created.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusPending), res.Status)
	assert.Nil(t, res.PaidDate)

	// pending -> completed sets paid_date to today's local calendar day
	res, err = fx.svc.AdvanceStatus(context.Background(), created.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusCompleted), res.Status)
	require.NotNil(t, res.PaidDate)
	now := time.Now()
	localDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	assert.Equal(t, localDay.Format("2006-01-02"), *res.PaidDate)
	assert.Nil(t, res.NextStatus, "completed is terminal")

	// completed has no forward step
	_, err = fx.svc.AdvanceStatus(context.Background(), created.ID, admin)
	assert.ErrorIs(t, err, ErrNoForwardStep)

	// revert payment clears paid_date
	res, err = fx.svc.TransitionStatus(context.Background(), created.ID, workflow.StatusPending, admin)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusPending), res.Status)
	assert.Nil(t, res.PaidDate)

	// re-pay: round trip ends completed with a fresh paid_date
	res, err = fx.svc.TransitionStatus(context.Background(), created.ID, workflow.StatusCompleted, admin)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusCompleted), res.Status)
	assert.NotNil(t, res.PaidDate)

	assert.Contains(t, fx.notifier.events, EventTaxStatusChanged)
	assert.Contains(t, fx.audit.actions, model.ActionTransitionTax)
}

func TestPropertyTaxSkipsReviewGate(t *testing.T) {
	fx := newTaxServiceFixture(t)
	admin := uuid.NewString()

	created := fx.createTax(t, fx.propertyType)
	require.Equal(t, string(workflow.StatusPending), created.Status)

	// The review step is unreachable for standard types even if requested
	_, err := fx.svc.TransitionStatus(context.Background(), created.ID, workflow.StatusAccountantReview, admin)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)

	// The rejected request left the record untouched
	stored, err2 := fx.svc.GetTax(context.Background(), created.ID)
	require.NoError(t, err2)
	assert.Equal(t, string(workflow.StatusPending), stored.Status)
	assert.Nil(t, stored.PaidDate)
}

func TestRejectedTransitionTouchesNothing(t *testing.T) {
	fx := newTaxServiceFixture(t)
	admin := uuid.NewString()

	created := fx.createTax(t, fx.acquisitionType)

	// completed is not legal directly from accountant_review
	_, err := fx.svc.TransitionStatus(context.Background(), created.ID, workflow.StatusCompleted, admin)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)

	stored, err := fx.svc.GetTax(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusAccountantReview), stored.Status)
	assert.Nil(t, stored.PaidDate)
	assert.Empty(t, fx.notifier.events)
}

func TestCancelledIsNeverAValidTarget(t *testing.T) {
	fx := newTaxServiceFixture(t)

	created := fx.createTax(t, fx.propertyType)

	_, err := fx.svc.TransitionStatus(context.Background(), created.ID, workflow.StatusCancelled, uuid.NewString())
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
}

func TestConcurrentTransitionConflicts(t *testing.T) {
	fx := newTaxServiceFixture(t)
	admin := uuid.NewString()

	created := fx.createTax(t, fx.propertyType)
	taxID := uuid.MustParse(created.ID)

	// Another admin completes the tax between our read and our write
	fx.taxes.beforeUpdateStatus = func() {
		fx.taxes.beforeUpdateStatus = nil
		fx.taxes.taxes[taxID].Status = workflow.StatusCompleted
	}

	_, err := fx.svc.TransitionStatus(context.Background(), created.ID, workflow.StatusCompleted, admin)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

// TestCorruptStatusSelfHeals seeds a record with an empty stored status:
// the engine treats it as not-yet-started, so re-entry at pending works
// and jumping straight to completed does not.
func TestCorruptStatusSelfHeals(t *testing.T) {
	fx := newTaxServiceFixture(t)
	admin := uuid.NewString()

	tax := &model.Tax{
		ID:              uuid.New(),
		ChargeStationID: fx.station.ID,
		TaxTypeID:       fx.propertyType.ID,
		TaxType:         fx.propertyType,
		Amount:          decimal.NewFromInt(300000),
		DueDate:         time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:          workflow.Status(""),
	}
	fx.taxes.taxes[tax.ID] = tax

	_, err := fx.svc.TransitionStatus(context.Background(), tax.ID.String(), workflow.StatusCompleted, admin)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)

	res, err := fx.svc.TransitionStatus(context.Background(), tax.ID.String(), workflow.StatusPending, admin)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.StatusPending), res.Status)
}

func TestGetTaxDerivesOverdue(t *testing.T) {
	fx := newTaxServiceFixture(t)

	created := fx.createTax(t, fx.propertyType) // due 2024-02-15, long past

	res, err := fx.svc.GetTax(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, res.Overdue)
	assert.Equal(t, string(workflow.StatusOverdue), res.DisplayStatus)
	assert.Equal(t, string(workflow.StatusPending), res.Status, "stored status is unchanged")
	assert.Equal(t, "연체", res.StatusLabel)
}
