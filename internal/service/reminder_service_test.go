package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taxmanager/internal/model"
	"taxmanager/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeReminderRepo struct {
	reminders map[uuid.UUID]*model.Reminder
	// failOnCreate makes the nth Create call return an error (1-based).
	failOnCreate int
	creates      int
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{reminders: make(map[uuid.UUID]*model.Reminder)}
}

func (f *fakeReminderRepo) Create(_ context.Context, r *model.Reminder) error {
	f.creates++
	if f.failOnCreate > 0 && f.creates == f.failOnCreate {
		return errors.New("insert failed")
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now()
	copied := *r
	f.reminders[r.ID] = &copied
	return nil
}

func (f *fakeReminderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Reminder, error) {
	r, ok := f.reminders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReminderRepo) ListByUser(_ context.Context, userID uuid.UUID, status string, _, _ int) ([]model.Reminder, int64, error) {
	var out []model.Reminder
	for _, r := range f.reminders {
		if r.UserID != userID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeReminderRepo) Update(_ context.Context, r *model.Reminder) error {
	if _, ok := f.reminders[r.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *r
	f.reminders[r.ID] = &copied
	return nil
}

func (f *fakeReminderRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.reminders, id)
	return nil
}

func (f *fakeReminderRepo) ExistsForTax(_ context.Context, taxID uuid.UUID) (bool, error) {
	for _, r := range f.reminders {
		if r.TaxID != nil && *r.TaxID == taxID {
			return true, nil
		}
	}
	return false, nil
}

// fakeTxManager runs the callback inline and emulates rollback by
// restoring the reminder store when the callback fails.
type fakeTxManager struct {
	reminders *fakeReminderRepo
	runs      int
}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	f.runs++
	snapshot := make(map[uuid.UUID]*model.Reminder, len(f.reminders.reminders))
	for id, r := range f.reminders.reminders {
		snapshot[id] = r
	}
	if err := fn(ctx); err != nil {
		f.reminders.reminders = snapshot
		return err
	}
	return nil
}

type reminderServiceFixture struct {
	svc       ReminderService
	reminders *fakeReminderRepo
	taxes     *fakeTaxRepo
	tx        *fakeTxManager
	owner     uuid.UUID
}

func newReminderServiceFixture(t *testing.T) *reminderServiceFixture {
	t.Helper()

	reminders := newFakeReminderRepo()
	taxes := newFakeTaxRepo()
	tx := &fakeTxManager{reminders: reminders}

	return &reminderServiceFixture{
		svc:       NewReminderService(reminders, taxes, tx),
		reminders: reminders,
		taxes:     taxes,
		tx:        tx,
		owner:     uuid.New(),
	}
}

func (fx *reminderServiceFixture) seedPendingTax(t *testing.T, due time.Time) *model.Tax {
	t.Helper()

	tax := &model.Tax{
		ID:              uuid.New(),
		ChargeStationID: uuid.New(),
		TaxTypeID:       uuid.New(),
		TaxType:         &model.TaxType{Name: "재산세", Category: workflow.CategoryStandard},
		Amount:          decimal.NewFromInt(500000),
		DueDate:         due,
		Status:          workflow.StatusPending,
	}
	require.NoError(t, fx.taxes.Create(context.Background(), tax))
	return tax
}

func TestAutoCreateRemindersSkipsCoveredTaxes(t *testing.T) {
	fx := newReminderServiceFixture(t)
	due := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	first := fx.seedPendingTax(t, due)
	second := fx.seedPendingTax(t, due)
	covered := fx.seedPendingTax(t, due)

	require.NoError(t, fx.reminders.Create(context.Background(), &model.Reminder{
		TaxID:        &covered.ID,
		UserID:       fx.owner,
		Title:        "기존 알림",
		ReminderDate: due.AddDate(0, 0, -1),
		Status:       model.ReminderActive,
		Type:         model.ReminderTypeManual,
	}))

	created, err := fx.svc.AutoCreateReminders(context.Background(), AutoCreateRemindersRequest{
		TaxIDs:     []string{first.ID.String(), second.ID.String(), covered.ID.String()},
		DaysBefore: 3,
	}, fx.owner.String())
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, fx.tx.runs, "the whole batch runs in a single transaction")

	var got *model.Reminder
	for _, r := range fx.reminders.reminders {
		if r.TaxID != nil && *r.TaxID == first.ID {
			got = r
		}
	}
	require.NotNil(t, got)
	// Three days before the due date, at the default 09:00
	assert.Equal(t, time.Date(2026, 9, 27, 9, 0, 0, 0, time.UTC), got.ReminderDate)
	assert.Equal(t, model.ReminderActive, got.Status)
	assert.Equal(t, fx.owner, got.UserID)
}

// TestAutoCreateRemindersFailureCreatesNothing covers the transactional
// guarantee: when an insert fails part-way through the batch, the whole
// batch rolls back and the reported count is zero.
func TestAutoCreateRemindersFailureCreatesNothing(t *testing.T) {
	fx := newReminderServiceFixture(t)
	due := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	first := fx.seedPendingTax(t, due)
	second := fx.seedPendingTax(t, due)

	fx.reminders.failOnCreate = 2

	created, err := fx.svc.AutoCreateReminders(context.Background(), AutoCreateRemindersRequest{
		TaxIDs: []string{first.ID.String(), second.ID.String()},
	}, fx.owner.String())
	require.Error(t, err)
	assert.Equal(t, 0, created)
	assert.Empty(t, fx.reminders.reminders, "a mid-batch failure must leave no reminders behind")
}

func TestAutoCreateRemindersRejectsBadTimeOfDay(t *testing.T) {
	fx := newReminderServiceFixture(t)

	_, err := fx.svc.AutoCreateReminders(context.Background(), AutoCreateRemindersRequest{
		TaxIDs:    []string{uuid.NewString()},
		TimeOfDay: "25:99",
	}, fx.owner.String())
	require.Error(t, err)
	assert.Zero(t, fx.tx.runs, "invalid input is rejected before a transaction starts")
}

func TestRemindersArePrivateToTheirOwner(t *testing.T) {
	fx := newReminderServiceFixture(t)

	res, err := fx.svc.CreateReminder(context.Background(), CreateReminderRequest{
		Title:        "부가세 신고",
		ReminderDate: "2026-10-01T09:00:00Z",
	}, fx.owner.String())
	require.NoError(t, err)

	_, err = fx.svc.GetReminder(context.Background(), res.ID, uuid.NewString())
	assert.ErrorIs(t, err, ErrReminderNotFound)

	_, err = fx.svc.GetReminder(context.Background(), res.ID, fx.owner.String())
	assert.NoError(t, err)
}
