package workflow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFromName(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		want     Category
	}{
		{"korean acquisition tax", "취득세", CategoryAcquisition},
		{"korean name with suffix", "취득세 (지방)", CategoryAcquisition},
		{"english lowercase", "acquisition tax", CategoryAcquisition},
		{"english mixed case", "Acquisition Tax", CategoryAcquisition},
		{"property tax", "재산세", CategoryStandard},
		{"vat", "부가가치세", CategoryStandard},
		{"empty name", "", CategoryStandard},
		{"unrelated english", "property tax", CategoryStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFromName(tt.typeName))
		})
	}
}

func TestRequiresAccountantReview(t *testing.T) {
	assert.True(t, CategoryAcquisition.RequiresAccountantReview())
	assert.False(t, CategoryStandard.RequiresAccountantReview())
	// A corrupt category behaves as standard
	assert.False(t, Category("").RequiresAccountantReview())
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusAccountantReview, InitialStatus(CategoryAcquisition))
	assert.Equal(t, StatusPending, InitialStatus(CategoryStandard))
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		category Category
		current  Status
		want     Status
		wantOK   bool
	}{
		{CategoryAcquisition, StatusAccountantReview, StatusPending, true},
		{CategoryAcquisition, StatusPending, StatusCompleted, true},
		{CategoryAcquisition, StatusCompleted, "", false},
		{CategoryAcquisition, StatusCancelled, StatusAccountantReview, true},
		{CategoryAcquisition, Status(""), StatusAccountantReview, true},
		{CategoryAcquisition, Status("garbage"), StatusAccountantReview, true},
		{CategoryStandard, StatusPending, StatusCompleted, true},
		{CategoryStandard, StatusCompleted, "", false},
		{CategoryStandard, StatusAccountantReview, StatusPending, true},
		{CategoryStandard, StatusCancelled, StatusPending, true},
		{CategoryStandard, Status(""), StatusPending, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%q", tt.category, tt.current), func(t *testing.T) {
			got, ok := NextStatus(tt.current, tt.category)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestCanTransitionExhaustive verifies the legality tables over the full
// cross product of both categories, every recognized status plus an
// unrecognized one, and every candidate target.
func TestCanTransitionExhaustive(t *testing.T) {
	froms := []Status{StatusAccountantReview, StatusPending, StatusCompleted, StatusCancelled, Status("")}
	targets := []Status{StatusAccountantReview, StatusPending, StatusCompleted, StatusCancelled, Status("")}

	type edge struct {
		from, to Status
	}
	legal := map[Category]map[edge]bool{
		CategoryAcquisition: {
			{StatusAccountantReview, StatusPending}:   true,
			{StatusPending, StatusCompleted}:          true,
			{StatusPending, StatusAccountantReview}:   true,
			{StatusCompleted, StatusPending}:          true,
			{StatusCancelled, StatusAccountantReview}: true,
			{Status(""), StatusAccountantReview}:      true,
		},
		CategoryStandard: {
			{StatusPending, StatusCompleted}:        true,
			{StatusCompleted, StatusPending}:        true,
			{StatusAccountantReview, StatusPending}: true,
			{StatusCancelled, StatusPending}:        true,
			{Status(""), StatusPending}:             true,
		},
	}

	for cat, edges := range legal {
		for _, from := range froms {
			for _, to := range targets {
				want := edges[edge{from, to}]
				got := CanTransition(from, to, cat)
				assert.Equalf(t, want, got, "category=%s from=%q to=%q", cat, from, to)
			}
		}
	}
}

func TestCanTransitionNoSelfLoops(t *testing.T) {
	statuses := []Status{StatusAccountantReview, StatusPending, StatusCompleted, StatusCancelled}
	for _, cat := range []Category{CategoryAcquisition, CategoryStandard} {
		for _, s := range statuses {
			assert.Falsef(t, CanTransition(s, s, cat), "category=%s status=%q must not be legal to itself", cat, s)
		}
	}
}

func TestCancelledNeverReachable(t *testing.T) {
	froms := []Status{StatusAccountantReview, StatusPending, StatusCompleted, StatusCancelled, Status("")}
	for _, cat := range []Category{CategoryAcquisition, CategoryStandard} {
		for _, from := range froms {
			assert.Falsef(t, CanTransition(from, StatusCancelled, cat), "category=%s from=%q", cat, from)
			next, ok := NextStatus(from, cat)
			if ok {
				assert.NotEqual(t, StatusCancelled, next)
			}
		}
	}
}

func TestLegalTargets(t *testing.T) {
	assert.Equal(t, []Status{StatusPending}, LegalTargets(StatusAccountantReview, CategoryAcquisition))
	assert.Equal(t, []Status{StatusCompleted, StatusAccountantReview}, LegalTargets(StatusPending, CategoryAcquisition))
	assert.Equal(t, []Status{StatusPending}, LegalTargets(StatusCompleted, CategoryAcquisition))
	assert.Equal(t, []Status{StatusCompleted}, LegalTargets(StatusPending, CategoryStandard))
	assert.Equal(t, []Status{StatusPending}, LegalTargets(StatusCompleted, CategoryStandard))
	// Unknown current values route back to the start state
	assert.Equal(t, []Status{StatusAccountantReview}, LegalTargets(Status("??"), CategoryAcquisition))
	assert.Equal(t, []Status{StatusPending}, LegalTargets(StatusCancelled, CategoryStandard))
}

func TestAvailableStatuses(t *testing.T) {
	assert.Equal(t, []Status{StatusAccountantReview, StatusPending, StatusCompleted}, AvailableStatuses(CategoryAcquisition))
	assert.Equal(t, []Status{StatusPending, StatusCompleted}, AvailableStatuses(CategoryStandard))
}

func TestKnownStatus(t *testing.T) {
	for _, s := range []Status{StatusAccountantReview, StatusPending, StatusCompleted, StatusCancelled} {
		assert.True(t, KnownStatus(s))
	}
	assert.False(t, KnownStatus(Status("")))
	assert.False(t, KnownStatus(StatusOverdue), "overdue is derived, not stored")
	assert.False(t, KnownStatus(Status("paid")))
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	yesterday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsOverdue(StatusPending, yesterday, now))
	assert.True(t, IsOverdue(StatusAccountantReview, yesterday, now))
	// Due today is not yet overdue: the comparison is strictly before today
	assert.False(t, IsOverdue(StatusPending, today, now))
	assert.False(t, IsOverdue(StatusPending, tomorrow, now))
	assert.False(t, IsOverdue(StatusCompleted, yesterday, now))
	assert.False(t, IsOverdue(StatusCancelled, yesterday, now))
}

func TestDisplayStatus(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	past := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, StatusOverdue, DisplayStatus(StatusPending, past, now))
	assert.Equal(t, StatusPending, DisplayStatus(StatusPending, future, now))
	assert.Equal(t, StatusCompleted, DisplayStatus(StatusCompleted, past, now))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "납부예정", StatusLabel(StatusPending))
	assert.Equal(t, "납부완료", StatusLabel(StatusCompleted))
	assert.Equal(t, "연체", StatusLabel(StatusOverdue))
	assert.Equal(t, "회계사검토", StatusLabel(StatusAccountantReview))
	assert.Equal(t, "취소", StatusLabel(StatusCancelled))
	// Unrecognized values are echoed back
	assert.Equal(t, "paid", StatusLabel(Status("paid")))
	assert.Equal(t, "", StatusLabel(Status("")))
}

// TestAcquisitionLifecycle walks the review-required flow end to end:
// created in review, advanced to pending, advanced to completed, reverted,
// and paid again.
func TestAcquisitionLifecycle(t *testing.T) {
	cat := CategoryFromName("취득세")
	require.Equal(t, CategoryAcquisition, cat)

	status := InitialStatus(cat)
	require.Equal(t, StatusAccountantReview, status)

	next, ok := NextStatus(status, cat)
	require.True(t, ok)
	require.Equal(t, StatusPending, next)
	require.True(t, CanTransition(status, next, cat))
	status = next

	next, ok = NextStatus(status, cat)
	require.True(t, ok)
	require.Equal(t, StatusCompleted, next)
	require.True(t, CanTransition(status, next, cat))
	status = next

	// Terminal: no forward action offered
	_, ok = NextStatus(status, cat)
	require.False(t, ok)

	// Revert payment, then pay again — the path is unchanged by the round trip
	require.True(t, CanTransition(status, StatusPending, cat))
	status = StatusPending
	require.True(t, CanTransition(status, StatusCompleted, cat))
}

func TestStandardLifecycle(t *testing.T) {
	cat := CategoryFromName("재산세")
	require.Equal(t, CategoryStandard, cat)

	status := InitialStatus(cat)
	require.Equal(t, StatusPending, status)

	next, ok := NextStatus(status, cat)
	require.True(t, ok)
	require.Equal(t, StatusCompleted, next)

	// The review gate is unreachable for standard types even if requested
	assert.False(t, CanTransition(StatusPending, StatusAccountantReview, cat))
	assert.False(t, CanTransition(StatusCompleted, StatusAccountantReview, cat))
}

// TestCorruptedStatusRecovery covers the defensive default: an empty or
// garbage stored value behaves as "not yet started".
func TestCorruptedStatusRecovery(t *testing.T) {
	cat := CategoryStandard

	next, ok := NextStatus(Status(""), cat)
	require.True(t, ok)
	assert.Equal(t, StatusPending, next)

	assert.True(t, CanTransition(Status(""), StatusPending, cat))
	assert.False(t, CanTransition(Status(""), StatusCompleted, cat))
}
