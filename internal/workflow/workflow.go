// Package workflow implements the tax payment status state machine.
//
// Every status mutation in the system is gated through this package: the
// handlers ask it which action to offer next, and the tax service refuses
// any stored write that CanTransition rejects. All functions are pure and
// safe for concurrent use.
package workflow

import (
	"strings"
	"time"
)

// Status is the stored payment status of a tax record.
type Status string

const (
	StatusAccountantReview Status = "accountant_review"
	StatusPending          Status = "pending"
	StatusCompleted        Status = "completed"

	// StatusCancelled is a legacy value that still appears in stored data
	// and badge rendering. The engine never produces it and never accepts
	// it as a transition target.
	StatusCancelled Status = "cancelled"

	// StatusOverdue is a derived display value computed from the due date
	// at read time. It is never stored and never participates in
	// transitions.
	StatusOverdue Status = "overdue"
)

// Category classifies a tax type into one of the two workflow variants.
// It is stored on the tax type and recomputed from the name whenever an
// administrator edits it, so the engine never has to string-match per call.
type Category string

const (
	// CategoryAcquisition taxes legally require accountant sign-off
	// before they may be marked payable.
	CategoryAcquisition Category = "acquisition"
	// CategoryStandard covers property tax and every other type with the
	// plain pending -> completed flow.
	CategoryStandard Category = "standard"
)

// CategoryFromName derives the workflow category from a tax type name.
// Acquisition taxes are recognized by the Korean term or the English
// fallback, case-insensitive. An empty name is standard.
func CategoryFromName(name string) Category {
	if strings.Contains(name, "취득세") || strings.Contains(strings.ToLower(name), "acquisition") {
		return CategoryAcquisition
	}
	return CategoryStandard
}

// RequiresAccountantReview reports whether taxes of this category must pass
// the accountant review gate before becoming payable.
func (c Category) RequiresAccountantReview() bool {
	return c == CategoryAcquisition
}

// machine is one workflow variant: a start state, the canonical forward
// edge per state, and the full set of legal targets per state. States
// missing from the maps are treated as "not yet started" and route to
// start, so the engine stays total over corrupt stored values.
type machine struct {
	start   Status
	forward map[Status]Status
	allowed map[Status][]Status
}

var reviewMachine = machine{
	start: StatusAccountantReview,
	forward: map[Status]Status{
		StatusAccountantReview: StatusPending,
		StatusPending:          StatusCompleted,
	},
	allowed: map[Status][]Status{
		StatusAccountantReview: {StatusPending},
		StatusPending:          {StatusCompleted, StatusAccountantReview},
		StatusCompleted:        {StatusPending}, // revert payment
	},
}

var standardMachine = machine{
	start: StatusPending,
	forward: map[Status]Status{
		StatusPending: StatusCompleted,
	},
	allowed: map[Status][]Status{
		StatusPending:   {StatusCompleted},
		StatusCompleted: {StatusPending}, // revert payment
	},
}

func machineFor(c Category) machine {
	if c.RequiresAccountantReview() {
		return reviewMachine
	}
	return standardMachine
}

// InitialStatus returns the status a newly created tax record starts in.
func InitialStatus(c Category) Status {
	return machineFor(c).start
}

// NextStatus returns the canonical next status in the forward flow and
// whether a forward step exists. Completed is terminal (ok=false); an
// unrecognized current value routes back to the machine's start state.
func NextStatus(current Status, c Category) (Status, bool) {
	m := machineFor(c)
	if next, ok := m.forward[current]; ok {
		return next, true
	}
	if current == StatusCompleted {
		return "", false
	}
	return m.start, true
}

// CanTransition reports whether an arbitrary requested transition is legal.
// Callers that mutate stored status must check this first and refuse on
// false; it checks workflow legality only, not user permissions.
func CanTransition(from, to Status, c Category) bool {
	m := machineFor(c)
	targets, ok := m.allowed[from]
	if !ok {
		// Unrecognized current value: only re-entry at the start state
		// is legal, so the record self-heals on the next transition.
		return to == m.start
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}

// LegalTargets returns every status the record may transition to from the
// given state, in display order. Used to decide which action buttons to show.
func LegalTargets(from Status, c Category) []Status {
	m := machineFor(c)
	if targets, ok := m.allowed[from]; ok {
		out := make([]Status, len(targets))
		copy(out, targets)
		return out
	}
	return []Status{m.start}
}

// AvailableStatuses lists the stored statuses reachable for a category,
// used to populate selection inputs.
func AvailableStatuses(c Category) []Status {
	if c.RequiresAccountantReview() {
		return []Status{StatusAccountantReview, StatusPending, StatusCompleted}
	}
	return []Status{StatusPending, StatusCompleted}
}

// KnownStatus reports whether s is one of the recognized stored values.
// Callers should log reads that fail this check so drift between stored
// data and the engine's enum stays operator-visible.
func KnownStatus(s Status) bool {
	switch s {
	case StatusAccountantReview, StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsOverdue reports the derived overdue display state: an unpaid record
// whose due date is strictly before the current date.
func IsOverdue(s Status, dueDate, now time.Time) bool {
	if s != StatusPending && s != StatusAccountantReview {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return dueDate.Before(today)
}

// DisplayStatus substitutes the derived overdue value for rendering.
// The stored status is unchanged; overdue is not a transition.
func DisplayStatus(s Status, dueDate, now time.Time) Status {
	if IsOverdue(s, dueDate, now) {
		return StatusOverdue
	}
	return s
}

// StatusLabel returns the human-readable Korean label for a status.
// Unrecognized values are echoed back; the label is presentation-only.
func StatusLabel(s Status) string {
	switch s {
	case StatusPending:
		return "납부예정"
	case StatusCompleted:
		return "납부완료"
	case StatusOverdue:
		return "연체"
	case StatusAccountantReview:
		return "회계사검토"
	case StatusCancelled:
		return "취소"
	default:
		return string(s)
	}
}
