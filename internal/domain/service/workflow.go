package service

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Policy
// ---------------------------------------------------------------------------

// Policy is the tunable part of the approval pipeline: who may decide each
// stage and the amounts up to which L1 and L2 may finalize an approval.
type Policy struct {
	StageRoles  map[valueobject.Stage]valueobject.Role
	CancelRole  valueobject.Role
	L1Threshold decimal.Decimal
	L2Threshold decimal.Decimal
}

// DefaultPolicy is 10 lakh at L1 and 50 lakh at L2.
func DefaultPolicy() Policy {
	return Policy{
		StageRoles: map[valueobject.Stage]valueobject.Role{
			valueobject.StageRCPU: valueobject.RoleUnderwriter,
			valueobject.StageL1:   valueobject.RoleManagerL1,
			valueobject.StageL2:   valueobject.RoleManagerL2,
			valueobject.StageL3:   valueobject.RoleAdmin,
		},
		CancelRole:  valueobject.RoleAdmin,
		L1Threshold: decimal.NewFromInt(1_000_000),
		L2Threshold: decimal.NewFromInt(5_000_000),
	}
}

// Validate rejects a policy with a missing stage role or inverted thresholds.
func (p Policy) Validate() error {
	for _, s := range []valueobject.Stage{valueobject.StageRCPU, valueobject.StageL1, valueobject.StageL2, valueobject.StageL3} {
		if p.StageRoles[s].IsZero() {
			return errors.New("policy: no role configured for stage " + s.String())
		}
	}
	if p.CancelRole.IsZero() {
		return errors.New("policy: cancel role is required")
	}
	if !p.L1Threshold.IsPositive() || p.L2Threshold.LessThan(p.L1Threshold) {
		return errors.New("policy: thresholds must satisfy 0 < L1 <= L2")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transition table
// ---------------------------------------------------------------------------

// stageRule describes one tier. When threshold is set, an approval finalizes
// at approved only if the loan amount is at or below it, and is forwarded to
// forward otherwise.
type stageRule struct {
	pending   valueobject.ApplicationStatus
	approved  valueobject.ApplicationStatus
	forward   valueobject.ApplicationStatus
	threshold func(Policy) decimal.Decimal
}

var stageRules = map[valueobject.Stage]stageRule{
	valueobject.StageRCPU: {
		pending:  valueobject.StatusPendingRCPU,
		approved: valueobject.StatusPendingL1,
	},
	valueobject.StageL1: {
		pending:   valueobject.StatusPendingL1,
		approved:  valueobject.StatusL1Approved,
		forward:   valueobject.StatusPendingL2,
		threshold: func(p Policy) decimal.Decimal { return p.L1Threshold },
	},
	valueobject.StageL2: {
		pending:   valueobject.StatusPendingL2,
		approved:  valueobject.StatusL2Approved,
		forward:   valueobject.StatusPendingL3,
		threshold: func(p Policy) decimal.Decimal { return p.L2Threshold },
	},
	valueobject.StageL3: {
		pending:  valueobject.StatusPendingL3,
		approved: valueobject.StatusL3Approved,
	},
}

// PendingStatusFor is the status an application must be in for stage to be
// decided.
func PendingStatusFor(stage valueobject.Stage) (valueobject.ApplicationStatus, bool) {
	rule, ok := stageRules[stage]
	return rule.pending, ok
}

// ---------------------------------------------------------------------------
// Workflow
// ---------------------------------------------------------------------------

// Transition is the outcome of a decision: the application copy to persist
// and the history entry to append with it.
type Transition struct {
	Application model.LoanApplication
	Entry       model.ApprovalHistoryEntry
}

// Workflow is the approval state machine. It is pure: it never loads or
// saves anything.
type Workflow struct {
	policy Policy
}

func NewWorkflow(policy Policy) (*Workflow, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Workflow{policy: policy}, nil
}

func (w *Workflow) Policy() Policy { return w.policy }

// Decide applies actor's decision at stage. Checks run in a fixed order:
// role, then current status, then the decision string.
func (w *Workflow) Decide(
	app model.LoanApplication,
	actor model.Actor,
	stage valueobject.Stage,
	decision string,
	remarks string,
	now time.Time,
) (Transition, error) {
	rule, ok := stageRules[stage]
	if !ok {
		return Transition{}, valueobject.InvalidInput("unknown stage %q", stage.String())
	}

	required := w.policy.StageRoles[stage]
	if !actor.HasRole(required) {
		return Transition{}, valueobject.Unauthorized(
			"user not authorized for %s actions: requires %s, has %s", stage, required, actor.Role())
	}

	if !app.Status().Equal(rule.pending) {
		return Transition{}, valueobject.InvalidState(
			"application %s is %s, expected %s for %s decision", app.ApplicationNumber(), app.Status(), rule.pending, stage)
	}

	action, err := valueobject.ParseAction(decision)
	if err != nil {
		return Transition{}, err
	}

	next, recorded := w.route(rule, app, action)
	entry := model.NewApprovalHistoryEntry(app.ID(), actor, stage, recorded, remarks, now)
	updated, err := app.ApplyDecision(entry, next, now)
	if err != nil {
		return Transition{}, err
	}
	return Transition{Application: updated, Entry: entry}, nil
}

// route is the only branching in the pipeline: reject terminates, approve
// either finalizes the tier or forwards to the next one.
func (w *Workflow) route(
	rule stageRule,
	app model.LoanApplication,
	action valueobject.Action,
) (valueobject.ApplicationStatus, valueobject.Decision) {
	if action == valueobject.ActionReject {
		return valueobject.StatusRejected, valueobject.DecisionRejected
	}
	if rule.threshold != nil && app.LoanAmount().GreaterThan(rule.threshold(w.policy)) {
		return rule.forward, valueobject.DecisionForwarded
	}
	return rule.approved, valueobject.DecisionApproved
}

// Cancel withdraws a non-terminal application. The audit row is filed under
// the stage the application had reached.
func (w *Workflow) Cancel(
	app model.LoanApplication,
	actor model.Actor,
	reason string,
	now time.Time,
) (Transition, error) {
	if !actor.HasRole(w.policy.CancelRole) {
		return Transition{}, valueobject.Unauthorized("user not authorized to cancel applications: requires %s", w.policy.CancelRole)
	}
	if app.Status().IsTerminal() {
		return Transition{}, valueobject.InvalidState("application %s is already %s", app.ApplicationNumber(), app.Status())
	}

	remarks := "cancelled"
	if reason != "" {
		remarks += ": " + reason
	}
	entry := model.NewApprovalHistoryEntry(
		app.ID(), actor, valueobject.StageForStatus(app.Status()), valueobject.DecisionRejected, remarks, now)
	updated, err := app.Cancel(entry, now)
	if err != nil {
		return Transition{}, err
	}
	return Transition{Application: updated, Entry: entry}, nil
}
