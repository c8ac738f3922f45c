package valueobject

import "strings"

// ---------------------------------------------------------------------------
// Stage – approval tier
// ---------------------------------------------------------------------------

type Stage struct {
	value string
}

const (
	stageRCPU = "RCPU"
	stageL1   = "L1"
	stageL2   = "L2"
	stageL3   = "L3"
)

var (
	StageRCPU = Stage{value: stageRCPU}
	StageL1   = Stage{value: stageL1}
	StageL2   = Stage{value: stageL2}
	StageL3   = Stage{value: stageL3}
)

var validStages = map[string]Stage{
	stageRCPU: StageRCPU,
	stageL1:   StageL1,
	stageL2:   StageL2,
	stageL3:   StageL3,
}

// NewStage parses a stage name, case-insensitively.
func NewStage(s string) (Stage, error) {
	return parseEnum(validStages, "stage", strings.ToUpper(strings.TrimSpace(s)))
}

func (s Stage) String() string               { return s.value }
func (s Stage) IsZero() bool                 { return s.value == "" }
func (s Stage) Equal(other Stage) bool       { return s.value == other.value }
func (s Stage) MarshalText() ([]byte, error) { return []byte(s.value), nil }

// StageForStatus names the tier an application is at, for audit rows that
// are not stage decisions (cancellation, offer issuance).
func StageForStatus(status ApplicationStatus) Stage {
	switch status.value {
	case appStatusPendingL1, appStatusL1Approved:
		return StageL1
	case appStatusPendingL2, appStatusL2Approved:
		return StageL2
	case appStatusPendingL3, appStatusL3Approved:
		return StageL3
	default:
		return StageRCPU
	}
}

// ---------------------------------------------------------------------------
// Decision – recorded outcome of a stage
// ---------------------------------------------------------------------------

type Decision struct {
	value string
}

const (
	decisionApproved  = "APPROVED"
	decisionRejected  = "REJECTED"
	decisionForwarded = "FORWARDED"
)

var (
	DecisionApproved  = Decision{value: decisionApproved}
	DecisionRejected  = Decision{value: decisionRejected}
	DecisionForwarded = Decision{value: decisionForwarded}
)

var validDecisions = map[string]Decision{
	decisionApproved:  DecisionApproved,
	decisionRejected:  DecisionRejected,
	decisionForwarded: DecisionForwarded,
}

func NewDecision(s string) (Decision, error) {
	return parseEnum(validDecisions, "decision", s)
}

func (d Decision) String() string               { return d.value }
func (d Decision) IsZero() bool                 { return d.value == "" }
func (d Decision) Equal(other Decision) bool    { return d.value == other.value }
func (d Decision) MarshalText() ([]byte, error) { return []byte(d.value), nil }

// ---------------------------------------------------------------------------
// Action – what an actor asks for at a stage
// ---------------------------------------------------------------------------

type Action int

const (
	ActionApprove Action = iota + 1
	ActionReject
)

// ParseAction accepts "approve" or "reject" in any case.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve":
		return ActionApprove, nil
	case "reject":
		return ActionReject, nil
	default:
		return 0, InvalidInput("invalid decision %q: must be 'approve' or 'reject'", s)
	}
}

func (a Action) String() string {
	switch a {
	case ActionApprove:
		return "approve"
	case ActionReject:
		return "reject"
	default:
		return "unknown"
	}
}
