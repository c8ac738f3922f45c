package valueobject

// ---------------------------------------------------------------------------
// ApplicationStatus – immutable value object
// ---------------------------------------------------------------------------

// ApplicationStatus is the lifecycle position of a loan application in the
// approval pipeline.
type ApplicationStatus struct {
	value string
}

const (
	appStatusSubmitted   = "SUBMITTED"
	appStatusPendingRCPU = "PENDING_RCPU"
	appStatusPendingL1   = "PENDING_L1"
	appStatusL1Approved  = "L1_APPROVED"
	appStatusPendingL2   = "PENDING_L2"
	appStatusL2Approved  = "L2_APPROVED"
	appStatusPendingL3   = "PENDING_L3"
	appStatusL3Approved  = "L3_APPROVED"
	appStatusRejected    = "REJECTED"
	appStatusCancelled   = "CANCELLED"
)

var (
	// StatusSubmitted is accepted when reading legacy rows; new applications
	// start at StatusPendingRCPU.
	StatusSubmitted   = ApplicationStatus{value: appStatusSubmitted}
	StatusPendingRCPU = ApplicationStatus{value: appStatusPendingRCPU}
	StatusPendingL1   = ApplicationStatus{value: appStatusPendingL1}
	StatusL1Approved  = ApplicationStatus{value: appStatusL1Approved}
	StatusPendingL2   = ApplicationStatus{value: appStatusPendingL2}
	StatusL2Approved  = ApplicationStatus{value: appStatusL2Approved}
	StatusPendingL3   = ApplicationStatus{value: appStatusPendingL3}
	StatusL3Approved  = ApplicationStatus{value: appStatusL3Approved}
	StatusRejected    = ApplicationStatus{value: appStatusRejected}
	StatusCancelled   = ApplicationStatus{value: appStatusCancelled}
)

var validApplicationStatuses = map[string]ApplicationStatus{
	appStatusSubmitted:   StatusSubmitted,
	appStatusPendingRCPU: StatusPendingRCPU,
	appStatusPendingL1:   StatusPendingL1,
	appStatusL1Approved:  StatusL1Approved,
	appStatusPendingL2:   StatusPendingL2,
	appStatusL2Approved:  StatusL2Approved,
	appStatusPendingL3:   StatusPendingL3,
	appStatusL3Approved:  StatusL3Approved,
	appStatusRejected:    StatusRejected,
	appStatusCancelled:   StatusCancelled,
}

// Pipeline depth of each status. A tier's "approved" and "forwarded to next
// tier" outcomes share a depth; they are alternative exits of the same tier.
var statusRank = map[string]int{
	appStatusSubmitted:   0,
	appStatusPendingRCPU: 0,
	appStatusPendingL1:   1,
	appStatusL1Approved:  2,
	appStatusPendingL2:   2,
	appStatusL2Approved:  3,
	appStatusPendingL3:   3,
	appStatusL3Approved:  4,
}

// NewApplicationStatus parses a raw status.
func NewApplicationStatus(s string) (ApplicationStatus, error) {
	return parseEnum(validApplicationStatuses, "application status", s)
}

// AllApplicationStatuses lists every status in pipeline order.
func AllApplicationStatuses() []ApplicationStatus {
	return []ApplicationStatus{
		StatusSubmitted, StatusPendingRCPU, StatusPendingL1, StatusL1Approved,
		StatusPendingL2, StatusL2Approved, StatusPendingL3, StatusL3Approved,
		StatusRejected, StatusCancelled,
	}
}

func (s ApplicationStatus) String() string { return s.value }
func (s ApplicationStatus) IsZero() bool   { return s.value == "" }

func (s ApplicationStatus) Equal(other ApplicationStatus) bool {
	return s.value == other.value
}

// IsTerminal is true for REJECTED and CANCELLED.
func (s ApplicationStatus) IsTerminal() bool {
	return s.value == appStatusRejected || s.value == appStatusCancelled
}

// IsApproved is true for the three tier-final approval statuses.
func (s ApplicationStatus) IsApproved() bool {
	switch s.value {
	case appStatusL1Approved, appStatusL2Approved, appStatusL3Approved:
		return true
	}
	return false
}

// IsPending is true while a stage decision is outstanding.
func (s ApplicationStatus) IsPending() bool {
	switch s.value {
	case appStatusSubmitted, appStatusPendingRCPU, appStatusPendingL1, appStatusPendingL2, appStatusPendingL3:
		return true
	}
	return false
}

// CanAdvanceTo reports whether next is a forward move: a terminal status from
// any non-terminal one, or a strictly deeper pipeline position.
func (s ApplicationStatus) CanAdvanceTo(next ApplicationStatus) bool {
	if s.IsTerminal() || next.IsZero() {
		return false
	}
	if next.IsTerminal() {
		return true
	}
	from, ok1 := statusRank[s.value]
	to, ok2 := statusRank[next.value]
	return ok1 && ok2 && to > from
}

// MarshalText lets statuses appear directly in JSON payloads.
func (s ApplicationStatus) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}
