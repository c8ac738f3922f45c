package valueobject

// EmiStatus is the settlement state of one schedule row.
type EmiStatus struct {
	value string
}

const (
	emiStatusPending     = "PENDING"
	emiStatusPaid        = "PAID"
	emiStatusPartialPaid = "PARTIAL_PAID"
	emiStatusOverdue     = "OVERDUE"
)

var (
	EmiStatusPending     = EmiStatus{value: emiStatusPending}
	EmiStatusPaid        = EmiStatus{value: emiStatusPaid}
	EmiStatusPartialPaid = EmiStatus{value: emiStatusPartialPaid}
	EmiStatusOverdue     = EmiStatus{value: emiStatusOverdue}
)

var validEmiStatuses = map[string]EmiStatus{
	emiStatusPending:     EmiStatusPending,
	emiStatusPaid:        EmiStatusPaid,
	emiStatusPartialPaid: EmiStatusPartialPaid,
	emiStatusOverdue:     EmiStatusOverdue,
}

func NewEmiStatus(s string) (EmiStatus, error) {
	return parseEnum(validEmiStatuses, "emi status", s)
}

func (s EmiStatus) String() string               { return s.value }
func (s EmiStatus) IsZero() bool                 { return s.value == "" }
func (s EmiStatus) Equal(other EmiStatus) bool   { return s.value == other.value }
func (s EmiStatus) MarshalText() ([]byte, error) { return []byte(s.value), nil }
