package valueobject

import "strings"

// ---------------------------------------------------------------------------
// EmploymentType
// ---------------------------------------------------------------------------

type EmploymentType struct {
	value string
}

var (
	EmploymentSalaried     = EmploymentType{value: "SALARIED"}
	EmploymentSelfEmployed = EmploymentType{value: "SELF_EMPLOYED"}
	EmploymentBusiness     = EmploymentType{value: "BUSINESS"}
	EmploymentProfessional = EmploymentType{value: "PROFESSIONAL"}
)

var validEmploymentTypes = table(EmploymentSalaried, EmploymentSelfEmployed, EmploymentBusiness, EmploymentProfessional)

func NewEmploymentType(s string) (EmploymentType, error) {
	return parseEnum(validEmploymentTypes, "employment type", normalize(s))
}

func (e EmploymentType) String() string                  { return e.value }
func (e EmploymentType) Equal(other EmploymentType) bool { return e.value == other.value }

// ---------------------------------------------------------------------------
// LoanPurpose
// ---------------------------------------------------------------------------

type LoanPurpose struct {
	value string
}

var (
	PurposeHomePurchase     = LoanPurpose{value: "HOME_PURCHASE"}
	PurposeHomeConstruction = LoanPurpose{value: "HOME_CONSTRUCTION"}
	PurposeHomeRenovation   = LoanPurpose{value: "HOME_RENOVATION"}
	PurposePlotPurchase     = LoanPurpose{value: "PLOT_PURCHASE"}
	PurposeBalanceTransfer  = LoanPurpose{value: "BALANCE_TRANSFER"}
	PurposeTopUp            = LoanPurpose{value: "TOP_UP"}
)

var validLoanPurposes = table(
	PurposeHomePurchase, PurposeHomeConstruction, PurposeHomeRenovation,
	PurposePlotPurchase, PurposeBalanceTransfer, PurposeTopUp,
)

func NewLoanPurpose(s string) (LoanPurpose, error) {
	return parseEnum(validLoanPurposes, "loan purpose", normalize(s))
}

func (p LoanPurpose) String() string { return p.value }

// ---------------------------------------------------------------------------
// Gender, MaritalStatus, ResidenceType
// ---------------------------------------------------------------------------

type Gender struct {
	value string
}

var validGenders = table(Gender{value: "MALE"}, Gender{value: "FEMALE"}, Gender{value: "OTHER"})

func NewGender(s string) (Gender, error) {
	return parseEnum(validGenders, "gender", normalize(s))
}

func (g Gender) String() string { return g.value }

type MaritalStatus struct {
	value string
}

var validMaritalStatuses = table(
	MaritalStatus{value: "SINGLE"}, MaritalStatus{value: "MARRIED"},
	MaritalStatus{value: "DIVORCED"}, MaritalStatus{value: "WIDOWED"},
)

func NewMaritalStatus(s string) (MaritalStatus, error) {
	return parseEnum(validMaritalStatuses, "marital status", normalize(s))
}

func (m MaritalStatus) String() string { return m.value }

type ResidenceType struct {
	value string
}

var validResidenceTypes = table(
	ResidenceType{value: "OWNED"}, ResidenceType{value: "RENTED"},
	ResidenceType{value: "PARENTAL"}, ResidenceType{value: "COMPANY_PROVIDED"},
)

func NewResidenceType(s string) (ResidenceType, error) {
	return parseEnum(validResidenceTypes, "residence type", normalize(s))
}

func (r ResidenceType) String() string { return r.value }

// ---------------------------------------------------------------------------

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
}

func table[T interface{ String() string }](values ...T) map[string]T {
	m := make(map[string]T, len(values))
	for _, v := range values {
		m[v.String()] = v
	}
	return m
}
