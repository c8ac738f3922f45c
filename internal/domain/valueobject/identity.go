package valueobject

import (
	"regexp"
	"strings"
)

var (
	panRe     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	aadhaarRe = regexp.MustCompile(`^[0-9]{12}$`)
	phoneRe   = regexp.MustCompile(`^[0-9]{10}$`)
	pincodeRe = regexp.MustCompile(`^[0-9]{6}$`)
)

// PAN is an Indian permanent account number, e.g. ABCDE1234F.
type PAN struct {
	value string
}

// NewPAN upper-cases and validates s.
func NewPAN(s string) (PAN, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !panRe.MatchString(v) {
		return PAN{}, InvalidInput("invalid PAN format: %q", s)
	}
	return PAN{value: v}, nil
}

func (p PAN) String() string       { return p.value }
func (p PAN) IsZero() bool         { return p.value == "" }
func (p PAN) Equal(other PAN) bool { return p.value == other.value }

// Masked shows only the last four characters, for logs.
func (p PAN) Masked() string {
	if len(p.value) < 4 {
		return p.value
	}
	return strings.Repeat("X", len(p.value)-4) + p.value[len(p.value)-4:]
}

// Aadhaar is the 12-digit national identity number.
type Aadhaar struct {
	value string
}

// NewAadhaar strips spaces and validates the 12 digits.
func NewAadhaar(s string) (Aadhaar, error) {
	v := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if !aadhaarRe.MatchString(v) {
		return Aadhaar{}, InvalidInput("invalid Aadhaar number: must be 12 digits")
	}
	return Aadhaar{value: v}, nil
}

func (a Aadhaar) String() string { return a.value }
func (a Aadhaar) IsZero() bool   { return a.value == "" }

// Masked keeps the last four digits.
func (a Aadhaar) Masked() string {
	if len(a.value) < 4 {
		return a.value
	}
	return "XXXXXXXX" + a.value[len(a.value)-4:]
}

// ValidatePhone checks a 10-digit mobile number.
func ValidatePhone(s string) error {
	if !phoneRe.MatchString(s) {
		return InvalidInput("invalid phone number: must be 10 digits")
	}
	return nil
}

// ValidatePincode checks a 6-digit postal code.
func ValidatePincode(s string) error {
	if !pincodeRe.MatchString(s) {
		return InvalidInput("invalid pincode: must be 6 digits")
	}
	return nil
}
