// Package idgen issues the human-readable application and offer letter
// numbers. Uniqueness is not guaranteed here; the stores reject duplicates
// and callers draw again.
package idgen

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/bibbank/loan-origination/internal/domain/port"
)

var _ port.NumberGenerator = (*RandomNumbers)(nil)

// RandomNumbers derives digits from random (v4) UUIDs.
type RandomNumbers struct{}

func NewRandomNumbers() *RandomNumbers {
	return &RandomNumbers{}
}

// ApplicationNumber returns "LA" and 6 digits, e.g. LA042917.
func (g *RandomNumbers) ApplicationNumber() string {
	return fmt.Sprintf("LA%06d", draw()%1_000_000)
}

// OfferLetterNumber returns "OL" and 8 digits.
func (g *RandomNumbers) OfferLetterNumber() string {
	return fmt.Sprintf("OL%08d", draw()%100_000_000)
}

func draw() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[8:])
}
