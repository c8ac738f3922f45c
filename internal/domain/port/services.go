package port

import "time"

// Clock is the time source for timestamps, due dates and late fees.
type Clock interface {
	Now() time.Time
}

// NumberGenerator issues human-readable identifiers. Collisions are possible
// and are resolved by the repositories' unique constraints.
type NumberGenerator interface {
	// ApplicationNumber returns "LA" followed by 6 digits.
	ApplicationNumber() string
	// OfferLetterNumber returns "OL" followed by 8 digits.
	OfferLetterNumber() string
}
