package orders

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	referenceLength   = 10
)

// ReferenceGenerator produces customer-facing order references.
type ReferenceGenerator func() (string, error)

// NewReference returns a random 10 character base62 reference. The store's
// unique index stays authoritative for collisions.
func NewReference() (string, error) {
	return gonanoid.Generate(referenceAlphabet, referenceLength)
}
