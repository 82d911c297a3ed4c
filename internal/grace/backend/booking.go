// Package backend implements the reference restaurant backend: table
// bookings and cancellations, exposed to the model as commands.
package backend

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned for unknown booking references.
	ErrNotFound = errors.New("booking not found")
	// ErrDuplicate is returned when creating a booking whose reference exists.
	ErrDuplicate = errors.New("booking reference already exists")
)

// Booking is one table reservation.
type Booking struct {
	Reference string    `json:"reference"`
	FullName  string    `json:"full_name"`
	NumPeople int       `json:"num_people"`
	Time      time.Time `json:"time"`
}

// Store persists bookings. Implementations are safe for concurrent use.
type Store interface {
	// Create stores b and returns its reference. An empty b.Reference is
	// replaced with a fresh one.
	Create(ctx context.Context, b Booking) (string, error)
	Get(ctx context.Context, reference string) (Booking, error)
	Delete(ctx context.Context, reference string) error
	// List returns all bookings ordered by reference.
	List(ctx context.Context) ([]Booking, error)
}

const (
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength   = 6

	maxReferenceAttempts = 5
)

// NewReference returns a random booking reference such as "ZBA4HB". A
// reference containing any of the reserved words, compared
// case-insensitively, is drawn again, so that a reference read back to the
// customer can never contain the session's end token.
func NewReference(reserved ...string) string {
	for {
		ref := randomReference()
		if !containsReserved(ref, reserved) {
			return ref
		}
	}
}

func randomReference() string {
	b := make([]byte, referenceLength)
	limit := big.NewInt(int64(len(referenceAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}
		b[i] = referenceAlphabet[n.Int64()]
	}
	return string(b)
}

func containsReserved(ref string, reserved []string) bool {
	for _, w := range reserved {
		if w != "" && strings.Contains(ref, strings.ToUpper(w)) {
			return true
		}
	}
	return false
}

// createWithRetry calls insert with fresh references until one is free.
func createWithRetry(b Booking, insert func(Booking) error) (string, error) {
	if b.Reference != "" {
		return b.Reference, insert(b)
	}
	for range maxReferenceAttempts {
		b.Reference = NewReference()
		err := insert(b)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		return b.Reference, err
	}
	return "", ErrDuplicate
}
