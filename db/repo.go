package db

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"gorm.io/gorm"
)

// Repo owns all locker and rental state. Every mutation that has a
// precondition runs as one transaction with guarded updates
// (UPDATE ... WHERE <precondition>), so check-then-act stays atomic under
// concurrent kiosks without dialect-specific locking.
type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

var (
	// ErrInvalidSize: unknown size class, rejected before touching state.
	ErrInvalidSize = errors.New("invalid locker size")
	// ErrNoAvailability: no free locker of the requested size right now.
	ErrNoAvailability = errors.New("no lockers available")
	// ErrAllocationRace: pool exhausted between creation and payment
	// confirmation. Surfaced for refund handling, never retried here.
	ErrAllocationRace = errors.New("locker pool exhausted after payment")
	// ErrUnauthorized: PIN/locker mismatch or expired rental. Deliberately
	// generic so callers cannot probe which part was wrong.
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrNotFound: no rental for the given reference.
	ErrNotFound = errors.New("rental not found")
)

const pinDigits = 6

// generatePIN returns a fixed-width numeric access code.
func generatePIN() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < pinDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate pin: %w", err)
	}
	return fmt.Sprintf("%0*d", pinDigits, n), nil
}
