// Package auth decides whether an account may invoke privileged operations.
package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is the parent of every authorization failure.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotOwner is returned when the actor is not an owner.
	ErrNotOwner = fmt.Errorf("%w: owner privilege required", ErrUnauthorized)
	// ErrNotMainOwner is returned when the actor is not the main owner.
	ErrNotMainOwner = fmt.Errorf("%w: main owner privilege required", ErrUnauthorized)
)

// OwnerLookup is the subset of the store the gate reads.
type OwnerLookup interface {
	IsOwner(ctx context.Context, userID int64) (bool, error)
}

// Gate answers owner and main-owner checks.
type Gate struct {
	owners      OwnerLookup
	mainOwnerID int64
}

// NewGate creates a gate backed by owners with the given main owner.
func NewGate(owners OwnerLookup, mainOwnerID int64) *Gate {
	return &Gate{owners: owners, mainOwnerID: mainOwnerID}
}

// IsMainOwner reports whether userID is the main owner.
func (g *Gate) IsMainOwner(userID int64) bool {
	return userID != 0 && userID == g.mainOwnerID
}

// IsOwner reports whether userID is in the owner set. The main owner always is.
func (g *Gate) IsOwner(ctx context.Context, userID int64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	if g.IsMainOwner(userID) {
		return true, nil
	}
	ok, err := g.owners.IsOwner(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("owner lookup for %d: %w", userID, err)
	}
	return ok, nil
}

// RequireOwner returns ErrNotOwner unless userID is an owner. Lookup errors
// are returned as is and must also stop the caller.
func (g *Gate) RequireOwner(ctx context.Context, userID int64) error {
	ok, err := g.IsOwner(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotOwner
	}
	return nil
}

// RequireMainOwner returns ErrNotMainOwner unless userID is the main owner.
func (g *Gate) RequireMainOwner(_ context.Context, userID int64) error {
	if !g.IsMainOwner(userID) {
		return ErrNotMainOwner
	}
	return nil
}
