// Package authz implements spec.md §4.7: a single owner plus an
// allow-list of principals permitted to call mutating index operations.
// Reads never go through this package (spec.md: "Reads do not [require
// authorization]").
package authz

import (
	"errors"
	"fmt"

	"github.com/meridian-air/oirindex/index"
)

var (
	ErrUnauthorized  = errors.New("authz: unauthorized")
	ErrStateConflict = errors.New("authz: state conflict")
)

var zeroPrincipal index.Principal

// State holds the owner and allow-list. It is not safe for concurrent
// use without external synchronization — the same single-writer
// discipline spec.md §5 requires of the index applies here. System calls
// it without a lock of its own.
type State struct {
	owner   index.Principal
	allowed map[index.Principal]bool
}

// New constructs authorization state with deployer as the initial owner,
// implicitly allowed, plus any additional seed principals.
func New(deployer index.Principal, seedAllowed ...index.Principal) *State {
	s := &State{
		owner:   deployer,
		allowed: make(map[index.Principal]bool),
	}
	s.allowed[deployer] = true
	for _, p := range seedAllowed {
		s.allowed[p] = true
	}
	return s
}

// Owner returns the current owner.
func (s *State) Owner() index.Principal { return s.owner }

// IsAllowed reports whether p may call mutating index operations.
func (s *State) IsAllowed(p index.Principal) bool { return s.allowed[p] }

// RequireAllowed returns ErrUnauthorized unless p is allowed. Intended
// to gate every mutating index call (Upsert, Delete).
func (s *State) RequireAllowed(p index.Principal) error {
	if !s.IsAllowed(p) {
		return fmt.Errorf("%w: %s is not in the allow-list", ErrUnauthorized, p)
	}
	return nil
}

// requireOwner returns ErrUnauthorized unless caller is the current
// owner.
func (s *State) requireOwner(caller index.Principal) error {
	if caller != s.owner {
		return fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, caller)
	}
	return nil
}

// Allow adds addr to the allow-list. Owner only.
func (s *State) Allow(caller, addr index.Principal) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	s.allowed[addr] = true
	return nil
}

// Disallow removes addr from the allow-list. Owner only; disallowing
// the owner itself is a state conflict (the owner must always remain
// allowed).
func (s *State) Disallow(caller, addr index.Principal) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if addr == s.owner {
		return fmt.Errorf("%w: cannot disallow the owner", ErrStateConflict)
	}
	delete(s.allowed, addr)
	return nil
}

// TransferOwnership moves ownership to newOwner. Owner only; newOwner
// must already be allowed and non-zero.
func (s *State) TransferOwnership(caller, newOwner index.Principal) error {
	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if newOwner == zeroPrincipal {
		return fmt.Errorf("%w: cannot transfer ownership to the zero principal", ErrStateConflict)
	}
	if !s.allowed[newOwner] {
		return fmt.Errorf("%w: new owner must already be allowed", ErrStateConflict)
	}
	s.owner = newOwner
	return nil
}
