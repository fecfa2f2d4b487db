// Package authz implements the capability gate as an address set: one fixed
// top-level authority and a mutable set of operator admins.
package authz

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"betpool/internal/domain"
)

// Gate implements domain.CapabilityGate and domain.AdminManager. The
// authority is fixed at construction and is always an operator; admins are
// granted and revoked at runtime.
type Gate struct {
	mu        sync.RWMutex
	authority common.Address
	admins    map[common.Address]bool
}

// NewGate creates a Gate owned by the given top-level authority.
func NewGate(authority common.Address) *Gate {
	return &Gate{
		authority: authority,
		admins:    make(map[common.Address]bool),
	}
}

// IsAuthorizedOperator reports whether caller is the authority or a granted
// admin.
func (g *Gate) IsAuthorizedOperator(caller common.Address) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return caller == g.authority || g.admins[caller]
}

// IsTopLevelAuthority reports whether caller is the fixed authority.
func (g *Gate) IsTopLevelAuthority(caller common.Address) bool {
	return caller == g.authority
}

// AddAdmin grants operator capability. Granting an existing admin or the
// authority itself is rejected as invalid.
func (g *Gate) AddAdmin(admin common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if admin == (common.Address{}) || admin == g.authority || g.admins[admin] {
		return domain.ErrInvalidArguments
	}
	g.admins[admin] = true
	return nil
}

// RemoveAdmin revokes operator capability from a granted admin.
func (g *Gate) RemoveAdmin(admin common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.admins[admin] {
		return domain.ErrInvalidArguments
	}
	delete(g.admins, admin)
	return nil
}

// Compile-time interface checks.
var (
	_ domain.CapabilityGate = (*Gate)(nil)
	_ domain.AdminManager   = (*Gate)(nil)
)
