package authz

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"betpool/internal/domain"
)

func TestGate(t *testing.T) {
	authority := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	admin := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	stranger := common.HexToAddress("0x00000000000000000000000000000000000000c3")

	g := NewGate(authority)

	if !g.IsAuthorizedOperator(authority) || !g.IsTopLevelAuthority(authority) {
		t.Fatal("authority must hold both capabilities")
	}
	if g.IsAuthorizedOperator(stranger) {
		t.Error("stranger must not be an operator")
	}

	if err := g.AddAdmin(admin); err != nil {
		t.Fatalf("AddAdmin: %v", err)
	}
	if !g.IsAuthorizedOperator(admin) {
		t.Error("granted admin must be an operator")
	}
	if g.IsTopLevelAuthority(admin) {
		t.Error("admin must not be the authority")
	}

	for _, bad := range []common.Address{{}, authority, admin} {
		if err := g.AddAdmin(bad); !errors.Is(err, domain.ErrInvalidArguments) {
			t.Errorf("AddAdmin(%s) = %v, want ErrInvalidArguments", bad.Hex(), err)
		}
	}

	if err := g.RemoveAdmin(stranger); !errors.Is(err, domain.ErrInvalidArguments) {
		t.Errorf("RemoveAdmin(stranger) = %v, want ErrInvalidArguments", err)
	}
	if err := g.RemoveAdmin(admin); err != nil {
		t.Fatalf("RemoveAdmin: %v", err)
	}
	if g.IsAuthorizedOperator(admin) {
		t.Error("revoked admin must lose operator capability")
	}
}
