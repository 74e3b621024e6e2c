package bot

import (
	"errors"
	"testing"
	"time"

	"github.com/andreolf/clawloan/pkg/fixed"
)

func TestPermission_Check(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	active := &Permission{MaxSpend: fixed.New(1), Expiry: now.Add(time.Hour), Status: PermissionActive}

	cases := []struct {
		name string
		p    *Permission
		want error
	}{
		{"active", active, nil},
		{"missing", nil, ErrNoActivePermission},
		{"revoked", &Permission{Expiry: now.Add(time.Hour), Status: PermissionRevoked}, ErrNoActivePermission},
		{"expired", &Permission{Expiry: now.Add(-time.Second), Status: PermissionActive}, ErrPermissionExpired},
		{"expires now", &Permission{Expiry: now, Status: PermissionActive}, ErrPermissionExpired},
	}
	for _, tc := range cases {
		if err := tc.p.Check(now); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}
