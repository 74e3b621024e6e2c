package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/andreolf/clawloan/internal/domain/bot"
	"github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/loan"
	"github.com/andreolf/clawloan/internal/domain/pool"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{pool.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
		{bot.ErrNotFound, http.StatusNotFound, "bot_not_found"},
		{bot.ErrPermissionExpired, http.StatusForbidden, "permission_expired"},
		{fmt.Errorf("%w: 0123", loan.ErrDuplicateActive), http.StatusConflict, "duplicate_active_loan"},
		{fmt.Errorf("%w: 20 > 10", credit.ErrLimitExceeded), http.StatusUnprocessableEntity, "limit_exceeded"},
		{pool.ErrInsufficientLiquidity, http.StatusUnprocessableEntity, "insufficient_liquidity"},
		{loan.ErrInsufficientRepayment, http.StatusUnprocessableEntity, "insufficient_repayment"},
		{pool.ErrUninitialized, http.StatusServiceUnavailable, "pool_uninitialized"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		status, code := statusFor(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("statusFor(%v) = %d %s, want %d %s", tc.err, status, code, tc.status, tc.code)
		}
	}
}

func TestErrorKindsAreDistinct(t *testing.T) {
	seen := map[error]bool{}
	for _, k := range errorKinds {
		if seen[k.err] {
			t.Fatalf("duplicate mapping for %v", k.err)
		}
		seen[k.err] = true
	}
}
