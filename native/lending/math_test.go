package lending

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestCheckedArithmetic(t *testing.T) {
	if _, err := checkedAdd(math.MaxUint64, 1); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected ErrMathOverflow on add, got %v", err)
	}
	if sum, err := checkedAdd(math.MaxUint64-1, 1); err != nil || sum != math.MaxUint64 {
		t.Fatalf("unexpected add result %d, %v", sum, err)
	}
	if _, err := checkedSub(1, 2); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected ErrMathOverflow on sub, got %v", err)
	}
	if diff, err := checkedSub(2, 2); err != nil || diff != 0 {
		t.Fatalf("unexpected sub result %d, %v", diff, err)
	}
}

func TestScaledValueDividesLast(t *testing.T) {
	// 3*1*1/10 floors to 0 only if the division happens after the product.
	// Dividing the price by the scale first would zero the whole term for
	// any price below the scale.
	if got := scaledValue(3, big.NewInt(7), 1, 1); got.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected floor(21/10) = 2, got %s", got)
	}
	if got := scaledValue(3, big.NewInt(1), 1, 1); got.Sign() != 0 {
		t.Fatalf("expected floor(3/10) = 0, got %s", got)
	}
	if got := scaledValue(5, nil, 9, 0); got.Sign() != 0 {
		t.Fatalf("expected zero for nil price, got %s", got)
	}
}

func TestBorrowWithinLimit(t *testing.T) {
	cases := []struct {
		name            string
		output          uint64
		liquidityPrice  int64
		denominator     uint64
		liquidityScale  uint
		input           uint64
		collateralPrice int64
		numerator       uint64
		collateralScale uint
		want            bool
	}{
		{"zero debt always passes", 0, 100, 2, 0, 0, 50, 1, 0, true},
		{"under the ceiling", 2, 100, 2, 0, 10, 50, 1, 0, true},
		{"exactly at the ceiling", 2, 100, 2, 0, 8, 50, 1, 0, true},
		{"over the ceiling", 3, 100, 2, 0, 10, 50, 1, 0, false},
		{"liquidity scale shrinks debt", 2, 100, 2, 2, 10, 50, 1, 0, true},
		{"collateral scale shrinks cover", 2, 100, 2, 0, 10, 50, 1, 2, false},
		{"flooring favors the borrower", 1, 19, 1, 1, 1, 19, 1, 1, true},
	}
	for _, tc := range cases {
		got := borrowWithinLimit(
			tc.output, big.NewInt(tc.liquidityPrice), tc.denominator, tc.liquidityScale,
			tc.input, big.NewInt(tc.collateralPrice), tc.numerator, tc.collateralScale,
		)
		if got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBorrowWithinLimitLargeOperands(t *testing.T) {
	price := new(big.Int).Lsh(big.NewInt(1), 100)
	if !borrowWithinLimit(math.MaxUint64, price, math.MaxUint64, 0, math.MaxUint64, price, math.MaxUint64, 0) {
		t.Fatalf("equal large sides should satisfy the ceiling")
	}
}
