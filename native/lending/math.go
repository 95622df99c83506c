package lending

import "math/big"

var bigTen = big.NewInt(10)

func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrMathOverflow
	}
	return a - b, nil
}

func pow10(exp uint) *big.Int {
	return new(big.Int).Exp(bigTen, new(big.Int).SetUint64(uint64(exp)), nil)
}

// scaledValue computes amount * price * rateTerm / 10^scale with the division
// performed last, floor semantics. Reordering the operations would change
// rounding behaviour, so the multiply-then-divide order is load-bearing.
func scaledValue(amount uint64, price *big.Int, rateTerm uint64, scale uint) *big.Int {
	v := new(big.Int).SetUint64(amount)
	if price == nil {
		return new(big.Int)
	}
	v.Mul(v, price)
	v.Mul(v, new(big.Int).SetUint64(rateTerm))
	return v.Quo(v, pow10(scale))
}

// borrowWithinLimit evaluates the collateralization inequality:
//
//	output*liquidityPrice*denominator/10^ls <= input*collateralPrice*numerator/10^cs
//
// where ls/cs are the liquidity/collateral mint decimals plus the respective
// price decimals. Intermediate products are computed at arbitrary precision,
// which covers the widths the fixed-point form requires.
func borrowWithinLimit(
	outputAmount uint64, liquidityPrice *big.Int, rateDenominator uint64, liquidityScale uint,
	inputAmount uint64, collateralPrice *big.Int, rateNumerator uint64, collateralScale uint,
) bool {
	borrowed := scaledValue(outputAmount, liquidityPrice, rateDenominator, liquidityScale)
	collateral := scaledValue(inputAmount, collateralPrice, rateNumerator, collateralScale)
	return borrowed.Cmp(collateral) <= 0
}
