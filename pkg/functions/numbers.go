package functions

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

var half = decimal.NewFromFloat(0.5)

// Round rounds x half-up (toward positive infinity on ties) at the given
// number of decimals. Negative decimals round to tens, hundreds and so on.
func Round(x float64, decimals int) float64 {
	d := decimal.NewFromFloat(finite(x)).Shift(int32(decimals))
	return d.Add(half).Floor().Shift(int32(-decimals)).InexactFloat64()
}

func scaled(x float64, decimals int, op func(decimal.Decimal) decimal.Decimal) float64 {
	d := decimal.NewFromFloat(finite(x)).Shift(int32(decimals))
	return op(d).Shift(int32(-decimals)).InexactFloat64()
}

func awayFromZero(d decimal.Decimal) decimal.Decimal { return d.RoundUp(0) }

func towardZero(d decimal.Decimal) decimal.Decimal { return d.Truncate(0) }

func numberFunctions() []Definition {
	return []Definition{
		fn("SUM", CategoryNumber, 0, Variadic, "SUM(a, b, ...)", "Add values together",
			unary(func(a *Args) any { return sum(a.Numbers()) })),
		fn("ADD", CategoryNumber, 2, 2, "ADD(a, b)", "Add two values",
			unary(func(a *Args) any { return a.Number(0) + a.Number(1) })),
		fn("SUBTRACT", CategoryNumber, 2, 2, "SUBTRACT(a, b)", "Subtract b from a",
			unary(func(a *Args) any { return a.Number(0) - a.Number(1) })),
		fn("MULTIPLY", CategoryNumber, 2, Variadic, "MULTIPLY(a, b)", "Multiply values",
			unary(func(a *Args) any { return product(a.Numbers()) })),
		fn("PRODUCT", CategoryNumber, 1, Variadic, "PRODUCT(a, b, ...)", "Multiply every value",
			unary(func(a *Args) any { return product(a.Numbers()) })),
		fn("DIVIDE", CategoryNumber, 2, 2, "DIVIDE(a, b)", "Divide a by b, 0 when b is 0",
			unary(func(a *Args) any {
				if b := a.Number(1); b != 0 {
					return a.Number(0) / b
				}
				return float64(0)
			})),
		fn("MOD", CategoryNumber, 2, 2, "MOD(a, b)", "Remainder of a divided by b",
			unary(func(a *Args) any {
				if b := a.Number(1); b != 0 {
					return math.Mod(a.Number(0), b)
				}
				return float64(0)
			})),
		fn("POWER", CategoryNumber, 2, 2, "POWER(base, exponent)", "Raise base to exponent",
			unary(func(a *Args) any { return finite(math.Pow(a.Number(0), a.Number(1))) })),
		fn("SQRT", CategoryNumber, 1, 1, "SQRT(field)", "Square root, 0 for negatives",
			unary(func(a *Args) any { return finite(math.Sqrt(a.Number(0))) })),
		fn("LOG", CategoryNumber, 1, 1, "LOG(field)", "Natural logarithm",
			unary(func(a *Args) any { return finite(math.Log(a.Number(0))) })),
		fn("LOG10", CategoryNumber, 1, 1, "LOG10(field)", "Base-10 logarithm",
			unary(func(a *Args) any { return finite(math.Log10(a.Number(0))) })),
		fn("EXP", CategoryNumber, 1, 1, "EXP(field)", "e raised to the value",
			unary(func(a *Args) any { return finite(math.Exp(a.Number(0))) })),
		fn("PI", CategoryNumber, 0, 0, "PI()", "The constant pi",
			unary(func(a *Args) any { return math.Pi })),
		fn("ROUND", CategoryNumber, 1, 2, "ROUND(field, decimals)", "Round half-up to a number of decimals",
			unary(func(a *Args) any { return Round(a.Number(0), a.IntOr(1, 0)) })),
		fn("ROUND_UP", CategoryNumber, 1, 2, "ROUND_UP(field, decimals)", "Round away from zero",
			unary(func(a *Args) any { return scaled(a.Number(0), a.IntOr(1, 0), awayFromZero) })),
		fn("ROUND_DOWN", CategoryNumber, 1, 2, "ROUND_DOWN(field, decimals)", "Round toward zero",
			unary(func(a *Args) any { return scaled(a.Number(0), a.IntOr(1, 0), towardZero) })),
		fn("FLOOR", CategoryNumber, 1, 2, "FLOOR(field)", "Largest integer not greater than the value",
			unary(func(a *Args) any { return scaled(a.Number(0), a.IntOr(1, 0), decimal.Decimal.Floor) })),
		fn("CEIL", CategoryNumber, 1, 2, "CEIL(field)", "Smallest integer not less than the value",
			unary(func(a *Args) any { return scaled(a.Number(0), a.IntOr(1, 0), decimal.Decimal.Ceil) })),
		fn("TRUNC", CategoryNumber, 1, 2, "TRUNC(field)", "Drop the fractional part",
			unary(func(a *Args) any { return scaled(a.Number(0), a.IntOr(1, 0), towardZero) })),
		fn("ABS", CategoryNumber, 1, 1, "ABS(field)", "Absolute value",
			unary(func(a *Args) any { return math.Abs(a.Number(0)) })),
		fn("SIGN", CategoryNumber, 1, 1, "SIGN(field)", "-1, 0 or 1",
			unary(func(a *Args) any { return float64(cmpFloat(a.Number(0), 0)) })),
		fn("CLAMP", CategoryNumber, 3, 3, "CLAMP(field, min, max)", "Constrain a value to a range",
			unary(func(a *Args) any { return math.Min(math.Max(a.Number(0), a.Number(1)), a.Number(2)) })),
		fn("MIN", CategoryNumber, 1, Variadic, "MIN(a, b, ...)", "Smallest value",
			unary(func(a *Args) any { return extreme(a.Numbers(), -1) })),
		fn("MAX", CategoryNumber, 1, Variadic, "MAX(a, b, ...)", "Largest value",
			unary(func(a *Args) any { return extreme(a.Numbers(), 1) })),
		fn("AVERAGE", CategoryNumber, 1, Variadic, "AVERAGE(a, b, ...)", "Arithmetic mean",
			unary(func(a *Args) any { return mean(a.Numbers()) })),
		fn("MEDIAN", CategoryNumber, 1, Variadic, "MEDIAN(a, b, ...)", "Middle value",
			unary(func(a *Args) any { return median(a.Numbers()) })),
		fn("VARIANCE", CategoryNumber, 1, Variadic, "VARIANCE(a, b, ...)", "Population variance",
			unary(func(a *Args) any { return variance(a.Numbers()) })),
		fn("STDEV", CategoryNumber, 1, Variadic, "STDEV(a, b, ...)", "Population standard deviation",
			unary(func(a *Args) any { return math.Sqrt(variance(a.Numbers())) })),
		fn("COUNT", CategoryNumber, 0, Variadic, "COUNT(a, b, ...)", "Number of non-empty values",
			unary(func(a *Args) any {
				n := 0
				for _, v := range a.Flatten() {
					if !IsEmpty(v) {
						n++
					}
				}
				return float64(n)
			})),
		fn("PERCENTAGE", CategoryNumber, 2, 2, "PERCENTAGE(value, total)", "Value as a percentage of total",
			unary(func(a *Args) any {
				if total := a.Number(1); total != 0 {
					return a.Number(0) / total * 100
				}
				return float64(0)
			})),
		fn("GCD", CategoryNumber, 2, Variadic, "GCD(a, b, ...)", "Greatest common divisor",
			unary(func(a *Args) any {
				nums := a.Numbers()
				g := int64(math.Abs(nums[0]))
				for _, n := range nums[1:] {
					g = gcd(g, int64(math.Abs(n)))
				}
				return float64(g)
			})),
		fn("LCM", CategoryNumber, 2, Variadic, "LCM(a, b, ...)", "Least common multiple",
			unary(func(a *Args) any {
				nums := a.Numbers()
				l := int64(math.Abs(nums[0]))
				for _, n := range nums[1:] {
					m := int64(math.Abs(n))
					if l == 0 || m == 0 {
						return float64(0)
					}
					l = l / gcd(l, m) * m
				}
				return float64(l)
			})),
		fn("IS_NUMBER", CategoryNumber, 1, 1, "IS_NUMBER(field)", "Whether the value is numeric",
			unary(func(a *Args) any { return IsNumeric(a.Value(0)) })),
		fn("IS_INTEGER", CategoryNumber, 1, 1, "IS_INTEGER(field)", "Whether the value is a whole number",
			unary(func(a *Args) any {
				v := a.Value(0)
				return IsNumeric(v) && ToNumber(v) == math.Trunc(ToNumber(v))
			})),
		fn("IS_EVEN", CategoryNumber, 1, 1, "IS_EVEN(field)", "Whether the integer part is even",
			unary(func(a *Args) any { return int64(a.Number(0))%2 == 0 })),
		fn("IS_ODD", CategoryNumber, 1, 1, "IS_ODD(field)", "Whether the integer part is odd",
			unary(func(a *Args) any { return int64(a.Number(0))%2 != 0 })),
	}
}

func sum(nums []float64) float64 {
	total := decimal.Zero
	for _, n := range nums {
		total = total.Add(decimal.NewFromFloat(n))
	}
	return total.InexactFloat64()
}

func product(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	total := decimal.NewFromInt(1)
	for _, n := range nums {
		total = total.Mul(decimal.NewFromFloat(n))
	}
	return total.InexactFloat64()
}

func mean(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	return sum(nums) / float64(len(nums))
}

func median(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func variance(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	m := mean(nums)
	var acc float64
	for _, n := range nums {
		acc += (n - m) * (n - m)
	}
	return acc / float64(len(nums))
}

func extreme(nums []float64, dir int) float64 {
	if len(nums) == 0 {
		return 0
	}
	out := nums[0]
	for _, n := range nums[1:] {
		if cmpFloat(n, out) == dir {
			out = n
		}
	}
	return out
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
