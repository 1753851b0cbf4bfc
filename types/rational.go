package types

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	dectofrac "github.com/av-elier/go-decimal-to-rational"
)

// Rational is an exact fraction, used for frame rates and time bases.
type Rational struct {
	Num int
	Den int
}

func (r Rational) Reverse() Rational {
	return Rational{
		Num: r.Den,
		Den: r.Num,
	}
}

func (r Rational) Mul(other Rational) Rational {
	return Rational{
		Num: r.Num * other.Num,
		Den: r.Den * other.Den,
	}
}

func (r Rational) Div(other Rational) Rational {
	return Rational{
		Num: r.Num * other.Den,
		Den: r.Den * other.Num,
	}
}

func (r Rational) IsPositive() bool {
	return r.Num > 0 && r.Den > 0
}

// Reduce returns the same value with numerator and denominator divided by their GCD.
func (r Rational) Reduce() Rational {
	if r.Den == 0 {
		return r
	}
	gcd := big.NewInt(0).GCD(nil, nil, big.NewInt(int64(abs(r.Num))), big.NewInt(int64(abs(r.Den)))).Int64()
	if gcd == 0 {
		return r
	}
	return Rational{
		Num: r.Num / int(gcd),
		Den: r.Den / int(gcd),
	}
}

// DurationOf returns how long "count" units of 1/r last.
// For a frame rate it is the playback time of "count" frames.
func (r Rational) DurationOf(count uint64) time.Duration {
	if r.Num == 0 {
		return 0
	}
	v := new(big.Int).SetUint64(count)
	v.Mul(v, big.NewInt(int64(r.Den)))
	v.Mul(v, big.NewInt(int64(time.Second)))
	v.Quo(v, big.NewInt(int64(r.Num)))
	return time.Duration(v.Int64())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func newNTSCRationalFromFloat64(f float64) *big.Rat {
	den := 1001 // common denominator for NTSC frame rates
	num := math.Ceil(f) * 1000
	r := big.NewRat(int64(num), int64(den))
	confirmValue, _ := r.Float64()
	if math.Abs(f-confirmValue) < 1e-2 {
		return r
	}
	return nil
}

func RationalFromApproxFloat64(fps float64) (r Rational) {
	if float64(int(fps)) == fps {
		r.Num = int(fps)
		r.Den = 1
		return
	}

	rat := newNTSCRationalFromFloat64(fps)
	if rat != nil {
		r.Num = int(rat.Num().Int64())
		r.Den = int(rat.Denom().Int64())
		return
	}

	return Rational{Num: int(fps * 1000000), Den: 1000000}.Reduce()
}

// RationalFromFloat64 finds the simplest fraction within 1e-6 of fps,
// so 29.97 becomes 2997/100.
func RationalFromFloat64(fps float64) Rational {
	var r Rational
	if float64(int(fps)) == fps {
		r.Num = int(fps)
		r.Den = 1
		return r
	}
	rat := dectofrac.NewRatP(fps, 1e-6)
	r.Num = int(rat.Num().Int64())
	r.Den = int(rat.Denom().Int64())
	return r
}

func RationalFromString(s string) (*Rational, error) {
	var r Rational
	switch {
	case len(s) == 0:
		return nil, fmt.Errorf("unable to parse Rational from empty string")
	case strings.Contains(s, "/"):
		if _, err := fmt.Sscanf(s, "%d/%d", &r.Num, &r.Den); err != nil {
			return nil, fmt.Errorf("unable to parse Rational from %q: %w", s, err)
		}
	case s[0] == '~':
		fps, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse Rational from %q: %w", s, err)
		}
		r = RationalFromApproxFloat64(fps)
	default:
		fps, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse Rational from %q: %w", s, err)
		}
		r = RationalFromFloat64(fps)
	}
	if r.Den == 0 {
		return nil, fmt.Errorf("denominator cannot be zero")
	}
	return &r, nil
}

func (r Rational) Float64() float64 {
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Rational) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("unable to unmarshal Rational from JSON '%s': %w", b, err)
	}
	v, err := RationalFromString(s)
	if err != nil {
		return fmt.Errorf("unable to unmarshal Rational from string %q: %w", s, err)
	}
	*r = *v
	return nil
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Set implements pflag.Value.
func (r *Rational) Set(s string) error {
	v, err := RationalFromString(s)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

// Type implements pflag.Value.
func (r *Rational) Type() string {
	return "rational"
}
