package worthy

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// This file is the financial-independence model. Everything is derived
// analytically from the continuous-compounding equation
//
//	value(t) = value(0)·e^(i'·t)   with i' = ln(1 + yearlyYield)
//
// by closed-form inversion, not by iterative month-by-month simulation: the
// model is a smooth exponential, so simulation would only accumulate drift
// and be slower. Transcendental math happens in float64; exact decimals
// stop at this boundary.

// daysPerYear is the average Gregorian year, an explicit approximation
// used to turn model years into calendar durations.
const daysPerYear = 365.24

// FiState tags a projection outcome.
type FiState int

const (
	// Reached: current assets already sustain the target spend until the
	// horizon.
	Reached FiState = iota
	// NotReached: more saving is needed; see Durability and TimeToGoal.
	NotReached
)

// FiInfo is the outcome of a financial-independence projection.
type FiInfo struct {
	State FiState

	// Target is the present value required to sustain the target spend
	// until the horizon.
	Target decimal.Decimal

	// Overreach is total/Target as a percentage; only meaningful when
	// State is Reached.
	Overreach Percent

	// Durability is how long the current total lasts under the target
	// spend; TimeToGoal how long until Target is accumulated under the
	// current savings rate. Only meaningful when State is NotReached.
	Durability time.Duration
	TimeToGoal time.Duration

	// GoalUnreachable marks a NotReached projection that never converges
	// (no yield and no savings).
	GoalUnreachable bool
}

// ExhaustionDate is the calendar date at which the reserve runs out,
// relative to the moment of evaluation.
func (fi FiInfo) ExhaustionDate(now time.Time) time.Time { return now.Add(fi.Durability) }

// ReachDate is the calendar date at which the target reserve is reached,
// relative to the moment of evaluation.
func (fi FiInfo) ReachDate(now time.Time) time.Time { return now.Add(fi.TimeToGoal) }

func (fi FiInfo) String() string {
	if fi.State == Reached {
		return fmt.Sprintf("reached (%s of target)", fi.Overreach)
	}
	if fi.GoalUnreachable {
		return fmt.Sprintf("not reached, need %s, goal unreachable", fi.Target)
	}
	return fmt.Sprintf("not reached, need %s, goal in %.1f years", fi.Target, fi.TimeToGoal.Hours()/24/daysPerYear)
}

// Forever marks a Durability of a reserve that never exhausts because the
// yield alone out-earns the spend.
const Forever time.Duration = math.MaxInt64

func yearsToDuration(years float64) time.Duration {
	if math.IsInf(years, 1) {
		return Forever
	}
	return time.Duration(years * daysPerYear * 24 * float64(time.Hour))
}

// DeadlineTarget is the present value required so that, compounding
// continuously at ln(1+yearlyYield) and withdrawing monthlyGoal·12 per
// year, the balance is exactly exhausted at the horizon:
//
//	target = (monthlyGoal·12 / i') · (1 − (1+yearlyYield)^−horizon)
//
// A zero yield degenerates the formula (i' = 0); it falls back to plain
// linear arithmetic: spend times years.
func DeadlineTarget(yearlyYield, monthlyGoal, horizonYears decimal.Decimal) decimal.Decimal {
	yearlySpend := monthlyGoal.InexactFloat64() * 12
	yield := yearlyYield.InexactFloat64()
	horizon := horizonYears.InexactFloat64()

	if yield == 0 {
		return decimal.NewFromFloat(yearlySpend * horizon)
	}
	iPrime := math.Log(1 + yield)
	return decimal.NewFromFloat(yearlySpend / iPrime * (1 - math.Pow(1+yield, -horizon)))
}

// Project solves the financial-independence model for one (total, yield,
// goal, saving, horizon) tuple. yearlyYield of 0.03 means an assumed
// yearly yield of 3%; monthly amounts are in the base denomination.
func Project(total, yearlyYield, monthlyGoal, monthlySaving, horizonYears decimal.Decimal) FiInfo {
	target := DeadlineTarget(yearlyYield, monthlyGoal, horizonYears)

	if total.GreaterThanOrEqual(target) {
		overreach := Percent(100)
		if target.IsPositive() {
			overreach = Percent(total.Div(target).InexactFloat64() * 100)
		}
		return FiInfo{State: Reached, Target: target, Overreach: overreach}
	}

	fi := FiInfo{State: NotReached, Target: target}
	fi.Durability = yearsToDuration(exhaustionYears(total.InexactFloat64(), yearlyYield.InexactFloat64(), monthlyGoal.InexactFloat64()*12))

	years, unreachable := accumulationYears(total.InexactFloat64(), yearlyYield.InexactFloat64(), monthlySaving.InexactFloat64()*12, target.InexactFloat64())
	if unreachable {
		fi.GoalUnreachable = true
		return fi
	}
	fi.TimeToGoal = yearsToDuration(years)
	return fi
}

// exhaustionYears inverts the exhaustion equation for time: how long a
// reserve lasts under continuous withdrawal of yearlySpend per year.
//
//	total = (spend/i')·(1 − e^(−i'·t))  ⇒  t = −ln(1 − total·i'/spend) / i'
func exhaustionYears(total, yearlyYield, yearlySpend float64) float64 {
	if yearlySpend <= 0 {
		return math.Inf(1)
	}
	if yearlyYield == 0 {
		return total / yearlySpend
	}
	iPrime := math.Log(1 + yearlyYield)
	arg := 1 - total*iPrime/yearlySpend
	if arg <= 0 {
		// the yield alone out-earns the spend; the reserve never exhausts
		return math.Inf(1)
	}
	return -math.Log(arg) / iPrime
}

// accumulationYears inverts the accumulation equation for time: starting
// from total, compounding at the yield and contributing yearlySaving per
// year, when does the balance hit target.
//
//	total·e^(i'·t) + (saving/i')·(e^(i'·t) − 1) = target
//	  ⇒  t = ln((target·i' + saving)/(total·i' + saving)) / i'
func accumulationYears(total, yearlyYield, yearlySaving, target float64) (years float64, unreachable bool) {
	if yearlyYield == 0 {
		if yearlySaving <= 0 {
			return 0, true
		}
		return (target - total) / yearlySaving, false
	}
	iPrime := math.Log(1 + yearlyYield)
	den := total*iPrime + yearlySaving
	if den <= 0 {
		return 0, true
	}
	return math.Log((target*iPrime+yearlySaving)/den) / iPrime, false
}

// Perpetual is the monthly amount the total sustains forever at the given
// yield, expressed in the goal denomination: the monthly yield converted
// through the factor table.
func Perpetual(total Asset, yearlyYield decimal.Decimal, factors map[Denomination]decimal.Decimal, goal Denomination) (Asset, error) {
	factor, ok := factors[goal]
	if !ok {
		return Asset{}, fmt.Errorf("no conversion factor for %s", goal)
	}
	amount := total.Amount.Mul(yearlyYield).Div(newDecimal(12)).Div(factor)
	return Asset{Amount: amount, Denomination: goal}, nil
}
