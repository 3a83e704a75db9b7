package actus

import (
	"math"
	"strings"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// Payoff and state transition functions shared by several contract types.
// Amounts in the state already carry the role sign; term amounts do not.

func roleSign(env *Env) float64 { return env.Terms.ContractRole.Sign() }

func usesCalculationBase(ct ContractType) bool {
	switch ct {
	case LAM, NAM, ANN, LAX:
		return true
	}
	return false
}

// interestBase is the amount interest accrues on.
func interestBase(s State, env *Env) float64 {
	if usesCalculationBase(env.Terms.ContractType) {
		return s.InterestCalculationBaseAmount
	}
	return s.NotionalPrincipal
}

// feeAccrual returns the fee accrued over dcf. Absolute fees accrue pro rata
// over one fee cycle.
func feeAccrual(dcf float64, s State, env *Env) float64 {
	tm := env.Terms
	if tm.FeeRate == 0 {
		return 0
	}
	if tm.FeeBasis == FeeAbsolute {
		c, err := utils.ParseCycle(tm.CycleOfFee)
		if err != nil {
			return 0
		}
		period := env.YearFraction(s.StatusDate, c.Shift(s.StatusDate, 1))
		if period == 0 {
			return 0
		}
		return roleSign(env) * tm.FeeRate * dcf / period
	}
	return dcf * tm.FeeRate * s.NotionalPrincipal
}

// accrue moves interest and fee accruals forward to t.
func accrue(t time.Time, s State, env *Env) State {
	dcf := env.YearFraction(s.StatusDate, t)
	s.AccruedInterest += dcf * s.NominalInterestRate * interestBase(s, env)
	s.FeeAccrued += feeAccrual(dcf, s, env)
	s.StatusDate = t
	return s
}

func refreshBase(s State, env *Env) State {
	if usesCalculationBase(env.Terms.ContractType) && env.Terms.InterestCalculationBase == BaseNT {
		s.InterestCalculationBaseAmount = s.NotionalPrincipal
	}
	return s
}

// accruedInterestAt is the interest owed at t without changing s.
func accruedInterestAt(t time.Time, s State, env *Env) float64 {
	return s.AccruedInterest + env.YearFraction(s.StatusDate, t)*s.NominalInterestRate*interestBase(s, env)
}

func withFX(t time.Time, s State, env *Env, amount float64) (float64, error) {
	if amount == 0 {
		return 0, nil
	}
	x, err := env.fxRate(t, s)
	if err != nil {
		return 0, err
	}
	return x * amount, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func pofZero(time.Time, State, *Env) (float64, error) { return 0, nil }

func stfNoop(t time.Time, s State, _ *Env) (State, error) {
	s.StatusDate = t
	return s, nil
}

func stfAccrue(t time.Time, s State, env *Env) (State, error) {
	return accrue(t, s, env), nil
}

func pofIED(t time.Time, s State, env *Env) (float64, error) {
	tm := env.Terms
	return withFX(t, s, env, -roleSign(env)*(tm.NotionalPrincipal+tm.PremiumDiscountAtIED))
}

// stfIED books the principal and resets accruals at initial exchange.
func stfIED(t time.Time, s State, env *Env) (State, error) {
	tm := env.Terms
	r := roleSign(env)
	s.NotionalPrincipal = r * tm.NotionalPrincipal
	s.NominalInterestRate = tm.NominalInterestRate
	s.AccruedInterest = 0
	if tm.AccruedInterest != nil {
		s.AccruedInterest = r * *tm.AccruedInterest
	}
	s.InterestCalculationBaseAmount = initialBase(s, tm)
	if tm.NextPrincipalRedemptionPayment != nil {
		s.NextPrincipalRedemptionPayment = r * *tm.NextPrincipalRedemptionPayment
	}
	s.StatusDate = t
	return s, nil
}

func initialBase(s State, tm *Terms) float64 {
	switch tm.InterestCalculationBase {
	case BaseNTIED:
		return tm.ContractRole.Sign() * tm.NotionalPrincipal
	case BaseNTL:
		if tm.InterestCalculationBaseAmount != nil {
			return tm.ContractRole.Sign() * *tm.InterestCalculationBaseAmount
		}
	}
	return s.NotionalPrincipal
}

func pofMD(t time.Time, s State, env *Env) (float64, error) {
	return withFX(t, s, env, s.NotionalScalingMultiplier*s.NotionalPrincipal)
}

func stfMD(t time.Time, s State, _ *Env) (State, error) {
	s.NotionalPrincipal = 0
	s.AccruedInterest = 0
	s.FeeAccrued = 0
	s.InterestCalculationBaseAmount = 0
	s.StatusDate = t
	return s, nil
}

func pofIP(t time.Time, s State, env *Env) (float64, error) {
	return withFX(t, s, env, s.InterestScalingMultiplier*accruedInterestAt(t, s, env))
}

func stfIP(t time.Time, s State, env *Env) (State, error) {
	s = accrue(t, s, env)
	s.AccruedInterest = 0
	return s, nil
}

// pofIPAtPurchase is the accrued interest the buyer pays the seller.
func pofIPAtPurchase(t time.Time, s State, env *Env) (float64, error) {
	return withFX(t, s, env, -s.InterestScalingMultiplier*accruedInterestAt(t, s, env))
}

func stfIPCI(t time.Time, s State, env *Env) (State, error) {
	s = accrue(t, s, env)
	s.NotionalPrincipal += s.AccruedInterest
	s.AccruedInterest = 0
	return refreshBase(s, env), nil
}

func pofFP(t time.Time, s State, env *Env) (float64, error) {
	tm := env.Terms
	if tm.FeeBasis == FeeAbsolute {
		return withFX(t, s, env, roleSign(env)*tm.FeeRate)
	}
	dcf := env.YearFraction(s.StatusDate, t)
	return withFX(t, s, env, s.FeeAccrued+dcf*tm.FeeRate*s.NotionalPrincipal)
}

func stfFP(t time.Time, s State, env *Env) (State, error) {
	s = accrue(t, s, env)
	s.FeeAccrued = 0
	return s, nil
}

func pofPRD(t time.Time, s State, env *Env) (float64, error) {
	tm := env.Terms
	return withFX(t, s, env, -roleSign(env)*tm.PriceAtPurchaseDate*quantity(tm))
}

func pofTD(t time.Time, s State, env *Env) (float64, error) {
	tm := env.Terms
	return withFX(t, s, env, roleSign(env)*tm.PriceAtTerminationDate*quantity(tm))
}

// quantity scales prices of unit-priced contracts. Debt instruments are quoted per contract.
func quantity(tm *Terms) float64 {
	switch tm.ContractType {
	case STK, OPTNS:
		return tm.Quantity
	}
	return 1
}

func stfTD(t time.Time, s State, _ *Env) (State, error) {
	s.NotionalPrincipal = 0
	s.AccruedInterest = 0
	s.AccruedInterest2 = 0
	s.FeeAccrued = 0
	s.InterestCalculationBaseAmount = 0
	s.ExerciseAmount = 0
	s.StatusDate = t
	return s, nil
}

// stfRR resets the rate from the market observation, applying period and life bounds.
func stfRR(t time.Time, s State, env *Env) (State, error) {
	tm := env.Terms
	obs, err := env.Observe(tm.MarketObjectCodeOfRateReset, t, s, true)
	if err != nil {
		return s, err
	}
	s = accrue(t, s, env)
	s.NominalInterestRate = resetRate(s.NominalInterestRate, obs, tm.RateMultiplier, tm.RateSpread, tm)
	return s, nil
}

func resetRate(current, obs, mult, spread float64, tm *Terms) float64 {
	delta := clamp(obs*mult+spread-current, tm.PeriodFloor, tm.PeriodCap)
	return clamp(current+delta, tm.LifeFloor, tm.LifeCap)
}

func stfRRF(t time.Time, s State, env *Env) (State, error) {
	s = accrue(t, s, env)
	if env.Terms.NextResetRate != nil {
		s.NominalInterestRate = *env.Terms.NextResetRate
	}
	return s, nil
}

func stfSC(t time.Time, s State, env *Env) (State, error) {
	tm := env.Terms
	obs, err := env.Observe(tm.MarketObjectCodeOfScalingIndex, t, s, true)
	if err != nil {
		return s, err
	}
	s = accrue(t, s, env)
	m := obs / tm.ScalingIndexAtStatusDate
	if strings.Contains(tm.ScalingEffect, "N") {
		s.NotionalScalingMultiplier = m
	}
	if strings.Contains(tm.ScalingEffect, "I") {
		s.InterestScalingMultiplier = m
	}
	return s, nil
}

func stfIPCB(t time.Time, s State, env *Env) (State, error) {
	s = accrue(t, s, env)
	s.InterestCalculationBaseAmount = s.NotionalPrincipal
	return s, nil
}

func pofPP(t time.Time, s State, env *Env) (float64, error) {
	f, err := env.Observe(env.Terms.ObjectCodeOfPrepaymentModel, t, s, false)
	if err != nil {
		return 0, err
	}
	return withFX(t, s, env, f*s.NotionalPrincipal)
}

func stfPP(t time.Time, s State, env *Env) (State, error) {
	f, err := env.Observe(env.Terms.ObjectCodeOfPrepaymentModel, t, s, false)
	if err != nil {
		return s, err
	}
	s = accrue(t, s, env)
	s.NotionalPrincipal -= f * s.NotionalPrincipal
	return refreshBase(s, env), nil
}

// calloutFunctions builds the event functions of a behavior model callout.
func calloutFunctions(c Callout) FunctionPair {
	switch c.Kind {
	case CalloutAFD:
		return FunctionPair{
			Payoff: func(t time.Time, s State, env *Env) (float64, error) {
				delta, err := env.Observe(c.RiskFactorID, t, s, false)
				if err != nil {
					return 0, err
				}
				return withFX(t, s, env, -delta)
			},
			Transition: func(t time.Time, s State, env *Env) (State, error) {
				delta, err := env.Observe(c.RiskFactorID, t, s, false)
				if err != nil {
					return s, err
				}
				s = accrue(t, s, env)
				s.NotionalPrincipal += delta
				return refreshBase(s, env), nil
			},
		}
	case CalloutSTD:
		return FunctionPair{
			Payoff: func(t time.Time, s State, env *Env) (float64, error) {
				f, err := env.Observe(c.RiskFactorID, t, s, false)
				if err != nil {
					return 0, err
				}
				return withFX(t, s, env, f*s.NotionalPrincipal)
			},
			Transition: func(t time.Time, s State, env *Env) (State, error) {
				f, err := env.Observe(c.RiskFactorID, t, s, false)
				if err != nil {
					return s, err
				}
				s = accrue(t, s, env)
				if f > 0 {
					s.NotionalPrincipal = 0
				}
				return refreshBase(s, env), nil
			},
		}
	default:
		return FunctionPair{
			Payoff: func(t time.Time, s State, env *Env) (float64, error) {
				f, err := env.Observe(c.RiskFactorID, t, s, false)
				if err != nil {
					return 0, err
				}
				return withFX(t, s, env, f*s.NotionalPrincipal)
			},
			Transition: func(t time.Time, s State, env *Env) (State, error) {
				f, err := env.Observe(c.RiskFactorID, t, s, false)
				if err != nil {
					return s, err
				}
				s = accrue(t, s, env)
				s.NotionalPrincipal -= f * s.NotionalPrincipal
				return refreshBase(s, env), nil
			},
		}
	}
}

// baseFunctions is the function table of the principal-at-maturity family.
// Other contract types start from it and override entries.
func baseFunctions() map[EventType]FunctionPair {
	return map[EventType]FunctionPair{
		IED:  {Payoff: pofIED, Transition: stfIED},
		MD:   {Payoff: pofMD, Transition: stfMD},
		IP:   {Payoff: pofIP, Transition: stfIP},
		IPCI: {Payoff: pofZero, Transition: stfIPCI},
		FP:   {Payoff: pofFP, Transition: stfFP},
		PRD:  {Payoff: pofPRD, Transition: stfAccrue},
		TD:   {Payoff: pofTD, Transition: stfTD},
		RR:   {Payoff: pofZero, Transition: stfRR},
		RRF:  {Payoff: pofZero, Transition: stfRRF},
		SC:   {Payoff: pofZero, Transition: stfSC},
		PP:   {Payoff: pofPP, Transition: stfPP},
		AD:   {Payoff: pofZero, Transition: stfAccrue},
	}
}
