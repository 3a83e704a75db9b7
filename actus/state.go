package actus

import "time"

// State is the financial condition of a contract as of StatusDate.
//
// State is a value type: transitions receive a copy and return a new
// snapshot, so every applied Event keeps its own immutable state.
// Monetary amounts carry the contract role sign.
type State struct {
	StatusDate   time.Time
	MaturityDate time.Time
	ExerciseDate time.Time
	Performance  string

	NotionalPrincipal              float64
	NotionalPrincipal2             float64
	NominalInterestRate            float64
	NominalInterestRate2           float64
	AccruedInterest                float64
	AccruedInterest2               float64
	FeeAccrued                     float64
	InterestCalculationBaseAmount  float64
	NextPrincipalRedemptionPayment float64
	ExerciseAmount                 float64
	NotionalScalingMultiplier      float64
	InterestScalingMultiplier      float64

	BoundaryMonitoringFlag bool
	BoundaryCrossedFlag    bool
	BoundaryLeg1ActiveFlag bool
	BoundaryLeg2ActiveFlag bool
}
