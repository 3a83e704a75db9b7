package actus

import (
	"fmt"
	"strings"
)

// ContractType is the ACTUS contract type code.
type ContractType string

const (
	PAM   ContractType = "PAM"   // principal at maturity
	LAM   ContractType = "LAM"   // linear amortizer
	NAM   ContractType = "NAM"   // negative amortizer
	ANN   ContractType = "ANN"   // annuity
	CLM   ContractType = "CLM"   // call money
	UMP   ContractType = "UMP"   // undefined maturity profile
	LAX   ContractType = "LAX"   // exotic linear amortizer
	SWPPV ContractType = "SWPPV" // plain vanilla interest rate swap
	STK   ContractType = "STK"   // stock
	OPTNS ContractType = "OPTNS" // option
	FXOUT ContractType = "FXOUT" // foreign exchange outright
	BCS   ContractType = "BCS"   // boundary controlled switch
	CEG   ContractType = "CEG"   // credit enhancement guarantee
)

// ContractRole encodes the perspective of the holder.
type ContractRole string

const (
	RPA ContractRole = "RPA" // real position asset
	RPL ContractRole = "RPL" // real position liability
	RFL ContractRole = "RFL" // receive first leg
	PFL ContractRole = "PFL" // pay first leg
	RF  ContractRole = "RF"  // receive fix
	PF  ContractRole = "PF"  // pay fix
	BUY ContractRole = "BUY"
	SEL ContractRole = "SEL"
	LG  ContractRole = "LG" // long
	ST  ContractRole = "ST" // short
	COL ContractRole = "COL"
	CNO ContractRole = "CNO"
	GUA ContractRole = "GUA"
	OBL ContractRole = "OBL"
	UDL ContractRole = "UDL"
)

var roleSigns = map[ContractRole]float64{
	RPA: 1, RPL: -1,
	RFL: 1, PFL: -1,
	RF: 1, PF: -1,
	BUY: 1, SEL: -1,
	LG: 1, ST: -1,
	COL: 1, CNO: 1,
	GUA: -1, OBL: 1,
	UDL: 1,
}

// Sign returns +1 or -1. Unknown roles return 0.
func (r ContractRole) Sign() float64 {
	return roleSigns[r]
}

// InterestCalculationBase selects the amount interest accrues on.
type InterestCalculationBase string

const (
	BaseNT    InterestCalculationBase = "NT"    // current notional
	BaseNTIED InterestCalculationBase = "NTIED" // notional at initial exchange
	BaseNTL   InterestCalculationBase = "NTL"   // notional lagged, refreshed on IPCB events
)

// FeeBasis decides whether feeRate is an absolute amount or a rate on notional.
type FeeBasis string

const (
	FeeAbsolute FeeBasis = "A"
	FeeNotional FeeBasis = "N"
)

// OptionType of OPTNS contracts.
type OptionType string

const (
	Call   OptionType = "C"
	Put    OptionType = "P"
	Collar OptionType = "CP"
)

// DeliverySettlement chooses between physical delivery and net cash settlement.
type DeliverySettlement string

const (
	Delivery   DeliverySettlement = "D"
	Settlement DeliverySettlement = "S"
)

// GuaranteedExposure of CEG contracts.
type GuaranteedExposure string

const (
	ExposureNotional         GuaranteedExposure = "NO"
	ExposureNotionalInterest GuaranteedExposure = "NI"
)

// ReferenceRole tags an entry of a contract structure.
type ReferenceRole string

const (
	FirstLeg               ReferenceRole = "FIL"
	SecondLeg              ReferenceRole = "SEL"
	Underlying             ReferenceRole = "UDL"
	CoveredContract        ReferenceRole = "CVE"
	ExternalReferenceIndex ReferenceRole = "externalReferenceIndex"
)

// BoundaryEffect describes what a boundary crossing does to the BCS legs.
type BoundaryEffect string

const (
	KnockInFirstLeg  BoundaryEffect = "knockINFirstLeg"
	KnockInSecondLeg BoundaryEffect = "knockINSecondLeg"
	KnockOutCurrent  BoundaryEffect = "knockOUTCurrent"
)

// BoundaryDirection is the side from which the boundary is crossed.
type BoundaryDirection string

const (
	Increasing BoundaryDirection = "INCR"
	Decreasing BoundaryDirection = "DECR"
)

func parseEnum[T ~string](attr, raw string, allowed ...T) (T, error) {
	v := strings.TrimSpace(raw)
	for _, a := range allowed {
		if strings.EqualFold(v, string(a)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%s: unsupported value %q", attr, raw)
}
