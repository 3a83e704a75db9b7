// Package scenario builds risk factor registries from scenario documents.
//
// A document lists market time series and behavior models:
//
//	schemaVersion: "1.0"
//	id: base
//	degeneratePolicy: zero
//	markets:
//	  - id: USD.SOFR
//	    interpolation: step
//	    points:
//	      - {time: "2024-01-01", value: 0.053}
//	behaviors:
//	  - id: ppm
//	    type: prepayment
//	    fraction: 0.02
package scenario

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/riskfactor"
	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

// SupportedSchema is the range of document versions this package reads.
const SupportedSchema = "^1.0"

// Behavior model types.
const (
	TypeCollateralLTV   = "collateralLTV"
	TypeDepositSurface  = "depositSurface"
	TypePrepayment      = "prepayment"
	TypeEarlySettlement = "earlySettlement"
)

// Document is a scenario as stored in YAML or JSON.
type Document struct {
	SchemaVersion    string     `yaml:"schemaVersion" json:"schemaVersion" validate:"required"`
	ID               string     `yaml:"id" json:"id" validate:"required"`
	DegeneratePolicy string     `yaml:"degeneratePolicy,omitempty" json:"degeneratePolicy,omitempty" validate:"omitempty,oneof=zero error"`
	Markets          []Market   `yaml:"markets,omitempty" json:"markets,omitempty" validate:"dive"`
	Behaviors        []Behavior `yaml:"behaviors,omitempty" json:"behaviors,omitempty" validate:"dive"`
}

// Market is a reference index: a constant or a series of observations.
type Market struct {
	ID            string   `yaml:"id" json:"id" validate:"required"`
	Constant      *float64 `yaml:"constant,omitempty" json:"constant,omitempty"`
	Interpolation string   `yaml:"interpolation,omitempty" json:"interpolation,omitempty" validate:"omitempty,oneof=step linear"`
	Points        []Point  `yaml:"points,omitempty" json:"points,omitempty" validate:"required_without=Constant,dive"`
}

// Point is one dated observation.
type Point struct {
	Time  string  `yaml:"time" json:"time" validate:"required"`
	Value float64 `yaml:"value" json:"value"`
}

// Deposit is one cell of a deposit surface.
type Deposit struct {
	ContractID string  `yaml:"contractID" json:"contractID" validate:"required"`
	Time       string  `yaml:"time" json:"time" validate:"required"`
	Amount     float64 `yaml:"amount" json:"amount"`
}

// Behavior configures one behavior model. Which fields apply depends on Type.
type Behavior struct {
	ID   string `yaml:"id" json:"id" validate:"required"`
	Type string `yaml:"type" json:"type" validate:"required,oneof=collateralLTV depositSurface prepayment earlySettlement"`

	PriceID         string   `yaml:"priceID,omitempty" json:"priceID,omitempty" validate:"required_if=Type collateralLTV"`
	Quantity        float64  `yaml:"quantity,omitempty" json:"quantity,omitempty" validate:"gte=0"`
	Threshold       float64  `yaml:"threshold,omitempty" json:"threshold,omitempty" validate:"gte=0"`
	Target          float64  `yaml:"target,omitempty" json:"target,omitempty" validate:"gte=0"`
	Liquidation     float64  `yaml:"liquidation,omitempty" json:"liquidation,omitempty" validate:"gte=0"`
	MonitoringTimes []string `yaml:"monitoringTimes,omitempty" json:"monitoringTimes,omitempty"`

	Deposits []Deposit `yaml:"deposits,omitempty" json:"deposits,omitempty" validate:"dive"`

	Fraction   float64  `yaml:"fraction,omitempty" json:"fraction,omitempty"`
	Surface    []Point  `yaml:"surface,omitempty" json:"surface,omitempty" validate:"dive"`
	EventTimes []string `yaml:"eventTimes,omitempty" json:"eventTimes,omitempty"`

	InvoiceDate      string         `yaml:"invoiceDate,omitempty" json:"invoiceDate,omitempty" validate:"required_if=Type earlySettlement"`
	DueDate          string         `yaml:"dueDate,omitempty" json:"dueDate,omitempty" validate:"required_if=Type earlySettlement"`
	DiscountCurve    string         `yaml:"discountCurve,omitempty" json:"discountCurve,omitempty"`
	MaxDiscount      float64        `yaml:"maxDiscountRate,omitempty" json:"maxDiscountRate,omitempty" validate:"gte=0,lt=1"`
	Lambda           float64        `yaml:"decayLambda,omitempty" json:"decayLambda,omitempty" validate:"gte=0"`
	Alpha            float64        `yaml:"powerAlpha,omitempty" json:"powerAlpha,omitempty" validate:"gte=0"`
	DiscountSteps    []DiscountStep `yaml:"discountSteps,omitempty" json:"discountSteps,omitempty" validate:"dive"`
	CustomDiscountID string         `yaml:"customDiscountID,omitempty" json:"customDiscountID,omitempty"`
	HurdleRate       float64        `yaml:"hurdleRate,omitempty" json:"hurdleRate,omitempty" validate:"gte=0"`
	BuyerCashID      string         `yaml:"buyerCashID,omitempty" json:"buyerCashID,omitempty"`
}

// DiscountStep is one step of a STEPWISE discount curve.
type DiscountStep struct {
	Days int     `yaml:"days" json:"days" validate:"gte=0"`
	Rate float64 `yaml:"rate" json:"rate" validate:"gte=0,lt=1"`
}

var validate = validator.New()

// Parse decodes a YAML or JSON document and validates it.
func Parse(b []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("scenario: decode: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	doc, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Validate checks the schema version, required fields and every date.
func (d *Document) Validate() error {
	var errs []error
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("scenario: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Errorf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}
	if d.SchemaVersion != "" {
		if err := checkSchema(d.SchemaVersion); err != nil {
			errs = append(errs, err)
		}
	}
	seen := make(map[string]bool, len(d.Markets)+len(d.Behaviors))
	for _, id := range d.ids() {
		if seen[id] {
			errs = append(errs, fmt.Errorf("duplicate id %q", id))
		}
		seen[id] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("scenario %s: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

func checkSchema(v string) error {
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("schemaVersion %q: %w", v, err)
	}
	c, err := semver.NewConstraint(SupportedSchema)
	if err != nil {
		return err
	}
	if !c.Check(version) {
		return fmt.Errorf("schemaVersion %s does not satisfy %s", v, SupportedSchema)
	}
	return nil
}

func (d *Document) ids() []string {
	ids := make([]string, 0, len(d.Markets)+len(d.Behaviors))
	for _, m := range d.Markets {
		ids = append(ids, m.ID)
	}
	for _, b := range d.Behaviors {
		ids = append(ids, b.ID)
	}
	return ids
}

// SetMarkets adds markets, replacing those with the same id.
func (d *Document) SetMarkets(markets ...Market) {
	for _, m := range markets {
		replaced := false
		for i := range d.Markets {
			if d.Markets[i].ID == m.ID {
				d.Markets[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			d.Markets = append(d.Markets, m)
		}
	}
}

// Registry builds a fresh registry. Options apply after the document's own
// degenerate policy and so override it.
func (d *Document) Registry(opts ...riskfactor.Option) (*riskfactor.Registry, error) {
	policy, err := riskfactor.ParsePolicy(d.DegeneratePolicy)
	if err != nil {
		return nil, err
	}
	r := riskfactor.New(append([]riskfactor.Option{riskfactor.WithPolicy(policy)}, opts...)...)

	for _, m := range d.Markets {
		model, err := m.model()
		if err != nil {
			return nil, fmt.Errorf("scenario %s: market %s: %w", d.ID, m.ID, err)
		}
		r.AddMarket(m.ID, model)
	}
	for _, b := range d.Behaviors {
		model, err := b.model()
		if err != nil {
			return nil, fmt.Errorf("scenario %s: behavior %s: %w", d.ID, b.ID, err)
		}
		r.AddBehavior(b.ID, model)
	}
	return r, nil
}

// Factory builds the registry once and returns a constructor giving every
// caller its own clone of it.
func (d *Document) Factory(opts ...riskfactor.Option) func() (*riskfactor.Registry, error) {
	base, err := d.Registry(opts...)
	return func() (*riskfactor.Registry, error) {
		if err != nil {
			return nil, err
		}
		return base.Clone(), nil
	}
}

func (m Market) model() (riskfactor.MarketModel, error) {
	if m.Constant != nil && len(m.Points) == 0 {
		return riskfactor.Constant(*m.Constant), nil
	}
	mode, err := riskfactor.ParseInterpolation(m.Interpolation)
	if err != nil {
		return nil, err
	}
	return series(mode, m.Points)
}

func (b Behavior) model() (riskfactor.BehaviorModel, error) {
	switch b.Type {
	case TypeCollateralLTV:
		times, err := dates(b.MonitoringTimes)
		if err != nil {
			return nil, err
		}
		return &riskfactor.CollateralLTV{
			PriceID:         b.PriceID,
			Quantity:        b.Quantity,
			Threshold:       b.Threshold,
			Target:          b.Target,
			Liquidation:     b.Liquidation,
			MonitoringTimes: times,
		}, nil
	case TypeDepositSurface:
		s := riskfactor.NewDepositSurface()
		for _, dep := range b.Deposits {
			t, err := utils.ParseDate(dep.Time)
			if err != nil {
				return nil, fmt.Errorf("deposit %s: %w", dep.ContractID, err)
			}
			s.Set(dep.ContractID, t, dep.Amount)
		}
		return s, nil
	case TypePrepayment:
		times, err := dates(b.EventTimes)
		if err != nil {
			return nil, err
		}
		m := &riskfactor.Prepayment{Fraction: b.Fraction, EventTimes: times}
		if len(b.Surface) > 0 {
			if m.Surface, err = series(riskfactor.Step, b.Surface); err != nil {
				return nil, err
			}
		}
		return m, nil
	case TypeEarlySettlement:
		return b.earlySettlement()
	default:
		return nil, fmt.Errorf("unknown behavior type %q", b.Type)
	}
}

func (b Behavior) earlySettlement() (*riskfactor.EarlySettlement, error) {
	curve, err := riskfactor.ParseDiscountCurve(b.DiscountCurve)
	if err != nil {
		return nil, err
	}
	invoice, err := utils.ParseDate(b.InvoiceDate)
	if err != nil {
		return nil, fmt.Errorf("invoiceDate: %w", err)
	}
	due, err := utils.ParseDate(b.DueDate)
	if err != nil {
		return nil, fmt.Errorf("dueDate: %w", err)
	}
	times, err := dates(b.MonitoringTimes)
	if err != nil {
		return nil, err
	}
	m := &riskfactor.EarlySettlement{
		InvoiceDate:     invoice,
		DueDate:         due,
		Curve:           curve,
		MaxDiscount:     cmp.Or(b.MaxDiscount, 0.02),
		Lambda:          cmp.Or(b.Lambda, 3.0),
		Alpha:           cmp.Or(b.Alpha, 1.0),
		CustomID:        b.CustomDiscountID,
		HurdleRate:      b.HurdleRate,
		BuyerCashID:     b.BuyerCashID,
		MonitoringTimes: times,
	}
	for _, st := range b.DiscountSteps {
		m.Steps = append(m.Steps, riskfactor.DiscountStep{Days: st.Days, Rate: st.Rate})
	}
	slices.SortFunc(m.Steps, func(a, b riskfactor.DiscountStep) int { return a.Days - b.Days })
	return m, nil
}

func series(mode riskfactor.Interpolation, points []Point) (*riskfactor.TimeSeries, error) {
	ts := riskfactor.NewTimeSeries(mode)
	for _, p := range points {
		t, err := utils.ParseDate(p.Time)
		if err != nil {
			return nil, err
		}
		ts.Add(t, p.Value)
	}
	return ts, nil
}

func dates(ss []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(ss))
	for _, s := range ss {
		if strings.TrimSpace(s) == "" {
			continue
		}
		t, err := utils.ParseDate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
