// Package synthetic generates reproducible loan portfolios for demos,
// benchmarks and smoke tests.
package synthetic

import (
	"fmt"
	"math/rand/v2"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
)

const (
	// DefaultSeed matches the seed of the reference demonstration book
	DefaultSeed uint64 = 42
	// DefaultLoans is the size of the reference demonstration book
	DefaultLoans = 1000
)

// Ratings are drawn uniformly from this scale
var Ratings = []string{"AAA", "AA", "A", "BBB", "BB", "B", "CCC"}

// weighted is a discrete distribution over values of T
type weighted[T any] struct {
	values  []T
	weights []float64
}

func (w weighted[T]) draw(r *rand.Rand) T {
	u := r.Float64()
	for i, p := range w.weights {
		if u < p {
			return w.values[i]
		}
		u -= p
	}
	return w.values[len(w.values)-1]
}

var (
	collaterals = weighted[string]{
		values:  []string{"Secured", "Unsecured"},
		weights: []float64{0.4, 0.6},
	}
	delinquency = weighted[int]{
		values:  []int{0, 15, 30, 60, 90},
		weights: []float64{0.7, 0.1, 0.1, 0.05, 0.05},
	}
)

// Options configures a generated portfolio
type Options struct {
	Loans       int
	Seed        uint64
	MinExposure float64
	MaxExposure float64
}

// DefaultOptions returns the reference book: 1000 loans with exposures
// between 100k and 5M
func DefaultOptions() Options {
	return Options{
		Loans:       DefaultLoans,
		Seed:        DefaultSeed,
		MinExposure: 100_000,
		MaxExposure: 5_000_000,
	}
}

// Validate checks the options
func (o Options) Validate() error {
	if o.Loans < 0 {
		return fmt.Errorf("loan count must be non-negative, got %d", o.Loans)
	}
	if o.MinExposure < 0 || o.MaxExposure < o.MinExposure {
		return fmt.Errorf("invalid exposure range [%g, %g)", o.MinExposure, o.MaxExposure)
	}
	return nil
}

// Generate builds a portfolio with loan ids 1..n. Drawn and undrawn amounts
// are independent fractions of exposure, so drawn + undrawn need not equal
// exposure. The same options always produce the same portfolio.
func Generate(opts Options) (risk.Portfolio, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	p := make(risk.Portfolio, opts.Loans)
	span := opts.MaxExposure - opts.MinExposure

	for i := range p {
		exposure := opts.MinExposure + r.Float64()*span
		p[i] = risk.Loan{
			LoanID:         int64(i + 1),
			Exposure:       exposure,
			CreditRating:   Ratings[r.IntN(len(Ratings))],
			CollateralType: collaterals.draw(r),
			DaysPastDue:    delinquency.draw(r),
		}
		p[i].DrawnAmount = exposure * (0.5 + 0.5*r.Float64())
		p[i].UndrawnAmount = exposure * 0.5 * r.Float64()
	}

	return p, nil
}
