package risk

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	loanValidator     *validator.Validate
	loanValidatorOnce sync.Once
)

// structValidator returns the shared validator, reporting fields by their
// JSON names
func structValidator() *validator.Validate {
	loanValidatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		loanValidator = v
	})
	return loanValidator
}

// ValidateLoans performs strict validation of loan records: non-negative
// amounts and delinquency, non-empty categorical keys and unique loan ids.
// The pipeline itself accepts all of these; strict mode calls this first.
func ValidateLoans(p Portfolio) error {
	if len(p) == 0 {
		return &ValidationError{
			Field:   "loans",
			Message: "no loans provided",
		}
	}

	v := structValidator()
	seen := make(map[int64]int, len(p))
	for i, l := range p {
		if j, dup := seen[l.LoanID]; dup {
			return &ValidationError{
				Field:   fmt.Sprintf("loans[%d].loan_id", i),
				Message: fmt.Sprintf("duplicate loan id, first seen at index %d", j),
				Value:   l.LoanID,
			}
		}
		seen[l.LoanID] = i

		if err := v.Struct(l); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				fe := fieldErrs[0]
				return &ValidationError{
					Field:   fmt.Sprintf("loans[%d].%s", i, fe.Field()),
					Message: describeFieldError(fe),
					Value:   fe.Value(),
				}
			}
			return fmt.Errorf("validate loan %d: %w", l.LoanID, err)
		}
	}
	return nil
}

// describeFieldError formats validation error messages
func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ValidateTables checks that every parameter is a probability in [0,1]
func ValidateTables(t Tables) error {
	for _, stage := range t.CCF.Keys() {
		if err := checkUnit("ccf_by_stage", stage.String(), t.CCF[stage]); err != nil {
			return err
		}
	}
	for _, rating := range t.PD.Keys() {
		if err := checkUnit("pd_by_rating", rating, t.PD[rating]); err != nil {
			return err
		}
	}
	for _, collateral := range t.LGD.Keys() {
		if err := checkUnit("lgd_by_collateral", collateral, t.LGD[collateral]); err != nil {
			return err
		}
	}
	return nil
}

func checkUnit(table, key string, v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return &ValidationError{
			Field:   fmt.Sprintf("%s[%s]", table, key),
			Message: "parameter must be between 0 and 1",
			Value:   v,
		}
	}
	return nil
}

// ValidateCoverage returns an error describing the first table that cannot
// resolve every key in c
func ValidateCoverage(c Coverage) error {
	switch {
	case len(c.MissingStages) > 0:
		return &ValidationError{
			Field:   "ccf_by_stage",
			Message: "lookup has no entry for some stages",
			Value:   c.MissingStages,
		}
	case len(c.MissingRatings) > 0:
		return &ValidationError{
			Field:   "pd_by_rating",
			Message: "lookup has no entry for some credit ratings",
			Value:   c.MissingRatings,
		}
	case len(c.MissingCollaterals) > 0:
		return &ValidationError{
			Field:   "lgd_by_collateral",
			Message: "lookup has no entry for some collateral types",
			Value:   c.MissingCollaterals,
		}
	}
	return nil
}
