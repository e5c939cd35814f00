// Package risk implements IFRS9 staging, Exposure at Default and Expected
// Credit Loss for a portfolio of loans under configurable stress scenarios.
//
// # Pipeline
//
// A run applies four ordered stages to a Portfolio. Every stage is a pure
// function returning a new Portfolio; the input is never modified.
//
//  1. Stager: AssignStage classifies each loan from its days past due
//     (>= 90 Stage 3, >= 30 Stage 2, otherwise Stage 1).
//  2. Parameter Assigner: AssignCCF, AssignPD and AssignLGD attach the
//     credit conversion factor, the 12-month probability of default and the
//     loss given default from user supplied Lookup tables.
//  3. Exposure Calculator: CalculateEAD computes
//     EAD = drawn + undrawn * CCF * CCF_stress.
//  4. Loss Calculator: CalculateECL applies the stage formula and returns the
//     portfolio sorted by loan id.
//
// The stage formulas are:
//
//	Stage 1: ECL = EAD * min(PD12 * PD_stress, 1) * min(LGD * LGD_stress, 1)
//	Stage 2: ECL = EAD * min(PDlife * PD_stress, 1) * min(LGD * LGD_stress, 1)
//	         PDlife = 1 - (1 - PD12)^lifetime
//	Stage 3: ECL = EAD * min(LGD * LGD_stress, 1)
//
// # Missing data
//
// A categorical value with no lookup entry produces an unresolved Measure
// instead of an error, and the unresolved state propagates through EAD and
// ECL. CheckCoverage lists the uncovered keys ahead of a run. Loans whose
// stage is not 1, 2 or 3 are left out of CalculateECL's output and reported
// in LossReport.Dropped.
//
// # Usage
//
//	calc := risk.NewCalculator(5, risk.DefaultTables(), slog.Default())
//	result, err := calc.Run(ctx, portfolio, risk.NormalScenario())
//	if err != nil {
//	    return err
//	}
//	for _, t := range result.Summary.Stages {
//	    fmt.Println(t.Stage, result.Summary.FormatAmount(t.ECL))
//	}
//
// Calculator.SetStrict switches on validation of loans, parameter ranges and
// lookup coverage. The default is permissive and processes the whole batch.
package risk
