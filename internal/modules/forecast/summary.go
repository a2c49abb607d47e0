package forecast

import (
	"fmt"
	"sort"

	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/pkg/formulas"
)

// Summarize returns the lower, median and upper percentiles (0-100) of the
// terminal outcomes.
func Summarize(result domain.SimulationResult, lowerPercentile, upperPercentile float64) (domain.ForecastBand, error) {
	if result.Len() < 1 {
		return domain.ForecastBand{}, &domain.InsufficientDataError{Op: "forecast summary", Have: result.Len(), Need: 1}
	}
	if result.HorizonDays() < 1 {
		return domain.ForecastBand{}, &domain.InsufficientDataError{Op: "forecast summary horizon", Have: result.HorizonDays(), Need: 1}
	}
	if lowerPercentile < 0 || lowerPercentile > 50 || upperPercentile < 50 || upperPercentile > 100 {
		return domain.ForecastBand{}, &domain.InvalidRequestError{
			Field:  "percentiles",
			Reason: fmt.Sprintf("need 0 <= lower <= 50 <= upper <= 100, got %v and %v", lowerPercentile, upperPercentile),
		}
	}

	sorted := result.Values()
	sort.Float64s(sorted)

	return domain.ForecastBand{
		Lower:           formulas.PercentileSorted(sorted, lowerPercentile),
		Median:          formulas.PercentileSorted(sorted, 50),
		Upper:           formulas.PercentileSorted(sorted, upperPercentile),
		LowerPercentile: lowerPercentile,
		UpperPercentile: upperPercentile,
	}, nil
}

// DefaultBand is Summarize with the 5th/95th percentiles.
func DefaultBand(result domain.SimulationResult) (domain.ForecastBand, error) {
	return Summarize(result, DefaultLowerPercentile, DefaultUpperPercentile)
}

// Risk describes the downside of the terminal outcome distribution.
type Risk struct {
	Mean              float64 `json:"mean" msgpack:"mean"`
	Worst             float64 `json:"worst" msgpack:"worst"`
	Best              float64 `json:"best" msgpack:"best"`
	VaR95             float64 `json:"var_95" msgpack:"var_95"`
	VaR99             float64 `json:"var_99" msgpack:"var_99"`
	CVaR95            float64 `json:"cvar_95" msgpack:"cvar_95"`
	CVaR99            float64 `json:"cvar_99" msgpack:"cvar_99"`
	ProbabilityOfLoss float64 `json:"probability_of_loss" msgpack:"probability_of_loss"`
}

// AssessRisk computes tail statistics over the terminal outcomes. VaR and
// CVaR are returns (negative for losses), not loss magnitudes.
func AssessRisk(result domain.SimulationResult) (Risk, error) {
	if result.Len() < 1 {
		return Risk{}, &domain.InsufficientDataError{Op: "forecast risk", Have: result.Len(), Need: 1}
	}

	values := result.Values()
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return Risk{
		Mean:              formulas.Mean(values),
		Worst:             sorted[0],
		Best:              sorted[len(sorted)-1],
		VaR95:             formulas.CalculateVaR(values, 0.95),
		VaR99:             formulas.CalculateVaR(values, 0.99),
		CVaR95:            formulas.CalculateCVaR(values, 0.95),
		CVaR99:            formulas.CalculateCVaR(values, 0.99),
		ProbabilityOfLoss: formulas.ProbabilityOfLoss(values),
	}, nil
}
