package formulas

// MaxDrawdown returns the largest peak-to-trough decline of a cumulative
// return series, as a positive fraction (0.25 = 25% below the peak).
// The series is read as wealth 1+c so a start at 0 is a valid peak.
func MaxDrawdown(cumulative []float64) float64 {
	if len(cumulative) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := 1.0

	for _, c := range cumulative {
		wealth := 1 + c
		if wealth > peak {
			peak = wealth
		}
		if peak > 0 {
			drawdown := (peak - wealth) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}
