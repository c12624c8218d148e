package engram

import "math"

// Structural fallbacks used when a numeric update produces a non-finite
// intermediate. Fallbacks are logged by the engine and never persisted as-is
// without the guard.
const (
	minStability       = 0.001
	fallbackStability  = 1.0
	fallbackDifficulty = 5.0
)

// longTermModel evaluates the days-scale power-law retention curve for
// graduated items. It holds constants precomputed from the 21-coefficient
// weight vector; build one per scheduling call via newLongTermModel.
type longTermModel struct {
	w      [WeightCount]float64
	decay  float64 // -w[20]
	factor float64 // 0.9^(1/decay) - 1
}

func newLongTermModel(w [WeightCount]float64) longTermModel {
	decay := -w[20]
	factor := math.Pow(0.9, 1.0/decay) - 1.0
	return longTermModel{w: w, decay: decay, factor: factor}
}

// retrievability computes R(t, S) = (1 + factor * t / S) ^ decay.
// R is 1 at t=0 and decays toward 0 as t grows; outputs are clamped to [0, 1]
// so degenerate stabilities cannot leak out-of-range probabilities.
func (m *longTermModel) retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	r := math.Pow(1+m.factor*elapsedDays/stability, m.decay)
	if !isFinite(r) || r < 0 {
		return 0
	}
	return math.Min(r, 1)
}

// initStability returns the first-pass stability S₀(G) = clamp_s(w[G-1]).
func (m *longTermModel) initStability(r Rating) float64 {
	return clampStability(m.w[r-1])
}

// initDifficulty returns the first-pass difficulty D₀(G).
// D₀(G) = w[4] - e^(w[5] * (G - 1)) + 1
// When clamp is true, the result is clamped to [1, 10].
func (m *longTermModel) initDifficulty(r Rating, clamp bool) float64 {
	d := m.w[4] - math.Exp(m.w[5]*float64(r-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// nextIntervalDays inverts the retrievability formula for the target
// retention: I(r, S) = round((S / factor) * (r^(1/decay) - 1)), clamped to
// [1, maxIvl] whole days.
func (m *longTermModel) nextIntervalDays(stability, targetRetention float64, maxIvl int) int {
	ivl := stability / m.factor * (math.Pow(targetRetention, 1.0/m.decay) - 1)
	if !isFinite(ivl) {
		ivl = 1
	}
	rounded := int(math.Round(ivl))
	if rounded < 1 {
		rounded = 1
	}
	if rounded > maxIvl {
		rounded = maxIvl
	}
	return rounded
}

// sameDayStability computes the stability update for a same-day review, where
// the power-law curve has no usable elapsed time.
// SInc = e^(w[17] * (G - 3 + w[18])) * S^(-w[19]); floored at 1 for Good/Easy.
func (m *longTermModel) sameDayStability(stability float64, r Rating) float64 {
	sInc := math.Exp(m.w[17]*(float64(r)-3+m.w[18])) * math.Pow(stability, -m.w[19])
	if r == Good || r == Easy {
		sInc = math.Max(sInc, 1.0)
	}
	return clampStability(stability * sInc)
}

// nextDifficulty computes the updated difficulty after a review: a linear
// damping toward the rating delta followed by mean reversion to D₀(Easy).
func (m *longTermModel) nextDifficulty(difficulty float64, r Rating) float64 {
	deltaD := -m.w[6] * (float64(r) - 3)
	dPrime := difficulty + (10-difficulty)*deltaD/9
	d0Easy := m.initDifficulty(Easy, false) // mean reversion target, unclamped
	return clampDifficulty(m.w[7]*d0Easy + (1-m.w[7])*dPrime)
}

// nextStability dispatches to the recall or forget update.
func (m *longTermModel) nextStability(d, s, r float64, rating Rating) float64 {
	if rating == Again {
		return m.forgetStability(d, s, r)
	}
	return m.recallStability(d, s, r, rating)
}

// recallStability computes stability after a successful recall.
// S' = S * (1 + e^w[8] * (11-D) * S^(-w[9]) * (e^((1-R)*w[10]) - 1) * hardPenalty * easyBonus)
func (m *longTermModel) recallStability(d, s, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = m.w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = m.w[16]
	}
	return clampStability(s * (1 + math.Exp(m.w[8])*
		(11-d)*
		math.Pow(s, -m.w[9])*
		(math.Exp((1-r)*m.w[10])-1)*
		hardPenalty*easyBonus))
}

// forgetStability computes stability after a lapse. The reduction is the
// minimum of the full forget formula and a same-day escape hatch so a lapse
// can never increase stability.
func (m *longTermModel) forgetStability(d, s, r float64) float64 {
	long := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-r)*m.w[14])
	short := s / math.Exp(m.w[17]*m.w[18])
	return clampStability(math.Min(long, short))
}

// clampStability floors stability at the model minimum.
func clampStability(s float64) float64 {
	return math.Max(s, minStability)
}

// clampDifficulty clamps difficulty to [1, 10].
func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
