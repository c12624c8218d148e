package engram

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WeightFitter is the external weight-fitting capability. The computation is
// a black box to this package: implementations may shell out, call a service,
// or train in-process (see the fitter subpackage). The returned vector is
// validated and padded by InstallWeights.
type WeightFitter interface {
	Fit(ctx context.Context, logs []ReviewLog) ([]float64, error)
}

// WeightSnapshot versions one installed weight vector.
type WeightSnapshot struct {
	ID          uuid.UUID            `json:"id"`
	Weights     [WeightCount]float64 `json:"weights"`
	InstalledAt time.Time            `json:"installed_at"`
}

// InstallWeights validates an externally computed weight vector and installs
// it into the policy, returning the updated policy and a version snapshot.
//
// A vector shorter than 21 is right-padded with the structural default for
// the missing tail coefficients (forward compatibility, not an error). An
// empty or over-long vector, or any non-finite or non-positive coefficient,
// fails with a validation error.
func InstallWeights(prior PolicyParams, raw []float64, now time.Time) (PolicyParams, WeightSnapshot, error) {
	if len(raw) == 0 {
		return PolicyParams{}, WeightSnapshot{}, fmt.Errorf("%w: empty weight vector", ErrValidation)
	}
	if len(raw) > WeightCount {
		return PolicyParams{}, WeightSnapshot{}, fmt.Errorf("%w: weight vector length %d exceeds %d", ErrValidation, len(raw), WeightCount)
	}

	var weights [WeightCount]float64
	for i := range weights {
		weights[i] = weightPad
	}
	for i, v := range raw {
		if !isFinite(v) || v <= 0 {
			return PolicyParams{}, WeightSnapshot{}, fmt.Errorf("%w: weight w[%d] = %v", ErrValidation, i, v)
		}
		weights[i] = v
	}

	next := prior.normalized()
	next.Weights = weights

	snapshot := WeightSnapshot{
		ID:          uuid.New(),
		Weights:     weights,
		InstalledAt: now,
	}
	return next, snapshot, nil
}

// InstallShortTermParams installs fitted learning-curve overrides. Each field
// is clamped to its safe range; absent (zero) fields keep falling through to
// the structural defaults at scheduling time. It never fails: a nonsensical
// override degrades to the default rather than poisoning the policy.
func InstallShortTermParams(prior PolicyParams, raw ShortTermParams) PolicyParams {
	var clean ShortTermParams
	for _, r := range []Rating{Again, Hard, Good, Easy} {
		if v := raw.InitialStabilityMinutes[r]; v > 0 && isFinite(v) {
			clean.InitialStabilityMinutes[r] = clampRange(v, initialStabilityMin, initialStabilityMax)
		}
		if g := raw.GrowthFactors[r]; g > 0 && isFinite(g) {
			clean.GrowthFactors[r] = clampRange(g, growthFactorMin, growthFactorMax)
		}
	}
	if v := raw.AfterFailureStabilityMinutes; v > 0 && isFinite(v) {
		clean.AfterFailureStabilityMinutes = clampRange(v, afterFailureMin, afterFailureMax)
	}

	next := prior.normalized()
	next.Short = &clean
	return next
}

// CalibrationConfig gates how often weight fitting may run.
// Zero values produce sensible defaults; see field comments.
type CalibrationConfig struct {
	FirstMinReviews int     `json:"first_min_reviews"` // zero → 400
	RecalMinReviews int     `json:"recal_min_reviews"` // zero → 50
	MinDaysBetween  float64 `json:"min_days_between"`  // zero → 7
}

func (c CalibrationConfig) withDefaults() CalibrationConfig {
	if c.FirstMinReviews == 0 {
		c.FirstMinReviews = 400
	}
	if c.RecalMinReviews == 0 {
		c.RecalMinReviews = 50
	}
	if c.MinDaysBetween == 0 {
		c.MinDaysBetween = 7
	}
	return c
}

// CalibrationHistory describes a learner's prior calibration activity.
type CalibrationHistory struct {
	TotalReviews     int        `json:"total_reviews"`
	ReviewsSinceLast int        `json:"reviews_since_last"`
	LastCalibratedAt *time.Time `json:"last_calibrated_at"` // nil → never calibrated
}

// CheckEligibility evaluates the calibration preconditions before the
// external computation is invoked. Returns ErrNotEligible with a reason when
// the learner has too little review history or calibrated too recently.
func CheckEligibility(history CalibrationHistory, cfg CalibrationConfig, now time.Time) error {
	cfg = cfg.withDefaults()

	if history.LastCalibratedAt == nil {
		if history.TotalReviews < cfg.FirstMinReviews {
			return fmt.Errorf("%w: %d reviews, first calibration needs %d",
				ErrNotEligible, history.TotalReviews, cfg.FirstMinReviews)
		}
		return nil
	}

	if history.ReviewsSinceLast < cfg.RecalMinReviews {
		return fmt.Errorf("%w: %d reviews since last calibration, need %d",
			ErrNotEligible, history.ReviewsSinceLast, cfg.RecalMinReviews)
	}
	if elapsed := now.Sub(*history.LastCalibratedAt).Hours() / 24.0; elapsed < cfg.MinDaysBetween {
		return fmt.Errorf("%w: last calibration %.1f days ago, need %.1f",
			ErrNotEligible, elapsed, cfg.MinDaysBetween)
	}
	return nil
}

// DatasetSource acquires the review logs the fitter trains on. The release
// function frees any intermediate artifact (a temporary export, a snapshot
// handle) and is invoked on every exit path of Calibrate.
type DatasetSource func(ctx context.Context) (logs []ReviewLog, release func(), err error)

// Calibrator orchestrates the calibration flow: eligibility gating, scoped
// dataset acquisition, the external fit, and installation with snapshotting.
type Calibrator struct {
	fitter WeightFitter
	cfg    CalibrationConfig
	logger *zap.Logger
}

// NewCalibrator creates a Calibrator. fitter may be nil, in which case
// Calibrate fails with ErrComputationUnavailable; logger nil → no-op.
func NewCalibrator(fitter WeightFitter, cfg CalibrationConfig, logger *zap.Logger) *Calibrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calibrator{fitter: fitter, cfg: cfg.withDefaults(), logger: logger}
}

// Calibrate runs one calibration pass for a learner. The fit is long-running
// and CPU-heavy, so the context bounds it; cancellation propagates out of the
// fitter. The dataset's release hook runs on success, fit failure, and
// malformed-output failure alike.
func (c *Calibrator) Calibrate(ctx context.Context, prior PolicyParams, history CalibrationHistory, source DatasetSource, now time.Time) (PolicyParams, WeightSnapshot, error) {
	if err := CheckEligibility(history, c.cfg, now); err != nil {
		return PolicyParams{}, WeightSnapshot{}, err
	}
	if c.fitter == nil {
		return PolicyParams{}, WeightSnapshot{}, fmt.Errorf("%w: no fitter configured", ErrComputationUnavailable)
	}

	logs, release, err := source(ctx)
	if err != nil {
		return PolicyParams{}, WeightSnapshot{}, fmt.Errorf("engram: acquiring calibration dataset: %w", err)
	}
	if release != nil {
		defer release()
	}

	raw, err := c.fitter.Fit(ctx, logs)
	if err != nil {
		if ctx.Err() != nil {
			return PolicyParams{}, WeightSnapshot{}, ctx.Err()
		}
		return PolicyParams{}, WeightSnapshot{}, fmt.Errorf("%w: %v", ErrComputationUnavailable, err)
	}

	next, snapshot, err := InstallWeights(prior, raw, now)
	if err != nil {
		return PolicyParams{}, WeightSnapshot{}, err
	}

	c.logger.Info("installed calibrated weights",
		zap.String("snapshot_id", snapshot.ID.String()),
		zap.Int("training_reviews", len(logs)))
	return next, snapshot, nil
}
