// Package fitter trains the 21 long-term model coefficients from historical
// review logs. It is the in-process reference implementation of the
// engram.WeightFitter capability; hosts that fit weights out of process do
// not need this package.
//
// It provides two main capabilities:
//
//   - [Fitter.Fit] trains the coefficient vector using mini-batch gradient
//     descent with the [Adam] optimizer and [CosineAnnealing] learning rate
//     schedule. Gradients are computed via numerical central differences on
//     binary cross-entropy loss.
//
//   - [Fitter.OptimalRetention] finds the target retention that minimizes
//     review cost per retained item via Monte Carlo simulation.
//
// # Usage
//
//	f := fitter.New(fitter.Config{})
//	weights, err := f.Fit(ctx, logs)
//	retention, err := f.OptimalRetention(ctx, weights, logs)
//
// # Data Requirements
//
// Fitting requires enough cross-day reviews (at least MiniBatchSize, default
// 512). Optimal retention additionally requires ReviewDuration to be set on
// all review logs.
package fitter
