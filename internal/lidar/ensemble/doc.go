// Package ensemble simulates a five-model PointNet ensemble scoring a
// catalog frame.
//
// Responsibilities: the static model roster, per-model uncertainty draws
// shaped by scene heuristics, per-object uncertainty draws, and the
// descriptive ensemble statistics (average uncertainty, disagreement,
// predictive entropy and the mutual-information score).
//
// There is no inference here. Every number is drawn from the caller's
// random source, so a seeded source reproduces a run exactly.
package ensemble
