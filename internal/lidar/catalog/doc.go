// Package catalog owns the synthetic frame catalog of the active-learning
// simulator.
//
// Responsibilities: frame attributes (scene, weather, time of day,
// difficulty, point and object counts), catalog generation from an
// injectable random source, and index arithmetic over the catalog.
//
// Frames are immutable once generated. No randomness is read from global
// state; callers pass a Rand so runs are reproducible for a given seed.
package catalog
