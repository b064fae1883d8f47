// Package session drives an active-learning session in real time.
//
// A Runner owns the frame catalog, the random source and the
// selection.State. One goroutine (Run) turns clock ticks into simulation
// steps; every step runs simulate, analyze and select synchronously under
// the runner's lock, so no step ever observes a half-applied control
// change. The controls (start, pause, reset, speed, threshold, details,
// analysis panel) are safe to call from any goroutine.
package session
