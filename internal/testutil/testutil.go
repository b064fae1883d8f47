// Package testutil provides shared test utilities and fixtures.
//
// This package centralises the scripted random sources, fixture frames and
// HTTP helpers used across the simulator's package tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewTestRequest creates a test HTTP request with no body.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// SeqRand is a scripted random source. Float64 and IntN walk their own
// slices and wrap at the end. An empty Floats yields 0; an empty Ints yields 0.
type SeqRand struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int
	fi, ii int
}

// Float64 returns the next scripted float.
func (r *SeqRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Floats) == 0 {
		return 0
	}
	v := r.Floats[r.fi%len(r.Floats)]
	r.fi++
	return v
}

// IntN returns the next scripted int reduced modulo n.
func (r *SeqRand) IntN(n int) int {
	if n <= 0 {
		panic("invalid argument to IntN")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Ints) == 0 {
		return 0
	}
	v := r.Ints[r.ii%len(r.Ints)]
	r.ii++
	return ((v % n) + n) % n
}

// ConstRand returns the same float for every draw. IntN scales it onto [0, n).
type ConstRand float64

// Float64 returns the constant.
func (c ConstRand) Float64() float64 { return float64(c) }

// IntN returns int(c*n).
func (c ConstRand) IntN(n int) int {
	if n <= 0 {
		panic("invalid argument to IntN")
	}
	return int(float64(c) * float64(n))
}
