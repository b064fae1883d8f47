// Package selection owns the active-learning selection state: which frames
// have been scored, which were picked for labeling, and how much of the
// labeling budget is spent.
//
// State is a value. Tick and Reset return a new State and never modify the
// one they were given, so a caller can keep, compare or discard snapshots
// freely. Selection is an online first-come-first-served filter: a frame is
// picked the first time its uncertainty exceeds the threshold while budget
// remains, and it is never unpicked.
package selection
