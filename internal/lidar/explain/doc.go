// Package explain turns a frame and its ensemble predictions into a
// human-readable labeling report.
//
// The report is a pure function of its inputs: a fixed sequence of rule
// checks over the frame's conditions and the ensemble's disagreement, each
// contributing either an uncertainty factor (with a concern) or a strength.
package explain
