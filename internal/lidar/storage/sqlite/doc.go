// Package sqlite contains the SQLite repositories for the active-learning
// audit log.
//
// All reads and writes of al_runs and al_selections belong here rather
// than in the session or selection packages. The log is write-only from the
// session's point of view: nothing here is ever read back into a running
// session.
package sqlite
