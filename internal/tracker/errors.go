package tracker

import "errors"

// Domain state errors. All of these are recoverable, user-facing conditions;
// the command layer prints them as plain messages.
var (
	ErrAlreadyOngoing  = errors.New("already ongoing")
	ErrNotOngoing      = errors.New("not ongoing")
	ErrNoOngoing       = errors.New("no ongoing activity")
	ErrStopBeforeStart = errors.New("cannot stop before start time")
	ErrSimilarOngoing  = errors.New("ongoing and has a similar name")
)
