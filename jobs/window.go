package jobs

import "time"

// Window is an eligibility interval relative to the evaluation time:
// [now+Start, now+End).
type Window struct {
	Name  string
	Start time.Duration
	End   time.Duration
}

var (
	ReminderWindow = Window{Name: "reminder", Start: 0, End: time.Hour}
	FeedbackWindow = Window{Name: "feedback", Start: -60 * time.Minute, End: -15 * time.Minute}
)

func (w Window) Bounds(now time.Time) (from, to time.Time) {
	return now.Add(w.Start), now.Add(w.End)
}

// Contains reports whether at falls inside the window evaluated at now.
// The lower bound is inclusive and the upper bound exclusive, so an instant
// sitting on the boundary between two consecutive passes qualifies once.
func (w Window) Contains(now, at time.Time) bool {
	from, to := w.Bounds(now)
	return !at.Before(from) && at.Before(to)
}
