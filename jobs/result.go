package jobs

import (
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

type Reason string

const (
	ReasonOutsideWindow  Reason = "outside_window"
	ReasonParseError     Reason = "parse_error"
	ReasonDispatchFailed Reason = "dispatch_failed"
	ReasonStoreFailed    Reason = "store_failed"
)

// Result is the outcome of one booking within a pass.
type Result struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Outcome    Outcome   `json:"outcome"`
	Reason     Reason    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	EmailSent  bool      `json:"email_sent,omitempty"`
	EmailError string    `json:"email_error,omitempty"`
}

func failed(id uuid.UUID, reason Reason, err error) Result {
	r := Result{BookingID: id, Outcome: OutcomeFailed, Reason: reason}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

type PassSummary struct {
	RunID       uuid.UUID     `json:"run_id"`
	Kind        Kind          `json:"kind"`
	Now         time.Time     `json:"now"`
	WindowStart time.Time     `json:"window_start"`
	WindowEnd   time.Time     `json:"window_end"`
	Scanned     int           `json:"scanned"`
	Sent        int           `json:"sent"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	Cancelled   bool          `json:"cancelled"`
	Duration    time.Duration `json:"duration"`
	Results     []Result      `json:"results"`
}

func (s *PassSummary) add(r Result) {
	switch r.Outcome {
	case OutcomeSent:
		s.Sent++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
	s.Results = append(s.Results, r)
}
