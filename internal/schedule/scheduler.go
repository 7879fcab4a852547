package schedule

import "time"

// Scheduler holds the active mode and its pending fire instant.
//
// It is not safe for concurrent use; the coordinator's control loop owns it.
type Scheduler struct {
	mode Mode
	next time.Time
}

// New builds a scheduler armed relative to now.
func New(mode Mode, now time.Time) (*Scheduler, error) {
	s := &Scheduler{}
	if err := s.Reset(mode, now); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset applies mode and recomputes the next fire instant from now,
// discarding any previously pending fire. On error the previous state is kept.
func (s *Scheduler) Reset(mode Mode, now time.Time) error {
	next, err := ComputeNextFire(mode, now)
	if err != nil {
		return err
	}
	s.mode = mode
	s.next = next
	return nil
}

// IsDue reports whether now has reached the pending fire instant.
func (s *Scheduler) IsDue(now time.Time) bool {
	return !now.Before(s.next)
}

// Mode returns the active mode.
func (s *Scheduler) Mode() Mode {
	return s.mode
}

// Next returns the pending fire instant.
func (s *Scheduler) Next() time.Time {
	return s.next
}
