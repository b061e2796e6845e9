package service

import "time"

// SetClock replaces the eviction clock.
func (s *EvictionService) SetClock(now func() time.Time) {
	s.now = now
}
