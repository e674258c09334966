package cas

import "time"

// SetNow replaces the clock used for build timestamps and age checks.
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}
