package identity

import "time"

func (s *Service) SetNow(fn func() time.Time) { s.now = fn }
