package service

// Test hooks for pinning the clock from the service_test package.

func (s *GoalService) SetClock(c Clock)     { s.now = c }
func (s *ConnectService) SetClock(c Clock)  { s.now = c }
func (s *WebhookService) SetClock(c Clock)  { s.now = c }
func (s *ActivityService) SetClock(c Clock) { s.now = c }
