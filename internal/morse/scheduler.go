package morse

import "time"

// Scheduled is an element waiting to be emitted.
type Scheduled struct {
	Dash bool
	At   time.Time
}

// Scheduler re-times a stream of already decoded characters as elements,
// for devices that decode the paddle themselves and only report text.
type Scheduler struct {
	timing Timing
	queue  []Scheduled
	// next is where the following character may start, after the
	// trailing character gap of the last one queued.
	next time.Time
}

// NewScheduler returns an empty scheduler using t.
func NewScheduler(t Timing) *Scheduler {
	return &Scheduler{timing: t}
}

// SetTiming changes the spacing of characters pushed from now on.
func (s *Scheduler) SetTiming(t Timing) { s.timing = t }

// Push schedules the elements of r. A space stretches the preceding
// character gap to a word gap; unknown runes are ignored.
func (s *Scheduler) Push(r rune, now time.Time) {
	if r == ' ' {
		s.next = s.next.Add(s.timing.WordGap - s.timing.CharGap)
		return
	}
	if code, ok := Code(r); ok {
		s.PushCode(code, now)
	}
}

// PushCode schedules a raw code string, such as a prosign pattern.
func (s *Scheduler) PushCode(code string, now time.Time) {
	if code == "" {
		return
	}
	at := s.next
	if at.Before(now) {
		at = now
	}
	for i, el := range code {
		dash := el == Dah
		s.queue = append(s.queue, Scheduled{Dash: dash, At: at})
		at = at.Add(s.timing.Element(dash))
		if i+1 < len(code) {
			at = at.Add(s.timing.ElemGap)
		} else {
			at = at.Add(s.timing.CharGap)
		}
	}
	s.next = at
}

// Next pops the oldest element if it is due at now.
func (s *Scheduler) Next(now time.Time) (Scheduled, bool) {
	if len(s.queue) == 0 || now.Before(s.queue[0].At) {
		return Scheduled{}, false
	}
	el := s.queue[0]
	s.queue = s.queue[1:]
	return el, true
}

// Len reports how many elements are still queued.
func (s *Scheduler) Len() int { return len(s.queue) }
