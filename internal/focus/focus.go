// Package focus runs Mono Mode: a short breathing countdown, a pomodoro
// focus block, then a break.
package focus

import (
	"fmt"
	"time"
)

const (
	DefaultCountdown = 5 * time.Second
	DefaultLength    = 25 * time.Minute

	BreakMessage = "Time to take a break!"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseFocus
	PhaseBreak
)

func (p Phase) String() string {
	switch p {
	case PhaseCountdown:
		return "countdown"
	case PhaseFocus:
		return "focus"
	case PhaseBreak:
		return "break"
	}
	return "idle"
}

// Event reports the transition a Tick caused.
type Event int

const (
	EventNone Event = iota
	EventFocusStarted
	EventBreak
)

// Session is not safe for concurrent use. Callers pass the current time to
// every method, so tests can drive it with any clock.
type Session struct {
	countdown time.Duration
	length    time.Duration
	phase     Phase
	since     time.Time
}

// New returns an idle session. Non-positive durations fall back to the
// defaults.
func New(countdown, length time.Duration) *Session {
	if countdown <= 0 {
		countdown = DefaultCountdown
	}
	if length <= 0 {
		length = DefaultLength
	}
	return &Session{countdown: countdown, length: length}
}

func (s *Session) Phase() Phase         { return s.phase }
func (s *Session) Length() time.Duration { return s.length }

// Start begins the countdown. It does nothing once a session is running.
func (s *Session) Start(now time.Time) {
	if s.phase != PhaseIdle {
		return
	}
	s.Reset(now)
}

// Reset restarts from the top of the countdown, whatever the phase.
func (s *Session) Reset(now time.Time) {
	s.phase = PhaseCountdown
	s.since = now
}

// Stop returns the session to idle.
func (s *Session) Stop() {
	s.phase = PhaseIdle
	s.since = time.Time{}
}

// Tick advances the session to now. A tick that skips past both the
// countdown and the focus block reports EventBreak.
func (s *Session) Tick(now time.Time) Event {
	ev := EventNone
	if s.phase == PhaseCountdown && !now.Before(s.since.Add(s.countdown)) {
		s.since = s.since.Add(s.countdown)
		s.phase = PhaseFocus
		ev = EventFocusStarted
	}
	if s.phase == PhaseFocus && !now.Before(s.since.Add(s.length)) {
		s.since = s.since.Add(s.length)
		s.phase = PhaseBreak
		ev = EventBreak
	}
	return ev
}

// Remaining is the time left in the current countdown or focus block,
// rounded up to whole seconds. It is zero when idle or on a break.
func (s *Session) Remaining(now time.Time) time.Duration {
	var end time.Time
	switch s.phase {
	case PhaseCountdown:
		end = s.since.Add(s.countdown)
	case PhaseFocus:
		end = s.since.Add(s.length)
	default:
		return 0
	}
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	if r := left % time.Second; r != 0 {
		left += time.Second - r
	}
	return left
}

// Status is the one-line description shown under the clock.
func (s *Session) Status(now time.Time) string {
	switch s.phase {
	case PhaseCountdown:
		return fmt.Sprintf("Take a deep breath... we will start in %d", int(s.Remaining(now)/time.Second))
	case PhaseFocus:
		return "Focus session: " + FormatRemaining(s.Remaining(now))
	case PhaseBreak:
		return "Break time!"
	}
	return fmt.Sprintf("Ready to focus? Start a %d-minute focus session.", int(s.length/time.Minute))
}

// FormatRemaining renders d as MM:SS.
func FormatRemaining(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
