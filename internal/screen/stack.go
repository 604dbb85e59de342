package screen

import "sync"

// Stack is a per-device LIFO sequence of live panels; the top panel is the
// visible screen. Push and pop operate only at the top. Once a device is
// connected the stack is never empty: popping the last panel is refused
// unless explicitly forced (teardown and reconnect paths).
type Stack struct {
	mu     sync.RWMutex
	panels []*Panel
}

// NewStack creates a stack seeded with a root panel.
func NewStack(root *Panel) *Stack {
	return &Stack{panels: []*Panel{root}}
}

// Push places a panel on top of the stack, making it the visible screen.
func (s *Stack) Push(p *Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels = append(s.panels, p)
}

// Pop removes and returns the top panel. Popping a length-1 stack leaves
// it unchanged and returns ErrOnlyOneRemaining; this is a recoverable
// outcome, not a failure.
func (s *Stack) Pop() (*Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.panels) <= 1 {
		return nil, ErrOnlyOneRemaining
	}
	top := s.panels[len(s.panels)-1]
	s.panels = s.panels[:len(s.panels)-1]
	return top, nil
}

// ForcePop removes and returns the top panel even if it is the last one.
// Reserved for teardown and reconnect; an empty stack returns ErrEmpty.
func (s *Stack) ForcePop() (*Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.panels) == 0 {
		return nil, ErrEmpty
	}
	top := s.panels[len(s.panels)-1]
	s.panels = s.panels[:len(s.panels)-1]
	return top, nil
}

// Replace swaps the top panel for a new one and returns the panel it
// displaced. An empty stack returns ErrEmpty.
func (s *Stack) Replace(p *Panel) (*Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.panels) == 0 {
		return nil, ErrEmpty
	}
	prev := s.panels[len(s.panels)-1]
	s.panels[len(s.panels)-1] = p
	return prev, nil
}

// Reset discards the whole stack and seeds it with a single root panel.
// After Reset the stack always has exactly one entry.
func (s *Stack) Reset(root *Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels = []*Panel{root}
}

// Top returns the visible panel without removing it.
func (s *Stack) Top() (*Panel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.panels) == 0 {
		return nil, false
	}
	return s.panels[len(s.panels)-1], true
}

// Depth returns the number of panels on the stack.
func (s *Stack) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.panels)
}

// Export deep-copies every panel on the stack, bottom first.
func (s *Stack) Export() []RawPanel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RawPanel, 0, len(s.panels))
	for _, p := range s.panels {
		out = append(out, p.Export())
	}
	return out
}
