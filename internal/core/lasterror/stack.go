// Package lasterror records the most recent failures of the connector as
// human readable messages with a bounded history.
package lasterror

import (
	"errors"
	"maps"
)

// DefaultStackSize is the number of messages kept when no size is set.
const DefaultStackSize = 5

type entry struct {
	code string
	msg  string
}

// Stack keeps the last few error messages, most recent on top.
type Stack struct {
	messages map[string]string
	entries  []entry
	size     int
}

// NewStack returns a stack using DefaultMessages merged with overrides.
func NewStack(overrides map[string]string) *Stack {
	s := &Stack{size: DefaultStackSize}
	s.SetMessages(overrides)
	return s
}

// SetMessages merges overrides into the current templates. A nil map
// restores the defaults.
func (s *Stack) SetMessages(overrides map[string]string) {
	if overrides == nil || s.messages == nil {
		s.messages = maps.Clone(DefaultMessages)
	}
	maps.Copy(s.messages, overrides)
}

// SetSize changes the capacity, dropping the oldest entries if needed.
// Non-positive sizes are ignored.
func (s *Stack) SetSize(n int) {
	if n > 0 {
		s.size = n
	}
	if over := len(s.entries) - s.size; over > 0 {
		s.entries = s.entries[over:]
	}
}

// Size returns the capacity of the stack.
func (s *Stack) Size() int {
	return s.size
}

// Error records a message for code and returns the rendered text.
func (s *Stack) Error(code string, params map[string]string) string {
	msg := Render(code, s.messages, params)
	s.push(code, msg)
	return msg
}

// Push records err. Errors from this package are rendered with the stack's
// templates, anything else with err.Error().
func (s *Stack) Push(err error) string {
	if err == nil {
		return ""
	}
	var le *Error
	if errors.As(err, &le) {
		return s.Error(le.Code, le.Params)
	}
	msg := err.Error()
	s.push("", msg)
	return msg
}

func (s *Stack) push(code, msg string) {
	if len(s.entries) >= s.size {
		s.entries = s.entries[len(s.entries)-s.size+1:]
	}
	s.entries = append(s.entries, entry{code: code, msg: msg})
}

// Last pops the most recent message. It returns "" when the stack is empty.
func (s *Stack) Last() string {
	if len(s.entries) == 0 {
		return ""
	}
	e := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return e.msg
}

// All drains the stack, most recent first.
func (s *Stack) All() []string {
	list := make([]string, 0, len(s.entries))
	for len(s.entries) > 0 {
		list = append(list, s.Last())
	}
	return list
}

// HasErrors reports whether any message is waiting.
func (s *Stack) HasErrors() bool {
	return len(s.entries) > 0
}

// Reset forgets every recorded message.
func (s *Stack) Reset() {
	s.entries = nil
}
