package ir

import "sync"

// Options are process-wide rendering settings.
type Options struct {
	// Pretty separates statement clauses with newlines instead of spaces.
	Pretty bool
}

type settings struct {
	once sync.Once
	opts Options
}

func (s *settings) configure(o Options) bool {
	applied := false
	s.once.Do(func() {
		s.opts = o
		applied = true
	})
	return applied
}

func (s *settings) current() Options {
	s.once.Do(func() {})
	return s.opts
}

var global settings

// Configure sets the rendering options for the process. Only the first call
// takes effect, and reading the options first seals the defaults; the return
// value reports whether o was applied.
func Configure(o Options) bool {
	return global.configure(o)
}

// CurrentOptions returns the rendering options in effect.
func CurrentOptions() Options {
	return global.current()
}

// ClauseBreak is the separator placed between statement clauses.
func ClauseBreak() string {
	if global.current().Pretty {
		return "\n"
	}
	return " "
}
