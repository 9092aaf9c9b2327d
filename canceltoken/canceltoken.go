// Package canceltoken implements the cancel-token re-architecture from
// spec.md §9: a cheap shared handle with one writer and many readers, passed
// by value into worker goroutines in place of the original's
// std::shared_ptr<std::atomic<bool>>.
package canceltoken

import "sync/atomic"

// Token is a cancel flag shared by value: copies of a Token all observe the
// same underlying flag. The zero value is a valid, never-cancelled token.
type Token struct {
	flag *atomic.Bool
}

// New returns a fresh, not-yet-cancelled Token.
func New() Token {
	return Token{flag: new(atomic.Bool)}
}

// Cancel trips the token. Safe to call from any goroutine, any number of
// times.
func (t Token) Cancel() {
	if t.flag != nil {
		t.flag.Store(true)
	}
}

// Cancelled reports whether Cancel has been called. A zero-value Token is
// never cancelled.
func (t Token) Cancelled() bool {
	return t.flag != nil && t.flag.Load()
}
