package usecase

import (
	"strings"
	"unicode/utf8"
)

// MemoryCompactor decides a plant's next thought signature from the previous one and the
// signature the engine returned. Implementations must never concatenate the two.
type MemoryCompactor interface {
	Compact(previous, next string) string
}

// ReplaceCompactor adopts the engine's signature unconditionally.
// A blank signature from the engine means "no update" and keeps the previous one.
type ReplaceCompactor struct{}

func (ReplaceCompactor) Compact(previous, next string) string {
	if strings.TrimSpace(next) == "" {
		return previous
	}
	return next
}

// TruncatingCompactor applies Base and then caps the result at MaxRunes runes
type TruncatingCompactor struct {
	Base     MemoryCompactor
	MaxRunes int
}

func (c TruncatingCompactor) Compact(previous, next string) string {
	base := c.Base
	if base == nil {
		base = ReplaceCompactor{}
	}
	sig := base.Compact(previous, next)
	if c.MaxRunes <= 0 || utf8.RuneCountInString(sig) <= c.MaxRunes {
		return sig
	}
	runes := []rune(sig)
	return string(runes[:c.MaxRunes])
}
