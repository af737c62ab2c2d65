// Package moderation censors configured words in chat text before it is
// broadcast to a room.
package moderation

import (
	"fmt"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator masks every occurrence of a censored word with a replacement rune.
// Matching ignores case, punctuation, spacing and common leet substitutions,
// so "B-a-D" and "b4d" both match "bad". A zero Moderator censors nothing.
type Moderator struct {
	machine     *goahocorasick.Machine
	replacement rune
}

// ParseWords splits a comma separated word list, dropping blanks.
func ParseWords(list string) []string {
	return lo.Compact(lo.Map(strings.Split(list, ","), func(word string, _ int) string {
		return strings.TrimSpace(word)
	}))
}

// New builds the automaton for words. An empty list yields a no-op Moderator.
func New(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if folded := fold([]rune(word)); len(folded) > 0 {
			patterns = append(patterns, folded)
		}
	}
	if len(patterns) == 0 {
		return &Moderator{replacement: replacement}, nil
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, fmt.Errorf("build censor automaton: %w", err)
	}
	return &Moderator{machine: machine, replacement: replacement}, nil
}

// Censor returns text with censored words masked. Text without matches is
// returned unchanged.
func (m *Moderator) Censor(text string) string {
	if m == nil || m.machine == nil || text == "" {
		return text
	}

	original := []rune(text)
	folded := make([]rune, 0, len(original))
	positions := make([]int, 0, len(original))
	for i, r := range original {
		r = unleet(r)
		if ignorable(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		positions = append(positions, i)
	}
	if len(folded) == 0 {
		return text
	}

	terms := m.machine.MultiPatternSearch(folded, false)
	if len(terms) == 0 {
		return text
	}

	for _, term := range terms {
		end := term.Pos + len(term.Word)
		if term.Pos < 0 || end > len(positions) {
			continue
		}
		for i := positions[term.Pos]; i <= positions[end-1]; i++ {
			original[i] = m.replacement
		}
	}
	return string(original)
}

func fold(word []rune) []rune {
	out := make([]rune, 0, len(word))
	for _, r := range word {
		r = unleet(r)
		if ignorable(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
	}
	return out
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	case '7':
		return 't'
	default:
		return r
	}
}

func ignorable(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
