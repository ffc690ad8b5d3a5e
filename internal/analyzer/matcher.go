// Package analyzer finds keyword occurrences in free request text. Matching
// is case- and accent-insensitive and respects word boundaries, so "pc" does
// not match inside "capacidad".
package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TermMatch represents occurrences of a term within a text.
type TermMatch struct {
	Term      string   `json:"term"`
	Count     int      `json:"count"`
	Sentences []string `json:"sentences"`
}

// Fold lower-cases s and strips diacritics ("Diseño Gráfico" -> "diseno grafico").
func Fold(s string) string {
	// a Chain keeps state, so build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Contains reports whether term occurs in content as a whole word or phrase.
func Contains(content, term string) bool {
	return countWord(Fold(content), Fold(term)) > 0
}

// ContainsAny reports whether any of terms occurs in content.
func ContainsAny(content string, terms ...string) bool {
	folded := Fold(content)
	for _, term := range terms {
		if countWord(folded, Fold(term)) > 0 {
			return true
		}
	}
	return false
}

// FindTermMatches scans content for each term and returns one TermMatch per
// term that occurs, in the order of terms. Sentences are the original
// sentences mentioning the term.
func FindTermMatches(content string, terms []string) []TermMatch {
	if len(content) == 0 || len(terms) == 0 {
		return nil
	}

	results := make([]TermMatch, 0, len(terms))
	folded := Fold(content)
	sentences := splitIntoSentences(content)

	for _, term := range terms {
		ft := Fold(term)
		count := countWord(folded, ft)
		if count == 0 {
			continue
		}
		var matched []string
		for _, sd := range sentences {
			if countWord(sd.folded, ft) > 0 {
				matched = append(matched, sd.original)
			}
		}
		results = append(results, TermMatch{
			Term:      term,
			Count:     count,
			Sentences: matched,
		})
	}
	return results
}

// countWord counts non-overlapping occurrences of term in s that are not
// glued to a neighbouring letter or digit. Both arguments must be folded.
func countWord(s, term string) int {
	if term == "" {
		return 0
	}
	count := 0
	for i := 0; i <= len(s)-len(term); {
		j := strings.Index(s[i:], term)
		if j < 0 {
			break
		}
		start := i + j
		end := start + len(term)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			count++
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		i = start + size
	}
	return count
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// sentence holds original and folded versions together.
type sentence struct {
	original string
	folded   string
}

// splitIntoSentences splits text on '.', '!', '?' and newlines while keeping
// the delimiter. A dot between two digits ("1.5") does not end a sentence.
func splitIntoSentences(text string) []sentence {
	if len(text) == 0 {
		return nil
	}

	estimated := len(text) / 50
	if estimated < 1 {
		estimated = 1
	}
	out := make([]sentence, 0, estimated)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, sentence{original: s, folded: Fold(s)})
		}
	}

	start := 0
	for i, r := range text {
		switch r {
		case '.':
			if i > 0 && i+1 < len(text) && isDigit(text[i-1]) && isDigit(text[i+1]) {
				continue
			}
		case '!', '?', '\n':
		default:
			continue
		}
		add(text[start : i+1])
		start = i + 1
	}
	if start < len(text) {
		add(text[start:])
	}
	return out
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
