package exam

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	questionNumberRe = regexp.MustCompile(`^\d+\.$`)
	optionMarkerRe   = regexp.MustCompile(`^[A-E]\)`)
)

// QuestionNumber returns the number of a "<digits>." span.
func QuestionNumber(s TextSpan) (int, bool) {
	t := strings.TrimSpace(s.Text)
	if !questionNumberRe.MatchString(t) {
		return 0, false
	}
	n, err := strconv.Atoi(t[:len(t)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsBodyLike reports whether a span looks like question or option text:
// an option marker such as "B)", or anything longer than six characters
// that is not a bare question number.
func IsBodyLike(s TextSpan) bool {
	t := strings.TrimSpace(s.Text)
	if optionMarkerRe.MatchString(t) {
		return true
	}
	return utf8.RuneCountInString(t) > 6 && !questionNumberRe.MatchString(t)
}

// IsBoldFont matches font names carrying a bold or black weight.
func IsBoldFont(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "bold") || strings.Contains(n, "black")
}

// AnswerLetter returns the letter of a span consisting of exactly one rune
// from alphabet.
func AnswerLetter(s TextSpan, alphabet string) (rune, bool) {
	t := strings.TrimSpace(s.Text)
	r, size := utf8.DecodeRuneInString(t)
	if size == 0 || size != len(t) || r == utf8.RuneError {
		return 0, false
	}
	if !strings.ContainsRune(alphabet, r) {
		return 0, false
	}
	return r, true
}
