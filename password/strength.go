package password

import (
	"math"
	"strings"
	"unicode"

	"github.com/trustelem/zxcvbn"
)

// Score bounds, matching zxcvbn.
const (
	MinScore = 0
	MaxScore = 4
)

// maxEstimateRunes bounds the estimator input. Matching cost grows
// superlinearly with length; runes past this prefix are not scored.
const maxEstimateRunes = 128

const extraWordSuggestion = "Add another word or two. Uncommon words are better."

// Feedback is human-readable guidance attached to a score.
type Feedback struct {
	Warning     string   `json:"warning"`
	Suggestions []string `json:"suggestions"`
}

// Strength is the estimator verdict for one password.
type Strength struct {
	Score int `json:"score"`
	// GuessesLog10 is the estimated attacker guess count, log10.
	GuessesLog10 float64  `json:"guesses_log10"`
	Feedback     Feedback `json:"feedback"`
}

// Estimator scores a password. userInputs are strings (name, email) the
// estimator should treat as guessable.
type Estimator interface {
	Estimate(password string, userInputs []string) Strength
}

// EstimatorFunc adapts a function to [Estimator].
type EstimatorFunc func(password string, userInputs []string) Strength

// Estimate implements [Estimator].
func (f EstimatorFunc) Estimate(password string, userInputs []string) Strength {
	return f(password, userInputs)
}

// ZXCVBN returns the pattern/dictionary based estimator. It follows
// Dropbox zxcvbn 4.4 scoring: 0 below 10^3 guesses, 1 below 10^6, 2 below
// 10^8, 3 below 10^10, 4 above.
func ZXCVBN() Estimator {
	return zxcvbnEstimator{}
}

type zxcvbnEstimator struct{}

type matchInfo struct {
	pattern    string
	token      string
	dictionary string
	rank       int
	l33t       bool
}

func (zxcvbnEstimator) Estimate(password string, userInputs []string) Strength {
	if password == "" {
		return Strength{Score: MinScore, Feedback: defaultFeedback()}
	}

	result := zxcvbn.PasswordStrength(truncateRunes(password, maxEstimateRunes), userInputs)

	matches := make([]matchInfo, 0, len(result.Sequence))
	for _, m := range result.Sequence {
		matches = append(matches, matchInfo{
			pattern:    m.Pattern,
			token:      m.Token,
			dictionary: m.DictionaryName,
			rank:       m.Rank,
			l33t:       m.L33t,
		})
	}

	score := clampScore(result.Score)
	return Strength{
		Score:        score,
		GuessesLog10: math.Log10(math.Max(result.Guesses, 1)),
		Feedback:     feedbackFor(score, matches),
	}
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func clampScore(s int) int {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}

func defaultFeedback() Feedback {
	return Feedback{
		Suggestions: []string{
			"Use a few words, avoid common phrases",
			"No need for symbols, digits, or uppercase letters",
		},
	}
}

// feedbackFor mirrors zxcvbn's feedback rules: strong scores get no advice,
// weak ones get advice about the longest matched pattern.
func feedbackFor(score int, matches []matchInfo) Feedback {
	if len(matches) == 0 {
		return defaultFeedback()
	}
	if score > 2 {
		return Feedback{Suggestions: []string{}}
	}

	longest := matches[0]
	for _, m := range matches[1:] {
		if len(m.token) > len(longest.token) {
			longest = m
		}
	}

	fb, ok := matchFeedback(longest, len(matches) == 1)
	if !ok {
		return Feedback{Suggestions: []string{extraWordSuggestion}}
	}
	fb.Suggestions = append([]string{extraWordSuggestion}, fb.Suggestions...)
	return fb
}

func matchFeedback(m matchInfo, sole bool) (Feedback, bool) {
	switch strings.ToLower(m.pattern) {
	case "dictionary":
		return dictionaryFeedback(m, sole), true
	case "spatial":
		return Feedback{
			Warning:     "Short keyboard patterns are easy to guess",
			Suggestions: []string{"Use a longer keyboard pattern with more turns"},
		}, true
	case "repeat":
		warning := `Repeats like "abcabcabc" are only slightly harder to guess than "abc"`
		if len(uniqueRunes(m.token)) == 1 {
			warning = `Repeats like "aaa" are easy to guess`
		}
		return Feedback{
			Warning:     warning,
			Suggestions: []string{"Avoid repeated words and characters"},
		}, true
	case "sequence":
		return Feedback{
			Warning:     "Sequences like abc or 6543 are easy to guess",
			Suggestions: []string{"Avoid sequences"},
		}, true
	case "regex", "year", "recent_year":
		// recent_year is the only regex zxcvbn matches
		return Feedback{
			Warning:     "Recent years are easy to guess",
			Suggestions: []string{"Avoid recent years", "Avoid years that are associated with you"},
		}, true
	case "date":
		return Feedback{
			Warning:     "Dates are often easy to guess",
			Suggestions: []string{"Avoid dates and years that are associated with you"},
		}, true
	}
	return Feedback{}, false
}

func dictionaryFeedback(m matchInfo, sole bool) Feedback {
	var fb Feedback
	dict := strings.ToLower(m.dictionary)
	leet := m.l33t

	switch {
	case strings.Contains(dict, "password"):
		switch {
		case sole && !leet && m.rank <= 10:
			fb.Warning = "This is a top-10 common password"
		case sole && !leet && m.rank <= 100:
			fb.Warning = "This is a top-100 common password"
		case sole && !leet:
			fb.Warning = "This is a very common password"
		case m.rank <= 1e4:
			fb.Warning = "This is similar to a commonly used password"
		}
	case strings.Contains(dict, "english"), strings.Contains(dict, "wikipedia"):
		if sole {
			fb.Warning = "A word by itself is easy to guess"
		}
	case strings.Contains(dict, "name"):
		if sole {
			fb.Warning = "Names and surnames by themselves are easy to guess"
		} else {
			fb.Warning = "Common names and surnames are easy to guess"
		}
	}

	word := m.token
	switch {
	case startsUpper(word):
		fb.Suggestions = append(fb.Suggestions, "Capitalization doesn't help very much")
	case strings.ToUpper(word) == word && strings.ToLower(word) != word:
		fb.Suggestions = append(fb.Suggestions, "All-uppercase is almost as easy to guess as all-lowercase")
	}
	if leet {
		fb.Suggestions = append(fb.Suggestions, "Substituting symbols for letters (e.g. '@' instead of 'a') doesn't help very much")
	}
	if fb.Suggestions == nil {
		fb.Suggestions = []string{}
	}
	return fb
}

func startsUpper(s string) bool {
	runes := []rune(s)
	if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func uniqueRunes(s string) map[rune]struct{} {
	out := make(map[rune]struct{}, len(s))
	for _, r := range s {
		out[r] = struct{}{}
	}
	return out
}
