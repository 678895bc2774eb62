package password

import (
	"context"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Requirements are the structural rules a password must satisfy in
// addition to the strength score threshold.
type Requirements struct {
	MinLength           int  `json:"min_length"`
	MaxLength           int  `json:"max_length"`
	RequireUppercase    bool `json:"require_uppercase"`
	RequireLowercase    bool `json:"require_lowercase"`
	RequireNumbers      bool `json:"require_numbers"`
	RequireSpecialChars bool `json:"require_special_chars"`
	MinStrengthScore    int  `json:"min_strength_score"`
}

// MaxLengthLimit is the largest MaxLength a policy may configure.
const MaxLengthLimit = 256

// DefaultRequirements returns the built-in fallback policy. A score of 1
// means the estimator puts the password above 10^3 guesses; anything that
// splits into two or more patterns clears it, and length plus character
// classes carry the rest.
func DefaultRequirements() Requirements {
	return Requirements{
		MinLength:           8,
		MaxLength:           128,
		RequireUppercase:    true,
		RequireLowercase:    true,
		RequireNumbers:      true,
		RequireSpecialChars: false,
		MinStrengthScore:    1,
	}
}

// Validation is the outcome of [ValidateRequirements].
type Validation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// ValidateRequirements checks length bounds (in runes) and the enabled
// character classes. Zero bounds are not enforced.
func ValidateRequirements(password string, req Requirements) Validation {
	errs := make([]string, 0, 2)
	length := utf8.RuneCountInString(password)

	if req.MinLength > 0 && length < req.MinLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters long", req.MinLength))
	}
	if req.MaxLength > 0 && length > req.MaxLength {
		errs = append(errs, fmt.Sprintf("Password must be at most %d characters long", req.MaxLength))
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}

	if req.RequireUppercase && !upper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if req.RequireLowercase && !lower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if req.RequireNumbers && !digit {
		errs = append(errs, "Password must contain at least one number")
	}
	if req.RequireSpecialChars && !special {
		errs = append(errs, "Password must contain at least one special character")
	}

	return Validation{IsValid: len(errs) == 0, Errors: errs}
}

// RequirementsSource resolves the policy in force at call time.
type RequirementsSource interface {
	Requirements(ctx context.Context) Requirements
}

// StaticRequirements is a fixed [RequirementsSource].
type StaticRequirements Requirements

// Requirements implements [RequirementsSource].
func (s StaticRequirements) Requirements(context.Context) Requirements {
	return Requirements(s)
}

// StrongResult combines the estimator score with the structural check.
type StrongResult struct {
	Score                int        `json:"score"`
	Feedback             Feedback   `json:"feedback"`
	IsStrong             bool       `json:"is_strong"`
	AdditionalValidation Validation `json:"additional_validation"`
}

// Policy evaluates passwords against a [RequirementsSource] and an
// [Estimator]. It has no side effects and never fails.
type Policy struct {
	source    RequirementsSource
	estimator Estimator
	translate func(Feedback) Feedback
}

// PolicyOption configures a [Policy].
type PolicyOption func(*Policy)

// WithEstimator replaces the default zxcvbn estimator.
func WithEstimator(e Estimator) PolicyOption {
	return func(p *Policy) {
		if e != nil {
			p.estimator = e
		}
	}
}

// WithFeedbackTranslator post-processes estimator feedback, for example
// with [TranslateVietnamese].
func WithFeedbackTranslator(fn func(Feedback) Feedback) PolicyOption {
	return func(p *Policy) {
		p.translate = fn
	}
}

// NewPolicy builds a [Policy]. A nil source uses [DefaultRequirements].
func NewPolicy(source RequirementsSource, opts ...PolicyOption) *Policy {
	if source == nil {
		source = StaticRequirements(DefaultRequirements())
	}
	p := &Policy{
		source:    source,
		estimator: ZXCVBN(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ScorePassword runs the estimator and applies the feedback translator.
func (p *Policy) ScorePassword(password string, userInputs ...string) Strength {
	s := p.estimator.Estimate(password, userInputs)
	s.Score = clampScore(s.Score)
	if p.translate != nil {
		s.Feedback = p.translate(s.Feedback)
	}
	return s
}

// Requirements returns the requirements currently in force.
func (p *Policy) Requirements(ctx context.Context) Requirements {
	return p.source.Requirements(ctx)
}

// IsPasswordStrong reports IsStrong when the score reaches
// MinStrengthScore and every structural requirement holds. Passwords over
// MaxLength are rejected without running the estimator.
func (p *Policy) IsPasswordStrong(ctx context.Context, password string, userInputs ...string) StrongResult {
	req := p.source.Requirements(ctx)
	validation := ValidateRequirements(password, req)

	maxLen := req.MaxLength
	if maxLen <= 0 || maxLen > MaxLengthLimit {
		maxLen = MaxLengthLimit
	}
	if utf8.RuneCountInString(password) > maxLen {
		if validation.IsValid {
			validation = Validation{Errors: []string{fmt.Sprintf("Password must be at most %d characters long", maxLen)}}
		}
		return StrongResult{
			Score:                MinScore,
			Feedback:             Feedback{Suggestions: []string{}},
			AdditionalValidation: validation,
		}
	}

	strength := p.ScorePassword(password, userInputs...)

	return StrongResult{
		Score:                strength.Score,
		Feedback:             strength.Feedback,
		IsStrong:             strength.Score >= req.MinStrengthScore && validation.IsValid,
		AdditionalValidation: validation,
	}
}
