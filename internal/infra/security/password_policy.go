package security

import (
	"fmt"
	"strings"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PolicyViolation names one password policy rule a candidate password failed.
type PolicyViolation struct {
	Code    string
	Message string
}

// PolicyError aggregates every violated rule so callers can present
// actionable errors rather than a bare pass/fail.
type PolicyError struct {
	Violations []PolicyViolation
}

// Error implements error for PolicyError.
func (e *PolicyError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "password policy violation"
	}
	messages := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		messages = append(messages, v.Message)
	}
	return strings.Join(messages, "; ")
}

// PasswordPolicy enforces configurable length and character-class
// requirements on raw passwords.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSpecial   bool
	// MinStrengthScore, when positive, additionally gates on the zxcvbn
	// estimator (0-4). Zero disables the check.
	MinStrengthScore int
}

// DefaultPasswordPolicy returns the platform default policy: 8+ characters
// drawing from all four character classes.
func DefaultPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
		RequireSpecial:   true,
	}
}

// Check returns every rule the password violates. An empty slice means the
// password satisfies the policy.
func (p *PasswordPolicy) Check(password string) []PolicyViolation {
	var violations []PolicyViolation

	if length := len([]rune(password)); length < p.MinLength {
		violations = append(violations, PolicyViolation{
			Code:    "min_length",
			Message: fmt.Sprintf("password must be at least %d characters long", p.MinLength),
		})
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsSymbol(r) || unicode.IsPunct(r):
			hasSpecial = true
		}
	}

	if p.RequireUppercase && !hasUpper {
		violations = append(violations, PolicyViolation{
			Code:    "uppercase",
			Message: "password must contain at least one uppercase letter",
		})
	}
	if p.RequireLowercase && !hasLower {
		violations = append(violations, PolicyViolation{
			Code:    "lowercase",
			Message: "password must contain at least one lowercase letter",
		})
	}
	if p.RequireDigit && !hasDigit {
		violations = append(violations, PolicyViolation{
			Code:    "digit",
			Message: "password must contain at least one digit",
		})
	}
	if p.RequireSpecial && !hasSpecial {
		violations = append(violations, PolicyViolation{
			Code:    "special",
			Message: "password must contain at least one special character",
		})
	}

	if p.MinStrengthScore > 0 && len(violations) == 0 {
		minScore := p.MinStrengthScore
		if minScore > 4 {
			minScore = 4
		}
		result := zxcvbn.PasswordStrength(password, nil)
		if result.Score < minScore {
			violations = append(violations, PolicyViolation{
				Code:    "weak_password",
				Message: "password is too weak; choose a more complex value",
			})
		}
	}

	return violations
}

// Validate runs Check and wraps any violations in a PolicyError.
func (p *PasswordPolicy) Validate(password string) error {
	if p == nil {
		return fmt.Errorf("password policy not configured")
	}
	if violations := p.Check(password); len(violations) > 0 {
		return &PolicyError{Violations: violations}
	}
	return nil
}
