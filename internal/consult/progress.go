package consult

import "github.com/Farizu224/vending-machine-web/internal/domain"

// DefaultMaxQuestions is the progress denominator used when no policy rule
// matches the collected answers.
const DefaultMaxQuestions = 5

// ProgressPolicy derives the expected total question count from the answers
// collected so far. The total is not fixed: an early answer may select a
// branch with a different depth.
type ProgressPolicy interface {
	ExpectedTotal(answers []domain.ConsultationAnswer) int
}

// PolicyFunc adapts a function to the ProgressPolicy interface.
type PolicyFunc func(answers []domain.ConsultationAnswer) int

func (f PolicyFunc) ExpectedTotal(answers []domain.ConsultationAnswer) int {
	return f(answers)
}

// Rule maps a predicate over a single collected answer to a branch depth.
type Rule struct {
	Match func(domain.ConsultationAnswer) bool
	Total int
}

// RulePolicy resolves the expected total by scanning answers against rules
// in order; the first match wins. Falls back to Fallback (or
// DefaultMaxQuestions when unset) if nothing matches.
type RulePolicy struct {
	Rules    []Rule
	Fallback int
}

func (p RulePolicy) ExpectedTotal(answers []domain.ConsultationAnswer) int {
	for _, rule := range p.Rules {
		if rule.Match == nil {
			continue
		}
		for _, answer := range answers {
			if rule.Match(answer) {
				return rule.Total
			}
		}
	}
	if p.Fallback > 0 {
		return p.Fallback
	}
	return DefaultMaxQuestions
}
