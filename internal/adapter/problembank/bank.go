// Package problembank serves the static catalog of mock patches users review.
// The catalog is embedded at build time and read-only after startup.
package problembank

import (
	_ "embed"
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/code-review-trainer/internal/domain"
)

//go:embed problems.yaml
var problemsYAML []byte

// Bank implements domain.ProblemBank over an in-memory catalog.
type Bank struct {
	problems []domain.Problem
	byID     map[string]domain.Problem
}

// New loads the embedded catalog.
func New() (*Bank, error) {
	return NewFromYAML(problemsYAML)
}

// NewFromYAML builds a bank from raw catalog YAML.
func NewFromYAML(data []byte) (*Bank, error) {
	var doc struct {
		Problems []domain.Problem `yaml:"problems"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse problem catalog: %w", err)
	}
	if len(doc.Problems) == 0 {
		return nil, fmt.Errorf("problem catalog is empty")
	}
	byID := make(map[string]domain.Problem, len(doc.Problems))
	for _, p := range doc.Problems {
		if p.ID == "" {
			return nil, fmt.Errorf("problem catalog entry missing id")
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate problem id %q", p.ID)
		}
		byID[p.ID] = p
	}
	return &Bank{problems: doc.Problems, byID: byID}, nil
}

// Get returns the problem with the given opaque id.
func (b *Bank) Get(_ domain.Context, id string) (domain.Problem, error) {
	p, ok := b.byID[id]
	if !ok {
		return domain.Problem{}, fmt.Errorf("%w: problem %q", domain.ErrNotFound, id)
	}
	return p, nil
}

// List returns all problems in catalog order.
func (b *Bank) List(_ domain.Context) []domain.Problem {
	out := make([]domain.Problem, len(b.problems))
	copy(out, b.problems)
	return out
}

// Random picks a problem using the injected randomness source.
func (b *Bank) Random(_ domain.Context, rng *rand.Rand) (domain.Problem, error) {
	if rng == nil {
		return domain.Problem{}, fmt.Errorf("%w: rng required", domain.ErrInvalidArgument)
	}
	return b.problems[rng.Intn(len(b.problems))], nil
}
