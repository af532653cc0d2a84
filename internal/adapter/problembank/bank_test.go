package problembank

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/code-review-trainer/internal/domain"
)

func TestNew_EmbeddedCatalog(t *testing.T) {
	t.Parallel()

	bank, err := New()
	require.NoError(t, err)

	problems := bank.List(context.Background())
	require.NotEmpty(t, problems)

	seen := map[string]bool{}
	for _, p := range problems {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Language)
		assert.NotEmpty(t, p.Patch)
		assert.NotEmpty(t, p.Purpose)
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestNewFromYAML_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"invalid_yaml", ":\n  - ["},
		{"empty_catalog", "problems: []"},
		{"missing_id", "problems:\n  - title: no id here"},
		{"duplicate_id", "problems:\n  - id: a\n    title: one\n  - id: a\n    title: two"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewFromYAML([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestBank_Get(t *testing.T) {
	t.Parallel()

	bank, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	want := bank.List(ctx)[0]
	got, err := bank.Get(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = bank.Get(ctx, "does-not-exist")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBank_Random(t *testing.T) {
	t.Parallel()

	bank, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = bank.Random(ctx, nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	rng := rand.New(rand.NewSource(1))
	p1, err := bank.Random(ctx, rng)
	require.NoError(t, err)

	same := rand.New(rand.NewSource(1))
	p2, err := bank.Random(ctx, same)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID, "same seed picks the same problem")
}
