package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("boom")).Build()
	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.Equal(t, "boom", ee.Error())
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuilderFullChain(t *testing.T) {
	t.Parallel()

	base := NewStd("ratio sum out of tolerance")
	ee := New(base).
		Component("dataset").
		Category(CategoryValidation).
		Context("sum", 1.2).
		FileContext("/data/images").
		Build()

	assert.Equal(t, "dataset", ee.Component)
	assert.Equal(t, CategoryValidation, ee.Category)

	ctx := ee.GetContext()
	assert.Equal(t, 1.2, ctx["sum"])
	assert.Equal(t, "/data/images", ctx["path"])

	// Context copies must not alias the internal map.
	ctx["sum"] = 99.0
	assert.Equal(t, 1.2, ee.GetContext()["sum"])
}

func TestUnwrapPreservesChain(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("sentinel")
	wrapped := fmt.Errorf("outer: %w", sentinel)
	ee := New(wrapped).Category(CategoryEngine).Build()

	require.True(t, Is(ee, sentinel))
	assert.Equal(t, wrapped, Unwrap(ee))
}

func TestCategoryHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		match    bool
	}{
		{"validation match", ValidationError("sum is %v", 1.5), CategoryValidation, true},
		{"resource missing match", ResourceMissingError("no checkpoint"), CategoryResourceMissing, true},
		{"resolution match", ResolutionError("no base model"), CategoryModelResolution, true},
		{"engine match", EngineError(NewStd("cuda OOM")), CategoryEngine, true},
		{"category mismatch", ValidationError("bad"), CategoryEngine, false},
		{"plain error", NewStd("plain"), CategoryValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.match, IsCategory(tt.err, tt.category))
		})
	}

	assert.True(t, IsValidation(ValidationError("x")))
	assert.True(t, IsResourceMissing(ResourceMissingError("x")))
	assert.True(t, IsResolution(ResolutionError("x")))
}

func TestIsMatchesByCategory(t *testing.T) {
	t.Parallel()

	a := ValidationError("first")
	b := ValidationError("second")
	assert.True(t, Is(a, b), "enhanced errors with equal categories should match")

	c := EngineError(NewStd("third"))
	assert.False(t, Is(a, c))
}
