package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderCarriesMetadata(t *testing.T) {
	t.Parallel()

	err := Newf("session %s not found", "s1").
		Component("datastore").
		Category(CategoryNotFound).
		Context("session_id", "s1").
		Build()

	assert.Equal(t, "session s1 not found", err.Error())
	assert.Equal(t, "datastore", err.GetComponent())
	assert.Equal(t, "not-found", err.GetCategory())
	assert.Equal(t, "s1", err.GetContext()["session_id"])
	assert.False(t, err.GetTimestamp().IsZero())
}

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	err := Newf("boom").Build()
	assert.Equal(t, ComponentUnknown, err.GetComponent())
	assert.Equal(t, string(CategoryGeneric), err.GetCategory())
	assert.Nil(t, err.GetContext())
}

func TestIsMatchesByCategory(t *testing.T) {
	t.Parallel()

	sentinel := Newf("session not found").
		Component("datastore").
		Category(CategoryNotFound).
		Build()

	err := Newf("session %s not found", "s1").
		Component("datastore").
		Category(CategoryNotFound).
		Context("session_id", "s1").
		Build()

	assert.True(t, Is(err, sentinel), "same category matches")

	other := Newf("insert failed").Category(CategoryDatabase).Build()
	assert.False(t, Is(other, sentinel))
}

func TestUnwrapReachesOriginal(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("disk io")
	err := New(fmt.Errorf("open store: %w", cause)).
		Category(CategoryDatabase).
		Build()

	assert.True(t, Is(err, cause))

	var enhanced *EnhancedError
	require.True(t, As(err, &enhanced))
	assert.Equal(t, string(CategoryDatabase), enhanced.GetCategory())
}

func TestGetContextReturnsCopy(t *testing.T) {
	t.Parallel()

	err := Newf("x").Context("k", "v").Build()
	ctx := err.GetContext()
	ctx["k"] = "mutated"
	assert.Equal(t, "v", err.GetContext()["k"])
}
