package guard_test

import (
	"errors"
	"testing"

	"fulfillment/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorGuard_Validate(t *testing.T) {
	errNotConstructed := errors.New("ReserveCommand must be created via NewReserveCommand")

	t.Run("should pass for a constructed guard", func(t *testing.T) {
		g := guard.NewConstructorGuard()

		require.NoError(t, g.Validate(errNotConstructed))
		require.NoError(t, g.Validate(nil))
	})

	t.Run("should return the supplied error for a zero value", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(errNotConstructed)

		require.Error(t, err)
		assert.Equal(t, errNotConstructed, err)
	})

	t.Run("should fall back to the default error", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(nil)

		require.ErrorIs(t, err, guard.ErrDefaultConstructorGuard)
		assert.Equal(t, "object must be created via its constructor", err.Error())
	})
}

func TestConstructorGuard_EmbeddedInCommand(t *testing.T) {
	type reserveCommand struct {
		quantity int
		guard    guard.ConstructorGuard
	}
	errNotConstructed := errors.New("reserveCommand must be created via newReserveCommand")

	newReserveCommand := func(quantity int) (reserveCommand, error) {
		if quantity <= 0 {
			return reserveCommand{}, errors.New("quantity must be positive")
		}
		return reserveCommand{quantity: quantity, guard: guard.NewConstructorGuard()}, nil
	}

	t.Run("should validate a command built by its constructor", func(t *testing.T) {
		cmd, err := newReserveCommand(3)

		require.NoError(t, err)
		require.NoError(t, cmd.guard.Validate(errNotConstructed))
		assert.Equal(t, 3, cmd.quantity)
	})

	t.Run("should reject a literal command", func(t *testing.T) {
		cmd := reserveCommand{quantity: 3}

		require.ErrorIs(t, cmd.guard.Validate(errNotConstructed), errNotConstructed)
	})

	t.Run("should surface constructor validation", func(t *testing.T) {
		_, err := newReserveCommand(0)

		require.EqualError(t, err, "quantity must be positive")
	})
}

func BenchmarkConstructorGuard_Validate(b *testing.B) {
	g := guard.NewConstructorGuard()
	for range b.N {
		_ = g.Validate(nil)
	}
}
