package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKeyIsDeterministicPerPurpose(t *testing.T) {
	i, err := New()
	require.NoError(t, err)

	require.Equal(t, i.DeriveKey("a"), i.DeriveKey("a"))
	require.NotEqual(t, i.DeriveKey("a"), i.DeriveKey("b"))
}

func TestSeedsDifferAcrossInstances(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	require.NotEqual(t, a.DeriveKey("x"), b.DeriveKey("x"))
}

func TestDeriveSeed64(t *testing.T) {
	i, err := New()
	require.NoError(t, err)

	s0, s1 := i.DeriveSeed64("jitter")
	s0again, s1again := i.DeriveSeed64("jitter")
	require.Equal(t, s0, s0again)
	require.Equal(t, s1, s1again)
	require.False(t, s0 == 0 && s1 == 0)
}
