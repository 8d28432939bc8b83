package config_test

import (
	"testing"

	"github.com/mna/jacinthe/lang/config"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesEnvDefaults(t *testing.T) {
	l := config.Default()
	require.Equal(t, 4096, l.MaxStack)
	require.Equal(t, 256, l.MaxCallDepth)
	require.Equal(t, 256, l.MaxLocals)
	require.Equal(t, 256, l.MaxUpvalues)
	require.Equal(t, 65536, l.MaxConstants)
	require.Equal(t, int64(1048576), l.GCTrigger)
	require.Equal(t, 64, l.MetaRecursionDepth)
}

func TestFromEnvironOverridesDefaults(t *testing.T) {
	t.Setenv("JACINTHE_MAX_STACK", "8192")
	t.Setenv("JACINTHE_GC_TRIGGER", "2048")

	l, err := config.FromEnviron()
	require.NoError(t, err)
	require.Equal(t, 8192, l.MaxStack)
	require.Equal(t, int64(2048), l.GCTrigger)
	require.Equal(t, 256, l.MaxCallDepth, "unset fields still fall back to their envDefault")
}

func TestFromEnvironRejectsInvalidValue(t *testing.T) {
	t.Setenv("JACINTHE_MAX_STACK", "not-a-number")
	_, err := config.FromEnviron()
	require.Error(t, err)
}
