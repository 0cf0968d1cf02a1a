package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForName(t *testing.T) {
	tests := []struct {
		name  string
		gates []string
	}{
		{"android", []string{Mobile, Android}},
		{"iOS", []string{Mobile, IOS}},
		{" desktop ", []string{Desktop}},
		{"web", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ForName(tt.name)
			assert.Equal(t, tt.gates, p.Gates())
			for _, g := range tt.gates {
				assert.True(t, p.Has(g))
			}
		})
	}
}

func TestPlatform_Require(t *testing.T) {
	require.NoError(t, ForName("ios").Require(Mobile))

	err := ForName("desktop").Require(Mobile)
	require.ErrorIs(t, err, ErrRestricted)
	assert.Contains(t, err.Error(), "desktop")

	err = Platform{}.Require(Mobile)
	require.ErrorIs(t, err, ErrRestricted)
	assert.Contains(t, err.Error(), "unknown")
}

func TestDetect(t *testing.T) {
	t.Setenv("IPCMESH_PLATFORM", "android")
	p, err := Detect()
	require.NoError(t, err)
	assert.Equal(t, "android", p.Name)
	assert.True(t, p.Has(Mobile))
	assert.False(t, p.Has(Desktop))

	t.Setenv("IPCMESH_PLATFORM", "")
	p, err = Detect()
	require.NoError(t, err)
	assert.Empty(t, p.Gates())
}
