package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

func TestGetPreset(t *testing.T) {
	cfg, err := GetPreset("crescendo", "heavy")
	require.NoError(t, err)
	assert.Equal(t, 68.0, cfg.Robot.Mass)
	assert.Equal(t, "battery", cfg.Robot.Supply)

	cfg.Robot.Mass = 1
	cfg.Robot.Intake.Variants[0] = "cube"
	again, err := GetPreset("crescendo", "heavy")
	require.NoError(t, err)
	assert.Equal(t, 68.0, again.Robot.Mass)
	assert.Equal(t, "note", again.Robot.Intake.Variants[0])
}

func TestGetPreset_NotFound(t *testing.T) {
	_, err := GetPreset("crescendo", "nonexistent")
	assert.True(t, errors.Is(err, dynamo.ErrUnknownPreset))

	_, err = GetPreset("rapid_react", "default")
	assert.True(t, errors.Is(err, dynamo.ErrUnknownSeason))
}

func TestPresetsValidate(t *testing.T) {
	for season, presets := range Presets {
		for name, cfg := range presets {
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", season, name, err)
			}
		}
	}
}

func TestListPresets(t *testing.T) {
	assert.Equal(t, []string{"default", "fast", "heavy", "navx"}, ListPresets("crescendo"))
	assert.Nil(t, ListPresets("nonexistent"))
}

func TestListComponentPresets(t *testing.T) {
	for _, kind := range Kinds {
		names, err := ListComponentPresets(kind)
		require.NoError(t, err, kind)
		assert.NotEmpty(t, names, kind)
		assert.IsIncreasing(t, names, kind)
	}

	modules, err := ListComponentPresets("modules")
	require.NoError(t, err)
	assert.Contains(t, modules, "mk4i_l3")
	assert.Contains(t, modules, "mk4_l4")

	_, err = ListComponentPresets("bumpers")
	assert.ErrorIs(t, err, dynamo.ErrUnknownPreset)
}
