package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFighter() Fighter {
	return Fighter{
		Name: "Vulkite Berzerker", Type: "Warrior", PointsCost: 135,
		Move: 4, Toughness: 4, Wounds: 18, Strength: 4, Attacks: 4,
		Damage: "2", CriticalDamage: "D3+2", Range: 1,
		Abilities: []string{"Rampage", "Onslaught"},
	}
}

func TestFighterValidate(t *testing.T) {
	require.NoError(t, validFighter().Validate())

	tests := []struct {
		name   string
		mutate func(*Fighter)
		msg    string
	}{
		{"missing name", func(f *Fighter) { f.Name = " " }, "name is required"},
		{"missing type", func(f *Fighter) { f.Type = "" }, "type is required"},
		{"move too high", func(f *Fighter) { f.Move = 11 }, "move must be between 1 and 10"},
		{"zero wounds", func(f *Fighter) { f.Wounds = 0 }, "wounds must be at least 1"},
		{"zero range", func(f *Fighter) { f.Range = 0 }, "range must be at least 1"},
		{"negative points", func(f *Fighter) { f.PointsCost = -5 }, "points cost"},
		{"bad damage", func(f *Fighter) { f.Damage = "lots" }, "damage \"lots\""},
		{"bad crit", func(f *Fighter) { f.CriticalDamage = "" }, "critical damage"},
		{"too many dice", func(f *Fighter) { f.Damage = "99999999999999999999D6" }, "damage \"99999999999999999999D6\""},
		{"dice past limit", func(f *Fighter) { f.CriticalDamage = "21D6" }, "critical damage"},
		{"flat damage past limit", func(f *Fighter) { f.Damage = "101" }, "damage \"101\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFighter()
			tt.mutate(&f)
			err := f.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestWarbandValidate(t *testing.T) {
	assert.NoError(t, Warband{Name: "Fyreslayers", Faction: "Order", PointsLimit: 1000}.Validate())
	assert.ErrorIs(t, Warband{Faction: "Order"}.Validate(), ErrInvalid)
	assert.ErrorIs(t, Warband{Name: "x"}.Validate(), ErrInvalid)
	assert.ErrorIs(t, Warband{Name: "x", Faction: "y", PointsLimit: -1}.Validate(), ErrInvalid)
}

func TestBattleValidate(t *testing.T) {
	assert.NoError(t, Battle{Name: "Skirmish", Scenario: "Hold the line"}.Validate())
	assert.ErrorIs(t, Battle{Scenario: "x"}.Validate(), ErrInvalid)
	assert.ErrorIs(t, Battle{Name: "x"}.Validate(), ErrInvalid)
}

func TestHasAbility(t *testing.T) {
	f := validFighter()
	assert.True(t, f.HasAbility("rampage"))
	assert.True(t, f.HasAbility(" Onslaught "))
	assert.False(t, f.HasAbility("Flight"))
}
