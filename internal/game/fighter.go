package game

import (
	"fmt"
	"strings"

	"github.com/pefman/warband-tracker/internal/engine"
)

// ApplyDamage removes wounds, stopping at 0. A fighter at 0 wounds stays in play.
func (s *Session) ApplyDamage(ref FighterRef, amount int) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	f, err := s.fighter(ref)
	if err != nil {
		return err
	}
	dealt := s.damage(f, amount)
	s.logFor(ref.Warband, EventDamage, fmt.Sprintf("%s takes %d damage (%d/%d)", f.Template.Name, dealt, f.CurrentWounds, f.Template.Wounds))
	return nil
}

// Heal restores wounds, stopping at the fighter's maximum.
func (s *Session) Heal(ref FighterRef, amount int) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	f, err := s.fighter(ref)
	if err != nil {
		return err
	}
	before := f.CurrentWounds
	f.CurrentWounds += min(amount, f.Template.Wounds-f.CurrentWounds)
	s.logFor(ref.Warband, EventHeal, fmt.Sprintf("%s heals %d (%d/%d)", f.Template.Name, f.CurrentWounds-before, f.CurrentWounds, f.Template.Wounds))
	return nil
}

// Strike rolls the attacker's damage (critical damage on a crit) and applies it to the target.
// Returns the damage rolled; the wounds actually removed may be less if the target runs out.
// Taking a standing target to 0 wounds counts as a kill for the attacker.
func (s *Session) Strike(attacker, target FighterRef, critical bool) (int, error) {
	a, err := s.fighter(attacker)
	if err != nil {
		return 0, err
	}
	t, err := s.fighter(target)
	if err != nil {
		return 0, err
	}
	expr, kind := a.Template.Damage, "hit"
	if critical {
		expr, kind = a.Template.CriticalDamage, "critical hit"
	}
	rolled := s.dice.Expr(expr)
	standing := !t.Defeated()
	s.damage(t, rolled)
	if standing && t.Defeated() {
		a.Kills++
	}
	s.logFor(attacker.Warband, EventStrike, fmt.Sprintf("%s lands a %s on %s: %s -> %d damage (%d/%d)",
		a.Template.Name, kind, t.Template.Name, strings.TrimSpace(expr), rolled, t.CurrentWounds, t.Template.Wounds))
	return rolled, nil
}

func (s *Session) damage(f *ActiveFighter, amount int) int {
	before := f.CurrentWounds
	f.CurrentWounds -= min(amount, f.CurrentWounds)
	dealt := before - f.CurrentWounds
	f.DamageTaken += dealt
	return dealt
}

// ToggleActivation flips whether the fighter has activated this round.
func (s *Session) ToggleActivation(ref FighterRef) error {
	f, err := s.fighter(ref)
	if err != nil {
		return err
	}
	f.ActivationUsed = !f.ActivationUsed
	state := "ready"
	if f.ActivationUsed {
		state = "activated"
	}
	s.logFor(ref.Warband, EventActivation, fmt.Sprintf("%s %s", f.Template.Name, state))
	return nil
}

// ToggleTreasure flips the fighter's treasure and keeps the warband total in step.
func (s *Session) ToggleTreasure(ref FighterRef) error {
	f, err := s.fighter(ref)
	if err != nil {
		return err
	}
	aw := &s.warbands[ref.Warband]
	f.HasTreasure = !f.HasTreasure
	if f.HasTreasure {
		aw.TotalTreasures++
		s.logFor(ref.Warband, EventTreasure, fmt.Sprintf("%s picks up treasure (%s holds %d)", f.Template.Name, aw.Template.Name, aw.TotalTreasures))
	} else {
		aw.TotalTreasures--
		s.logFor(ref.Warband, EventTreasure, fmt.Sprintf("%s drops treasure (%s holds %d)", f.Template.Name, aw.Template.Name, aw.TotalTreasures))
	}
	return nil
}

// ToggleStatusEffect adds label if absent, removes it if present. Reports whether it is now applied.
func (s *Session) ToggleStatusEffect(ref FighterRef, label string) (bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return false, ErrEmptyLabel
	}
	f, err := s.fighter(ref)
	if err != nil {
		return false, err
	}
	if i := indexOf(f.StatusEffects, label); i >= 0 {
		f.StatusEffects = append(f.StatusEffects[:i], f.StatusEffects[i+1:]...)
		s.logFor(ref.Warband, EventStatus, fmt.Sprintf("%s is no longer %s", f.Template.Name, label))
		return false, nil
	}
	f.StatusEffects = append(f.StatusEffects, label)
	s.logFor(ref.Warband, EventStatus, fmt.Sprintf("%s is now %s", f.Template.Name, label))
	return true, nil
}

// ClearStatusEffects removes every status effect from the fighter.
func (s *Session) ClearStatusEffects(ref FighterRef) error {
	f, err := s.fighter(ref)
	if err != nil {
		return err
	}
	f.StatusEffects = []string{}
	s.logFor(ref.Warband, EventStatus, fmt.Sprintf("%s status effects cleared", f.Template.Name))
	return nil
}

// SetAbilityDie marks ability as used with the given face, overwriting any earlier entry.
func (s *Session) SetAbilityDie(ref FighterRef, ability string, value int) error {
	ability = strings.TrimSpace(ability)
	if ability == "" {
		return ErrEmptyAbility
	}
	if !engine.ValidFace(value) {
		return fmt.Errorf("%w: got %d", ErrInvalidDie, value)
	}
	f, err := s.fighter(ref)
	if err != nil {
		return err
	}
	if s.strict && !f.Template.HasAbility(ability) {
		return fmt.Errorf("%w: %s has no %q", ErrUnknownAbility, f.Template.Name, ability)
	}
	f.AbilityDice[ability] = AbilityDie{Used: true, Value: value}
	s.logFor(ref.Warband, EventAbility, fmt.Sprintf("%s uses %s with a %d", f.Template.Name, ability, value))
	return nil
}

// RollAbilityDie rolls one fresh die (not from the warband pool) and spends it on ability.
func (s *Session) RollAbilityDie(ref FighterRef, ability string) (int, error) {
	if _, err := s.fighter(ref); err != nil {
		return 0, err
	}
	v := s.dice.D6()
	if err := s.SetAbilityDie(ref, ability, v); err != nil {
		return 0, err
	}
	return v, nil
}

// ClearAbilityDice empties every ability die the fighter holds.
func (s *Session) ClearAbilityDice(ref FighterRef) error {
	f, err := s.fighter(ref)
	if err != nil {
		return err
	}
	f.AbilityDice = map[string]AbilityDie{}
	s.logFor(ref.Warband, EventAbility, fmt.Sprintf("%s ability dice cleared", f.Template.Name))
	return nil
}
