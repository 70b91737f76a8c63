package protocol

import "fmt"

// Settings are the per-match knobs. Editable only by the host, only in lobby.
type Settings struct {
	MatchDurationSec  int               `json:"matchDurationSec" yaml:"matchDurationSec"`
	PlayerCap         int               `json:"playerCap" yaml:"playerCap"`
	StackLimit        int               `json:"stackLimit" yaml:"stackLimit"`
	StartingQueued    int               `json:"startingQueued" yaml:"startingQueued"`
	DifficultyProfile DifficultyProfile `json:"difficultyProfile" yaml:"difficultyProfile"`
	AttackIntensity   AttackIntensity   `json:"attackIntensity" yaml:"attackIntensity"`
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	MatchDurationSec  *int               `json:"matchDurationSec,omitempty"`
	PlayerCap         *int               `json:"playerCap,omitempty"`
	StackLimit        *int               `json:"stackLimit,omitempty"`
	StartingQueued    *int               `json:"startingQueued,omitempty"`
	DifficultyProfile *DifficultyProfile `json:"difficultyProfile,omitempty"`
	AttackIntensity   *AttackIntensity   `json:"attackIntensity,omitempty"`
}

// DefaultSettings returns the settings a fresh room starts with.
func DefaultSettings() Settings {
	return Settings{
		MatchDurationSec:  300,
		PlayerCap:         8,
		StackLimit:        10,
		StartingQueued:    2,
		DifficultyProfile: ProfileModerate,
		AttackIntensity:   IntensityLow,
	}
}

// Validate checks every field against its allowed range.
func (s Settings) Validate() error {
	if s.MatchDurationSec < 3 || s.MatchDurationSec > 600 {
		return fmt.Errorf("matchDurationSec must be in 3..600, got %d", s.MatchDurationSec)
	}
	if s.PlayerCap < 2 || s.PlayerCap > 99 {
		return fmt.Errorf("playerCap must be in 2..99, got %d", s.PlayerCap)
	}
	if s.StackLimit < 5 || s.StackLimit > 20 {
		return fmt.Errorf("stackLimit must be in 5..20, got %d", s.StackLimit)
	}
	if s.StartingQueued < 1 || s.StartingQueued > 5 {
		return fmt.Errorf("startingQueued must be in 1..5, got %d", s.StartingQueued)
	}
	switch s.DifficultyProfile {
	case ProfileBeginner, ProfileModerate, ProfileCompetitive:
	default:
		return fmt.Errorf("unknown difficultyProfile %q", s.DifficultyProfile)
	}
	switch s.AttackIntensity {
	case IntensityLow, IntensityHigh:
	default:
		return fmt.Errorf("unknown attackIntensity %q", s.AttackIntensity)
	}
	return nil
}

// Apply merges the patch into a copy of s and validates the result.
func (s Settings) Apply(p SettingsPatch) (Settings, error) {
	out := s
	if p.MatchDurationSec != nil {
		out.MatchDurationSec = *p.MatchDurationSec
	}
	if p.PlayerCap != nil {
		out.PlayerCap = *p.PlayerCap
	}
	if p.StackLimit != nil {
		out.StackLimit = *p.StackLimit
	}
	if p.StartingQueued != nil {
		out.StartingQueued = *p.StartingQueued
	}
	if p.DifficultyProfile != nil {
		out.DifficultyProfile = *p.DifficultyProfile
	}
	if p.AttackIntensity != nil {
		out.AttackIntensity = *p.AttackIntensity
	}
	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}
