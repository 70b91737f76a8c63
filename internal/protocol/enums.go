package protocol

// Difficulty of a problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ProblemType distinguishes code problems from multiple-choice ones.
type ProblemType string

const (
	ProblemCode ProblemType = "code"
	ProblemMCQ  ProblemType = "mcq"
)

// DebuffType is a time-bounded negative status effect.
type DebuffType string

const (
	DebuffDDoS       DebuffType = "ddos"
	DebuffFlashbang  DebuffType = "flashbang"
	DebuffVimLock    DebuffType = "vimLock"
	DebuffMemoryLeak DebuffType = "memoryLeak"
)

// AttackType is the union of all debuffs plus garbageDrop.
type AttackType string

const (
	AttackGarbageDrop AttackType = "garbageDrop"
	AttackDDoS        AttackType = AttackType(DebuffDDoS)
	AttackFlashbang   AttackType = AttackType(DebuffFlashbang)
	AttackVimLock     AttackType = AttackType(DebuffVimLock)
	AttackMemoryLeak  AttackType = AttackType(DebuffMemoryLeak)
)

// IsDebuff reports whether the attack applies a debuff (everything except
// garbageDrop, which manipulates the target's queue instead).
func (a AttackType) IsDebuff() bool {
	return a != AttackGarbageDrop
}

// Debuff converts a debuff-applying attack into its DebuffType.
func (a AttackType) Debuff() DebuffType {
	return DebuffType(a)
}

// BuffType is a time-bounded positive status effect.
type BuffType string

const (
	BuffRateLimiter BuffType = "rateLimiter"
)

// TargetingMode is a player-controlled victim selection policy.
type TargetingMode string

const (
	TargetRandom    TargetingMode = "random"
	TargetAttackers TargetingMode = "attackers"
	TargetTopScore  TargetingMode = "topScore"
	TargetNearDeath TargetingMode = "nearDeath"
	TargetRankAbove TargetingMode = "rankAbove"
)

// ValidTargetingMode reports whether m is a member of the closed enum.
func ValidTargetingMode(m TargetingMode) bool {
	switch m {
	case TargetRandom, TargetAttackers, TargetTopScore, TargetNearDeath, TargetRankAbove:
		return true
	}
	return false
}

// MatchPhase is the lifecycle phase of a match.
type MatchPhase string

const (
	PhaseLobby  MatchPhase = "lobby"
	PhaseWarmup MatchPhase = "warmup"
	PhaseMain   MatchPhase = "main"
	PhaseEnded  MatchPhase = "ended"
)

// MatchEndReason explains why a match ended.
type MatchEndReason string

const (
	EndLastAlive   MatchEndReason = "lastAlive"
	EndTimeExpired MatchEndReason = "timeExpired"
)

// PlayerStatus is the public status of a participant.
type PlayerStatus string

const (
	StatusLobby       PlayerStatus = "lobby"
	StatusCoding      PlayerStatus = "coding"
	StatusError       PlayerStatus = "error"
	StatusUnderAttack PlayerStatus = "underAttack"
	StatusEliminated  PlayerStatus = "eliminated"
)

// Role of a participant within a room.
type Role string

const (
	RolePlayer    Role = "player"
	RoleBot       Role = "bot"
	RoleSpectator Role = "spectator"
)

// DifficultyProfile selects the difficulty weighting used when dealing
// problems.
type DifficultyProfile string

const (
	ProfileBeginner    DifficultyProfile = "beginner"
	ProfileModerate    DifficultyProfile = "moderate"
	ProfileCompetitive DifficultyProfile = "competitive"
)

// AttackIntensity scales debuff durations.
type AttackIntensity string

const (
	IntensityLow  AttackIntensity = "low"
	IntensityHigh AttackIntensity = "high"
)
