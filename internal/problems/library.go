// Package problems loads and validates the shared problem library and deals
// problems to players without repeats.
package problems

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"codeclash/internal/protocol"
)

// Library is the immutable problem set shared by every room.
type Library struct {
	all     []*protocol.Problem // non-garbage
	garbage []*protocol.Problem
	byID    map[string]*protocol.Problem
}

type libraryFile struct {
	Problems []protocol.Problem `yaml:"problems"`
}

// Load reads a YAML problem file from disk and validates it.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem library %s: %w", path, err)
	}

	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse problem library %s: %w", path, err)
	}

	return New(file.Problems)
}

// New builds a library from an in-memory problem set.
func New(defs []protocol.Problem) (*Library, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("problem library is empty")
	}

	lib := &Library{byID: make(map[string]*protocol.Problem, len(defs))}
	for i := range defs {
		p := &defs[i]
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("problem %q: %w", p.ProblemID, err)
		}
		if _, dup := lib.byID[p.ProblemID]; dup {
			return nil, fmt.Errorf("duplicate problem id %q", p.ProblemID)
		}
		lib.byID[p.ProblemID] = p
		if p.IsGarbage {
			lib.garbage = append(lib.garbage, p)
		} else {
			lib.all = append(lib.all, p)
		}
	}

	if len(lib.all) == 0 {
		return nil, fmt.Errorf("problem library has no non-garbage problems")
	}
	return lib, nil
}

func validate(p *protocol.Problem) error {
	if p.ProblemID == "" {
		return fmt.Errorf("missing problemId")
	}
	if p.Title == "" {
		return fmt.Errorf("missing title")
	}
	switch p.Difficulty {
	case protocol.DifficultyEasy, protocol.DifficultyMedium, protocol.DifficultyHard:
	default:
		return fmt.Errorf("unknown difficulty %q", p.Difficulty)
	}
	if p.TimeLimitMs < 100 || p.TimeLimitMs > 30000 {
		return fmt.Errorf("timeLimitMs must be in 100..30000, got %d", p.TimeLimitMs)
	}
	switch p.ProblemType {
	case protocol.ProblemCode:
		if p.FunctionName == "" {
			return fmt.Errorf("code problem missing functionName")
		}
		if len(p.PublicTests) == 0 {
			return fmt.Errorf("code problem has no public tests")
		}
		if len(p.HiddenTests) == 0 && !p.IsGarbage {
			return fmt.Errorf("code problem has no hidden tests")
		}
	case protocol.ProblemMCQ:
		if len(p.Options) < 2 {
			return fmt.Errorf("mcq problem needs at least 2 options")
		}
		if p.CorrectAnswer == "" {
			return fmt.Errorf("mcq problem missing correctAnswer")
		}
	default:
		return fmt.Errorf("unknown problemType %q", p.ProblemType)
	}
	return nil
}

// Get returns a problem by id.
func (l *Library) Get(id string) (*protocol.Problem, bool) {
	p, ok := l.byID[id]
	return p, ok
}

// Size returns the number of non-garbage problems.
func (l *Library) Size() int { return len(l.all) }

// GarbageSize returns the number of garbage problems.
func (l *Library) GarbageSize() int { return len(l.garbage) }

// Weights returns the (easy, medium, hard) sampling weights for a profile.
func Weights(profile protocol.DifficultyProfile) (easy, medium, hard int) {
	switch profile {
	case protocol.ProfileBeginner:
		return 70, 25, 5
	case protocol.ProfileCompetitive:
		return 20, 40, 40
	default: // moderate
		return 40, 40, 20
	}
}

func weightOf(d protocol.Difficulty, easy, medium, hard int) int {
	switch d {
	case protocol.DifficultyEasy:
		return easy
	case protocol.DifficultyMedium:
		return medium
	default:
		return hard
	}
}
