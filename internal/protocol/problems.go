package protocol

// TestCase is a single judge test for a code problem.
type TestCase struct {
	Input    string `json:"input" yaml:"input"`
	Expected string `json:"expected" yaml:"expected"`
}

// Problem is the full server-side problem definition. Hidden tests, hints,
// the solution sketch and the MCQ answer never leave the server.
type Problem struct {
	ProblemID   string      `json:"problemId" yaml:"problemId"`
	Title       string      `json:"title" yaml:"title"`
	Difficulty  Difficulty  `json:"difficulty" yaml:"difficulty"`
	ProblemType ProblemType `json:"problemType" yaml:"problemType"`
	Prompt      string      `json:"prompt" yaml:"prompt"`
	TimeLimitMs int         `json:"timeLimitMs" yaml:"timeLimitMs"`
	IsGarbage   bool        `json:"isGarbage,omitempty" yaml:"isGarbage,omitempty"`
	HintCount   int         `json:"hintCount,omitempty" yaml:"hintCount,omitempty"`

	// Code problems only.
	FunctionName   string     `json:"functionName,omitempty" yaml:"functionName,omitempty"`
	Signature      string     `json:"signature,omitempty" yaml:"signature,omitempty"`
	StarterCode    string     `json:"starterCode,omitempty" yaml:"starterCode,omitempty"`
	PublicTests    []TestCase `json:"publicTests,omitempty" yaml:"publicTests,omitempty"`
	HiddenTests    []TestCase `json:"hiddenTests,omitempty" yaml:"hiddenTests,omitempty"`
	Hints          []string   `json:"hints,omitempty" yaml:"hints,omitempty"`
	SolutionSketch string     `json:"solutionSketch,omitempty" yaml:"solutionSketch,omitempty"`

	// MCQ problems only.
	Options       []string `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty" yaml:"correctAnswer,omitempty"`
}

// ClientProblemView is a Problem with all server-only fields stripped.
type ClientProblemView struct {
	ProblemID   string      `json:"problemId"`
	Title       string      `json:"title"`
	Difficulty  Difficulty  `json:"difficulty"`
	ProblemType ProblemType `json:"problemType"`
	Prompt      string      `json:"prompt"`
	TimeLimitMs int         `json:"timeLimitMs"`
	IsGarbage   bool        `json:"isGarbage,omitempty"`
	HintCount   int         `json:"hintCount,omitempty"`

	FunctionName string     `json:"functionName,omitempty"`
	Signature    string     `json:"signature,omitempty"`
	StarterCode  string     `json:"starterCode,omitempty"`
	PublicTests  []TestCase `json:"publicTests,omitempty"`

	Options []string `json:"options,omitempty"`
}

// ProblemSummary is the compact form shown for queued problems.
type ProblemSummary struct {
	ProblemID  string     `json:"problemId"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	IsGarbage  bool       `json:"isGarbage,omitempty"`
}

// ClientView strips everything a client must not see.
func (p *Problem) ClientView() *ClientProblemView {
	return &ClientProblemView{
		ProblemID:    p.ProblemID,
		Title:        p.Title,
		Difficulty:   p.Difficulty,
		ProblemType:  p.ProblemType,
		Prompt:       p.Prompt,
		TimeLimitMs:  p.TimeLimitMs,
		IsGarbage:    p.IsGarbage,
		HintCount:    len(p.Hints),
		FunctionName: p.FunctionName,
		Signature:    p.Signature,
		StarterCode:  p.StarterCode,
		PublicTests:  p.PublicTests,
		Options:      p.Options,
	}
}

// Summary returns the queued-list form of the problem.
func (p *Problem) Summary() ProblemSummary {
	return ProblemSummary{
		ProblemID:  p.ProblemID,
		Title:      p.Title,
		Difficulty: p.Difficulty,
		IsGarbage:  p.IsGarbage,
	}
}

// TestResult is the outcome of a single public test run by the judge.
type TestResult struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	Passed   bool   `json:"passed"`
}

// JudgeKind distinguishes a public-tests run from a full submit.
type JudgeKind string

const (
	JudgeRun    JudgeKind = "run"
	JudgeSubmit JudgeKind = "submit"
)

// JudgeResult is the payload of a JUDGE_RESULT event.
type JudgeResult struct {
	Kind                 JudgeKind    `json:"kind"`
	ProblemID            string       `json:"problemId"`
	Passed               bool         `json:"passed"`
	PublicTests          []TestResult `json:"publicTests"`
	RuntimeMs            int64        `json:"runtimeMs,omitempty"`
	HiddenTestsPassed    *int         `json:"hiddenTestsPassed,omitempty"`
	HiddenFailureMessage string       `json:"hiddenFailureMessage,omitempty"`
}
