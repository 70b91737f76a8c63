package problems

import "codeclash/internal/protocol"

// Default returns the built-in problem set used when no library file is
// configured.
func Default() *Library {
	lib, err := New(defaultProblems)
	if err != nil {
		// The built-in set is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return lib
}

var defaultProblems = []protocol.Problem{
	{
		ProblemID:    "two-sum",
		Title:        "Two Sum",
		Difficulty:   protocol.DifficultyEasy,
		ProblemType:  protocol.ProblemCode,
		Prompt:       "Given an array of integers and a target, return the indices of the two numbers that add up to the target.",
		TimeLimitMs:  5000,
		FunctionName: "twoSum",
		Signature:    "twoSum(nums: number[], target: number): number[]",
		StarterCode:  "function twoSum(nums, target) {\n  // your code here\n}",
		PublicTests: []protocol.TestCase{
			{Input: "[2,7,11,15], 9", Expected: "[0,1]"},
			{Input: "[3,2,4], 6", Expected: "[1,2]"},
		},
		HiddenTests: []protocol.TestCase{
			{Input: "[3,3], 6", Expected: "[0,1]"},
			{Input: "[-1,1,0], 0", Expected: "[0,1]"},
		},
		Hints: []string{
			"A nested loop works but is O(n^2).",
			"Store seen values in a map keyed by the complement.",
		},
		SolutionSketch: "Single pass with a value->index map, checking target-x before inserting.",
	},
	{
		ProblemID:    "reverse-string",
		Title:        "Reverse String",
		Difficulty:   protocol.DifficultyEasy,
		ProblemType:  protocol.ProblemCode,
		Prompt:       "Reverse a string in place without using built-in reverse helpers.",
		TimeLimitMs:  3000,
		FunctionName: "reverseString",
		Signature:    "reverseString(s: string): string",
		StarterCode:  "function reverseString(s) {\n  // your code here\n}",
		PublicTests: []protocol.TestCase{
			{Input: "\"hello\"", Expected: "\"olleh\""},
		},
		HiddenTests: []protocol.TestCase{
			{Input: "\"\"", Expected: "\"\""},
			{Input: "\"ab\"", Expected: "\"ba\""},
		},
		Hints: []string{"Swap from both ends toward the middle."},
	},
	{
		ProblemID:    "fizzbuzz",
		Title:        "FizzBuzz",
		Difficulty:   protocol.DifficultyEasy,
		ProblemType:  protocol.ProblemCode,
		Prompt:       "Return an array of strings for 1..n where multiples of 3 are \"Fizz\", multiples of 5 are \"Buzz\", and multiples of both are \"FizzBuzz\".",
		TimeLimitMs:  3000,
		FunctionName: "fizzBuzz",
		Signature:    "fizzBuzz(n: number): string[]",
		StarterCode:  "function fizzBuzz(n) {\n  // your code here\n}",
		PublicTests: []protocol.TestCase{
			{Input: "3", Expected: "[\"1\",\"2\",\"Fizz\"]"},
		},
		HiddenTests: []protocol.TestCase{
			{Input: "15", Expected: "[\"1\",\"2\",\"Fizz\",\"4\",\"Buzz\",\"Fizz\",\"7\",\"8\",\"Fizz\",\"Buzz\",\"11\",\"Fizz\",\"13\",\"14\",\"FizzBuzz\"]"},
		},
		Hints: []string{"Check the divisible-by-15 case first."},
	},
	{
		ProblemID:    "valid-parens",
		Title:        "Valid Parentheses",
		Difficulty:   protocol.DifficultyMedium,
		ProblemType:  protocol.ProblemCode,
		Prompt:       "Given a string of brackets ()[]{}, determine whether it is balanced.",
		TimeLimitMs:  5000,
		FunctionName: "isValid",
		Signature:    "isValid(s: string): boolean",
		StarterCode:  "function isValid(s) {\n  // your code here\n}",
		PublicTests: []protocol.TestCase{
			{Input: "\"()[]{}\"", Expected: "true"},
			{Input: "\"(]\"", Expected: "false"},
		},
		HiddenTests: []protocol.TestCase{
			{Input: "\"([)]\"", Expected: "false"},
			{Input: "\"\"", Expected: "true"},
		},
		Hints: []string{
			"Use a stack.",
			"On a closer, the stack top must be the matching opener.",
		},
		SolutionSketch: "Push openers; pop and compare on closers; balanced iff stack ends empty.",
	},
	{
		ProblemID:    "lru-cache",
		Title:        "LRU Cache",
		Difficulty:   protocol.DifficultyMedium,
		ProblemType:  protocol.ProblemCode,
		Prompt:       "Implement an LRU cache with get and put in O(1).",
		TimeLimitMs:  8000,
		FunctionName: "LRUCache",
		Signature:    "class LRUCache { constructor(capacity: number); get(key): number; put(key, value): void }",
		StarterCode:  "class LRUCache {\n  constructor(capacity) {\n    // your code here\n  }\n}",
		PublicTests: []protocol.TestCase{
			{Input: "put(1,1); put(2,2); get(1)", Expected: "1"},
		},
		HiddenTests: []protocol.TestCase{
			{Input: "cap=2; put(1,1); put(2,2); put(3,3); get(1)", Expected: "-1"},
		},
		Hints: []string{
			"Combine a hash map with a doubly linked list.",
			"Maps in most runtimes preserve insertion order.",
		},
	},
	{
		ProblemID:    "rotate-matrix",
		Title:        "Rotate Matrix",
		Difficulty:   protocol.DifficultyMedium,
		ProblemType:  protocol.ProblemCode,
		Prompt:       "Rotate an n x n matrix 90 degrees clockwise in place.",
		TimeLimitMs:  5000,
		FunctionName: "rotate",
		Signature:    "rotate(matrix: number[][]): void",
		StarterCode:  "function rotate(matrix) {\n  // your code here\n}",
		PublicTests: []protocol.TestCase{
			{Input: "[[1,2],[3,4]]", Expected: "[[3,1],[4,2]]"},
		},
		HiddenTests: []protocol.TestCase{
			{Input: "[[1,2,3],[4,5,6],[7,8,9]]", Expected: "[[7,4,1],[8,5,2],[9,6,3]]"},
		},
		Hints: []string{"Transpose, then reverse each row."},
	},
	{
		ProblemID:    "median-streams",
		Title:        "Median of Data Stream",
		Difficulty:   protocol.DifficultyHard,
		ProblemType:  protocol.ProblemCode,
		Prompt:       "Design a structure that supports adding numbers and finding the running median.",
		TimeLimitMs:  10000,
		FunctionName: "MedianFinder",
		Signature:    "class MedianFinder { addNum(num): void; findMedian(): number }",
		StarterCode:  "class MedianFinder {\n  constructor() {\n    // your code here\n  }\n}",
		PublicTests: []protocol.TestCase{
			{Input: "add(1); add(2); findMedian()", Expected: "1.5"},
		},
		HiddenTests: []protocol.TestCase{
			{Input: "add(1); add(2); add(3); findMedian()", Expected: "2"},
		},
		Hints: []string{
			"Keep two heaps split around the median.",
			"Rebalance so the heap sizes differ by at most one.",
		},
		SolutionSketch: "Max-heap of the lower half, min-heap of the upper half; median from the tops.",
	},
	{
		ProblemID:    "word-ladder",
		Title:        "Word Ladder",
		Difficulty:   protocol.DifficultyHard,
		ProblemType:  protocol.ProblemCode,
		Prompt:       "Given beginWord, endWord and a word list, return the length of the shortest transformation sequence changing one letter at a time.",
		TimeLimitMs:  10000,
		FunctionName: "ladderLength",
		Signature:    "ladderLength(beginWord: string, endWord: string, wordList: string[]): number",
		StarterCode:  "function ladderLength(beginWord, endWord, wordList) {\n  // your code here\n}",
		PublicTests: []protocol.TestCase{
			{Input: "\"hit\",\"cog\",[\"hot\",\"dot\",\"dog\",\"lot\",\"log\",\"cog\"]", Expected: "5"},
		},
		HiddenTests: []protocol.TestCase{
			{Input: "\"hit\",\"cog\",[\"hot\",\"dot\",\"dog\",\"lot\",\"log\"]", Expected: "0"},
		},
		Hints: []string{"BFS over one-letter neighbors."},
	},
	{
		ProblemID:     "mcq-big-o-sort",
		Title:         "Sorting Complexity",
		Difficulty:    protocol.DifficultyEasy,
		ProblemType:   protocol.ProblemMCQ,
		Prompt:        "What is the average-case time complexity of quicksort?",
		TimeLimitMs:   2000,
		Options:       []string{"O(n)", "O(n log n)", "O(n^2)", "O(log n)"},
		CorrectAnswer: "O(n log n)",
	},
	{
		ProblemID:     "mcq-tcp-handshake",
		Title:         "TCP Handshake",
		Difficulty:    protocol.DifficultyMedium,
		ProblemType:   protocol.ProblemMCQ,
		Prompt:        "How many segments are exchanged in a TCP connection establishment handshake?",
		TimeLimitMs:   2000,
		Options:       []string{"2", "3", "4", "5"},
		CorrectAnswer: "3",
	},

	// Garbage problems award zero score and only arrive via attacks or timed
	// arrivals.
	{
		ProblemID:    "garbage-legacy-css",
		Title:        "Center This Div",
		Difficulty:   protocol.DifficultyEasy,
		ProblemType:  protocol.ProblemCode,
		Prompt:       "A legacy stylesheet refuses to center a div. Return the missing property.",
		TimeLimitMs:  3000,
		IsGarbage:    true,
		FunctionName: "centerDiv",
		Signature:    "centerDiv(): string",
		StarterCode:  "function centerDiv() {\n  // good luck\n}",
		PublicTests: []protocol.TestCase{
			{Input: "", Expected: "\"margin: auto\""},
		},
	},
	{
		ProblemID:     "garbage-regex-email",
		Title:         "The Perfect Email Regex",
		Difficulty:    protocol.DifficultyEasy,
		ProblemType:   protocol.ProblemMCQ,
		Prompt:        "Which of these regexes validates every RFC 5322 email address?",
		TimeLimitMs:   2000,
		IsGarbage:     true,
		Options:       []string{".*@.*", "\\S+@\\S+", "^.+@.+\\..+$", "none of these"},
		CorrectAnswer: "none of these",
	},
	{
		ProblemID:    "garbage-off-by-one",
		Title:        "Off By One",
		Difficulty:   protocol.DifficultyEasy,
		ProblemType:  protocol.ProblemCode,
		Prompt:       "Count from 1 to n inclusive. Inclusive. INCLUSIVE.",
		TimeLimitMs:  3000,
		IsGarbage:    true,
		FunctionName: "countTo",
		Signature:    "countTo(n: number): number[]",
		StarterCode:  "function countTo(n) {\n  // your code here\n}",
		PublicTests: []protocol.TestCase{
			{Input: "3", Expected: "[1,2,3]"},
		},
	},
}
