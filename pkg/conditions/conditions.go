// Package conditions evaluates the predicates of condition nodes against the
// latest user message and the execution's variable bag.
package conditions

import (
	"regexp"
	"strings"
	"sync"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Result is the outcome of a condition evaluation.
type Result struct {
	ConditionMet   bool   `json:"conditionMet"`
	MatchedKeyword string `json:"matchedKeyword,omitempty"`
}

// Evaluator evaluates condition payloads. It is safe for concurrent use;
// compiled regular expressions and expr programs are cached.
type Evaluator struct {
	mu       sync.RWMutex
	regexes  map[string]*regexp.Regexp
	programs map[string]*vm.Program
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		regexes:  make(map[string]*regexp.Regexp),
		programs: make(map[string]*vm.Program),
	}
}

var defaultEvaluator = NewEvaluator()

// Evaluate uses a shared Evaluator.
func Evaluate(data *models.ConditionData, message string, vars map[string]any) Result {
	return defaultEvaluator.Evaluate(data, message, vars)
}

// Evaluate decides whether data holds for message. Malformed patterns and
// unresolvable expressions evaluate to not met; Evaluate never fails.
func (e *Evaluator) Evaluate(data *models.ConditionData, message string, vars map[string]any) Result {
	if data == nil {
		return Result{}
	}

	switch data.ConditionType {
	case models.ConditionKeyword:
		return evaluateKeyword(data.MatchType, data.Values, message)
	case models.ConditionRegex:
		return e.evaluateRegex(first(data.Values), message)
	case models.ConditionVariable:
		return Result{ConditionMet: evaluateVariable(first(data.Values), vars)}
	case models.ConditionExpression:
		return Result{ConditionMet: e.evaluateExpression(first(data.Values), message, vars)}
	default:
		return Result{}
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func evaluateKeyword(matchType models.MatchType, keywords []string, message string) Result {
	text := normalize(message)

	normalized := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if k := normalize(keyword); k != "" {
			normalized = append(normalized, k)
		}
	}

	if len(normalized) == 0 {
		return Result{}
	}

	switch matchType {
	case models.MatchAll:
		for _, keyword := range normalized {
			if !strings.Contains(text, keyword) {
				return Result{}
			}
		}

		return Result{ConditionMet: true, MatchedKeyword: strings.Join(normalized, ",")}
	case models.MatchExact:
		for _, keyword := range normalized {
			if text == keyword {
				return Result{ConditionMet: true, MatchedKeyword: keyword}
			}
		}

		return Result{}
	default:
		for _, keyword := range normalized {
			if strings.Contains(text, keyword) {
				return Result{ConditionMet: true, MatchedKeyword: keyword}
			}
		}

		return Result{}
	}
}

func (e *Evaluator) evaluateRegex(pattern, message string) Result {
	if pattern == "" {
		return Result{}
	}

	re, ok := e.regex(pattern)
	if !ok {
		return Result{}
	}

	loc := re.FindStringIndex(message)
	if loc == nil {
		return Result{}
	}

	return Result{ConditionMet: true, MatchedKeyword: message[loc[0]:loc[1]]}
}

func (e *Evaluator) regex(pattern string) (*regexp.Regexp, bool) {
	e.mu.RLock()
	re, ok := e.regexes[pattern]
	e.mu.RUnlock()

	if ok {
		return re, re != nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		re = nil
	}

	e.regexes[pattern] = re

	return re, re != nil
}

func (e *Evaluator) evaluateExpression(expression, message string, vars map[string]any) bool {
	if strings.TrimSpace(expression) == "" {
		return false
	}

	program, ok := e.program(expression)
	if !ok {
		return false
	}

	env := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		env[k] = v
	}

	if _, set := env[models.VarLastUserMessage]; !set {
		env[models.VarLastUserMessage] = message
	}

	out, err := vm.Run(program, env)
	if err != nil {
		return false
	}

	met, ok := out.(bool)

	return ok && met
}

func (e *Evaluator) program(expression string) (*vm.Program, bool) {
	e.mu.RLock()
	program, ok := e.programs[expression]
	e.mu.RUnlock()

	if ok {
		return program, program != nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	program, err := expr.Compile(expression,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		program = nil
	}

	e.programs[expression] = program

	return program, program != nil
}
