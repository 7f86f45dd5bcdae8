package resolver

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// celCostLimit bounds a single predicate evaluation.
const celCostLimit = 1000000

type compiledRule struct {
	rule    IntentRule
	program cel.Program
}

// RuleTable is a compiled, ordered intent-rule table. Evaluation is strict first match.
type RuleTable struct {
	rules []compiledRule
}

// CompileRules compiles rules in order. Every rule needs a name, non-empty SQL
// and a boolean expression, and the last rule must be the literal `true`.
func CompileRules(rules []IntentRule) (*RuleTable, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule table is empty")
	}

	env, err := cel.NewEnv(cel.Variable("text", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	table := &RuleTable{rules: make([]compiledRule, 0, len(rules))}
	seen := make(map[string]bool, len(rules))

	for i, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d has no name", i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true

		if strings.TrimSpace(r.SQL) == "" {
			return nil, fmt.Errorf("rule %q has empty SQL", r.Name)
		}

		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %q: compile error: %w", r.Name, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %q: expression must be boolean, got %s", r.Name, ast.OutputType())
		}

		prog, err := env.Program(ast, cel.CostLimit(celCostLimit))
		if err != nil {
			return nil, fmt.Errorf("rule %q: program error: %w", r.Name, err)
		}

		table.rules = append(table.rules, compiledRule{rule: r, program: prog})
	}

	if last := rules[len(rules)-1]; strings.TrimSpace(last.Expression) != "true" {
		return nil, fmt.Errorf("last rule %q must have expression `true` so every question resolves", last.Name)
	}

	return table, nil
}

// Match returns the first rule whose predicate holds for text. text is expected
// to be lowercased already. A predicate that fails to evaluate counts as false.
func (t *RuleTable) Match(text string) IntentRule {
	vars := map[string]any{"text": text}
	for _, cr := range t.rules {
		out, _, err := cr.program.Eval(vars)
		if err != nil {
			continue
		}
		if ok, isBool := out.Value().(bool); isBool && ok {
			return cr.rule
		}
	}
	// Unreachable: the last rule is `true`.
	return t.rules[len(t.rules)-1].rule
}

// Rules returns the table in priority order.
func (t *RuleTable) Rules() []IntentRule {
	out := make([]IntentRule, len(t.rules))
	for i, cr := range t.rules {
		out[i] = cr.rule
	}
	return out
}
