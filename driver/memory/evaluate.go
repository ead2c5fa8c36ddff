package memory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leandroluk/golemspec/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func conditionPath(condition *core.Condition) string {
	if condition.Attribute != nil {
		return condition.Attribute.Path
	}
	return condition.FieldName
}

// evaluate reports whether doc satisfies condition. Comparisons against a
// missing or nil value are false, as with SQL NULL.
func evaluate(condition *core.Condition, doc Document) (bool, error) {
	if condition == nil || condition.Operator == nil || condition.IsTrue() {
		return true, nil
	}
	switch *condition.Operator {
	case core.OpAnd:
		for _, child := range condition.Children {
			ok, err := evaluate(child, doc)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case core.OpOr:
		for _, child := range condition.Children {
			ok, err := evaluate(child, doc)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case core.OpNot:
		for _, child := range condition.Children {
			ok, err := evaluate(child, doc)
			if err != nil {
				return false, err
			}
			if ok {
				return false, nil
			}
		}
		return true, nil
	}

	value := lookup(doc, conditionPath(condition))
	if *condition.Operator == core.OpNil {
		return value == nil, nil
	}
	if value == nil {
		return false, nil
	}

	switch *condition.Operator {
	case core.OpEq:
		return core.Equal(value, condition.Value), nil
	case core.OpGt, core.OpGte, core.OpLt, core.OpLte:
		c, err := core.Compare(value, condition.Value)
		if err != nil {
			return false, fmt.Errorf("golem: memory: %s %s: %w", conditionPath(condition), *condition.Operator, err)
		}
		switch *condition.Operator {
		case core.OpGt:
			return c > 0, nil
		case core.OpGte:
			return c >= 0, nil
		case core.OpLt:
			return c < 0, nil
		}
		return c <= 0, nil
	case core.OpLike:
		return like(fmt.Sprint(value), fmt.Sprint(condition.Value), false), nil
	case core.OpILike:
		return like(fmt.Sprint(value), fmt.Sprint(condition.Value), true), nil
	case core.OpIn:
		values, _ := condition.Value.([]any)
		for _, v := range values {
			if core.Equal(value, v) {
				return true, nil
			}
		}
		return false, nil
	case core.OpBetween:
		bounds, _ := condition.Value.([]any)
		if len(bounds) != 2 {
			return false, nil
		}
		lo, err := core.Compare(value, bounds[0])
		if err != nil {
			return false, err
		}
		hi, err := core.Compare(value, bounds[1])
		if err != nil {
			return false, err
		}
		return lo >= 0 && hi <= 0, nil
	}
	return false, fmt.Errorf("golem: memory: unsupported operator %s", *condition.Operator)
}

// like matches s against a SQL LIKE pattern (% and _ wildcards).
func like(s, pattern string, fold bool) bool {
	if fold {
		lower := cases.Lower(language.Und)
		s, pattern = lower.String(s), lower.String(pattern)
	}
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	re, err := regexp.Compile(b.String())
	return err == nil && re.MatchString(s)
}
