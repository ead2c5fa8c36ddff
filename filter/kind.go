// Package filter compiles tagged filter structs into golem conditions.
//
// A filter struct is an ordinary Go struct whose fields carry a `filter`
// tag naming the operation and, optionally, the relation path the field
// constrains:
//
//	type EmployeeFilter struct {
//		Name     string      `json:"name" filter:"like"`
//		RoleID   *int64      `json:"roleId" filter:"eq,relation=role.id"`
//		HiredAt  []Date      `json:"hiredAt" filter:"between"`
//		Statuses []string    `json:"statuses" filter:"in,relation=status"`
//	}
//
// Every active field becomes one predicate; predicates are AND-combined in
// declaration order. Fields holding a nil, empty or zero value are skipped.
package filter

import (
	"fmt"
	"strings"
)

// Kind is an operation a filter field can apply. The set is closed.
type Kind int

const (
	Equal Kind = iota + 1
	Like
	GreaterThan
	LessThan
	In
	Between
)

// Kinds lists every Kind, in declaration order.
func Kinds() []Kind {
	return []Kind{Equal, Like, GreaterThan, LessThan, In, Between}
}

func (k Kind) String() string {
	switch k {
	case Equal:
		return "EQUAL"
	case Like:
		return "LIKE"
	case GreaterThan:
		return "GREATER_THAN"
	case LessThan:
		return "LESS_THAN"
	case In:
		return "IN"
	case Between:
		return "BETWEEN"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a tag token to a Kind. Tokens are case-insensitive and
// accept both the short form ("eq", "gt") and the long one ("equal",
// "greater_than").
func ParseKind(token string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "eq", "equal":
		return Equal, nil
	case "like":
		return Like, nil
	case "gt", "greater_than":
		return GreaterThan, nil
	case "lt", "less_than":
		return LessThan, nil
	case "in":
		return In, nil
	case "between":
		return Between, nil
	}
	return 0, &UnsupportedOperatorError{Op: token}
}
