package sqlrender

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leandroluk/golemspec/core"
)

// statement accumulates the arguments of one SQL statement.
type statement struct {
	dialect Dialect
	args    []any
}

func (s *statement) bind(v any) string {
	s.args = append(s.args, v)
	return s.dialect.Placeholder(len(s.args))
}

// Table returns the quoted, database-qualified table name of schema.
func (d Dialect) Table(schema *core.SchemaCore) string {
	if schema.Database != "" {
		return d.Quote(schema.Database) + "." + d.Quote(schema.Collection)
	}
	return d.Quote(schema.Collection)
}

// Condition renders a condition tree to a boolean SQL expression, binding
// values from n+1 on. It returns the expression and its arguments.
func (d Dialect) Condition(condition *core.Condition, n int) (string, []any) {
	s := &statement{dialect: d, args: make([]any, n)}
	sql := s.condition(condition)
	return sql, s.args[n:]
}

func (s *statement) column(c *core.Condition) string {
	if c.Attribute != nil && c.Attribute.Alias != "" {
		return s.dialect.Quote(c.Attribute.Alias) + "." + s.dialect.Quote(c.Attribute.Column)
	}
	return s.dialect.Quote(c.Column())
}

func (s *statement) condition(condition *core.Condition) string {
	if condition == nil || condition.Operator == nil || condition.IsTrue() {
		return "1=1"
	}
	if condition.Operator.IsLogical() {
		partList := make([]string, 0, len(condition.Children))
		for _, child := range condition.Children {
			partList = append(partList, s.condition(child))
		}
		switch *condition.Operator {
		case core.OpAnd:
			return "(" + strings.Join(partList, " AND ") + ")"
		case core.OpOr:
			if len(partList) == 0 {
				return "1=0"
			}
			return "(" + strings.Join(partList, " OR ") + ")"
		case core.OpNot:
			return "NOT (" + strings.Join(partList, " AND ") + ")"
		}
	}

	column := s.column(condition)
	switch *condition.Operator {
	case core.OpNil:
		return column + " IS NULL"
	case core.OpEq:
		return column + " = " + s.bind(condition.Value)
	case core.OpGt:
		return column + " > " + s.bind(condition.Value)
	case core.OpGte:
		return column + " >= " + s.bind(condition.Value)
	case core.OpLt:
		return column + " < " + s.bind(condition.Value)
	case core.OpLte:
		return column + " <= " + s.bind(condition.Value)
	case core.OpLike:
		return column + " " + s.dialect.LikeOperator + " " + s.bind(condition.Value)
	case core.OpILike:
		return "LOWER(" + column + ") LIKE " + s.bind(condition.Value)
	case core.OpBetween:
		bounds, _ := condition.Value.([]any)
		if len(bounds) != 2 {
			return "1=0"
		}
		return column + " BETWEEN " + s.bind(bounds[0]) + " AND " + s.bind(bounds[1])
	case core.OpIn:
		valueList, _ := condition.Value.([]any)
		if len(valueList) == 0 {
			return "1=0"
		}
		placeholderList := make([]string, 0, len(valueList))
		for _, v := range valueList {
			placeholderList = append(placeholderList, s.bind(v))
		}
		return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholderList, ", "))
	}
	return "1=1"
}

// from renders the FROM clause: the table, aliased when the query has a
// root, followed by the root's LEFT joins.
func (s *statement) from(schema *core.SchemaCore, root *core.Root) string {
	d := s.dialect
	if root == nil {
		return d.Table(schema)
	}
	var b strings.Builder
	b.WriteString(d.Table(schema) + " AS " + d.Quote(root.Alias()))
	for _, j := range root.Joins() {
		fmt.Fprintf(&b, " LEFT JOIN %s AS %s ON %s.%s = %s.%s",
			d.Table(j.Schema()), d.Quote(j.Alias),
			d.Quote(j.ParentAlias), d.Quote(j.LocalColumn),
			d.Quote(j.Alias), d.Quote(j.ForeignColumn))
	}
	return b.String()
}

func (s *statement) orderBy(schema *core.SchemaCore, where *core.Where) string {
	if len(where.Sort) == 0 {
		return ""
	}
	d := s.dialect
	partList := make([]string, 0, len(where.Sort))
	for _, sortItem := range where.Sort {
		direction := "ASC"
		if sortItem.Order < 0 {
			direction = "DESC"
		}
		column := d.Quote(sortItem.FieldName)
		if attr := core.SortKey(schema, where.From, sortItem.FieldName); attr != nil {
			column = d.Quote(attr.Column)
			if attr.Alias != "" {
				column = d.Quote(attr.Alias) + "." + column
			}
		}
		partList = append(partList, column+" "+direction)
	}
	return " ORDER BY " + strings.Join(partList, ", ")
}

// Select renders a SELECT of the schema columns. Sort keys are resolved
// before the FROM clause is rendered, so relation paths used only for
// ordering still get their joins.
func (d Dialect) Select(schema *core.SchemaCore, where *core.Where, single bool) (string, []any) {
	if where == nil {
		where = &core.Where{}
	}
	s := &statement{dialect: d}
	orderBy := s.orderBy(schema, where)

	prefix := ""
	if where.From != nil {
		prefix = d.Quote(where.From.Alias()) + "."
	}
	columnNameList := make([]string, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		columnNameList = append(columnNameList, prefix+d.Quote(field.DatabaseColumnName))
	}

	from := s.from(schema, where.From)
	whereClause := s.condition(where.Condition)
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s%s", strings.Join(columnNameList, ", "), from, whereClause, orderBy)

	limit, offset := where.Limit, where.Offset
	if single {
		limit, offset = 1, 0
	}
	switch {
	case limit > 0:
		sql += fmt.Sprintf(" LIMIT %d", limit)
	case offset > 0 && d.NoLimit != "":
		sql += " LIMIT " + d.NoLimit
	}
	if offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d", offset)
	}
	return sql, s.args
}

// Count renders a SELECT COUNT over the same FROM and WHERE as Select.
// With joins, rows are counted once per primary key.
func (d Dialect) Count(schema *core.SchemaCore, where *core.Where) (string, []any) {
	if where == nil {
		where = &core.Where{}
	}
	s := &statement{dialect: d}
	count := "COUNT(*)"
	if where.From != nil && len(where.From.Joins()) > 0 {
		for _, f := range schema.Fields {
			if f.IsPrimaryKey {
				count = "COUNT(DISTINCT " + d.Quote(where.From.Alias()) + "." + d.Quote(f.DatabaseColumnName) + ")"
				break
			}
		}
	}
	from := s.from(schema, where.From)
	whereClause := s.condition(where.Condition)
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", count, from, whereClause), s.args
}

// Insert renders an INSERT of one document.
func (d Dialect) Insert(schema *core.SchemaCore, doc any) (string, []any) {
	s := &statement{dialect: d}
	valueList, _ := core.StructValues(schema, doc)
	columnNameList := make([]string, 0, len(schema.Fields))
	placeholderList := make([]string, 0, len(schema.Fields))
	for i, field := range schema.Fields {
		columnNameList = append(columnNameList, d.Quote(field.DatabaseColumnName))
		placeholderList = append(placeholderList, s.bind(valueList[i]))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Table(schema), strings.Join(columnNameList, ", "), strings.Join(placeholderList, ", ")), s.args
}

// Update renders an UPDATE; changed columns are emitted in name order.
func (d Dialect) Update(schema *core.SchemaCore, condition *core.Condition, changes core.Changes) (string, []any) {
	s := &statement{dialect: d}
	columnList := make([]string, 0, len(changes))
	for column := range changes {
		columnList = append(columnList, column)
	}
	sort.Strings(columnList)
	setPartList := make([]string, 0, len(columnList))
	for _, column := range columnList {
		setPartList = append(setPartList, d.Quote(column)+" = "+s.bind(changes[column]))
	}
	whereClause := s.condition(condition)
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		d.Table(schema), strings.Join(setPartList, ", "), whereClause), s.args
}

// Delete renders a DELETE.
func (d Dialect) Delete(schema *core.SchemaCore, condition *core.Condition) (string, []any) {
	s := &statement{dialect: d}
	whereClause := s.condition(condition)
	return fmt.Sprintf("DELETE FROM %s WHERE %s", d.Table(schema), whereClause), s.args
}
