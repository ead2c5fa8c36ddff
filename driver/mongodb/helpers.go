package mongodb

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leandroluk/golemspec/core"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toMongoLikePattern converts a SQL-like pattern into an anchored MongoDB
// regex pattern: % becomes .* and _ becomes a single-character wildcard.
//
// Example:
//
//	toMongoLikePattern("%admin_") // "^.*admin.$"
func toMongoLikePattern(input string) string {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range input {
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
	return b.String()
}

// safeCondition ensures that a Where clause always has a valid root condition.
func safeCondition(query *core.Where) *core.Condition {
	if query == nil || query.Condition == nil {
		return core.True()
	}
	return query.Condition
}

// toBSON converts values bson cannot encode as wanted.
func toBSON(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		if d, err := primitive.ParseDecimal128(x.String()); err == nil {
			return d
		}
	case uuid.UUID:
		return primitive.Binary{Subtype: bson.TypeBinaryUUID, Data: x[:]}
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = toBSON(x[i])
		}
		return out
	}
	return v
}

// fromBSON converts decoded bson values back to the types golem maps into
// structs. Embedded documents (joined relations) are converted recursively.
func fromBSON(v any) any {
	switch x := v.(type) {
	case primitive.Decimal128:
		return x.String()
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Binary:
		if x.Subtype == bson.TypeBinaryUUID || x.Subtype == 0x03 {
			if id, err := uuid.FromBytes(x.Data); err == nil {
				return id
			}
		}
		return x.Data
	case bson.M:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = fromBSON(e)
		}
		return out
	case time.Time:
		return x.UTC()
	}
	return v
}
