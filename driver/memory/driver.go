// Package memory implements core.Driver over in-process collections of
// documents. It evaluates condition trees itself, joins relations the way
// a LEFT JOIN does, and is meant for tests and prototypes.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leandroluk/golemspec/core"
)

// Document is a stored row, keyed by column name.
type Document = map[string]any

// MemoryDriver keeps documents per collection. It is safe for concurrent use.
type MemoryDriver struct {
	mutex       sync.RWMutex
	collections map[string][]Document
}

var _ core.Driver = (*MemoryDriver)(nil)

// NewMemoryDriver returns an empty driver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{collections: make(map[string][]Document)}
}

func collectionKey(schema *core.SchemaCore) string {
	if schema.Database != "" {
		return schema.Database + "." + schema.Collection
	}
	return schema.Collection
}

type memoryTransaction struct {
	driver   *MemoryDriver
	snapshot map[string][]Document
	done     bool
}

func (transaction *memoryTransaction) Commit(context.Context) error {
	transaction.done = true
	return nil
}

// Rollback restores the collections as they were when the transaction began.
func (transaction *memoryTransaction) Rollback(context.Context) error {
	if transaction.done {
		return nil
	}
	transaction.done = true
	transaction.driver.mutex.Lock()
	defer transaction.driver.mutex.Unlock()
	transaction.driver.collections = transaction.snapshot
	return nil
}

func (driver *MemoryDriver) Connect(context.Context) error { return nil }

func (driver *MemoryDriver) Ping(context.Context) error { return nil }

func (driver *MemoryDriver) Close(context.Context) error { return nil }

// Transaction snapshots every collection; Rollback restores the snapshot.
func (driver *MemoryDriver) Transaction(context.Context) (core.Transaction, error) {
	driver.mutex.RLock()
	defer driver.mutex.RUnlock()
	snapshot := make(map[string][]Document, len(driver.collections))
	for name, docs := range driver.collections {
		copied := make([]Document, len(docs))
		for i, doc := range docs {
			copied[i] = cloneDocument(doc)
		}
		snapshot[name] = copied
	}
	return &memoryTransaction{driver: driver, snapshot: snapshot}, nil
}

func (driver *MemoryDriver) Insert(_ context.Context, schema *core.SchemaCore, documents ...any) error {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()
	key := collectionKey(schema)
	for _, doc := range documents {
		stored := Document{}
		switch d := doc.(type) {
		case map[string]any:
			stored = cloneDocument(d)
		default:
			valueList, _ := core.StructValues(schema, doc)
			for i, field := range schema.Fields {
				stored[field.DatabaseColumnName] = valueList[i]
			}
		}
		driver.collections[key] = append(driver.collections[key], stored)
	}
	return nil
}

// row is a root document with its joined relations embedded at their paths.
type row struct {
	index int // position of the root document
	view  Document
}

// rows builds the joined view of every root document. A join with no
// match embeds nil; a join with several matches yields one row per match.
func (driver *MemoryDriver) rows(schema *core.SchemaCore, root *core.Root) []row {
	docs := driver.collections[collectionKey(schema)]
	out := make([]row, 0, len(docs))
	for i, doc := range docs {
		out = append(out, row{index: i, view: cloneDocument(doc)})
	}
	if root == nil {
		return out
	}
	for _, j := range root.Joins() {
		related := driver.collections[collectionKey(j.Schema())]
		expanded := make([]row, 0, len(out))
		for _, r := range out {
			parent := r.view
			if j.ParentPath != "" {
				parent, _ = lookup(r.view, j.ParentPath).(Document)
			}
			var matches []Document
			if parent != nil {
				local := parent[j.LocalColumn]
				for _, candidate := range related {
					if local != nil && core.Equal(candidate[j.ForeignColumn], local) {
						matches = append(matches, candidate)
					}
				}
			}
			if len(matches) == 0 {
				if parent != nil {
					parent[lastSegment(j.Path)] = nil
				}
				expanded = append(expanded, r)
				continue
			}
			for _, m := range matches {
				view := cloneDocument(r.view)
				target := view
				if j.ParentPath != "" {
					target, _ = lookup(view, j.ParentPath).(Document)
				}
				target[lastSegment(j.Path)] = cloneDocument(m)
				expanded = append(expanded, row{index: r.index, view: view})
			}
		}
		out = expanded
	}
	return out
}

func (driver *MemoryDriver) find(schema *core.SchemaCore, query *core.Where, single bool) ([]map[string]any, error) {
	if query == nil {
		query = &core.Where{}
	}
	// Sort keys first: relation paths add joins to the root.
	keys := make([]string, len(query.Sort))
	for i, s := range query.Sort {
		keys[i] = s.FieldName
		if attr := core.SortKey(schema, query.From, s.FieldName); attr != nil {
			keys[i] = attr.Path
		}
	}

	driver.mutex.RLock()
	defer driver.mutex.RUnlock()

	var matched []row
	for _, r := range driver.rows(schema, query.From) {
		ok, err := evaluate(query.Condition, r.view)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, r)
		}
	}

	if len(keys) > 0 {
		sort.SliceStable(matched, func(a, b int) bool {
			for i, key := range keys {
				c := compareForSort(lookup(matched[a].view, key), lookup(matched[b].view, key))
				if c == 0 {
					continue
				}
				if query.Sort[i].Order < 0 {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	limit, offset := query.Limit, query.Offset
	if single {
		limit, offset = 1, 0
	}
	if offset > 0 {
		if offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[offset:]
		}
	}
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	root := driver.collections[collectionKey(schema)]
	resultList := make([]map[string]any, 0, len(matched))
	for _, r := range matched {
		resultList = append(resultList, cloneDocument(root[r.index]))
	}
	return resultList, nil
}

func (driver *MemoryDriver) FindOne(_ context.Context, schema *core.SchemaCore, query *core.Where) (any, error) {
	rowList, err := driver.find(schema, query, true)
	if err != nil {
		return nil, err
	}
	if len(rowList) == 0 {
		return nil, nil
	}
	return rowList[0], nil
}

func (driver *MemoryDriver) FindMany(_ context.Context, schema *core.SchemaCore, query *core.Where) (any, error) {
	return driver.find(schema, query, false)
}

func (driver *MemoryDriver) Update(_ context.Context, schema *core.SchemaCore, condition *core.Condition, changes core.Changes) error {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()
	for _, doc := range driver.collections[collectionKey(schema)] {
		ok, err := evaluate(condition, doc)
		if err != nil {
			return err
		}
		if ok {
			for k, v := range changes {
				doc[k] = v
			}
		}
	}
	return nil
}

func (driver *MemoryDriver) Delete(_ context.Context, schema *core.SchemaCore, condition *core.Condition) error {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()
	key := collectionKey(schema)
	kept := driver.collections[key][:0]
	for _, doc := range driver.collections[key] {
		ok, err := evaluate(condition, doc)
		if err != nil {
			return err
		}
		if !ok {
			kept = append(kept, doc)
		}
	}
	driver.collections[key] = kept
	return nil
}

// Count counts matching root documents, once each however many join rows match.
func (driver *MemoryDriver) Count(_ context.Context, schema *core.SchemaCore, query *core.Where) (int64, error) {
	if query == nil {
		query = &core.Where{}
	}
	driver.mutex.RLock()
	defer driver.mutex.RUnlock()
	seen := map[int]struct{}{}
	for _, r := range driver.rows(schema, query.From) {
		ok, err := evaluate(query.Condition, r.view)
		if err != nil {
			return 0, err
		}
		if ok {
			seen[r.index] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

// lookup walks a dotted path through embedded documents.
func lookup(doc Document, path string) any {
	var current any = doc
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(Document)
		if !ok || m == nil {
			return nil
		}
		current = m[segment]
	}
	return current
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		if nested, ok := v.(Document); ok {
			v = cloneDocument(nested)
		}
		out[k] = v
	}
	return out
}

// compareForSort orders nil before any value and falls back to the
// textual form for values without a natural order.
func compareForSort(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c, err := core.Compare(a, b); err == nil {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
