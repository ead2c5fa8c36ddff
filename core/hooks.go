package core

// PreHook names a hook run before a model operation. A failing pre hook
// aborts the operation.
type PreHook string

// PostHook names a hook run after a model operation succeeded.
type PostHook string

const (
	PreInsert PreHook = "pre:insert"
	PreUpdate PreHook = "pre:update"
	PreDelete PreHook = "pre:delete"
	// PreFind runs once per find with a zero entity, before the driver is
	// queried; Filter goes through it too.
	PreFind PreHook = "pre:find"

	PostInsert PostHook = "post:insert"
	PostUpdate PostHook = "post:update"
	PostDelete PostHook = "post:delete"
	// PostFind runs for every entity a find returns.
	PostFind PostHook = "post:find"
)

// RegisterPreHook appends fn to the hooks run before hook.
func (s *SchemaMeta[T]) RegisterPreHook(hook PreHook, fn func(*T) error) {
	s.PreHookList[hook] = append(s.PreHookList[hook], fn)
}

// RegisterPostHook appends fn to the hooks run after hook.
func (s *SchemaMeta[T]) RegisterPostHook(hook PostHook, fn func(*T) error) {
	s.PostHookList[hook] = append(s.PostHookList[hook], fn)
}

// runHooks calls fnList in registration order and stops at the first error.
func runHooks[T any](fnList []func(*T) error, doc *T) error {
	for _, fn := range fnList {
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model[T]) runPre(hook PreHook, doc *T) error {
	return runHooks(m.schema.PreHookList[hook], doc)
}

func (m *Model[T]) runPost(hook PostHook, doc *T) error {
	return runHooks(m.schema.PostHookList[hook], doc)
}
