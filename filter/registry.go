package filter

// Registry maps every Kind to the single strategy that handles it.
// It is immutable once built and safe for concurrent use.
type Registry struct {
	strategies map[Kind]Strategy
}

// NewRegistry indexes strategies by Kind. It fails unless exactly one of
// them supports each Kind.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{strategies: make(map[Kind]Strategy, len(Kinds()))}
	for _, kind := range Kinds() {
		count := 0
		for _, s := range strategies {
			if s.Supports(kind) {
				count++
				r.strategies[kind] = s
			}
		}
		if count != 1 {
			return nil, &RegistryError{Kind: kind, Count: count}
		}
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(strategies ...Strategy) *Registry {
	r, err := NewRegistry(strategies...)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = MustRegistry(DefaultStrategies()...)

// DefaultRegistry returns the registry of the built-in strategies.
func DefaultRegistry() *Registry { return defaultRegistry }

// Strategy returns the strategy for kind.
func (r *Registry) Strategy(kind Kind) (Strategy, error) {
	if s, ok := r.strategies[kind]; ok {
		return s, nil
	}
	return nil, &UnsupportedOperatorError{Kind: kind}
}
