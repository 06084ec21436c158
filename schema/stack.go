package schema

// schemaStack is the explicit work stack used by traversals that must not
// recurse on arbitrarily deep schemas.
type schemaStack[T any] struct {
	data []T
}

// newSchemaStack creates a new schema stack.
func newSchemaStack[T any]() *schemaStack[T] {
	return &schemaStack[T]{
		data: make([]T, 0, 64),
	}
}

// push adds a value to the top of the stack.
func (s *schemaStack[T]) push(v T) {
	s.data = append(s.data, v)
}

// pop removes and returns the top value.
// Panics if stack is empty.
func (s *schemaStack[T]) pop() T {
	if len(s.data) == 0 {
		panic("schema stack underflow")
	}
	v := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return v
}

// empty checks if the stack is empty.
func (s *schemaStack[T]) empty() bool {
	return len(s.data) == 0
}
