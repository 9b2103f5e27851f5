package models

// WorkflowContext is the accumulating key/value record threaded through node
// execution. Keys are namespaced by each node's user-chosen variable name.
// Nodes never mutate a context in place: they receive the whole accumulated
// map and return a new, possibly extended one.
type WorkflowContext map[string]any

// Clone returns a shallow copy of the context.
func (c WorkflowContext) Clone() WorkflowContext {
	out := make(WorkflowContext, len(c))
	for k, v := range c {
		out[k] = v
	}

	return out
}

// With returns a copy of the context extended with key=value.
// The new key wins over an existing key of the same name.
func (c WorkflowContext) With(key string, value any) WorkflowContext {
	out := c.Clone()
	out[key] = value

	return out
}

// AsContext converts a decoded durable-step result back into a context.
// Results that crossed a JSON boundary come back as map[string]any.
func AsContext(v any) (WorkflowContext, bool) {
	switch c := v.(type) {
	case WorkflowContext:
		return c, true
	case map[string]any:
		return WorkflowContext(c), true
	default:
		return nil, false
	}
}
