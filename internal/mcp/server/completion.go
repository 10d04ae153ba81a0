package server

import "context"

// Completer services completion/complete, suggesting values for one
// argument of a prompt or resource-template reference. It is optional —
// a handler with none installed never advertises the completions
// capability, so completion/complete never reaches the dispatcher (it
// fails with UnsupportedCapability first, per spec.md §4.7's tie-break
// rules).
type Completer interface {
	Complete(ctx context.Context, ref CompletionRef, arg CompletionArg) (CompletionValues, error)
}

// CompletionRef identifies what is being completed: a named prompt or a
// resource URI.
type CompletionRef struct {
	Type string
	Name string
	URI  string
}

// CompletionArg is the single argument name/partial-value pair a client
// is asking for suggestions against.
type CompletionArg struct {
	Name  string
	Value string
}

// CompletionValues is a Completer's answer: candidate values, plus
// whether the server is reporting only a truncated prefix of them.
type CompletionValues struct {
	Values  []string
	Total   int
	HasMore bool
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, ref CompletionRef, arg CompletionArg) (CompletionValues, error)

func (f CompleterFunc) Complete(ctx context.Context, ref CompletionRef, arg CompletionArg) (CompletionValues, error) {
	return f(ctx, ref, arg)
}

// WithCompleter installs the Completer consulted for completion/complete.
func WithCompleter(c Completer) Option {
	return func(h *ProtocolHandler) { h.completer = c }
}
