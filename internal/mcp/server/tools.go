package server

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

// ToolHandler implements a single tool's business logic. For a tool added
// with Register, args has already been decoded into the concrete struct
// type the tool was registered with and passed validator.Struct — such a
// handler never sees a raw map[string]any or a malformed argument. A tool
// added with RegisterRaw receives the decoded map[string]any as-is.
type ToolHandler func(ctx context.Context, args any) (protocol.ToolCallResult, error)

type toolEntry struct {
	descriptor protocol.ToolDescriptor
	handler    ToolHandler
	// argsType is the concrete struct type args is decoded into before
	// validation — reflect.New(argsType) produces a fresh *T each call so
	// concurrent invocations of the same tool never share state. Unused
	// when raw is set.
	argsType reflect.Type
	// raw marks a tool registered with a schema supplied up front (a
	// manifest entry) rather than reflected from a Go struct — its
	// handler receives the decoded arguments map as-is, unvalidated
	// beyond what the manifest's own JSON Schema already promised.
	raw bool
}

// ToolRegistry holds every tool a ProtocolHandler can dispatch tools/call
// against, generating each one's JSON Schema from its Go argument struct
// via invopop/jsonschema and validating decoded arguments with
// go-playground/validator/v10 before the handler ever runs — the same
// reflect-once-validate-every-call split the teacher applies by hand in
// its validateStoreMemoryArgs-style methods, generalized here so every
// tool gets it for free instead of writing its own validator function.
type ToolRegistry struct {
	mu        sync.RWMutex
	entries   map[string]*toolEntry
	order     []string
	validate  *validator.Validate
	reflector *jsonschema.Reflector
}

// NewToolRegistry builds an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		entries:  make(map[string]*toolEntry),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		reflector: &jsonschema.Reflector{
			DoNotReference:            true,
			ExpandedStruct:            true,
			RequiredFromJSONSchemaTags: false,
		},
	}
}

// Register adds a tool named name, described by description, whose
// arguments decode into a fresh instance of argsPrototype's type (pass a
// zero-value struct, e.g. SearchArgs{}). Its inputSchema is reflected from
// that struct's json and jsonschema tags; its validate tags drive the
// validator.Struct check.
func (r *ToolRegistry) Register(name, description string, argsPrototype any, handler ToolHandler) error {
	t := reflect.TypeOf(argsPrototype)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("server: tool %q: argsPrototype must be a struct value", name)
	}

	schema := r.reflector.Reflect(argsPrototype)
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("server: tool %q: generate schema: %w", name, err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(raw, &schemaMap); err != nil {
		return fmt.Errorf("server: tool %q: decode schema: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = &toolEntry{
		descriptor: protocol.ToolDescriptor{Name: name, Description: description, InputSchema: schemaMap},
		handler:    handler,
		argsType:   t,
	}
	return nil
}

// RegisterRaw adds a tool whose inputSchema is supplied directly rather
// than reflected from a Go struct, for a manifest entry whose schema was
// hand-authored in YAML. Its handler receives arguments as the decoded
// map[string]any with no validator.Struct pass — the manifest's schema is
// advisory to the client, not enforced server-side.
func (r *ToolRegistry) RegisterRaw(name, description string, schema map[string]any, handler ToolHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = &toolEntry{
		descriptor: protocol.ToolDescriptor{Name: name, Description: description, InputSchema: schema},
		handler:    handler,
		raw:        true,
	}
}

// Unregister removes a tool by name, used when a manifest hot-reload
// drops a tool that used to be defined.
func (r *ToolRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Has reports whether name is currently registered, so a dispatcher can
// locate a tool before authorizing against it rather than after.
func (r *ToolRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Len reports how many tools are currently registered.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// List returns every registered tool's descriptor in registration order.
func (r *ToolRegistry) List() []protocol.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].descriptor)
	}
	return out
}

// Call decodes rawArgs into the tool's registered argument type,
// validates it, and invokes its handler. A validation failure never
// reaches the handler — it comes back as a Validation protocol.Error
// carrying a ValidationHint.
func (r *ToolRegistry) Call(ctx context.Context, name string, rawArgs map[string]any) (protocol.ToolCallResult, *protocol.Error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return protocol.ToolCallResult{}, protocol.NewError(protocol.CodeMethodNotFound, fmt.Sprintf("unknown tool %q", name))
	}

	if entry.raw {
		result, err := entry.handler(ctx, rawArgs)
		if err != nil {
			return protocol.ToolCallResult{}, protocol.NewError(protocol.CodeInternalError, err.Error())
		}
		return result, nil
	}

	argsJSON, err := json.Marshal(rawArgs)
	if err != nil {
		return protocol.ToolCallResult{}, protocol.NewValidationError("cannot encode tool arguments", protocol.ValidationHint{Field: "arguments", Code: "malformed"})
	}

	argsPtr := reflect.New(entry.argsType)
	if err := json.Unmarshal(argsJSON, argsPtr.Interface()); err != nil {
		return protocol.ToolCallResult{}, protocol.NewValidationError(
			fmt.Sprintf("arguments do not match %s's schema: %v", name, err),
			protocol.ValidationHint{Field: "arguments", Code: "schema_mismatch"})
	}

	if err := r.validate.Struct(argsPtr.Interface()); err != nil {
		return protocol.ToolCallResult{}, protocol.NewValidationError(
			fmt.Sprintf("arguments failed validation: %v", err),
			protocol.ValidationHint{Field: "arguments", Code: "validation_failed"})
	}

	result, err := entry.handler(ctx, argsPtr.Elem().Interface())
	if err != nil {
		return protocol.ToolCallResult{}, protocol.NewError(protocol.CodeInternalError, err.Error())
	}
	return result, nil
}
