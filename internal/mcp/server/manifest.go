package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/notify"
)

// ManifestTool is one tools/list entry declared in a manifest file. Its
// Schema is passed through to the client verbatim as the tool's
// inputSchema rather than reflected from a Go struct, the tradeoff a
// YAML-declared tool makes against ToolRegistry.Register's type safety.
type ManifestTool struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Schema      map[string]any `yaml:"schema"`
}

// ManifestPrompt is one prompts/list entry declared in a manifest file.
type ManifestPrompt struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Arguments   []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Required    bool   `yaml:"required"`
	} `yaml:"arguments"`
}

// ManifestResource is one resources/list entry declared in a manifest
// file.
type ManifestResource struct {
	URI         string `yaml:"uri"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	MimeType    string `yaml:"mimeType"`
}

// Manifest is the YAML document a manifest file parses into: flat lists
// of tool/prompt/resource descriptors with no handler logic, since a
// handler is a Go closure that cannot live in a config file. ApplyManifest
// pairs each descriptor with the handler its name maps to in the
// Handlers the caller supplies.
type Manifest struct {
	Tools     []ManifestTool     `yaml:"tools"`
	Prompts   []ManifestPrompt   `yaml:"prompts"`
	Resources []ManifestResource `yaml:"resources"`
}

// Handlers supplies the business logic a manifest's bare descriptors
// can't carry, keyed by the same name/uri the manifest uses. A manifest
// entry with no matching handler is skipped rather than registered with a
// nil handler, so a typo in either file fails safe instead of panicking
// the first time the tool is called.
type Handlers struct {
	Tools     map[string]ToolHandler
	Prompts   map[string]PromptHandler
	Resources map[string]ResourceReader
}

// LoadManifest reads and parses a manifest file without registering
// anything, so a caller can validate it before applying it.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server: read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("server: parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// ApplyManifest registers every descriptor in m against h's registries
// using the matching entry in handlers, skipping any descriptor whose
// name or uri has no handler. It never unregisters — callers that want
// reload-replaces-stale-entries semantics should pair ApplyManifest with
// ReplaceManifest instead.
func (h *ProtocolHandler) ApplyManifest(m *Manifest, handlers Handlers) {
	for _, t := range m.Tools {
		fn, ok := handlers.Tools[t.Name]
		if !ok {
			continue
		}
		h.tools.RegisterRaw(t.Name, t.Description, t.Schema, fn)
	}
	for _, p := range m.Prompts {
		fn, ok := handlers.Prompts[p.Name]
		if !ok {
			continue
		}
		descriptor := protocol.PromptDescriptor{Name: p.Name, Description: p.Description}
		for _, a := range p.Arguments {
			descriptor.Arguments = append(descriptor.Arguments, protocol.PromptArgument{
				Name: a.Name, Description: a.Description, Required: a.Required,
			})
		}
		h.prompts.Register(descriptor, fn)
	}
	for _, r := range m.Resources {
		fn, ok := handlers.Resources[r.URI]
		if !ok {
			continue
		}
		_ = h.resources.Register(protocol.ResourceDescriptor{
			URI: r.URI, Name: r.Name, Description: r.Description, MimeType: r.MimeType,
		}, fn)
	}
}

// ReplaceManifest drops every tool this handler currently knows about
// that isn't in m, then applies m, so a reload that removed a tool from
// the file actually removes it from the registry rather than leaving it
// callable until the process restarts. Prompts and resources have no
// Unregister (spec.md never retracts a resource once published), so a
// reload only ever adds or updates them; a prompt removed from the file
// stays registered.
func (h *ProtocolHandler) ReplaceManifest(m *Manifest, handlers Handlers) {
	keep := make(map[string]bool, len(m.Tools))
	for _, t := range m.Tools {
		keep[t.Name] = true
	}
	for _, d := range h.tools.List() {
		if !keep[d.Name] {
			h.tools.Unregister(d.Name)
		}
	}
	h.ApplyManifest(m, handlers)
}

// WatchManifest loads path once, applies it, then starts an
// fsnotify-backed watcher that reloads and re-applies it on every
// subsequent write, emitting all three list_changed notifications after
// each reload. The returned *notify.FileWatcher must be stopped by the
// caller; doing so only stops watching, it does not unregister what the
// last-loaded manifest added.
func (h *ProtocolHandler) WatchManifest(ctx context.Context, path string, handlers Handlers) (*notify.FileWatcher, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	h.ApplyManifest(m, handlers)

	fw := notify.NewFileWatcher(path, 250*time.Millisecond, func() {
		reloaded, err := LoadManifest(path)
		if err != nil {
			h.logger.Printf("manifest: reload %s: %v", path, err)
			return
		}
		h.ReplaceManifest(reloaded, handlers)
		h.NotifyToolsListChanged(ctx)
		h.NotifyPromptsListChanged(ctx)
		h.NotifyResourcesListChanged(ctx)
	})
	if err := fw.Start(); err != nil {
		return nil, fmt.Errorf("server: watch manifest %s: %w", path, err)
	}
	return fw, nil
}
