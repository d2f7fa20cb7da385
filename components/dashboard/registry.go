package dashboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
)

var (
	// ErrMissingCode rejects catalog entries without a widget code.
	ErrMissingCode = errors.New("dashboard: widget code is required")
	// ErrUnregisteredWidget is returned when a provider targets a code the
	// catalog does not define.
	ErrUnregisteredWidget = errors.New("dashboard: widget is not in the catalog")
)

// WidgetHook extends every catalog built by NewRegistry. Packages register
// hooks from init.
type WidgetHook func(reg *Registry) error

var catalogHooks struct {
	sync.Mutex
	list []WidgetHook
}

// RegisterWidgetHook adds h to the hooks run by NewRegistry.
func RegisterWidgetHook(h WidgetHook) {
	catalogHooks.Lock()
	defer catalogHooks.Unlock()
	catalogHooks.list = append(catalogHooks.list, h)
}

// Registry is the widget catalog: definitions in registration order, the
// provider that fetches each widget's data and the manifest metadata it was
// loaded with.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*catalogEntry
	order   []string
}

type catalogEntry struct {
	def      WidgetDefinition
	provider Provider
	meta     ManifestProvider
}

var _ ProviderRegistry = (*Registry)(nil)

// NewRegistry returns the retail catalog extended by every registered hook.
// Built-in widgets have no provider until Bootstrap binds a RetailSource.
// Hook failures leave the catalog as built so far.
func NewRegistry() *Registry {
	reg := &Registry{entries: map[string]*catalogEntry{}}
	for _, def := range DefaultWidgetDefinitions() {
		_ = reg.RegisterDefinition(def)
	}
	_ = reg.runHooks()
	return reg
}

func (r *Registry) runHooks() error {
	catalogHooks.Lock()
	hooks := append([]WidgetHook(nil), catalogHooks.list...)
	catalogHooks.Unlock()
	for _, hook := range hooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefinition adds a copy of def to the catalog. A known code is
// replaced in place; its provider stays bound.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if def.Code == "" {
		return ErrMissingCode
	}
	if def.Height <= 0 {
		def.Height = 1
	}
	def = def.Clone()
	def.normalizeLocalizedFields()

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[def.Code]; ok {
		entry.def = def
		return nil
	}
	r.entries[def.Code] = &catalogEntry{def: def}
	r.order = append(r.order, def.Code)
	return nil
}

// RegisterProvider binds the data provider of a catalog widget.
func (r *Registry) RegisterProvider(code string, provider Provider) error {
	if code == "" {
		return ErrMissingCode
	}
	if provider == nil {
		return fmt.Errorf("dashboard: nil provider for %s", code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[code]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnregisteredWidget, code)
	}
	entry.provider = provider
	return nil
}

// Definition looks up a widget by code.
func (r *Registry) Definition(code string) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.entries[code]; ok {
		return entry.def, true
	}
	return WidgetDefinition{}, false
}

// Provider returns the data provider bound to code.
func (r *Registry) Provider(code string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[code]
	if !ok || entry.provider == nil {
		return nil, false
	}
	return entry.provider, true
}

// ProviderMetadata returns what a catalog manifest said about code's provider.
func (r *Registry) ProviderMetadata(code string) (ManifestProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[code]
	if !ok || entry.meta.isZero() {
		return ManifestProvider{}, false
	}
	return entry.meta, true
}

// Definitions lists the catalog in registration order.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]WidgetDefinition, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.entries[code].def)
	}
	return out
}

// DefinitionsForPage lists the widgets that may appear on page.
func (r *Registry) DefinitionsForPage(page Page) []WidgetDefinition {
	var out []WidgetDefinition
	for _, def := range r.Definitions() {
		if def.OnPage(page) {
			out = append(out, def)
		}
	}
	return out
}

// Sizer sizes grid items for page. Widgets of other pages are unknown to it,
// which is how the page stores reject cross-page toggles.
func (r *Registry) Sizer(page Page) state.Sizer {
	return pageSizer(r, page)
}

// DisplayName is the English widget name used in notices.
func (r *Registry) DisplayName(code string) string {
	if def, ok := r.Definition(code); ok && def.Name != "" {
		return def.Name
	}
	return code
}

func (r *Registry) recordProviderMetadata(code string, meta ManifestProvider) {
	if meta.isZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[code]; ok {
		entry.meta = meta
	}
}
