package resource

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync/atomic"
)

// HrefProperty is the name of the identifying reference property.
// It is the only property that can be read without materializing.
const HrefProperty = "href"

// Sentinel errors for resource operations.
var (
	// ErrUnknownKind is returned when a DataStore cannot build the requested kind.
	ErrUnknownKind = errors.New("unknown resource kind")
	// ErrNewResource is returned when an operation needs an href the resource does not have yet.
	ErrNewResource = errors.New("resource has no href")
	// ErrNoDataStore is returned when a resource needs its DataStore but was built without one.
	ErrNoDataStore = errors.New("resource has no data store")
	// ErrKindMismatch is returned when a DataStore builds a different Go type than the caller expects.
	ErrKindMismatch = errors.New("resource kind mismatch")
)

// Kind tags the concrete type of a resource (account, group, ...).
// DataStores dispatch on it when fetching or instantiating.
type Kind string

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Resource is implemented by every concrete resource type.
// Embedding *Base satisfies it.
type Resource interface {
	Href() string
	Kind() Kind
	Properties() map[string]any
	SetProperties(props map[string]any)
	IsDirty() bool
}

// DataStore performs the network fetch and type-directed construction the core relies on.
type DataStore interface {
	// Instantiate builds a resource of kind from props without any I/O.
	// A nil or href-only props yields a resource that materializes on first read.
	Instantiate(kind Kind, props map[string]any) (Resource, error)

	// GetResource fetches href and returns a fully materialized resource of kind.
	GetResource(ctx context.Context, href string, kind Kind) (Resource, error)
}

// Base holds the property set of a resource and drives lazy materialization.
// Concrete resource types embed *Base and expose typed accessors on top of it.
type Base struct {
	ds           DataStore
	kind         Kind
	store        *PropertyStore
	materialized atomic.Bool
}

// NewBase creates the shared state for a resource of kind.
// props of exactly {href} yields a reference-only resource; any other
// non-nil props are taken as the full representation.
func NewBase(ds DataStore, kind Kind, props map[string]any) *Base {
	b := &Base{
		ds:    ds,
		kind:  kind,
		store: NewPropertyStore(nil),
	}
	b.SetProperties(props)
	return b
}

// Kind returns the resource kind tag.
func (b *Base) Kind() Kind { return b.kind }

// DataStore returns the collaborator this resource fetches through.
func (b *Base) DataStore() DataStore { return b.ds }

// Href returns the identifying reference without materializing.
func (b *Base) Href() string {
	v, _ := b.store.Get(HrefProperty)
	s, _ := v.(string)
	return s
}

// IsNew reports whether the resource has no remote identity yet.
func (b *Base) IsNew() bool {
	return b.Href() == ""
}

// IsMaterialized reports whether the full representation has been loaded.
func (b *Base) IsMaterialized() bool {
	return b.materialized.Load()
}

// IsDirty reports whether properties were changed locally since the last full replace.
func (b *Base) IsDirty() bool {
	return b.store.Dirty()
}

// SetProperties replaces the whole property set and resets the dirty flag.
func (b *Base) SetProperties(props map[string]any) {
	b.store.Replace(props)

	_, hasHref := props[HrefProperty]
	hrefOnly := len(props) == 1 && hasHref
	b.materialized.Store(props != nil && !hrefOnly)
}

// Properties returns a snapshot of the current property set without materializing.
func (b *Base) Properties() map[string]any {
	return b.store.Snapshot()
}

// PropertyNames returns the current field names without materializing.
func (b *Base) PropertyNames() []string {
	return b.store.Keys()
}

// GetProperty returns the value of name, materializing first when the
// resource is reference-only. Absent fields return nil without error.
// A failed fetch is returned exactly as the DataStore produced it.
func (b *Base) GetProperty(ctx context.Context, name string) (any, error) {
	if name != HrefProperty && !b.IsNew() && !b.materialized.Load() {
		if err := b.Materialize(ctx); err != nil {
			return nil, err
		}
	}
	v, _ := b.store.Get(name)
	return v, nil
}

// SetProperty changes a single field locally. It never materializes;
// a nil value removes the field. On a reference-only resource the change is
// lost when a later read materializes it.
func (b *Base) SetProperty(name string, value any) {
	b.store.Set(name, value)
}

// SetResourceProperty stores a reference mapping pointing at r.
// A nil r removes the field.
func (b *Base) SetResourceProperty(name string, r Resource) {
	if r == nil {
		b.store.Set(name, nil)
		return
	}
	b.store.Set(name, Reference{Href: r.Href()}.Map())
}

// GetResourceProperty resolves the reference mapping stored under key into
// a resource of kind. It returns nil without error when the field is absent
// or is not a mapping with an href; no DataStore call happens in that case.
func (b *Base) GetResourceProperty(ctx context.Context, key string, kind Kind) (Resource, error) {
	v, err := b.GetProperty(ctx, key)
	if err != nil {
		return nil, err
	}

	if _, ok := AsReference(v); !ok {
		return nil, nil
	}
	if b.ds == nil {
		return nil, ErrNoDataStore
	}
	return b.ds.Instantiate(kind, maps.Clone(v.(map[string]any)))
}

// Materialize fetches the full representation and replaces the local property set.
// Concurrent callers may each fetch; the last replace wins.
func (b *Base) Materialize(ctx context.Context) error {
	href := b.Href()
	if href == "" {
		return ErrNewResource
	}
	if b.ds == nil {
		return ErrNoDataStore
	}

	fetched, err := b.ds.GetResource(ctx, href, b.kind)
	if err != nil {
		return err
	}

	b.store.Replace(fetched.Properties())
	b.materialized.Store(true)
	return nil
}

// Linked resolves a reference property into the concrete type T.
func Linked[T Resource](ctx context.Context, b *Base, key string, kind Kind) (T, error) {
	var zero T
	r, err := b.GetResourceProperty(ctx, key, kind)
	if err != nil || r == nil {
		return zero, err
	}
	t, ok := r.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s built as %T", ErrKindMismatch, kind, r)
	}
	return t, nil
}

// String reads name as a string. Absent fields yield "".
func String(ctx context.Context, b *Base, name string) (string, error) {
	v, err := b.GetProperty(ctx, name)
	if err != nil || v == nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// Int reads name as an int. Absent or non-numeric fields yield 0.
func Int(ctx context.Context, b *Base, name string) (int, error) {
	v, err := b.GetProperty(ctx, name)
	if err != nil {
		return 0, err
	}
	n, _ := toInt(v)
	return n, nil
}
