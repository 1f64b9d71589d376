package resource

import (
	"context"
	"fmt"
	"slices"
)

// Pagination property names of a collection resource.
const (
	OffsetProperty = "offset"
	LimitProperty  = "limit"
	ItemsProperty  = "items"
)

// Page is one fetched window of a collection. It is never modified after creation.
type Page[T Resource] struct {
	offset int
	limit  int
	items  []T
}

// NewPage creates a page holding a copy of items.
func NewPage[T Resource](offset, limit int, items []T) *Page[T] {
	return &Page[T]{
		offset: offset,
		limit:  limit,
		items:  slices.Clone(items),
	}
}

// Offset returns the index of the first item of this page within the collection.
func (p *Page[T]) Offset() int { return p.offset }

// Limit returns the page size the service reported.
func (p *Page[T]) Limit() int { return p.limit }

// Len returns the number of items on the page.
func (p *Page[T]) Len() int { return len(p.items) }

// Items returns a copy of the page items in service order.
func (p *Page[T]) Items() []T { return slices.Clone(p.items) }

// Collection is a resource whose offset, limit and items properties describe
// one page of sub-resources of a single item kind.
type Collection[T Resource] struct {
	*Base
	itemKind Kind
}

// NewCollection creates a collection resource of kind whose items are built as itemKind.
func NewCollection[T Resource](ds DataStore, kind, itemKind Kind, props map[string]any) *Collection[T] {
	return &Collection[T]{
		Base:     NewBase(ds, kind, props),
		itemKind: itemKind,
	}
}

// ItemKind returns the kind every item is instantiated as.
func (c *Collection[T]) ItemKind() Kind { return c.itemKind }

// Offset returns the offset of the stored page.
func (c *Collection[T]) Offset(ctx context.Context) (int, error) {
	return Int(ctx, c.Base, OffsetProperty)
}

// Limit returns the limit of the stored page.
func (c *Collection[T]) Limit(ctx context.Context) (int, error) {
	return Int(ctx, c.Base, LimitProperty)
}

// CurrentPage reads the stored offset, limit and items and builds a Page,
// instantiating every raw item record through the DataStore in order.
// Missing or non-list items yield an empty page.
func (c *Collection[T]) CurrentPage(ctx context.Context) (*Page[T], error) {
	raw, err := c.GetProperty(ctx, ItemsProperty)
	if err != nil {
		return nil, err
	}
	offset, err := c.Offset(ctx)
	if err != nil {
		return nil, err
	}
	limit, err := c.Limit(ctx)
	if err != nil {
		return nil, err
	}

	items, err := c.toResources(raw)
	if err != nil {
		return nil, err
	}
	return &Page[T]{offset: offset, limit: limit, items: items}, nil
}

// Each calls fn for every item of the current page, in order.
// It does not follow further pages; see All for that.
func (c *Collection[T]) Each(ctx context.Context, fn func(T) error) error {
	page, err := c.CurrentPage(ctx)
	if err != nil {
		return err
	}
	for _, item := range page.items {
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection[T]) toResources(raw any) ([]T, error) {
	vals, ok := raw.([]any)
	if !ok {
		return []T{}, nil
	}
	if c.ds == nil {
		return nil, ErrNoDataStore
	}

	items := make([]T, 0, len(vals))
	for i, val := range vals {
		props, _ := val.(map[string]any)
		r, err := c.ds.Instantiate(c.itemKind, props)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		item, ok := r.(T)
		if !ok {
			return nil, fmt.Errorf("item %d: %w: %s built as %T", i, ErrKindMismatch, c.itemKind, r)
		}
		items = append(items, item)
	}
	return items, nil
}
