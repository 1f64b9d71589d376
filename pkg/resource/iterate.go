package resource

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"strconv"
)

// ErrPaginationStalled is returned by All when the service answers a page
// request with a different window than the one asked for.
var ErrPaginationStalled = errors.New("pagination did not advance")

// PageHref returns href with its offset and limit query parameters set.
func PageHref(href string, offset, limit int) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid collection href %q: %w", href, err)
	}
	q := u.Query()
	q.Set(OffsetProperty, strconv.Itoa(offset))
	q.Set(LimitProperty, strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// All walks the whole collection, starting with the stored page and then
// fetching following pages through the DataStore. Iteration ends after the
// first page holding fewer items than its limit. An error is yielded once
// and ends the sequence.
func (c *Collection[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		page, err := c.CurrentPage(ctx)
		if err != nil {
			yield(zero, err)
			return
		}

		for {
			for _, item := range page.items {
				if !yield(item, nil) {
					return
				}
			}
			if page.limit <= 0 || len(page.items) < page.limit || c.IsNew() {
				return
			}

			page, err = c.fetchPage(ctx, page.offset+page.limit, page.limit)
			if err != nil {
				yield(zero, err)
				return
			}
		}
	}
}

func (c *Collection[T]) fetchPage(ctx context.Context, offset, limit int) (*Page[T], error) {
	href, err := PageHref(c.Href(), offset, limit)
	if err != nil {
		return nil, err
	}
	if c.ds == nil {
		return nil, ErrNoDataStore
	}

	fetched, err := c.ds.GetResource(ctx, href, c.kind)
	if err != nil {
		return nil, err
	}

	next := NewCollection[T](c.ds, c.kind, c.itemKind, fetched.Properties())
	page, err := next.CurrentPage(ctx)
	if err != nil {
		return nil, err
	}
	if page.offset != offset {
		return nil, fmt.Errorf("%w: asked for offset %d, got %d", ErrPaginationStalled, offset, page.offset)
	}
	return page, nil
}
