package resource

import (
	"context"
	"maps"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	kindWidget     Kind = "widget"
	kindWidgetList Kind = "widgetList"
)

type widget struct {
	*Base
}

type widgetList = Collection[*widget]

// stubStore serves canned bodies by href and counts every call.
type stubStore struct {
	mu        sync.Mutex
	bodies    map[string]map[string]any
	fetchErr  error
	fetches   atomic.Int64
	instances atomic.Int64
	hrefs     []string
}

func newStubStore() *stubStore {
	return &stubStore{bodies: make(map[string]map[string]any)}
}

func (s *stubStore) put(href string, body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[href] = body
}

func (s *stubStore) Instantiate(kind Kind, props map[string]any) (Resource, error) {
	s.instances.Add(1)
	switch kind {
	case kindWidget:
		return &widget{Base: NewBase(s, kind, props)}, nil
	case kindWidgetList:
		return NewCollection[*widget](s, kind, kindWidget, props), nil
	default:
		return nil, ErrUnknownKind
	}
}

func (s *stubStore) GetResource(ctx context.Context, href string, kind Kind) (Resource, error) {
	s.fetches.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.hrefs = append(s.hrefs, href)
	fetchErr := s.fetchErr
	body, ok := s.bodies[href]
	s.mu.Unlock()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if !ok {
		body, ok = s.pagedBody(href)
	}
	if !ok {
		return nil, errNotFound
	}
	return s.Instantiate(kind, maps.Clone(body))
}

// pagedBody answers "<base>?limit=L&offset=O" from a registered "<base>" list.
func (s *stubStore) pagedBody(href string) (map[string]any, bool) {
	base, query, found := strings.Cut(href, "?")
	if !found {
		return nil, false
	}
	s.mu.Lock()
	full, ok := s.bodies[base]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	var offset, limit int
	for _, kv := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(kv, "=")
		n, _ := strconv.Atoi(v)
		switch k {
		case "offset":
			offset = n
		case "limit":
			limit = n
		}
	}

	all, _ := full["all"].([]any)
	start := min(offset, len(all))
	end := min(start+limit, len(all))
	return map[string]any{
		"href":   href,
		"offset": offset,
		"limit":  limit,
		"items":  all[start:end],
	}, true
}

type stubError string

func (e stubError) Error() string { return string(e) }

const errNotFound = stubError("not found")
