package identity

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/getmockd/idmclient/pkg/resource"
)

// ErrNotPersistable is returned when a resource's DataStore cannot create, save or delete.
var ErrNotPersistable = errors.New("data store does not support persistence")

// Store is a DataStore that can also write to the remote service.
// Create and Save replace the resource's properties with the service's response.
type Store interface {
	resource.DataStore

	Create(ctx context.Context, parentHref string, r resource.Resource, query url.Values) error
	Save(ctx context.Context, r resource.Resource) error
	Delete(ctx context.Context, r resource.Resource) error
}

// Status is the enabled state of an application, directory, account or group.
type Status string

// Known statuses.
const (
	StatusEnabled  Status = "ENABLED"
	StatusDisabled Status = "DISABLED"
)

// ParseStatus matches s against the known statuses, ignoring case.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(s)) {
	case StatusEnabled:
		return StatusEnabled, true
	case StatusDisabled:
		return StatusDisabled, true
	default:
		return "", false
	}
}

// Instance is embedded by every single-object resource kind.
type Instance struct {
	*resource.Base
}

func newInstance(ds resource.DataStore, kind resource.Kind, props map[string]any) Instance {
	return Instance{Base: resource.NewBase(ds, kind, props)}
}

// Save pushes the current properties to the service.
func (i Instance) Save(ctx context.Context) error {
	st, err := storeOf(i.Base)
	if err != nil {
		return err
	}
	if i.IsNew() {
		return resource.ErrNewResource
	}
	return st.Save(ctx, i.Base)
}

// Delete removes the resource from the service.
func (i Instance) Delete(ctx context.Context) error {
	st, err := storeOf(i.Base)
	if err != nil {
		return err
	}
	if i.IsNew() {
		return resource.ErrNewResource
	}
	return st.Delete(ctx, i.Base)
}

func (i Instance) status(ctx context.Context) (Status, error) {
	s, err := resource.String(ctx, i.Base, "status")
	if err != nil {
		return "", err
	}
	return Status(strings.ToUpper(s)), nil
}

// setStatus ignores values that are not a known status.
func (i Instance) setStatus(s Status) {
	if st, ok := ParseStatus(string(s)); ok {
		i.SetProperty("status", string(st))
	}
}

func storeOf(b *resource.Base) (Store, error) {
	st, ok := b.DataStore().(Store)
	if !ok {
		return nil, ErrNotPersistable
	}
	return st, nil
}

// collectionHref returns the href of a collection-valued reference property.
func collectionHref(ctx context.Context, b *resource.Base, name string) (string, error) {
	v, err := b.GetProperty(ctx, name)
	if err != nil {
		return "", err
	}
	ref, ok := resource.AsReference(v)
	if !ok {
		return "", &MissingLinkError{Kind: b.Kind(), Property: name}
	}
	return ref.Href, nil
}

// MissingLinkError is returned when an operation needs a link the resource does not carry.
type MissingLinkError struct {
	Kind     resource.Kind
	Property string
}

func (e *MissingLinkError) Error() string {
	return string(e.Kind) + " has no " + e.Property + " link"
}
