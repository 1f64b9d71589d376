package identity

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/getmockd/idmclient/pkg/resource"
)

// Resource kinds served by the identity API.
const (
	KindTenant                 resource.Kind = "tenant"
	KindApplication            resource.Kind = "application"
	KindDirectory              resource.Kind = "directory"
	KindAccount                resource.Kind = "account"
	KindGroup                  resource.Kind = "group"
	KindGroupMembership        resource.Kind = "groupMembership"
	KindEmailVerificationToken resource.Kind = "emailVerificationToken"
	KindPasswordResetToken     resource.Kind = "passwordResetToken"

	KindApplicationList        resource.Kind = "applicationList"
	KindDirectoryList          resource.Kind = "directoryList"
	KindAccountList            resource.Kind = "accountList"
	KindGroupList              resource.Kind = "groupList"
	KindGroupMembershipList    resource.Kind = "groupMembershipList"
	KindPasswordResetTokenList resource.Kind = "passwordResetTokenList"
)

type constructor func(ds resource.DataStore, props map[string]any) resource.Resource

// ctor adapts a typed constructor to the factory table.
func ctor[T resource.Resource](fn func(resource.DataStore, map[string]any) T) constructor {
	return func(ds resource.DataStore, props map[string]any) resource.Resource { return fn(ds, props) }
}

var constructors = map[resource.Kind]constructor{
	KindTenant:                 ctor(NewTenant),
	KindApplication:            ctor(NewApplication),
	KindDirectory:              ctor(NewDirectory),
	KindAccount:                ctor(NewAccount),
	KindGroup:                  ctor(NewGroup),
	KindGroupMembership:        ctor(NewGroupMembership),
	KindEmailVerificationToken: ctor(NewEmailVerificationToken),
	KindPasswordResetToken:     ctor(NewPasswordResetToken),
	KindApplicationList:        ctor(NewApplicationList),
	KindDirectoryList:          ctor(NewDirectoryList),
	KindAccountList:            ctor(NewAccountList),
	KindGroupList:              ctor(NewGroupList),
	KindGroupMembershipList:    ctor(NewGroupMembershipList),
	KindPasswordResetTokenList: ctor(NewPasswordResetTokenList),
}

// collectionKinds maps the path segment of a collection to its list and item kinds.
var collectionKinds = map[string][2]resource.Kind{
	"applications":        {KindApplicationList, KindApplication},
	"directories":         {KindDirectoryList, KindDirectory},
	"accounts":            {KindAccountList, KindAccount},
	"groups":              {KindGroupList, KindGroup},
	"groupMemberships":    {KindGroupMembershipList, KindGroupMembership},
	"accountMemberships":  {KindGroupMembershipList, KindGroupMembership},
	"passwordResetTokens": {KindPasswordResetTokenList, KindPasswordResetToken},
	"tenants":             {"", KindTenant},
}

// New builds a resource of kind. It is the factory DataStores dispatch on.
func New(ds resource.DataStore, kind resource.Kind, props map[string]any) (resource.Resource, error) {
	build, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", resource.ErrUnknownKind, kind)
	}
	return build(ds, props), nil
}

// Kinds returns every known kind in sorted order.
func Kinds() []resource.Kind {
	return slices.Sorted(maps.Keys(constructors))
}

// ParseKind matches s against the known kinds, ignoring case.
func ParseKind(s string) (resource.Kind, error) {
	for k := range constructors {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", resource.ErrUnknownKind, s)
}

// InferKind guesses the kind of href from its path:
// ".../accounts" is an account list, ".../accounts/<id>" an account.
func InferKind(href string) (resource.Kind, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	last := segments[len(segments)-1]
	if kinds, ok := collectionKinds[last]; ok && kinds[0] != "" {
		return kinds[0], nil
	}
	if len(segments) >= 2 {
		if kinds, ok := collectionKinds[segments[len(segments)-2]]; ok {
			return kinds[1], nil
		}
	}
	return "", fmt.Errorf("%w: cannot infer kind of %q", resource.ErrUnknownKind, href)
}

// ItemKind returns the kind of the items of the list kind listKind.
func ItemKind(listKind resource.Kind) (resource.Kind, error) {
	for _, kinds := range collectionKinds {
		if kinds[0] != "" && kinds[0] == listKind {
			return kinds[1], nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a list kind", resource.ErrUnknownKind, listKind)
}
