package identity

import (
	"context"

	"github.com/getmockd/idmclient/pkg/resource"
)

const (
	propName               = "name"
	propDescription        = "description"
	propTenant             = "tenant"
	propAccounts           = "accounts"
	propAccountMemberships = "accountMemberships"
)

// Group is a named set of accounts within a directory.
type Group struct {
	Instance
}

// NewGroup builds a group.
func NewGroup(ds resource.DataStore, props map[string]any) *Group {
	return &Group{Instance: newInstance(ds, KindGroup, props)}
}

func (g *Group) Name(ctx context.Context) (string, error) {
	return resource.String(ctx, g.Base, propName)
}

func (g *Group) SetName(name string) { g.SetProperty(propName, name) }

func (g *Group) Description(ctx context.Context) (string, error) {
	return resource.String(ctx, g.Base, propDescription)
}

func (g *Group) SetDescription(desc string) { g.SetProperty(propDescription, desc) }

func (g *Group) Status(ctx context.Context) (Status, error) { return g.status(ctx) }

func (g *Group) SetStatus(s Status) { g.setStatus(s) }

func (g *Group) Tenant(ctx context.Context) (*Tenant, error) {
	return resource.Linked[*Tenant](ctx, g.Base, propTenant, KindTenant)
}

func (g *Group) Directory(ctx context.Context) (*Directory, error) {
	return resource.Linked[*Directory](ctx, g.Base, propDirectory, KindDirectory)
}

// Accounts returns the member accounts.
func (g *Group) Accounts(ctx context.Context) (*AccountList, error) {
	return resource.Linked[*AccountList](ctx, g.Base, propAccounts, KindAccountList)
}

// AccountMemberships returns the membership links of the group.
func (g *Group) AccountMemberships(ctx context.Context) (*GroupMembershipList, error) {
	return resource.Linked[*GroupMembershipList](ctx, g.Base, propAccountMemberships, KindGroupMembershipList)
}

// AddAccount makes account a member of the group.
func (g *Group) AddAccount(ctx context.Context, account *Account) (*GroupMembership, error) {
	m := NewGroupMembership(g.DataStore(), nil)
	if err := m.Create(ctx, account, g); err != nil {
		return nil, err
	}
	return m, nil
}
