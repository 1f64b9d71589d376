package identity

import (
	"context"

	"github.com/getmockd/idmclient/pkg/resource"
)

const (
	propAccount = "account"
	propGroup   = "group"

	groupMembershipsHref = "groupMemberships"
)

// GroupMembership links one account to one group.
type GroupMembership struct {
	Instance
}

// NewGroupMembership builds a group membership.
func NewGroupMembership(ds resource.DataStore, props map[string]any) *GroupMembership {
	return &GroupMembership{Instance: newInstance(ds, KindGroupMembership, props)}
}

func (m *GroupMembership) Account(ctx context.Context) (*Account, error) {
	return resource.Linked[*Account](ctx, m.Base, propAccount, KindAccount)
}

func (m *GroupMembership) Group(ctx context.Context) (*Group, error) {
	return resource.Linked[*Group](ctx, m.Base, propGroup, KindGroup)
}

// Create persists a new membership between account and group.
func (m *GroupMembership) Create(ctx context.Context, account *Account, group *Group) error {
	st, err := storeOf(m.Base)
	if err != nil {
		return err
	}
	if account.IsNew() || group.IsNew() {
		return resource.ErrNewResource
	}

	m.SetResourceProperty(propAccount, account)
	m.SetResourceProperty(propGroup, group)
	return st.Create(ctx, groupMembershipsHref, m, nil)
}

// EmailVerificationToken is the token mailed to an account pending verification.
type EmailVerificationToken struct {
	Instance
}

// NewEmailVerificationToken builds an email verification token.
func NewEmailVerificationToken(ds resource.DataStore, props map[string]any) *EmailVerificationToken {
	return &EmailVerificationToken{Instance: newInstance(ds, KindEmailVerificationToken, props)}
}

// PasswordResetToken is issued when an account asks for a password reset.
type PasswordResetToken struct {
	Instance
}

// NewPasswordResetToken builds a password reset token.
func NewPasswordResetToken(ds resource.DataStore, props map[string]any) *PasswordResetToken {
	return &PasswordResetToken{Instance: newInstance(ds, KindPasswordResetToken, props)}
}

func (p *PasswordResetToken) Email(ctx context.Context) (string, error) {
	return resource.String(ctx, p.Base, propEmail)
}

func (p *PasswordResetToken) SetEmail(email string) { p.SetProperty(propEmail, email) }

func (p *PasswordResetToken) Account(ctx context.Context) (*Account, error) {
	return resource.Linked[*Account](ctx, p.Base, propAccount, KindAccount)
}
