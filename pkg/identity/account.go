package identity

import (
	"context"

	"github.com/getmockd/idmclient/pkg/resource"
)

// Account property names.
const (
	propUsername               = "username"
	propEmail                  = "email"
	propPassword               = "password"
	propGivenName              = "givenName"
	propMiddleName             = "middleName"
	propSurname                = "surname"
	propGroups                 = "groups"
	propDirectory              = "directory"
	propEmailVerificationToken = "emailVerificationToken"
	propGroupMemberships       = "groupMemberships"
)

// Account is a user identity stored in a directory.
type Account struct {
	Instance
}

// NewAccount builds an account. A nil props gives a new account ready to be created.
func NewAccount(ds resource.DataStore, props map[string]any) *Account {
	return &Account{Instance: newInstance(ds, KindAccount, props)}
}

func (a *Account) Username(ctx context.Context) (string, error) {
	return resource.String(ctx, a.Base, propUsername)
}

func (a *Account) SetUsername(username string) { a.SetProperty(propUsername, username) }

func (a *Account) Email(ctx context.Context) (string, error) {
	return resource.String(ctx, a.Base, propEmail)
}

func (a *Account) SetEmail(email string) { a.SetProperty(propEmail, email) }

// SetPassword sets the plaintext password sent on the next create or save.
// The service never returns it.
func (a *Account) SetPassword(password string) { a.SetProperty(propPassword, password) }

func (a *Account) GivenName(ctx context.Context) (string, error) {
	return resource.String(ctx, a.Base, propGivenName)
}

func (a *Account) SetGivenName(name string) { a.SetProperty(propGivenName, name) }

func (a *Account) MiddleName(ctx context.Context) (string, error) {
	return resource.String(ctx, a.Base, propMiddleName)
}

func (a *Account) SetMiddleName(name string) { a.SetProperty(propMiddleName, name) }

func (a *Account) Surname(ctx context.Context) (string, error) {
	return resource.String(ctx, a.Base, propSurname)
}

func (a *Account) SetSurname(surname string) { a.SetProperty(propSurname, surname) }

// Status returns the account status, upper-cased.
func (a *Account) Status(ctx context.Context) (Status, error) { return a.status(ctx) }

// SetStatus changes the status. Unknown values are ignored.
func (a *Account) SetStatus(s Status) { a.setStatus(s) }

// Groups returns the groups the account belongs to.
func (a *Account) Groups(ctx context.Context) (*GroupList, error) {
	return resource.Linked[*GroupList](ctx, a.Base, propGroups, KindGroupList)
}

// Directory returns the directory that owns the account.
func (a *Account) Directory(ctx context.Context) (*Directory, error) {
	return resource.Linked[*Directory](ctx, a.Base, propDirectory, KindDirectory)
}

// EmailVerificationToken returns the pending verification token, if any.
func (a *Account) EmailVerificationToken(ctx context.Context) (*EmailVerificationToken, error) {
	return resource.Linked[*EmailVerificationToken](ctx, a.Base, propEmailVerificationToken, KindEmailVerificationToken)
}

// GroupMemberships returns the membership links between the account and its groups.
func (a *Account) GroupMemberships(ctx context.Context) (*GroupMembershipList, error) {
	return resource.Linked[*GroupMembershipList](ctx, a.Base, propGroupMemberships, KindGroupMembershipList)
}

// AddGroup makes the account a member of group.
func (a *Account) AddGroup(ctx context.Context, group *Group) (*GroupMembership, error) {
	m := NewGroupMembership(a.DataStore(), nil)
	if err := m.Create(ctx, a, group); err != nil {
		return nil, err
	}
	return m, nil
}
