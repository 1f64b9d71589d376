package identity

import (
	"context"

	"github.com/getmockd/idmclient/pkg/resource"
)

const (
	propKey          = "key"
	propApplications = "applications"
	propDirectories  = "directories"

	// CurrentTenantHref resolves to the tenant owning the API key in use.
	CurrentTenantHref = "tenants/current"

	emailVerificationHref = "accounts/emailVerificationTokens/"
)

// Tenant is the top-level owner of applications and directories.
type Tenant struct {
	Instance
}

// NewTenant builds a tenant.
func NewTenant(ds resource.DataStore, props map[string]any) *Tenant {
	return &Tenant{Instance: newInstance(ds, KindTenant, props)}
}

func (t *Tenant) Name(ctx context.Context) (string, error) {
	return resource.String(ctx, t.Base, propName)
}

func (t *Tenant) Key(ctx context.Context) (string, error) {
	return resource.String(ctx, t.Base, propKey)
}

func (t *Tenant) Applications(ctx context.Context) (*ApplicationList, error) {
	return resource.Linked[*ApplicationList](ctx, t.Base, propApplications, KindApplicationList)
}

func (t *Tenant) Directories(ctx context.Context) (*DirectoryList, error) {
	return resource.Linked[*DirectoryList](ctx, t.Base, propDirectories, KindDirectoryList)
}

// CreateApplication registers app under the tenant.
func (t *Tenant) CreateApplication(ctx context.Context, app *Application) error {
	st, err := storeOf(t.Base)
	if err != nil {
		return err
	}
	return st.Create(ctx, propApplications, app, nil)
}

// VerifyAccountEmail consumes an email verification token and returns the verified account.
func (t *Tenant) VerifyAccountEmail(ctx context.Context, token string) (*Account, error) {
	st, err := storeOf(t.Base)
	if err != nil {
		return nil, err
	}
	account := NewAccount(st, nil)
	if err := st.Create(ctx, emailVerificationHref+token, account, nil); err != nil {
		return nil, err
	}
	return account, nil
}
