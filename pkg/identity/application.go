package identity

import (
	"context"
	"strings"

	"github.com/getmockd/idmclient/pkg/resource"
)

const propPasswordResetTokens = "passwordResetTokens"

// Application is a client application whose users log in through mapped account stores.
type Application struct {
	Instance
}

// NewApplication builds an application.
func NewApplication(ds resource.DataStore, props map[string]any) *Application {
	return &Application{Instance: newInstance(ds, KindApplication, props)}
}

func (a *Application) Name(ctx context.Context) (string, error) {
	return resource.String(ctx, a.Base, propName)
}

func (a *Application) SetName(name string) { a.SetProperty(propName, name) }

func (a *Application) Description(ctx context.Context) (string, error) {
	return resource.String(ctx, a.Base, propDescription)
}

func (a *Application) SetDescription(desc string) { a.SetProperty(propDescription, desc) }

func (a *Application) Status(ctx context.Context) (Status, error) { return a.status(ctx) }

func (a *Application) SetStatus(s Status) { a.setStatus(s) }

func (a *Application) Tenant(ctx context.Context) (*Tenant, error) {
	return resource.Linked[*Tenant](ctx, a.Base, propTenant, KindTenant)
}

// Accounts returns every account that can log in to the application.
func (a *Application) Accounts(ctx context.Context) (*AccountList, error) {
	return resource.Linked[*AccountList](ctx, a.Base, propAccounts, KindAccountList)
}

func (a *Application) PasswordResetTokens(ctx context.Context) (*PasswordResetTokenList, error) {
	return resource.Linked[*PasswordResetTokenList](ctx, a.Base, propPasswordResetTokens, KindPasswordResetTokenList)
}

// SendPasswordResetEmail asks the service to email a reset link to the
// account matching usernameOrEmail, and returns that account.
func (a *Application) SendPasswordResetEmail(ctx context.Context, usernameOrEmail string) (*Account, error) {
	st, err := storeOf(a.Base)
	if err != nil {
		return nil, err
	}
	href, err := collectionHref(ctx, a.Base, propPasswordResetTokens)
	if err != nil {
		return nil, err
	}

	token := NewPasswordResetToken(st, nil)
	token.SetEmail(usernameOrEmail)
	if err := st.Create(ctx, href, token, nil); err != nil {
		return nil, err
	}
	return token.Account(ctx)
}

// VerifyPasswordResetToken looks up the token from a reset link and returns its account.
func (a *Application) VerifyPasswordResetToken(ctx context.Context, token string) (*Account, error) {
	href, err := collectionHref(ctx, a.Base, propPasswordResetTokens)
	if err != nil {
		return nil, err
	}

	r, err := a.DataStore().GetResource(ctx, strings.TrimSuffix(href, "/")+"/"+token, KindPasswordResetToken)
	if err != nil {
		return nil, err
	}
	prt, ok := r.(*PasswordResetToken)
	if !ok {
		return nil, resource.ErrKindMismatch
	}
	return prt.Account(ctx)
}
