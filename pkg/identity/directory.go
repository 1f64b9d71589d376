package identity

import (
	"context"
	"net/url"
	"strconv"

	"github.com/getmockd/idmclient/pkg/resource"
)

// Directory is an account store owning accounts and groups.
type Directory struct {
	Instance
}

// NewDirectory builds a directory.
func NewDirectory(ds resource.DataStore, props map[string]any) *Directory {
	return &Directory{Instance: newInstance(ds, KindDirectory, props)}
}

func (d *Directory) Name(ctx context.Context) (string, error) {
	return resource.String(ctx, d.Base, propName)
}

func (d *Directory) SetName(name string) { d.SetProperty(propName, name) }

func (d *Directory) Description(ctx context.Context) (string, error) {
	return resource.String(ctx, d.Base, propDescription)
}

func (d *Directory) SetDescription(desc string) { d.SetProperty(propDescription, desc) }

func (d *Directory) Status(ctx context.Context) (Status, error) { return d.status(ctx) }

func (d *Directory) SetStatus(s Status) { d.setStatus(s) }

func (d *Directory) Tenant(ctx context.Context) (*Tenant, error) {
	return resource.Linked[*Tenant](ctx, d.Base, propTenant, KindTenant)
}

func (d *Directory) Accounts(ctx context.Context) (*AccountList, error) {
	return resource.Linked[*AccountList](ctx, d.Base, propAccounts, KindAccountList)
}

func (d *Directory) Groups(ctx context.Context) (*GroupList, error) {
	return resource.Linked[*GroupList](ctx, d.Base, propGroups, KindGroupList)
}

// CreateAccount creates account in this directory. A non-nil
// registrationWorkflow overrides the directory's email verification setting
// for this one account.
func (d *Directory) CreateAccount(ctx context.Context, account *Account, registrationWorkflow *bool) error {
	st, err := storeOf(d.Base)
	if err != nil {
		return err
	}
	href, err := collectionHref(ctx, d.Base, propAccounts)
	if err != nil {
		return err
	}

	var query url.Values
	if registrationWorkflow != nil {
		query = url.Values{"registrationWorkflowEnabled": {strconv.FormatBool(*registrationWorkflow)}}
	}
	return st.Create(ctx, href, account, query)
}

// CreateGroup creates group in this directory.
func (d *Directory) CreateGroup(ctx context.Context, group *Group) error {
	st, err := storeOf(d.Base)
	if err != nil {
		return err
	}
	href, err := collectionHref(ctx, d.Base, propGroups)
	if err != nil {
		return err
	}
	return st.Create(ctx, href, group, nil)
}
