package identity

import "github.com/getmockd/idmclient/pkg/resource"

// Collection kinds. Each is one page of its item kind.
type (
	ApplicationList        = resource.Collection[*Application]
	DirectoryList          = resource.Collection[*Directory]
	AccountList            = resource.Collection[*Account]
	GroupList              = resource.Collection[*Group]
	GroupMembershipList    = resource.Collection[*GroupMembership]
	PasswordResetTokenList = resource.Collection[*PasswordResetToken]
)

func NewApplicationList(ds resource.DataStore, props map[string]any) *ApplicationList {
	return resource.NewCollection[*Application](ds, KindApplicationList, KindApplication, props)
}

func NewDirectoryList(ds resource.DataStore, props map[string]any) *DirectoryList {
	return resource.NewCollection[*Directory](ds, KindDirectoryList, KindDirectory, props)
}

func NewAccountList(ds resource.DataStore, props map[string]any) *AccountList {
	return resource.NewCollection[*Account](ds, KindAccountList, KindAccount, props)
}

func NewGroupList(ds resource.DataStore, props map[string]any) *GroupList {
	return resource.NewCollection[*Group](ds, KindGroupList, KindGroup, props)
}

func NewGroupMembershipList(ds resource.DataStore, props map[string]any) *GroupMembershipList {
	return resource.NewCollection[*GroupMembership](ds, KindGroupMembershipList, KindGroupMembership, props)
}

func NewPasswordResetTokenList(ds resource.DataStore, props map[string]any) *PasswordResetTokenList {
	return resource.NewCollection[*PasswordResetToken](ds, KindPasswordResetTokenList, KindPasswordResetToken, props)
}
