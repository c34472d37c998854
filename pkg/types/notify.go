package types

// GroupNotifyType discriminates group single-screen notification records.
type GroupNotifyType int

const (
	GroupNotifyInvitedByMember GroupNotifyType = 1
	// GroupNotifyInvitedNeedsApproval is raised when a member invites an
	// outsider and an administrator must approve.
	GroupNotifyInvitedNeedsApproval GroupNotifyType = 5
	// GroupNotifyJoinNeedsApproval is a direct join request awaiting an
	// administrator.
	GroupNotifyJoinNeedsApproval GroupNotifyType = 7
)

// GroupNotifyStatus is the handling state of a notification record.
type GroupNotifyStatus int

const (
	GroupNotifyStatusInit      GroupNotifyStatus = 0
	GroupNotifyStatusUnhandled GroupNotifyStatus = 1
	GroupNotifyStatusAgreed    GroupNotifyStatus = 2
	GroupNotifyStatusRefused   GroupNotifyStatus = 3
)

// GroupNotify is a kernel group-notification record. User1 is the
// subject of the notification and User2 the actor, where one applies.
type GroupNotify struct {
	Seq        string            `json:"seq"`
	Type       GroupNotifyType   `json:"type"`
	Status     GroupNotifyStatus `json:"status"`
	Group      GroupNotifyGroup  `json:"group"`
	User1      GroupNotifyUser   `json:"user1"`
	User2      GroupNotifyUser   `json:"user2"`
	Postscript string            `json:"postscript"`
}

type GroupNotifyGroup struct {
	GroupCode string `json:"groupCode"`
	GroupName string `json:"groupName"`
}

type GroupNotifyUser struct {
	UID      string `json:"uid"`
	NickName string `json:"nickName"`
}
