// Package event defines the typed domain events produced by the classifier.
// Every notice extracted from kernel grey-tips or binary pushes is expressed
// as one of these types. No ad-hoc map payloads.
package event

import "github.com/tinyland-inc/ntbridge/pkg/types"

// Type identifies a domain event variant.
type Type string

const (
	MessageReceive            Type = "message_receive"
	MessageRecall             Type = "message_recall"
	FriendRequest             Type = "friend_request"
	FriendNudge               Type = "friend_nudge"
	FriendFileUpload          Type = "friend_file_upload"
	GroupJoinRequest          Type = "group_join_request"
	GroupInvitedJoinRequest   Type = "group_invited_join_request"
	GroupInvitation           Type = "group_invitation"
	GroupMemberIncrease       Type = "group_member_increase"
	GroupMemberDecrease       Type = "group_member_decrease"
	GroupAdminChange          Type = "group_admin_change"
	GroupMute                 Type = "group_mute"
	GroupWholeMute            Type = "group_whole_mute"
	GroupNameChange           Type = "group_name_change"
	GroupNudge                Type = "group_nudge"
	GroupFileUpload           Type = "group_file_upload"
	GroupMessageReaction      Type = "group_message_reaction"
	GroupEssenceMessageChange Type = "group_essence_message_change"
	PeerPinChange             Type = "peer_pin_change"
)

// Event is the envelope handed to protocol adapters. Data holds the typed
// payload matching Type.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

func New(t Type, data any) Event {
	return Event{Type: t, Data: data}
}

// MessageScene distinguishes where a message-scoped event happened.
type MessageScene string

const (
	SceneFriend MessageScene = "friend"
	SceneGroup  MessageScene = "group"
)

type MessageReceiveData struct {
	MessageScene MessageScene    `json:"message_scene"`
	PeerID       int64           `json:"peer_id"`
	MessageSeq   int64           `json:"message_seq"`
	SenderID     int64           `json:"sender_id"`
	Segments     []types.Segment `json:"segments"`
}

type MessageRecallData struct {
	MessageScene  MessageScene `json:"message_scene"`
	PeerID        int64        `json:"peer_id"`
	MessageSeq    int64        `json:"message_seq"`
	SenderID      int64        `json:"sender_id"`
	OperatorID    int64        `json:"operator_id"`
	DisplaySuffix string       `json:"display_suffix"`
}

type FriendRequestData struct {
	InitiatorID  int64  `json:"initiator_id"`
	InitiatorUID string `json:"initiator_uid"`
	Comment      string `json:"comment"`
	Via          string `json:"via"`
}

type FriendNudgeData struct {
	UserID              int64  `json:"user_id"`
	IsSelfSend          bool   `json:"is_self_send"`
	IsSelfReceive       bool   `json:"is_self_receive"`
	DisplayAction       string `json:"display_action"`
	DisplaySuffix       string `json:"display_suffix"`
	DisplayActionImgURL string `json:"display_action_img_url"`
}

type FriendFileUploadData struct {
	UserID   int64  `json:"user_id"`
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	IsSelf   bool   `json:"is_self"`
}

type GroupJoinRequestData struct {
	GroupID         int64  `json:"group_id"`
	NotificationSeq int64  `json:"notification_seq"`
	IsFiltered      bool   `json:"is_filtered"`
	InitiatorID     int64  `json:"initiator_id"`
	Comment         string `json:"comment"`
}

type GroupInvitedJoinRequestData struct {
	GroupID         int64 `json:"group_id"`
	NotificationSeq int64 `json:"notification_seq"`
	InitiatorID     int64 `json:"initiator_id"`
	TargetUserID    int64 `json:"target_user_id"`
}

type GroupInvitationData struct {
	GroupID       int64 `json:"group_id"`
	InvitationSeq int64 `json:"invitation_seq"`
	InitiatorID   int64 `json:"initiator_id"`
}

type GroupMemberIncreaseData struct {
	GroupID    int64 `json:"group_id"`
	UserID     int64 `json:"user_id"`
	OperatorID int64 `json:"operator_id,omitempty"`
	InvitorID  int64 `json:"invitor_id,omitempty"`
}

type GroupMemberDecreaseData struct {
	GroupID    int64 `json:"group_id"`
	UserID     int64 `json:"user_id"`
	OperatorID int64 `json:"operator_id,omitempty"`
}

type GroupAdminChangeData struct {
	GroupID    int64 `json:"group_id"`
	UserID     int64 `json:"user_id"`
	OperatorID int64 `json:"operator_id"`
	IsSet      bool  `json:"is_set"`
}

type GroupMuteData struct {
	GroupID    int64 `json:"group_id"`
	UserID     int64 `json:"user_id"`
	OperatorID int64 `json:"operator_id"`
	Duration   int64 `json:"duration"`
}

type GroupWholeMuteData struct {
	GroupID    int64 `json:"group_id"`
	OperatorID int64 `json:"operator_id"`
	IsMute     bool  `json:"is_mute"`
}

type GroupNameChangeData struct {
	GroupID      int64  `json:"group_id"`
	NewGroupName string `json:"new_group_name"`
	OperatorID   int64  `json:"operator_id"`
}

type GroupNudgeData struct {
	GroupID             int64  `json:"group_id"`
	SenderID            int64  `json:"sender_id"`
	ReceiverID          int64  `json:"receiver_id"`
	DisplayAction       string `json:"display_action"`
	DisplaySuffix       string `json:"display_suffix"`
	DisplayActionImgURL string `json:"display_action_img_url"`
}

type GroupFileUploadData struct {
	GroupID  int64  `json:"group_id"`
	UserID   int64  `json:"user_id"`
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

type GroupMessageReactionData struct {
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	MessageSeq int64  `json:"message_seq"`
	FaceID     string `json:"face_id"`
	IsAdd      bool   `json:"is_add"`
}

type GroupEssenceMessageChangeData struct {
	GroupID    int64 `json:"group_id"`
	MessageSeq int64 `json:"message_seq"`
	OperatorID int64 `json:"operator_id"`
	IsSet      bool  `json:"is_set"`
}

type PeerPinChangeData struct {
	MessageScene MessageScene `json:"message_scene"`
	PeerID       int64        `json:"peer_id"`
	IsPinned     bool         `json:"is_pinned"`
}
