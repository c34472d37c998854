package kernel

import (
	"context"
	"errors"

	"github.com/tinyland-inc/ntbridge/pkg/types"
)

// ErrNotFound is returned when the kernel has no record for the requested
// entity (unknown uin/uid mapping, missing message, missing member).
var ErrNotFound = errors.New("kernel: not found")

// Rich media upload kinds accepted by UploadRichMedia.
const (
	UploadKindC2CImage   = 3
	UploadKindGroupImage = 4
)

// UserSimpleInfo mirrors the kernel's nested profile shape for a contact.
type UserSimpleInfo struct {
	UID      string `json:"uid"`
	UIN      string `json:"uin"`
	CoreInfo struct {
		Nick   string `json:"nick"`
		Remark string `json:"remark"`
	} `json:"coreInfo"`
	BaseInfo struct {
		CategoryID int `json:"categoryId"`
	} `json:"baseInfo"`
}

// UserInfo is the decoded profile card fetched over the packet channel.
type UserInfo struct {
	UIN           string
	Nick          string
	Sex           uint64
	Age           uint64
	QID           string
	Level         uint64
	RegTime       uint64
	LongNick      string
	Country       string
	City          string
	BirthdayYear  uint64
	BirthdayMonth uint64
	BirthdayDay   uint64
	Labels        []string
}

// GroupAllInfo is the summary record GetGroupAllInfo yields.
type GroupAllInfo struct {
	GroupCode    string `json:"groupCode"`
	GroupName    string `json:"groupName"`
	OwnerUID     string `json:"groupOwnerId"`
	MemberNum    int    `json:"memberNum"`
	MaxMemberNum int    `json:"maxMemberNum"`
}

// GroupDetailInfo is the full group record including mute state.
type GroupDetailInfo struct {
	GroupCode          string `json:"groupCode"`
	GroupName          string `json:"groupName"`
	OwnerUID           string `json:"groupOwnerId"`
	OwnerUin           string `json:"ownerUin"`
	MemberNum          int    `json:"memberNum"`
	MaxMemberNum       int    `json:"maxMemberNum"`
	CreateTime         int64  `json:"groupCreateTime"`
	RichFingerMemo     string `json:"richFingerMemo"`
	ShutUpAllTimestamp int64  `json:"shutUpAllTimestamp"`
	ShutUpMeTimestamp  int64  `json:"shutUpMeTimestamp"`
}

// GroupSimpleInfo is the lightweight variant some call sites prefer when
// only identity and counters are needed.
type GroupSimpleInfo struct {
	GroupCode    string `json:"groupCode"`
	GroupUin     string `json:"groupUin"`
	GroupName    string `json:"groupName"`
	CreateTime   int64  `json:"createTime"`
	MemberCount  int    `json:"memberCount"`
	MaxMember    int    `json:"maxMember"`
	GroupOwnerID struct {
		MemberUin string `json:"memberUin"`
		MemberUID string `json:"memberUid"`
	} `json:"groupOwnerId"`
}

// Group member roles as the kernel reports them.
const (
	GroupMemberRoleStranger = 0
	GroupMemberRoleMember   = 2
	GroupMemberRoleAdmin    = 3
	GroupMemberRoleOwner    = 4
)

type GroupMember struct {
	UID      string `json:"uid"`
	UIN      string `json:"uin"`
	QID      string `json:"qid"`
	Nick     string `json:"nick"`
	Remark   string `json:"remark"`
	CardName string `json:"cardName"`
	Role     int    `json:"role"`
	JoinTime int64  `json:"joinTime,string"`
	ShutUpTo int64  `json:"shutUpTime"`
	IsRobot  bool   `json:"isRobot"`
}

// TempChatInfo describes a temp session opened from a group card.
type TempChatInfo struct {
	GroupCode string `json:"groupCode"`
	FromNick  string `json:"fromGroupNick"`
}

// RichMediaUpload is the kernel's completion record for an uploaded file.
type RichMediaUpload struct {
	FileID         string `json:"fileId"`
	FilePath       string `json:"filePath"`
	CommonFileInfo struct {
		FileSize string `json:"fileSize"`
		MD5      string `json:"md5"`
		SHA      string `json:"sha"`
		FileName string `json:"fileName"`
	} `json:"commonFileInfo"`
}

// VideoUpload carries the identifiers needed to reference an uploaded
// video from a packed message.
type VideoUpload struct {
	FileUUID string `json:"fileUuid"`
	FileSize uint64 `json:"fileSize,string"`
	MD5      string `json:"md5"`
	SHA1     string `json:"sha1"`
	FileName string `json:"fileName"`
	Width    uint64 `json:"width"`
	Height   uint64 `json:"height"`
	Duration uint64 `json:"duration"`
}

type ImageSize struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
}

// UserService resolves identities and profiles.
type UserService interface {
	GetSelfInfo(ctx context.Context) (types.Session, error)
	GetUIDByUIN(ctx context.Context, uin string) (string, error)
	GetUINByUID(ctx context.Context, uid string) (string, error)
	GetSelfNick(ctx context.Context, refresh bool) (string, error)
	GetUserSimpleInfo(ctx context.Context, uid string) (*UserSimpleInfo, error)
	FetchUserInfo(ctx context.Context, uin string) (*UserInfo, error)
	FetchUserLoginDays(ctx context.Context, uin string) (int64, error)
}

// MsgService covers message retrieval and the send/recall/read surface.
type MsgService interface {
	GetMsgsBySeqAndCount(ctx context.Context, peer types.Peer, seq string, count int, desc, includeSelf bool) ([]*types.RawMessage, error)
	QueryMsgsWithFilterExBySeq(ctx context.Context, peer types.Peer, seq, time string, senderUIDs []string) ([]*types.RawMessage, error)
	GetTempChatInfo(ctx context.Context, chatType int, peerUID string) (*TempChatInfo, error)
	SendMsg(ctx context.Context, peer types.Peer, elements []types.Element) (*types.RawMessage, error)
	RecallMsg(ctx context.Context, peer types.Peer, msgIDs []string) error
	SetMsgRead(ctx context.Context, peer types.Peer) error
}

// GroupService exposes group records and membership.
type GroupService interface {
	GetGroupAllInfo(ctx context.Context, groupCode string) (*GroupAllInfo, error)
	GetGroupDetailInfo(ctx context.Context, groupCode string) (*GroupDetailInfo, error)
	GetGroupSimpleInfo(ctx context.Context, groupCode string) (*GroupSimpleInfo, error)
	GetGroupMember(ctx context.Context, groupCode, uid string) (*GroupMember, error)
}

// FriendService answers contact-list questions.
type FriendService interface {
	IsBuddy(ctx context.Context, uid string) (bool, error)
	GetCategoryName(ctx context.Context, categoryID int) (string, error)
}

// FileService resolves media URLs and uploads local files into the kernel.
type FileService interface {
	UploadRichMedia(ctx context.Context, path string, kind int, peerUID string) (*RichMediaUpload, error)
	UploadGroupVideo(ctx context.Context, groupCode, path, thumbPath string) (*VideoUpload, error)
	UploadC2CVideo(ctx context.Context, peerUID, path, thumbPath string) (*VideoUpload, error)
	GetImageURL(ctx context.Context, pic *types.PicElement) (string, error)
	GetVideoURL(ctx context.Context, peer types.Peer, msgID, elementID string) (string, error)
	GetImageSize(ctx context.Context, path string) (*ImageSize, error)
	CreateVideoThumb(ctx context.Context, videoPath, thumbPath string) error
	PackPicElement(ctx context.Context, peer types.Peer, path, summary string, subType int) (*types.Element, error)
	PackPttElement(ctx context.Context, path string) (*types.Element, error)
	PackVideoElement(ctx context.Context, path, thumbPath string) (*types.Element, error)
}

// ForwardService uploads forward transcripts and returns their resid.
type ForwardService interface {
	UploadForward(ctx context.Context, peer types.Peer, transmit []byte) (string, error)
}

// API bundles every kernel capability the bridge consumes.
type API interface {
	UserService
	MsgService
	GroupService
	FriendService
	FileService
	ForwardService
}
