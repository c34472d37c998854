package classify

import (
	"context"
	"regexp"
	"strconv"

	"github.com/tinyland-inc/ntbridge/pkg/event"
	"github.com/tinyland-inc/ntbridge/pkg/logger"
	"github.com/tinyland-inc/ntbridge/pkg/proto"
)

// Notification push message types.
const (
	pushMemberIncrease = 33
	pushMemberDecrease = 34
	pushAdminChange    = 44
	pushSysNotify528   = 528
	pushGroupNotify732 = 732

	subTypePinChange = 39
	subTypeReaction  = 16
	subTypeEssence   = 21
)

// kickOperatorRE extracts the operator uid embedded in the raw kick
// notification field, framed by \x18 and \x10 control bytes.
var kickOperatorRE = regexp.MustCompile(`\x18([^\x18\x10]+)\x10`)

// ClassifyPush decodes a binary notification push into a domain event.
// Unrecognized or malformed pushes yield nil.
func (c *Classifier) ClassifyPush(ctx context.Context, msg *proto.Message) *event.Event {
	if msg == nil || msg.ContentHead == nil || msg.Body == nil || len(msg.Body.MsgContent) == 0 {
		return nil
	}
	msgType := msg.ContentHead.MsgType
	subType := msg.ContentHead.SubType
	content := msg.Body.MsgContent

	var ev *event.Event
	var err error
	switch {
	case msgType == pushMemberIncrease:
		ev, err = c.memberIncrease(ctx, content)
	case msgType == pushMemberDecrease:
		ev, err = c.memberDecrease(ctx, content)
	case msgType == pushAdminChange:
		ev, err = c.adminChange(ctx, content)
	case msgType == pushSysNotify528 && subType == subTypePinChange:
		ev, err = c.pinChange(ctx, content)
	case msgType == pushGroupNotify732 && subType == subTypeReaction:
		ev, err = c.reaction(ctx, content)
	case msgType == pushGroupNotify732 && subType == subTypeEssence:
		ev, err = c.essence(content)
	default:
		return nil
	}
	if err != nil {
		logger.WarnCF(component, "Dropping undecodable notification push", map[string]any{
			"msgType": msgType,
			"subType": subType,
			"error":   err.Error(),
		})
		return nil
	}
	return ev
}

func (c *Classifier) memberIncrease(ctx context.Context, content []byte) (*event.Event, error) {
	change, err := proto.UnmarshalGroupMemberChange(content)
	if err != nil {
		return nil, err
	}
	if change.Type != proto.MemberChangeJoinLeave {
		return nil, nil
	}
	ev := event.New(event.GroupMemberIncrease, &event.GroupMemberIncreaseData{
		GroupID:    int64(change.GroupCode),
		UserID:     c.uinOf(ctx, change.MemberUID),
		OperatorID: c.uinOf(ctx, change.AdminUID),
	})
	return &ev, nil
}

func (c *Classifier) memberDecrease(ctx context.Context, content []byte) (*event.Event, error) {
	change, err := proto.UnmarshalGroupMemberChange(content)
	if err != nil {
		return nil, err
	}
	if change.Type != proto.MemberChangeJoinLeave && change.Type != proto.MemberChangeKick {
		return nil, nil
	}
	// Being kicked out oneself arrives through the kernel's own group
	// list update; emitting it here would duplicate the notice.
	if change.Type == proto.MemberChangeKick && change.MemberUID == c.session.UID {
		return nil, nil
	}
	data := &event.GroupMemberDecreaseData{
		GroupID: int64(change.GroupCode),
		UserID:  c.uinOf(ctx, change.MemberUID),
	}
	if change.Type == proto.MemberChangeKick && change.AdminUID != "" {
		adminUID := change.AdminUID
		if m := kickOperatorRE.FindStringSubmatch(adminUID); m != nil {
			adminUID = m[1]
		}
		data.OperatorID = c.uinOf(ctx, adminUID)
	}
	ev := event.New(event.GroupMemberDecrease, data)
	return &ev, nil
}

// adminChange resolves the operator from group ownership: only the owner
// can grant or revoke admin.
func (c *Classifier) adminChange(ctx context.Context, content []byte) (*event.Event, error) {
	change, err := proto.UnmarshalGroupAdminChange(content)
	if err != nil {
		return nil, err
	}
	uid := change.AdminUID()
	if uid == "" {
		return nil, nil
	}
	var operator int64
	groupCode := strconv.FormatUint(change.GroupCode, 10)
	if info, err := c.api.GetGroupAllInfo(ctx, groupCode); err == nil {
		operator = c.uinOf(ctx, info.OwnerUID)
	} else {
		logger.DebugCF(component, "Owner lookup failed", map[string]any{
			"group": groupCode,
			"error": err.Error(),
		})
	}
	ev := event.New(event.GroupAdminChange, &event.GroupAdminChangeData{
		GroupID:    int64(change.GroupCode),
		UserID:     c.uinOf(ctx, uid),
		OperatorID: operator,
		IsSet:      change.IsPromote(),
	})
	return &ev, nil
}

func (c *Classifier) pinChange(ctx context.Context, content []byte) (*event.Event, error) {
	change, err := proto.UnmarshalFriendDeleteOrPinChange(content)
	if err != nil {
		return nil, err
	}
	if change.Body == nil || change.Body.Type != proto.PinChangeBodyType {
		return nil, nil
	}
	if change.Body.PinChanged == nil || change.Body.PinChanged.Body == nil {
		return nil, nil
	}
	body := change.Body.PinChanged.Body
	data := &event.PeerPinChangeData{
		MessageScene: event.SceneFriend,
		PeerID:       c.uinOf(ctx, body.UID),
		IsPinned:     body.Info != nil && body.Info.Timestamp != "",
	}
	if body.GroupCode != 0 {
		data.MessageScene = event.SceneGroup
		data.PeerID = int64(body.GroupCode)
	}
	ev := event.New(event.PeerPinChange, data)
	return &ev, nil
}

// Group notify frames carry a 4-byte group code plus flag bytes before
// the protobuf payload.
const groupNotifyHeaderLen = 7

func (c *Classifier) reaction(ctx context.Context, content []byte) (*event.Event, error) {
	if len(content) <= groupNotifyHeaderLen {
		return nil, nil
	}
	body, err := proto.UnmarshalNotifyMessageBody(content[groupNotifyHeaderLen:])
	if err != nil {
		return nil, err
	}
	if body.Field13 != proto.NotifyField13Reaction || body.Reaction == nil {
		return nil, nil
	}
	r := body.Reaction
	if r.Target == nil || r.Info == nil {
		return nil, nil
	}
	ev := event.New(event.GroupMessageReaction, &event.GroupMessageReactionData{
		GroupID:    int64(body.GroupCode),
		UserID:     c.uinOf(ctx, r.Info.OperatorUID),
		MessageSeq: int64(r.Target.Sequence),
		FaceID:     r.Info.Code,
		IsAdd:      r.Info.ActionType == proto.ReactionActionAdd,
	})
	return &ev, nil
}

func (c *Classifier) essence(content []byte) (*event.Event, error) {
	if len(content) <= groupNotifyHeaderLen {
		return nil, nil
	}
	body, err := proto.UnmarshalNotifyMessageBody(content[groupNotifyHeaderLen:])
	if err != nil {
		return nil, err
	}
	if body.Type != proto.NotifyTypeEssence || body.EssenceMessage == nil {
		return nil, nil
	}
	em := body.EssenceMessage
	ev := event.New(event.GroupEssenceMessageChange, &event.GroupEssenceMessageChangeData{
		GroupID:    int64(em.GroupCode),
		MessageSeq: int64(em.MsgSequence),
		OperatorID: int64(em.OperatorUin),
		IsSet:      em.SetFlag == proto.EssenceFlagSet,
	})
	return &ev, nil
}
