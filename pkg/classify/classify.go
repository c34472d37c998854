// Package classify turns kernel notice material (grey-tip elements and
// binary notification pushes) into typed domain events. Every extraction
// path is isolated: a decode failure on one notice is logged and yields
// no event instead of failing the caller.
package classify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tinyland-inc/ntbridge/pkg/event"
	"github.com/tinyland-inc/ntbridge/pkg/kernel"
	"github.com/tinyland-inc/ntbridge/pkg/logger"
	"github.com/tinyland-inc/ntbridge/pkg/types"
)

const component = "classify"

type Classifier struct {
	api     kernel.API
	session types.Session
}

func New(api kernel.API, session types.Session) *Classifier {
	return &Classifier{api: api, session: session}
}

// uinOf resolves a uid to its numeric uin. Unknown uids resolve to 0.
func (c *Classifier) uinOf(ctx context.Context, uid string) int64 {
	if uid == "" {
		return 0
	}
	uin, err := c.api.GetUINByUID(ctx, uid)
	if err != nil {
		logger.DebugCF(component, "Uin lookup failed", map[string]any{
			"uid":   uid,
			"error": err.Error(),
		})
		return 0
	}
	return parseID(uin)
}

func parseID(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// Sources a friend request can arrive from, keyed by the kernel's
// sourceId field.
func friendRequestVia(sourceID int, groupName string) string {
	switch sourceID {
	case 3020:
		return "QQ号查找"
	case 3004:
		return fmt.Sprintf("QQ群-%s", groupName)
	case 3014:
		return "手机号码查找"
	case 3999:
		return "搜索好友"
	case 3022:
		return "推荐联系人"
	default:
		return ""
	}
}

// BuildFriendRequest shapes a kernel buddy-request record into a domain
// event. groupName is only consulted for group-sourced requests.
func (c *Classifier) BuildFriendRequest(ctx context.Context, initiatorUID, comment string, sourceID int, groupName string) *event.Event {
	ev := event.New(event.FriendRequest, &event.FriendRequestData{
		InitiatorID:  c.uinOf(ctx, initiatorUID),
		InitiatorUID: initiatorUID,
		Comment:      comment,
		Via:          friendRequestVia(sourceID, groupName),
	})
	return &ev
}

// BuildGroupNotify shapes a group single-screen notification into a
// domain event. Only unhandled approval-pending records produce one;
// already-handled and administrative records return nil. filtered marks
// requests the kernel routed to the suspicious queue.
func (c *Classifier) BuildGroupNotify(ctx context.Context, n *types.GroupNotify, filtered bool) *event.Event {
	if n.Status != types.GroupNotifyStatusUnhandled {
		return nil
	}
	switch n.Type {
	case types.GroupNotifyJoinNeedsApproval:
		ev := event.New(event.GroupJoinRequest, &event.GroupJoinRequestData{
			GroupID:         parseID(n.Group.GroupCode),
			NotificationSeq: parseID(n.Seq),
			IsFiltered:      filtered,
			InitiatorID:     c.uinOf(ctx, n.User1.UID),
			Comment:         n.Postscript,
		})
		return &ev
	case types.GroupNotifyInvitedNeedsApproval:
		ev := event.New(event.GroupInvitedJoinRequest, &event.GroupInvitedJoinRequestData{
			GroupID:         parseID(n.Group.GroupCode),
			NotificationSeq: parseID(n.Seq),
			InitiatorID:     c.uinOf(ctx, n.User2.UID),
			TargetUserID:    c.uinOf(ctx, n.User1.UID),
		})
		return &ev
	case types.GroupNotifyInvitedByMember:
		ev := event.New(event.GroupInvitation, &event.GroupInvitationData{
			GroupID:       parseID(n.Group.GroupCode),
			InvitationSeq: parseID(n.Seq),
			InitiatorID:   c.uinOf(ctx, n.User2.UID),
		})
		return &ev
	default:
		return nil
	}
}

// ClassifyMessage scans a kernel message for notice content and returns
// the domain events it encodes. Most messages carry at most one notice;
// batch invitation grey-tips fan out into several.
func (c *Classifier) ClassifyMessage(ctx context.Context, msg *types.RawMessage) []event.Event {
	if len(msg.Elements) == 0 {
		return nil
	}
	if ev := c.recall(ctx, msg); ev != nil {
		return []event.Event{*ev}
	}
	switch msg.ChatType {
	case types.ChatTypeGroup:
		return c.scanGroup(ctx, msg)
	case types.ChatTypeC2C:
		return c.scanPrivate(ctx, msg)
	default:
		return nil
	}
}

// recall handles revoke grey-tips, which appear in both scenes with the
// same shape.
func (c *Classifier) recall(ctx context.Context, msg *types.RawMessage) *event.Event {
	gt := msg.Elements[0].GrayTipElement
	if gt == nil || gt.RevokeElement == nil {
		return nil
	}
	rv := gt.RevokeElement
	scene := event.SceneFriend
	peerID := parseID(msg.PeerUin)
	if msg.ChatType == types.ChatTypeGroup {
		scene = event.SceneGroup
		if peerID == 0 {
			peerID = parseID(msg.PeerUID)
		}
	}
	ev := event.New(event.MessageRecall, &event.MessageRecallData{
		MessageScene:  scene,
		PeerID:        peerID,
		MessageSeq:    parseID(msg.MsgSeq),
		SenderID:      parseID(msg.SenderUin),
		OperatorID:    c.uinOf(ctx, rv.OperatorUID),
		DisplaySuffix: rv.Wording,
	})
	return &ev
}
