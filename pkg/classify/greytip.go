package classify

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tinyland-inc/ntbridge/pkg/event"
	"github.com/tinyland-inc/ntbridge/pkg/logger"
	"github.com/tinyland-inc/ntbridge/pkg/types"
)

// Grey-tip business ids observed on the wire.
const (
	busiIDInviteJoin      = "10145"
	busiIDInviteJoinAgree = "10146"
	busiIDInviteBatch     = "19373"
	busiIDNudge           = "1061"
)

// inviteeRE pulls member uids out of batch-invitation markup, where each
// joined member appears as a jp="uid" attribute.
var inviteeRE = regexp.MustCompile(`jp="([^"]+)"`)

// scanGroup walks a group message's elements for notice content. The
// first element carrying a notice decides the result.
func (c *Classifier) scanGroup(ctx context.Context, msg *types.RawMessage) []event.Event {
	groupID := parseID(msg.PeerUID)
	for i := range msg.Elements {
		el := &msg.Elements[i]

		if el.FileElement != nil {
			ev := event.New(event.GroupFileUpload, &event.GroupFileUploadData{
				GroupID:  groupID,
				UserID:   parseID(msg.SenderUin),
				FileID:   el.FileElement.FileUUID,
				FileName: el.FileElement.FileName,
				FileSize: parseID(el.FileElement.FileSize),
			})
			return []event.Event{ev}
		}

		gt := el.GrayTipElement
		if gt == nil {
			continue
		}

		if xml := gt.XMLElement; xml != nil {
			switch xml.BusiID {
			case busiIDInviteJoin, busiIDInviteJoinAgree:
				invitor := c.uinOf(ctx, xml.TemplParam["invitor"])
				invitee := c.uinOf(ctx, xml.TemplParam["invitee"])
				if invitee == 0 {
					continue
				}
				ev := event.New(event.GroupMemberIncrease, &event.GroupMemberIncreaseData{
					GroupID:   groupID,
					UserID:    invitee,
					InvitorID: invitor,
				})
				return []event.Event{ev}
			case busiIDInviteBatch:
				return c.batchInvite(ctx, groupID, xml)
			}
		}

		if ge := gt.GroupElement; ge != nil {
			switch ge.Type {
			case types.GroupElementTypeShutUp:
				if ev := c.shutUp(ctx, groupID, ge); ev != nil {
					return []event.Event{*ev}
				}
			case types.GroupElementTypeNameChange:
				ev := event.New(event.GroupNameChange, &event.GroupNameChangeData{
					GroupID:      groupID,
					NewGroupName: ge.GroupName,
					OperatorID:   c.uinOf(ctx, ge.MemberUID),
				})
				return []event.Event{ev}
			}
		}

		if jt := gt.JSONGrayTipElement; jt != nil && jt.BusiID == busiIDNudge {
			params := nudgeParams(jt)
			ev := event.New(event.GroupNudge, &event.GroupNudgeData{
				GroupID:             groupID,
				SenderID:            parseID(params["uin_str1"]),
				ReceiverID:          parseID(params["uin_str2"]),
				DisplayAction:       params["action_str"],
				DisplaySuffix:       params["suffix_str"],
				DisplayActionImgURL: params["action_img_url"],
			})
			return []event.Event{ev}
		}
	}
	return nil
}

// batchInvite fans one grey-tip out into an increase event per invitee.
func (c *Classifier) batchInvite(ctx context.Context, groupID int64, xml *types.XMLElement) []event.Event {
	invitor := c.uinOf(ctx, xml.TemplParam["invitor"])
	source := xml.TemplParam["invitees_dynamic"]
	if source == "" {
		source = xml.Content
	}
	var events []event.Event
	for _, m := range inviteeRE.FindAllStringSubmatch(source, -1) {
		invitee := c.uinOf(ctx, m[1])
		if invitee == 0 {
			continue
		}
		events = append(events, event.New(event.GroupMemberIncrease, &event.GroupMemberIncreaseData{
			GroupID:   groupID,
			UserID:    invitee,
			InvitorID: invitor,
		}))
	}
	return events
}

// shutUp distinguishes a targeted mute from a whole-group mute: the
// targeted variant names a member, the whole-group one does not.
func (c *Classifier) shutUp(ctx context.Context, groupID int64, ge *types.GroupElement) *event.Event {
	if ge.ShutUp == nil {
		return nil
	}
	duration := parseID(ge.ShutUp.Duration)
	operator := c.uinOf(ctx, ge.ShutUp.Admin.UID)
	if ge.ShutUp.Member.UID != "" {
		ev := event.New(event.GroupMute, &event.GroupMuteData{
			GroupID:    groupID,
			UserID:     c.uinOf(ctx, ge.ShutUp.Member.UID),
			OperatorID: operator,
			Duration:   duration,
		})
		return &ev
	}
	ev := event.New(event.GroupWholeMute, &event.GroupWholeMuteData{
		GroupID:    groupID,
		OperatorID: operator,
		IsMute:     duration > 0,
	})
	return &ev
}

// nudgeParams flattens a nudge grey-tip's template parameters, falling
// back to the embedded JSON items when the template map is absent.
func nudgeParams(jt *types.JSONGrayTipElement) map[string]string {
	if jt.XMLToJSONParam != nil && len(jt.XMLToJSONParam.TemplParam) > 0 {
		return jt.XMLToJSONParam.TemplParam
	}
	params := map[string]string{}
	gjson.Get(jt.JSONStr, "items").ForEach(func(_, item gjson.Result) bool {
		key := item.Get("key").String()
		if key != "" {
			params[key] = item.Get("txt").String()
		}
		return true
	})
	return params
}

// scanPrivate walks a c2c message's elements for notice content.
func (c *Classifier) scanPrivate(ctx context.Context, msg *types.RawMessage) []event.Event {
	for i := range msg.Elements {
		el := &msg.Elements[i]

		if el.FileElement != nil {
			ev := event.New(event.FriendFileUpload, &event.FriendFileUploadData{
				UserID:   parseID(msg.SenderUin),
				FileID:   el.FileElement.FileUUID,
				FileName: el.FileElement.FileName,
				FileSize: parseID(el.FileElement.FileSize),
				IsSelf:   msg.SenderUin == c.session.UIN,
			})
			return []event.Event{ev}
		}

		if gt := el.GrayTipElement; gt != nil {
			jt := gt.JSONGrayTipElement
			if jt != nil && jt.BusiID == busiIDNudge {
				params := nudgeParams(jt)
				userID := parseID(msg.PeerUin)
				if userID == 0 {
					userID = c.uinOf(ctx, msg.PeerUID)
				}
				ev := event.New(event.FriendNudge, &event.FriendNudgeData{
					UserID:              userID,
					IsSelfSend:          params["uin_str1"] == c.session.UIN,
					IsSelfReceive:       params["uin_str2"] == c.session.UIN,
					DisplayAction:       params["action_str"],
					DisplaySuffix:       params["suffix_str"],
					DisplayActionImgURL: params["action_img_url"],
				})
				return []event.Event{ev}
			}
		}

		if el.ArkElement != nil {
			if ev := c.groupInvitation(msg, el.ArkElement); ev != nil {
				return []event.Event{*ev}
			}
		}
	}
	return nil
}

// groupInvitation validates an invitation ark card. Cards that fail any
// check are silently not invitations; forged sender/receiver fields are
// the reason for the strict match.
func (c *Classifier) groupInvitation(msg *types.RawMessage, ark *types.ArkElement) *event.Event {
	doc := gjson.Parse(ark.BytesData)
	app := doc.Get("app").String()
	switch app {
	case "com.tencent.qun.invite":
	case "com.tencent.tuwen.lua":
		if doc.Get("bizsrc").String() != "qun.invite" {
			return nil
		}
	default:
		return nil
	}
	jumpURL := doc.Get("meta.news.jumpUrl").String()
	if jumpURL == "" {
		return nil
	}
	u, err := url.Parse(strings.ReplaceAll(jumpURL, "&amp;", "&"))
	if err != nil {
		logger.DebugCF(component, "Bad invitation jump url", map[string]any{
			"url":   jumpURL,
			"error": err.Error(),
		})
		return nil
	}
	q := u.Query()
	if q.Get("receiveruin") != c.session.UIN || q.Get("senderuin") != msg.SenderUin {
		return nil
	}
	groupCode, err := strconv.ParseInt(q.Get("groupcode"), 10, 64)
	if err != nil || groupCode == 0 {
		return nil
	}
	ev := event.New(event.GroupInvitation, &event.GroupInvitationData{
		GroupID:       groupCode,
		InvitationSeq: parseID(q.Get("msgseq")),
		InitiatorID:   parseID(msg.SenderUin),
	})
	return &ev
}
