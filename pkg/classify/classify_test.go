package classify

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/tinyland-inc/ntbridge/pkg/event"
	"github.com/tinyland-inc/ntbridge/pkg/kernel"
	"github.com/tinyland-inc/ntbridge/pkg/proto"
	"github.com/tinyland-inc/ntbridge/pkg/types"
)

// fakeAPI overrides the lookups the classifier performs; everything else
// panics if reached.
type fakeAPI struct {
	kernel.API
	uins   map[string]string
	owners map[string]string
}

func (f *fakeAPI) GetUINByUID(_ context.Context, uid string) (string, error) {
	if uin, ok := f.uins[uid]; ok {
		return uin, nil
	}
	return "", fmt.Errorf("uin for uid %s: %w", uid, kernel.ErrNotFound)
}

func (f *fakeAPI) GetGroupAllInfo(_ context.Context, groupCode string) (*kernel.GroupAllInfo, error) {
	if owner, ok := f.owners[groupCode]; ok {
		return &kernel.GroupAllInfo{GroupCode: groupCode, OwnerUID: owner}, nil
	}
	return nil, fmt.Errorf("group %s: %w", groupCode, kernel.ErrNotFound)
}

var testSession = types.Session{UIN: "10000", UID: "u_self", Nick: "self"}

func newTestClassifier(api *fakeAPI) *Classifier {
	if api.uins == nil {
		api.uins = map[string]string{}
	}
	return New(api, testSession)
}

func pushFrame(msgType, subType uint32, content []byte) *proto.Message {
	return &proto.Message{
		ContentHead: &proto.ContentHead{MsgType: msgType, SubType: subType},
		Body:        &proto.MessageBody{MsgContent: content},
	}
}

// notifyContent prepends the group-notify header bytes a 732 frame carries
// before its protobuf payload.
func notifyContent(pb []byte) []byte {
	return append(make([]byte, groupNotifyHeaderLen), pb...)
}

func TestClassifyPushMemberIncrease(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{
		"u_new":   "20001",
		"u_admin": "30001",
	}})
	content := (&proto.GroupMemberChange{
		GroupCode: 777,
		MemberUID: "u_new",
		Type:      proto.MemberChangeJoinLeave,
		AdminUID:  "u_admin",
	}).Marshal()

	ev := c.ClassifyPush(context.Background(), pushFrame(33, 0, content))
	if ev == nil || ev.Type != event.GroupMemberIncrease {
		t.Fatalf("expected member increase, got %+v", ev)
	}
	data := ev.Data.(*event.GroupMemberIncreaseData)
	if data.GroupID != 777 || data.UserID != 20001 {
		t.Errorf("data: %+v", data)
	}
	if data.OperatorID != 30001 {
		t.Errorf("operator: %+v", data)
	}
}

func TestClassifyPushMemberChangeOtherTypesIgnored(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{"u_new": "20001"}})
	content := (&proto.GroupMemberChange{
		GroupCode: 777,
		MemberUID: "u_new",
		Type:      999,
	}).Marshal()

	if ev := c.ClassifyPush(context.Background(), pushFrame(33, 0, content)); ev != nil {
		t.Fatalf("expected nil for unknown change type, got %+v", ev)
	}
	if ev := c.ClassifyPush(context.Background(), pushFrame(34, 0, content)); ev != nil {
		t.Fatalf("expected nil for unknown change type, got %+v", ev)
	}
}

func TestClassifyPushKickExtractsOperator(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{
		"u_gone": "20002",
		"u_op":   "30001",
	}})
	content := (&proto.GroupMemberChange{
		GroupCode: 777,
		MemberUID: "u_gone",
		Type:      proto.MemberChangeKick,
		AdminUID:  "\x18u_op\x10\x01",
	}).Marshal()

	ev := c.ClassifyPush(context.Background(), pushFrame(34, 0, content))
	if ev == nil || ev.Type != event.GroupMemberDecrease {
		t.Fatalf("expected member decrease, got %+v", ev)
	}
	data := ev.Data.(*event.GroupMemberDecreaseData)
	if data.UserID != 20002 || data.OperatorID != 30001 {
		t.Errorf("data: %+v", data)
	}
}

func TestClassifyPushKickBareOperatorUID(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{
		"u_gone": "20002",
		"u_op":   "30001",
	}})
	content := (&proto.GroupMemberChange{
		GroupCode: 777,
		MemberUID: "u_gone",
		Type:      proto.MemberChangeKick,
		AdminUID:  "u_op",
	}).Marshal()

	ev := c.ClassifyPush(context.Background(), pushFrame(34, 0, content))
	if ev == nil {
		t.Fatal("expected member decrease")
	}
	data := ev.Data.(*event.GroupMemberDecreaseData)
	if data.OperatorID != 30001 {
		t.Errorf("data: %+v", data)
	}
}

func TestClassifyPushKickSelfSkipped(t *testing.T) {
	c := newTestClassifier(&fakeAPI{})
	content := (&proto.GroupMemberChange{
		GroupCode: 777,
		MemberUID: testSession.UID,
		Type:      proto.MemberChangeKick,
	}).Marshal()

	if ev := c.ClassifyPush(context.Background(), pushFrame(34, 0, content)); ev != nil {
		t.Fatalf("expected no event for self-kick, got %+v", ev)
	}
}

func TestClassifyPushAdminChange(t *testing.T) {
	c := newTestClassifier(&fakeAPI{
		uins:   map[string]string{"u_admin": "20003", "u_owner": "30002"},
		owners: map[string]string{"777": "u_owner"},
	})
	content := (&proto.GroupAdminChange{
		GroupCode: 777,
		Body:      &proto.AdminChangeBody{ExtraEnable: &proto.AdminExtra{AdminUID: "u_admin"}},
	}).Marshal()

	ev := c.ClassifyPush(context.Background(), pushFrame(44, 0, content))
	if ev == nil || ev.Type != event.GroupAdminChange {
		t.Fatalf("expected admin change, got %+v", ev)
	}
	data := ev.Data.(*event.GroupAdminChangeData)
	if !data.IsSet || data.UserID != 20003 || data.OperatorID != 30002 {
		t.Errorf("data: %+v", data)
	}
}

func TestClassifyPushPinChange(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{"u_friend": "20004"}})

	group := (&proto.FriendDeleteOrPinChange{Body: &proto.PinChangeOuter{
		Type: proto.PinChangeBodyType,
		PinChanged: &proto.PinChanged{Body: &proto.PinChangedBody{
			GroupCode: 888,
			Info:      &proto.PinInfo{Timestamp: "1700000000"},
		}},
	}}).Marshal()
	ev := c.ClassifyPush(context.Background(), pushFrame(528, 39, group))
	if ev == nil || ev.Type != event.PeerPinChange {
		t.Fatalf("expected pin change, got %+v", ev)
	}
	data := ev.Data.(*event.PeerPinChangeData)
	if data.MessageScene != event.SceneGroup || data.PeerID != 888 || !data.IsPinned {
		t.Errorf("group pin: %+v", data)
	}

	friendUnpin := (&proto.FriendDeleteOrPinChange{Body: &proto.PinChangeOuter{
		Type: proto.PinChangeBodyType,
		PinChanged: &proto.PinChanged{Body: &proto.PinChangedBody{
			UID: "u_friend",
		}},
	}}).Marshal()
	ev = c.ClassifyPush(context.Background(), pushFrame(528, 39, friendUnpin))
	if ev == nil {
		t.Fatal("expected friend pin change")
	}
	data = ev.Data.(*event.PeerPinChangeData)
	if data.MessageScene != event.SceneFriend || data.PeerID != 20004 || data.IsPinned {
		t.Errorf("friend unpin: %+v", data)
	}
}

func TestClassifyPushReaction(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{"u_react": "20005"}})
	pb := (&proto.NotifyMessageBody{
		GroupCode: 999,
		Field13:   proto.NotifyField13Reaction,
		Reaction: &proto.ReactionData{
			Target: &proto.ReactionTarget{Sequence: 4242},
			Info: &proto.ReactionInfo{
				Code:        "128077",
				OperatorUID: "u_react",
				ActionType:  proto.ReactionActionAdd,
			},
		},
	}).Marshal()

	ev := c.ClassifyPush(context.Background(), pushFrame(732, 16, notifyContent(pb)))
	if ev == nil || ev.Type != event.GroupMessageReaction {
		t.Fatalf("expected reaction, got %+v", ev)
	}
	data := ev.Data.(*event.GroupMessageReactionData)
	if data.GroupID != 999 || data.MessageSeq != 4242 || data.FaceID != "128077" || !data.IsAdd {
		t.Errorf("data: %+v", data)
	}
}

func TestClassifyPushEssence(t *testing.T) {
	c := newTestClassifier(&fakeAPI{})
	pb := (&proto.NotifyMessageBody{
		Type: proto.NotifyTypeEssence,
		EssenceMessage: &proto.EssenceMessage{
			GroupCode:   999,
			MsgSequence: 7,
			SetFlag:     proto.EssenceFlagSet,
			OperatorUin: 30003,
		},
	}).Marshal()

	ev := c.ClassifyPush(context.Background(), pushFrame(732, 21, notifyContent(pb)))
	if ev == nil || ev.Type != event.GroupEssenceMessageChange {
		t.Fatalf("expected essence change, got %+v", ev)
	}
	data := ev.Data.(*event.GroupEssenceMessageChangeData)
	if data.MessageSeq != 7 || data.OperatorID != 30003 || !data.IsSet {
		t.Errorf("data: %+v", data)
	}
}

func TestClassifyPushUnknownTypeIgnored(t *testing.T) {
	c := newTestClassifier(&fakeAPI{})
	if ev := c.ClassifyPush(context.Background(), pushFrame(166, 0, []byte{0x01})); ev != nil {
		t.Fatalf("expected nil for plain message push, got %+v", ev)
	}
}

func groupMsg(elements ...types.Element) *types.RawMessage {
	return &types.RawMessage{
		MsgSeq:    "600",
		ChatType:  types.ChatTypeGroup,
		PeerUID:   "777",
		SenderUin: "20010",
		Elements:  elements,
	}
}

func TestClassifyBatchInviteFanOut(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{
		"u_host": "30010",
		"u_a":    "20011",
		"u_b":    "20012",
	}})
	msg := groupMsg(types.Element{
		ElementType: types.ElementTypeGrayTip,
		GrayTipElement: &types.GrayTipElement{XMLElement: &types.XMLElement{
			BusiID: busiIDInviteBatch,
			TemplParam: map[string]string{
				"invitor":          "u_host",
				"invitees_dynamic": `<qq uin="x" jp="u_a"/><qq uin="y" jp="u_b"/>`,
			},
		}},
	})

	events := c.ClassifyMessage(context.Background(), msg)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for i, want := range []int64{20011, 20012} {
		data := events[i].Data.(*event.GroupMemberIncreaseData)
		if data.UserID != want || data.InvitorID != 30010 || data.GroupID != 777 {
			t.Errorf("event %d: %+v", i, data)
		}
	}
}

func TestClassifyShutUpVariants(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{
		"u_target": "20013",
		"u_admin":  "30011",
	}})

	mute := groupMsg(types.Element{
		ElementType: types.ElementTypeGrayTip,
		GrayTipElement: &types.GrayTipElement{GroupElement: &types.GroupElement{
			Type: types.GroupElementTypeShutUp,
			ShutUp: &types.ShutUpDetail{
				Member:   types.ShutUpTarget{UID: "u_target"},
				Admin:    types.ShutUpTarget{UID: "u_admin"},
				Duration: "600",
			},
		}},
	})
	events := c.ClassifyMessage(context.Background(), mute)
	if len(events) != 1 || events[0].Type != event.GroupMute {
		t.Fatalf("expected mute, got %+v", events)
	}
	data := events[0].Data.(*event.GroupMuteData)
	if data.UserID != 20013 || data.OperatorID != 30011 || data.Duration != 600 {
		t.Errorf("mute: %+v", data)
	}

	wholeOff := groupMsg(types.Element{
		ElementType: types.ElementTypeGrayTip,
		GrayTipElement: &types.GrayTipElement{GroupElement: &types.GroupElement{
			Type: types.GroupElementTypeShutUp,
			ShutUp: &types.ShutUpDetail{
				Admin:    types.ShutUpTarget{UID: "u_admin"},
				Duration: "0",
			},
		}},
	})
	events = c.ClassifyMessage(context.Background(), wholeOff)
	if len(events) != 1 || events[0].Type != event.GroupWholeMute {
		t.Fatalf("expected whole mute, got %+v", events)
	}
	whole := events[0].Data.(*event.GroupWholeMuteData)
	if whole.IsMute {
		t.Errorf("expected lift: %+v", whole)
	}
}

func TestClassifyGroupNameChange(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{"u_op": "30012"}})
	msg := groupMsg(types.Element{
		ElementType: types.ElementTypeGrayTip,
		GrayTipElement: &types.GrayTipElement{GroupElement: &types.GroupElement{
			Type:      types.GroupElementTypeNameChange,
			GroupName: "new name",
			MemberUID: "u_op",
		}},
	})
	events := c.ClassifyMessage(context.Background(), msg)
	if len(events) != 1 || events[0].Type != event.GroupNameChange {
		t.Fatalf("expected name change, got %+v", events)
	}
	data := events[0].Data.(*event.GroupNameChangeData)
	if data.NewGroupName != "new name" || data.OperatorID != 30012 {
		t.Errorf("data: %+v", data)
	}
}

func TestClassifyGroupNudge(t *testing.T) {
	c := newTestClassifier(&fakeAPI{})
	msg := groupMsg(types.Element{
		ElementType: types.ElementTypeGrayTip,
		GrayTipElement: &types.GrayTipElement{JSONGrayTipElement: &types.JSONGrayTipElement{
			BusiID: busiIDNudge,
			XMLToJSONParam: &types.XMLToJSONParam{TemplParam: map[string]string{
				"uin_str1":   "20014",
				"uin_str2":   "20015",
				"action_str": "戳了戳",
				"suffix_str": "的头",
			}},
		}},
	})
	events := c.ClassifyMessage(context.Background(), msg)
	if len(events) != 1 || events[0].Type != event.GroupNudge {
		t.Fatalf("expected nudge, got %+v", events)
	}
	data := events[0].Data.(*event.GroupNudgeData)
	if data.SenderID != 20014 || data.ReceiverID != 20015 || data.DisplayAction != "戳了戳" {
		t.Errorf("data: %+v", data)
	}
}

func TestClassifyFriendNudgeSelfFlags(t *testing.T) {
	c := newTestClassifier(&fakeAPI{})
	msg := &types.RawMessage{
		ChatType:  types.ChatTypeC2C,
		PeerUin:   "20016",
		SenderUin: testSession.UIN,
		Elements: []types.Element{{
			ElementType: types.ElementTypeGrayTip,
			GrayTipElement: &types.GrayTipElement{JSONGrayTipElement: &types.JSONGrayTipElement{
				BusiID: busiIDNudge,
				XMLToJSONParam: &types.XMLToJSONParam{TemplParam: map[string]string{
					"uin_str1": testSession.UIN,
					"uin_str2": "20016",
				}},
			}},
		}},
	}
	events := c.ClassifyMessage(context.Background(), msg)
	if len(events) != 1 || events[0].Type != event.FriendNudge {
		t.Fatalf("expected friend nudge, got %+v", events)
	}
	data := events[0].Data.(*event.FriendNudgeData)
	if !data.IsSelfSend || data.IsSelfReceive || data.UserID != 20016 {
		t.Errorf("data: %+v", data)
	}
}

func TestClassifyFriendNudgeResolvesPeerUID(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{"u_peer": "20019"}})
	msg := &types.RawMessage{
		ChatType: types.ChatTypeC2C,
		PeerUID:  "u_peer",
		Elements: []types.Element{{
			ElementType: types.ElementTypeGrayTip,
			GrayTipElement: &types.GrayTipElement{JSONGrayTipElement: &types.JSONGrayTipElement{
				BusiID:         busiIDNudge,
				XMLToJSONParam: &types.XMLToJSONParam{TemplParam: map[string]string{}},
			}},
		}},
	}
	events := c.ClassifyMessage(context.Background(), msg)
	if len(events) != 1 || events[0].Type != event.FriendNudge {
		t.Fatalf("expected friend nudge, got %+v", events)
	}
	if data := events[0].Data.(*event.FriendNudgeData); data.UserID != 20019 {
		t.Errorf("data: %+v", data)
	}
}

func invitationArk(receiver, sender string) *types.ArkElement {
	return &types.ArkElement{BytesData: fmt.Sprintf(
		`{"app":"com.tencent.qun.invite","meta":{"news":{"jumpUrl":"https://qun.qq.com/invite?groupcode=888&amp;msgseq=555&amp;receiveruin=%s&amp;senderuin=%s"}}}`,
		receiver, sender,
	)}
}

func TestClassifyGroupInvitation(t *testing.T) {
	c := newTestClassifier(&fakeAPI{})
	msg := &types.RawMessage{
		ChatType:  types.ChatTypeC2C,
		PeerUin:   "20017",
		SenderUin: "20017",
		Elements: []types.Element{{
			ElementType: types.ElementTypeArk,
			ArkElement:  invitationArk(testSession.UIN, "20017"),
		}},
	}
	events := c.ClassifyMessage(context.Background(), msg)
	if len(events) != 1 || events[0].Type != event.GroupInvitation {
		t.Fatalf("expected invitation, got %+v", events)
	}
	data := events[0].Data.(*event.GroupInvitationData)
	if data.GroupID != 888 || data.InvitationSeq != 555 || data.InitiatorID != 20017 {
		t.Errorf("data: %+v", data)
	}
}

func TestClassifyGroupInvitationForgedRejected(t *testing.T) {
	c := newTestClassifier(&fakeAPI{})
	msg := &types.RawMessage{
		ChatType:  types.ChatTypeC2C,
		PeerUin:   "20018",
		SenderUin: "20018",
		Elements: []types.Element{{
			ElementType: types.ElementTypeArk,
			// receiveruin does not match the logged-in account.
			ArkElement: invitationArk("99999", "20018"),
		}},
	}
	if events := c.ClassifyMessage(context.Background(), msg); len(events) != 0 {
		t.Fatalf("expected forged card rejected, got %+v", events)
	}
}

func TestClassifyRecall(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{"u_op": "30013"}})
	msg := &types.RawMessage{
		MsgSeq:    "612",
		ChatType:  types.ChatTypeGroup,
		PeerUID:   "777",
		SenderUin: "20019",
		Elements: []types.Element{{
			ElementType: types.ElementTypeGrayTip,
			GrayTipElement: &types.GrayTipElement{RevokeElement: &types.RevokeElement{
				OperatorUID: "u_op",
				Wording:     "撤回了一条消息",
			}},
		}},
	}
	events := c.ClassifyMessage(context.Background(), msg)
	if len(events) != 1 || events[0].Type != event.MessageRecall {
		t.Fatalf("expected recall, got %+v", events)
	}
	data := events[0].Data.(*event.MessageRecallData)
	if data.MessageScene != event.SceneGroup || data.PeerID != 777 {
		t.Errorf("scene: %+v", data)
	}
	if data.MessageSeq != 612 || data.OperatorID != 30013 || data.DisplaySuffix == "" {
		t.Errorf("data: %+v", data)
	}
}

func TestClassifyFileUploads(t *testing.T) {
	c := newTestClassifier(&fakeAPI{})
	file := &types.FileElement{FileUUID: "/f-1", FileName: "a.zip", FileSize: "2048"}

	events := c.ClassifyMessage(context.Background(), groupMsg(types.Element{
		ElementType: types.ElementTypeFile,
		FileElement: file,
	}))
	if len(events) != 1 || events[0].Type != event.GroupFileUpload {
		t.Fatalf("expected group file upload, got %+v", events)
	}
	gd := events[0].Data.(*event.GroupFileUploadData)
	if gd.FileID != "/f-1" || gd.FileSize != 2048 {
		t.Errorf("group data: %+v", gd)
	}

	events = c.ClassifyMessage(context.Background(), &types.RawMessage{
		ChatType:  types.ChatTypeC2C,
		SenderUin: testSession.UIN,
		Elements:  []types.Element{{ElementType: types.ElementTypeFile, FileElement: file}},
	})
	if len(events) != 1 || events[0].Type != event.FriendFileUpload {
		t.Fatalf("expected friend file upload, got %+v", events)
	}
	fd := events[0].Data.(*event.FriendFileUploadData)
	if !fd.IsSelf || fd.FileName != "a.zip" {
		t.Errorf("friend data: %+v", fd)
	}
}

func TestClassifyRepeatedInputIdentical(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{
		"u_new":   "20001",
		"u_admin": "30001",
	}})
	ctx := context.Background()

	content := (&proto.GroupMemberChange{
		GroupCode: 777,
		MemberUID: "u_new",
		Type:      proto.MemberChangeJoinLeave,
		AdminUID:  "u_admin",
	}).Marshal()
	first := c.ClassifyPush(ctx, pushFrame(33, 0, content))
	second := c.ClassifyPush(ctx, pushFrame(33, 0, content))
	if first == nil || second == nil {
		t.Fatalf("expected events, got %+v / %+v", first, second)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("push results diverged: %+v vs %+v", first, second)
	}

	msg := &types.RawMessage{
		ChatType: types.ChatTypeGroup,
		PeerUin:  "777",
		Elements: []types.Element{{
			ElementType: types.ElementTypeGrayTip,
			GrayTipElement: &types.GrayTipElement{
				GroupElement: &types.GroupElement{
					Type:      types.GroupElementTypeNameChange,
					GroupName: "new name",
				},
			},
		}},
	}
	evs1 := c.ClassifyMessage(ctx, msg)
	evs2 := c.ClassifyMessage(ctx, msg)
	if len(evs1) == 0 {
		t.Fatal("expected rename event")
	}
	if !reflect.DeepEqual(evs1, evs2) {
		t.Errorf("message results diverged: %+v vs %+v", evs1, evs2)
	}
}

func TestBuildGroupNotify(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{
		"u_new": "20001", "u_inv": "20002",
	}})
	ctx := context.Background()

	join := &types.GroupNotify{
		Seq:        "5001",
		Type:       types.GroupNotifyJoinNeedsApproval,
		Status:     types.GroupNotifyStatusUnhandled,
		Group:      types.GroupNotifyGroup{GroupCode: "777"},
		User1:      types.GroupNotifyUser{UID: "u_new"},
		Postscript: "let me in",
	}
	ev := c.BuildGroupNotify(ctx, join, true)
	if ev == nil || ev.Type != event.GroupJoinRequest {
		t.Fatalf("expected join request, got %+v", ev)
	}
	jd := ev.Data.(*event.GroupJoinRequestData)
	if jd.GroupID != 777 || jd.NotificationSeq != 5001 || jd.InitiatorID != 20001 {
		t.Errorf("join data: %+v", jd)
	}
	if !jd.IsFiltered || jd.Comment != "let me in" {
		t.Errorf("join data: %+v", jd)
	}

	invited := &types.GroupNotify{
		Seq:    "5002",
		Type:   types.GroupNotifyInvitedNeedsApproval,
		Status: types.GroupNotifyStatusUnhandled,
		Group:  types.GroupNotifyGroup{GroupCode: "777"},
		User1:  types.GroupNotifyUser{UID: "u_new"},
		User2:  types.GroupNotifyUser{UID: "u_inv"},
	}
	ev = c.BuildGroupNotify(ctx, invited, false)
	if ev == nil || ev.Type != event.GroupInvitedJoinRequest {
		t.Fatalf("expected invited join request, got %+v", ev)
	}
	id := ev.Data.(*event.GroupInvitedJoinRequestData)
	if id.InitiatorID != 20002 || id.TargetUserID != 20001 || id.NotificationSeq != 5002 {
		t.Errorf("invited data: %+v", id)
	}

	byMember := &types.GroupNotify{
		Seq:    "5003",
		Type:   types.GroupNotifyInvitedByMember,
		Status: types.GroupNotifyStatusUnhandled,
		Group:  types.GroupNotifyGroup{GroupCode: "888"},
		User2:  types.GroupNotifyUser{UID: "u_inv"},
	}
	ev = c.BuildGroupNotify(ctx, byMember, false)
	if ev == nil || ev.Type != event.GroupInvitation {
		t.Fatalf("expected invitation, got %+v", ev)
	}
	vd := ev.Data.(*event.GroupInvitationData)
	if vd.GroupID != 888 || vd.InvitationSeq != 5003 || vd.InitiatorID != 20002 {
		t.Errorf("invitation data: %+v", vd)
	}
}

func TestBuildGroupNotifyHandledIgnored(t *testing.T) {
	c := newTestClassifier(&fakeAPI{})
	handled := &types.GroupNotify{
		Seq:    "5004",
		Type:   types.GroupNotifyJoinNeedsApproval,
		Status: types.GroupNotifyStatusAgreed,
		Group:  types.GroupNotifyGroup{GroupCode: "777"},
	}
	if ev := c.BuildGroupNotify(context.Background(), handled, false); ev != nil {
		t.Errorf("expected nil for handled record, got %+v", ev)
	}
	other := &types.GroupNotify{
		Seq:    "5005",
		Type:   8,
		Status: types.GroupNotifyStatusUnhandled,
	}
	if ev := c.BuildGroupNotify(context.Background(), other, false); ev != nil {
		t.Errorf("expected nil for admin record, got %+v", ev)
	}
}

func TestBuildFriendRequestVia(t *testing.T) {
	c := newTestClassifier(&fakeAPI{uins: map[string]string{"u_req": "20020"}})
	ev := c.BuildFriendRequest(context.Background(), "u_req", "hi", 3004, "some group")
	data := ev.Data.(*event.FriendRequestData)
	if data.InitiatorID != 20020 || data.Via != "QQ群-some group" {
		t.Errorf("data: %+v", data)
	}
	ev = c.BuildFriendRequest(context.Background(), "u_req", "", 3020, "")
	if ev.Data.(*event.FriendRequestData).Via != "QQ号查找" {
		t.Errorf("via: %+v", ev.Data)
	}
}
