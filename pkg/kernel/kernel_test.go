package kernel

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/tinyland-inc/ntbridge/pkg/proto"
	"github.com/tinyland-inc/ntbridge/pkg/types"
)

// fakeCaller scripts transport responses per function/command name and
// records what the client sent.
type fakeCaller struct {
	calls   map[string]any
	packets map[string][]byte

	lastFn      string
	lastArgs    []any
	lastTimeout time.Duration
	lastCmd     string
	lastPB      []byte
}

func (f *fakeCaller) Call(_ context.Context, fn string, args []any, timeout time.Duration) (any, error) {
	f.lastFn, f.lastArgs, f.lastTimeout = fn, args, timeout
	res, ok := f.calls[fn]
	if !ok {
		return nil, errors.New("unexpected call " + fn)
	}
	return res, nil
}

func (f *fakeCaller) SendPB(_ context.Context, cmd string, pb []byte) ([]byte, error) {
	f.lastCmd, f.lastPB = cmd, pb
	reply, ok := f.packets[cmd]
	if !ok {
		return nil, errors.New("unexpected packet " + cmd)
	}
	return reply, nil
}

func (f *fakeCaller) SendPBHTTP(ctx context.Context, cmd string, pb []byte) ([]byte, error) {
	return f.SendPB(ctx, cmd, pb)
}

func TestGetSelfInfo(t *testing.T) {
	fc := &fakeCaller{calls: map[string]any{
		"getSelfInfo": map[string]any{"uin": "10000", "uid": "u_self", "nick": "self"},
	}}
	k := NewClient(fc)
	session, err := k.GetSelfInfo(context.Background())
	if err != nil {
		t.Fatalf("self info: %v", err)
	}
	want := types.Session{UIN: "10000", UID: "u_self", Nick: "self"}
	if session != want {
		t.Errorf("session: %+v", session)
	}
}

func TestGetUIDByUINNotFound(t *testing.T) {
	fc := &fakeCaller{calls: map[string]any{"getUidByUin": ""}}
	k := NewClient(fc)
	_, err := k.GetUIDByUIN(context.Background(), "12345")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if fc.lastFn != "getUidByUin" || fc.lastArgs[0] != "12345" {
		t.Errorf("call shape: %s %v", fc.lastFn, fc.lastArgs)
	}
}

func TestGetUINByUIDZeroIsMissing(t *testing.T) {
	fc := &fakeCaller{calls: map[string]any{"getUinByUid": "0"}}
	k := NewClient(fc)
	if _, err := k.GetUINByUID(context.Background(), "u_x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for uin 0, got %v", err)
	}
}

func TestGetMsgsBySeqAndCount(t *testing.T) {
	fc := &fakeCaller{calls: map[string]any{
		"getMsgsBySeqAndCount": map[string]any{
			"msgList": []any{
				map[string]any{"msgId": "m-1", "msgSeq": "501"},
				map[string]any{"msgId": "m-2", "msgSeq": "502"},
			},
		},
	}}
	k := NewClient(fc)
	msgs, err := k.GetMsgsBySeqAndCount(context.Background(), types.GroupPeer("777"), "501", 2, true, true)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(msgs) != 2 || msgs[0].MsgID != "m-1" || msgs[1].MsgSeq != "502" {
		t.Errorf("decoded list: %+v", msgs)
	}
	if fc.lastTimeout != 0 {
		t.Errorf("history fetch must use the default timeout, got %v", fc.lastTimeout)
	}
}

func TestUploadRichMediaTimeout(t *testing.T) {
	fc := &fakeCaller{calls: map[string]any{
		"uploadRMFileWithoutMsg": map[string]any{
			"fileId":   "F1",
			"filePath": "/srv/f1",
			"commonFileInfo": map[string]any{
				"fileSize": "42",
				"md5":      "aa",
				"sha":      "bb",
				"fileName": "f1.png",
			},
		},
	}}
	k := NewClient(fc)
	up, err := k.UploadRichMedia(context.Background(), "/tmp/f1.png", UploadKindGroupImage, "777")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if up.FileID != "F1" || up.CommonFileInfo.FileSize != "42" {
		t.Errorf("decoded upload: %+v", up)
	}
	if fc.lastTimeout != uploadTimeout {
		t.Errorf("uploads must use the long timeout, got %v", fc.lastTimeout)
	}
}

func TestGetTempChatInfoMissing(t *testing.T) {
	fc := &fakeCaller{calls: map[string]any{
		"getTempChatInfo": map[string]any{"tmpChatInfo": nil},
	}}
	k := NewClient(fc)
	if _, err := k.GetTempChatInfo(context.Background(), 100, "u_x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchUserInfo(t *testing.T) {
	labels := (&proto.UserInfoLabel{Labels: []string{"旅行", "音乐"}}).Marshal()
	resp := &proto.FetchUserInfoResp{
		Uin: 12345,
		NumberProperties: map[uint32]uint64{
			20009: 1,  // sex
			105:   32, // level
			20037: 20, // age
		},
		BytesProperties: map[uint32][]byte{
			20002: []byte("nick"),
			20003: []byte("CN"),
			102:   []byte("long nick"),
			20031: {0x07, 0xC8, 0x05, 0x11}, // 1992-05-17
			104:   labels,
		},
	}
	reply := (&proto.OidbBase{Command: 0xfe1, SubCommand: 2, Body: resp.Marshal()}).Marshal()
	fc := &fakeCaller{packets: map[string][]byte{"OidbSvcTrpcTcp.0xfe1_2": reply}}
	k := NewClient(fc)

	info, err := k.FetchUserInfo(context.Background(), "12345")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if info.UIN != "12345" || info.Nick != "nick" || info.Sex != 1 || info.Level != 32 {
		t.Errorf("basic props: %+v", info)
	}
	if info.BirthdayYear != 1992 || info.BirthdayMonth != 5 || info.BirthdayDay != 17 {
		t.Errorf("birthday: %d-%d-%d", info.BirthdayYear, info.BirthdayMonth, info.BirthdayDay)
	}
	if len(info.Labels) != 2 || info.Labels[0] != "旅行" {
		t.Errorf("labels: %v", info.Labels)
	}

	// The request must carry the uin and go over the unary channel.
	req, err := proto.UnmarshalOidbBase(fc.lastPB)
	if err != nil {
		t.Fatalf("request frame: %v", err)
	}
	if req.Command != 0xfe1 || req.SubCommand != 2 || req.IsReserved != 1 {
		t.Errorf("request base: %#x_%d reserved=%d", req.Command, req.SubCommand, req.IsReserved)
	}
}

func TestFetchUserInfoErrorCode(t *testing.T) {
	reply := (&proto.OidbBase{Command: 0xfe1, SubCommand: 2, ErrorCode: 34, ErrorMsg: "busy"}).Marshal()
	fc := &fakeCaller{packets: map[string][]byte{"OidbSvcTrpcTcp.0xfe1_2": reply}}
	k := NewClient(fc)
	if _, err := k.FetchUserInfo(context.Background(), "12345"); err == nil {
		t.Fatal("expected error for non-zero code")
	}
}

func TestFetchUserLoginDays(t *testing.T) {
	body := `{"msg_rsp_basic_info":{"rpt_msg_basic_info":[{"uint64_uin":99999,"uint32_login_days":3},{"uint64_uin":12345,"uint32_login_days":196}]}}`
	reply := (&proto.FetchUserLoginDaysResp{JSON: body}).Marshal()
	fc := &fakeCaller{packets: map[string][]byte{"MQUpdateSvc_com_qq_ti.web.OidbSvc.0xdef_1": reply}}
	k := NewClient(fc)

	days, err := k.FetchUserLoginDays(context.Background(), "12345")
	if err != nil {
		t.Fatalf("login days: %v", err)
	}
	if days != 196 {
		t.Errorf("days: %d", days)
	}

	// The request is JSON-in-protobuf asking for login info on the uin.
	req, err := proto.UnmarshalFetchUserLoginDaysReq(fc.lastPB)
	if err != nil {
		t.Fatalf("request frame: %v", err)
	}
	if req.Field2 != 0 {
		t.Errorf("field2: %d", req.Field2)
	}
	if req.JSON != `{"msg_req_basic_info":{"uint64_request_uin":[12345]},"uint32_req_login_info":1}` {
		t.Errorf("request json: %s", req.JSON)
	}
}

func TestFetchUserLoginDaysMissing(t *testing.T) {
	body := `{"msg_rsp_basic_info":{"rpt_msg_basic_info":[{"uint64_uin":99999,"uint32_login_days":3}]}}`
	reply := (&proto.FetchUserLoginDaysResp{JSON: body}).Marshal()
	fc := &fakeCaller{packets: map[string][]byte{"MQUpdateSvc_com_qq_ti.web.OidbSvc.0xdef_1": reply}}
	k := NewClient(fc)
	if _, err := k.FetchUserLoginDays(context.Background(), "12345"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUploadForward(t *testing.T) {
	fc := &fakeCaller{calls: map[string]any{"uploadForward": "RESID-1"}}
	k := NewClient(fc)
	transmit := []byte{0x0a, 0x02, 0x08, 0x01}

	resid, err := k.UploadForward(context.Background(), types.GroupPeer("777"), transmit)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resid != "RESID-1" {
		t.Errorf("resid: %s", resid)
	}
	if got := fc.lastArgs[1]; got != hex.EncodeToString(transmit) {
		t.Errorf("transmit must travel hex encoded, got %v", got)
	}
	if fc.lastTimeout != uploadTimeout {
		t.Errorf("timeout: %v", fc.lastTimeout)
	}
}

func TestUploadForwardEmptyResID(t *testing.T) {
	fc := &fakeCaller{calls: map[string]any{"uploadForward": ""}}
	k := NewClient(fc)
	if _, err := k.UploadForward(context.Background(), types.GroupPeer("777"), []byte{1}); err == nil {
		t.Fatal("expected error for empty resid")
	}
}
