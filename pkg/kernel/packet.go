package kernel

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/tinyland-inc/ntbridge/pkg/proto"
	"github.com/tinyland-inc/ntbridge/pkg/types"
)

// Profile property keys served by OIDB 0xfe1_2.
const (
	propNick     = 20002
	propCountry  = 20003
	propSex      = 20009
	propBirthday = 20031
	propCity     = 20020
	propLevel    = 105
	propLongNick = 102
	propRegTime  = 20026
	propQID      = 27394
	propAge      = 20037
	propLabels   = 104
)

var userInfoKeys = []uint32{
	propLongNick, propLabels, propLevel,
	propNick, propCountry, propSex, propCity,
	propRegTime, propBirthday, propAge, propQID,
}

// FetchUserInfo fetches a profile card over the packet channel. It uses
// the unary HTTP fallback so it works while the socket is reconnecting.
func (k *Client) FetchUserInfo(ctx context.Context, uin string) (*UserInfo, error) {
	uinNum, err := strconv.ParseUint(uin, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse uin %q: %w", uin, err)
	}
	req := &proto.OidbBase{
		Command:    0xfe1,
		SubCommand: 2,
		Body:       (&proto.FetchUserInfoReq{Uin: uinNum, Keys: userInfoKeys}).Marshal(),
		IsReserved: 1,
	}
	reply, err := k.c.SendPBHTTP(ctx, "OidbSvcTrpcTcp.0xfe1_2", req.Marshal())
	if err != nil {
		return nil, err
	}
	base, err := proto.UnmarshalOidbBase(reply)
	if err != nil {
		return nil, fmt.Errorf("decode profile packet: %w", err)
	}
	if base.ErrorCode != 0 {
		return nil, fmt.Errorf("profile fetch for %s: code %d %s", uin, base.ErrorCode, base.ErrorMsg)
	}
	resp, err := proto.UnmarshalFetchUserInfoResp(base.Body)
	if err != nil {
		return nil, fmt.Errorf("decode profile body: %w", err)
	}

	info := &UserInfo{
		UIN:      strconv.FormatUint(resp.Uin, 10),
		Sex:      resp.NumberProperties[propSex],
		Level:    resp.NumberProperties[propLevel],
		RegTime:  resp.NumberProperties[propRegTime],
		Age:      resp.NumberProperties[propAge],
		Nick:     string(resp.BytesProperties[propNick]),
		Country:  string(resp.BytesProperties[propCountry]),
		City:     string(resp.BytesProperties[propCity]),
		LongNick: string(resp.BytesProperties[propLongNick]),
		QID:      string(resp.BytesProperties[propQID]),
	}
	// Birthday travels as a packed big-endian year plus month and day
	// bytes.
	if b := resp.BytesProperties[propBirthday]; len(b) >= 4 {
		info.BirthdayYear = uint64(b[0])<<8 | uint64(b[1])
		info.BirthdayMonth = uint64(b[2])
		info.BirthdayDay = uint64(b[3])
	}
	if raw := resp.BytesProperties[propLabels]; len(raw) > 0 {
		labels, err := proto.UnmarshalUserInfoLabel(raw)
		if err == nil {
			info.Labels = labels.Labels
		}
	}
	return info, nil
}

// FetchUserLoginDays asks the 0xdef_1 service (JSON-in-protobuf) for the
// consecutive login day counter of a uin.
func (k *Client) FetchUserLoginDays(ctx context.Context, uin string) (int64, error) {
	query := fmt.Sprintf(
		`{"msg_req_basic_info":{"uint64_request_uin":[%s]},"uint32_req_login_info":1}`,
		uin,
	)
	req := &proto.FetchUserLoginDaysReq{Field2: 0, JSON: query}
	reply, err := k.c.SendPBHTTP(ctx, "MQUpdateSvc_com_qq_ti.web.OidbSvc.0xdef_1", req.Marshal())
	if err != nil {
		return 0, err
	}
	resp, err := proto.UnmarshalFetchUserLoginDaysResp(reply)
	if err != nil {
		return 0, fmt.Errorf("decode login days packet: %w", err)
	}
	var days int64 = -1
	gjson.Get(resp.JSON, "msg_rsp_basic_info.rpt_msg_basic_info").ForEach(func(_, entry gjson.Result) bool {
		if entry.Get("uint64_uin").String() != uin {
			return true
		}
		days = entry.Get("uint32_login_days").Int()
		return false
	})
	if days < 0 {
		return 0, fmt.Errorf("login days for %s: %w", uin, ErrNotFound)
	}
	return days, nil
}

// UploadForward hands a packed transcript to the helper and returns the
// resid the resulting forward card references.
func (k *Client) UploadForward(ctx context.Context, peer types.Peer, transmit []byte) (string, error) {
	res, err := k.c.Call(ctx, "uploadForward", []any{peer, hex.EncodeToString(transmit)}, uploadTimeout)
	if err != nil {
		return "", err
	}
	resid, _ := res.(string)
	if resid == "" {
		return "", fmt.Errorf("upload forward: empty resid")
	}
	return resid, nil
}
