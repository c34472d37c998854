package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tinyland-inc/ntbridge/pkg/types"
)

// Caller is the transport surface the kernel client needs. The concrete
// implementation is transport.Client; tests substitute their own.
type Caller interface {
	Call(ctx context.Context, fn string, args []any, timeout time.Duration) (any, error)
	SendPB(ctx context.Context, cmd string, pb []byte) ([]byte, error)
	SendPBHTTP(ctx context.Context, cmd string, pb []byte) ([]byte, error)
}

// uploadTimeout covers media uploads, which can outlive the default call
// deadline on slow links.
const uploadTimeout = 120 * time.Second

// Client exposes the kernel capabilities over a Caller.
type Client struct {
	c Caller
}

var _ API = (*Client)(nil)

func NewClient(c Caller) *Client {
	return &Client{c: c}
}

// decodeResult re-marshals a generically decoded call result into a typed
// destination.
func decodeResult(v any, out any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode kernel result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode kernel result: %w", err)
	}
	return nil
}

func (k *Client) callString(ctx context.Context, fn string, args ...any) (string, error) {
	res, err := k.c.Call(ctx, fn, args, 0)
	if err != nil {
		return "", err
	}
	s, _ := res.(string)
	return s, nil
}

func (k *Client) GetSelfInfo(ctx context.Context) (types.Session, error) {
	res, err := k.c.Call(ctx, "getSelfInfo", nil, 0)
	if err != nil {
		return types.Session{}, err
	}
	var out struct {
		UIN  string `json:"uin"`
		UID  string `json:"uid"`
		Nick string `json:"nick"`
	}
	if err := decodeResult(res, &out); err != nil {
		return types.Session{}, err
	}
	if out.UIN == "" || out.UID == "" {
		return types.Session{}, fmt.Errorf("self identity: %w", ErrNotFound)
	}
	return types.Session{UIN: out.UIN, UID: out.UID, Nick: out.Nick}, nil
}

func (k *Client) GetUIDByUIN(ctx context.Context, uin string) (string, error) {
	uid, err := k.callString(ctx, "getUidByUin", uin)
	if err != nil {
		return "", err
	}
	if uid == "" {
		return "", fmt.Errorf("uid for uin %s: %w", uin, ErrNotFound)
	}
	return uid, nil
}

func (k *Client) GetUINByUID(ctx context.Context, uid string) (string, error) {
	uin, err := k.callString(ctx, "getUinByUid", uid)
	if err != nil {
		return "", err
	}
	if uin == "" || uin == "0" {
		return "", fmt.Errorf("uin for uid %s: %w", uid, ErrNotFound)
	}
	return uin, nil
}

func (k *Client) GetSelfNick(ctx context.Context, refresh bool) (string, error) {
	return k.callString(ctx, "getSelfNick", refresh)
}

func (k *Client) GetUserSimpleInfo(ctx context.Context, uid string) (*UserSimpleInfo, error) {
	res, err := k.c.Call(ctx, "getUserSimpleInfoByUid", []any{uid}, 0)
	if err != nil {
		return nil, err
	}
	info := &UserSimpleInfo{}
	if err := decodeResult(res, info); err != nil {
		return nil, err
	}
	if info.UID == "" {
		return nil, fmt.Errorf("profile for uid %s: %w", uid, ErrNotFound)
	}
	return info, nil
}

func (k *Client) GetMsgsBySeqAndCount(ctx context.Context, peer types.Peer, seq string, count int, desc, includeSelf bool) ([]*types.RawMessage, error) {
	res, err := k.c.Call(ctx, "getMsgsBySeqAndCount", []any{peer, seq, count, desc, includeSelf}, 0)
	if err != nil {
		return nil, err
	}
	var out struct {
		MsgList []*types.RawMessage `json:"msgList"`
	}
	if err := decodeResult(res, &out); err != nil {
		return nil, err
	}
	return out.MsgList, nil
}

func (k *Client) QueryMsgsWithFilterExBySeq(ctx context.Context, peer types.Peer, seq, msgTime string, senderUIDs []string) ([]*types.RawMessage, error) {
	if senderUIDs == nil {
		senderUIDs = []string{}
	}
	res, err := k.c.Call(ctx, "queryMsgsWithFilterExBySeq", []any{peer, seq, msgTime, senderUIDs}, 0)
	if err != nil {
		return nil, err
	}
	var out struct {
		MsgList []*types.RawMessage `json:"msgList"`
	}
	if err := decodeResult(res, &out); err != nil {
		return nil, err
	}
	return out.MsgList, nil
}

func (k *Client) GetTempChatInfo(ctx context.Context, chatType int, peerUID string) (*TempChatInfo, error) {
	res, err := k.c.Call(ctx, "getTempChatInfo", []any{chatType, peerUID}, 0)
	if err != nil {
		return nil, err
	}
	var out struct {
		TmpChatInfo *TempChatInfo `json:"tmpChatInfo"`
	}
	if err := decodeResult(res, &out); err != nil {
		return nil, err
	}
	if out.TmpChatInfo == nil {
		return nil, fmt.Errorf("temp chat with %s: %w", peerUID, ErrNotFound)
	}
	return out.TmpChatInfo, nil
}

func (k *Client) SendMsg(ctx context.Context, peer types.Peer, elements []types.Element) (*types.RawMessage, error) {
	res, err := k.c.Call(ctx, "sendMsg", []any{peer, elements}, uploadTimeout)
	if err != nil {
		return nil, err
	}
	msg := &types.RawMessage{}
	if err := decodeResult(res, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (k *Client) RecallMsg(ctx context.Context, peer types.Peer, msgIDs []string) error {
	_, err := k.c.Call(ctx, "recallMsg", []any{peer, msgIDs}, 0)
	return err
}

func (k *Client) SetMsgRead(ctx context.Context, peer types.Peer) error {
	_, err := k.c.Call(ctx, "setMsgRead", []any{peer}, 0)
	return err
}

func (k *Client) GetGroupAllInfo(ctx context.Context, groupCode string) (*GroupAllInfo, error) {
	res, err := k.c.Call(ctx, "getGroupAllInfo", []any{groupCode}, 0)
	if err != nil {
		return nil, err
	}
	info := &GroupAllInfo{}
	if err := decodeResult(res, info); err != nil {
		return nil, err
	}
	if info.GroupCode == "" {
		return nil, fmt.Errorf("group %s: %w", groupCode, ErrNotFound)
	}
	return info, nil
}

func (k *Client) GetGroupDetailInfo(ctx context.Context, groupCode string) (*GroupDetailInfo, error) {
	res, err := k.c.Call(ctx, "getGroupDetailInfo", []any{groupCode}, 0)
	if err != nil {
		return nil, err
	}
	info := &GroupDetailInfo{}
	if err := decodeResult(res, info); err != nil {
		return nil, err
	}
	if info.GroupCode == "" {
		return nil, fmt.Errorf("group %s: %w", groupCode, ErrNotFound)
	}
	return info, nil
}

func (k *Client) GetGroupSimpleInfo(ctx context.Context, groupCode string) (*GroupSimpleInfo, error) {
	res, err := k.c.Call(ctx, "getGroupSimpleInfo", []any{groupCode}, 0)
	if err != nil {
		return nil, err
	}
	info := &GroupSimpleInfo{}
	if err := decodeResult(res, info); err != nil {
		return nil, err
	}
	if info.GroupCode == "" {
		return nil, fmt.Errorf("group %s: %w", groupCode, ErrNotFound)
	}
	return info, nil
}

func (k *Client) GetGroupMember(ctx context.Context, groupCode, uid string) (*GroupMember, error) {
	res, err := k.c.Call(ctx, "getGroupMember", []any{groupCode, uid}, 0)
	if err != nil {
		return nil, err
	}
	member := &GroupMember{}
	if err := decodeResult(res, member); err != nil {
		return nil, err
	}
	if member.UID == "" {
		return nil, fmt.Errorf("member %s of group %s: %w", uid, groupCode, ErrNotFound)
	}
	return member, nil
}

func (k *Client) IsBuddy(ctx context.Context, uid string) (bool, error) {
	res, err := k.c.Call(ctx, "isBuddy", []any{uid}, 0)
	if err != nil {
		return false, err
	}
	b, _ := res.(bool)
	return b, nil
}

func (k *Client) GetCategoryName(ctx context.Context, categoryID int) (string, error) {
	return k.callString(ctx, "getCategoryById", categoryID)
}

func (k *Client) UploadRichMedia(ctx context.Context, path string, kind int, peerUID string) (*RichMediaUpload, error) {
	res, err := k.c.Call(ctx, "uploadRMFileWithoutMsg", []any{path, kind, peerUID}, uploadTimeout)
	if err != nil {
		return nil, err
	}
	up := &RichMediaUpload{}
	if err := decodeResult(res, up); err != nil {
		return nil, err
	}
	return up, nil
}

func (k *Client) UploadGroupVideo(ctx context.Context, groupCode, path, thumbPath string) (*VideoUpload, error) {
	return k.uploadVideo(ctx, "uploadGroupVideo", groupCode, path, thumbPath)
}

func (k *Client) UploadC2CVideo(ctx context.Context, peerUID, path, thumbPath string) (*VideoUpload, error) {
	return k.uploadVideo(ctx, "uploadC2CVideo", peerUID, path, thumbPath)
}

func (k *Client) uploadVideo(ctx context.Context, fn, target, path, thumbPath string) (*VideoUpload, error) {
	res, err := k.c.Call(ctx, fn, []any{target, path, thumbPath}, uploadTimeout)
	if err != nil {
		return nil, err
	}
	up := &VideoUpload{}
	if err := decodeResult(res, up); err != nil {
		return nil, err
	}
	return up, nil
}

func (k *Client) GetImageURL(ctx context.Context, pic *types.PicElement) (string, error) {
	return k.callString(ctx, "getImageUrl", pic)
}

func (k *Client) GetVideoURL(ctx context.Context, peer types.Peer, msgID, elementID string) (string, error) {
	return k.callString(ctx, "getVideoUrl", peer, msgID, elementID)
}

func (k *Client) GetImageSize(ctx context.Context, path string) (*ImageSize, error) {
	res, err := k.c.Call(ctx, "getImageSize", []any{path}, 0)
	if err != nil {
		return nil, err
	}
	size := &ImageSize{}
	if err := decodeResult(res, size); err != nil {
		return nil, err
	}
	return size, nil
}

func (k *Client) CreateVideoThumb(ctx context.Context, videoPath, thumbPath string) error {
	_, err := k.c.Call(ctx, "createVideoThumb", []any{videoPath, thumbPath}, uploadTimeout)
	return err
}

func (k *Client) packElement(ctx context.Context, fn string, args ...any) (*types.Element, error) {
	res, err := k.c.Call(ctx, fn, args, uploadTimeout)
	if err != nil {
		return nil, err
	}
	elem := &types.Element{}
	if err := decodeResult(res, elem); err != nil {
		return nil, err
	}
	return elem, nil
}

func (k *Client) PackPicElement(ctx context.Context, peer types.Peer, path, summary string, subType int) (*types.Element, error) {
	return k.packElement(ctx, "packPicElement", peer, path, summary, subType)
}

func (k *Client) PackPttElement(ctx context.Context, path string) (*types.Element, error) {
	return k.packElement(ctx, "packPttElement", path)
}

func (k *Client) PackVideoElement(ctx context.Context, path, thumbPath string) (*types.Element, error) {
	return k.packElement(ctx, "packVideoElement", path, thumbPath)
}
