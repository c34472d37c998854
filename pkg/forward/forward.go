// Package forward packs fabricated chat transcripts into uploadable
// forward cards. Each Encode call owns its own sequence counter and
// preview state so concurrent encodes never interleave.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zlib"

	"github.com/tinyland-inc/ntbridge/pkg/kernel"
	"github.com/tinyland-inc/ntbridge/pkg/logger"
	"github.com/tinyland-inc/ntbridge/pkg/media"
	"github.com/tinyland-inc/ntbridge/pkg/proto"
	"github.com/tinyland-inc/ntbridge/pkg/types"
)

const component = "forward"

// Wire constants for packed transcript frames.
const (
	// fabricatedGroupCode is the placeholder group every transcript frame
	// claims to come from. The reader never resolves it.
	fabricatedGroupCode = 284840486

	seqBound    = 65430
	randomBound = 4294967290

	msgTypeC2C   = 9
	msgTypeGroup = 82

	mediaServiceType = 48

	picBusinessTypeC2C     = 10
	picBusinessTypeGroup   = 20
	videoBusinessTypeC2C   = 11
	videoBusinessTypeGroup = 21

	mediaExpireGroup = 2678400   // 31 days
	mediaExpireC2C   = 157680000 // 5 years

	mediaAppIDC2C   = 1406
	mediaAppIDGroup = 1407

	mediaDomain    = "multimedia.nt.qq.com.cn"
	groupOldFileID = 574859779

	transcriptItemName = "MultiMsg"

	previewLimit = 4
)

// Encoder packs forward segments for one logged-in session.
type Encoder struct {
	api     kernel.API
	store   *media.Store
	session types.Session
}

func NewEncoder(api kernel.API, store *media.Store, session types.Session) *Encoder {
	return &Encoder{api: api, store: store, session: session}
}

// Result is a packed transcript ready to send.
type Result struct {
	// Element is the ark card whose meta references the uploaded
	// transcript.
	Element types.Element
	// ResID identifies the uploaded transcript.
	ResID string
	// TempFiles are media files staged during packing; the caller
	// deletes them after the send.
	TempFiles []string
}

// Encode packs, uploads and wraps a transcript.
func (e *Encoder) Encode(ctx context.Context, peer types.Peer, seg *types.ForwardSegment) (*Result, error) {
	p := e.newPacker(peer)
	if err := p.pack(ctx, seg.Messages); err != nil {
		return nil, err
	}
	resid, fileID, err := p.upload(ctx)
	if err != nil {
		return nil, err
	}
	card, err := p.card(seg, resid, fileID)
	if err != nil {
		return nil, err
	}
	return &Result{
		Element:   types.SendArk(card),
		ResID:     resid,
		TempFiles: p.temps,
	}, nil
}

// packer holds the per-invocation encoding state.
type packer struct {
	enc   *Encoder
	peer  types.Peer
	group bool

	seq   uint32
	tsum  int
	news  []string
	msgs  []*proto.Message
	items []*proto.MultiMsgItem
	temps []string
}

func (e *Encoder) newPacker(peer types.Peer) *packer {
	return &packer{
		enc:   e,
		peer:  peer,
		group: peer.IsGroup(),
		seq:   rand.Uint32N(seqBound),
	}
}

func (p *packer) pack(ctx context.Context, nodes []types.ForwardNode) error {
	for i := range nodes {
		node := &nodes[i]
		var elems []*proto.Elem
		preview := ""
		for j := range node.Segments {
			elem, pv, err := p.segment(ctx, node, &node.Segments[j])
			if err != nil {
				logger.WarnCF(component, "Dropping transcript segment", map[string]any{
					"type":  string(node.Segments[j].Type),
					"error": err.Error(),
				})
				continue
			}
			elems = append(elems, elem)
			preview += pv
		}
		if len(elems) == 0 {
			continue
		}
		p.flush(node, elems, preview)
	}
	if len(p.msgs) == 0 {
		return errors.New("empty transcript")
	}
	return nil
}

// flush appends one fabricated frame and records its preview line.
func (p *packer) flush(node *types.ForwardNode, elems []*proto.Elem, preview string) {
	nick := node.SenderName
	if nick == "" {
		nick = p.enc.session.Nick
	}
	uin := uint64(node.UserID)
	if uin == 0 {
		uin, _ = strconv.ParseUint(p.enc.session.UIN, 10, 64)
	}
	if len(p.news) < previewLimit {
		p.news = append(p.news, fmt.Sprintf("%s: %s", nick, preview))
	}

	routing := &proto.RoutingHead{FromUin: uin}
	msgType := uint32(msgTypeC2C)
	if p.group {
		msgType = msgTypeGroup
		routing.Group = &proto.GroupHead{GroupCode: fabricatedGroupCode, GroupCard: nick}
	} else {
		routing.C2C = &proto.C2CHead{FriendName: nick}
	}
	p.msgs = append(p.msgs, &proto.Message{
		RoutingHead: routing,
		ContentHead: &proto.ContentHead{
			MsgType: msgType,
			Random:  rand.Uint32N(randomBound),
			MsgSeq:  p.seq,
			MsgTime: uint32(time.Now().Unix()),
			PkgNum:  1,
			Forward: &proto.ForwardHead{},
		},
		Body: &proto.MessageBody{RichText: &proto.RichText{Elems: elems}},
	})
	p.seq++
	p.tsum++
}

func (p *packer) segment(ctx context.Context, node *types.ForwardNode, seg *types.Segment) (*proto.Elem, string, error) {
	switch seg.Type {
	case types.SegText:
		if seg.Text == nil {
			return nil, "", errors.New("missing text payload")
		}
		return &proto.Elem{Text: &proto.TextElem{Str: seg.Text.Text}}, seg.Text.Text, nil

	case types.SegMention:
		if seg.Mention == nil {
			return nil, "", errors.New("missing mention payload")
		}
		display := "@" + strconv.FormatInt(seg.Mention.UserID, 10)
		return &proto.Elem{Text: &proto.TextElem{Str: display}}, display, nil

	case types.SegMentionAll:
		return &proto.Elem{Text: &proto.TextElem{Str: "@全体成员"}}, "@全体成员", nil

	case types.SegFace:
		if seg.Face == nil {
			return nil, "", errors.New("missing face payload")
		}
		index, err := strconv.Atoi(seg.Face.FaceID)
		if err != nil {
			return nil, "", fmt.Errorf("parse face id %q: %w", seg.Face.FaceID, err)
		}
		return &proto.Elem{Face: &proto.FaceElem{Index: uint32(index)}}, facePreview(index), nil

	case types.SegImage:
		return p.packImage(ctx, seg.Image)

	case types.SegVideo:
		return p.packVideo(ctx, seg.Video)

	case types.SegLightApp:
		if seg.LightApp == nil || seg.LightApp.JSONPayload == "" {
			return nil, "", errors.New("empty light app payload")
		}
		data, err := packLightAppData([]byte(seg.LightApp.JSONPayload))
		if err != nil {
			return nil, "", err
		}
		return &proto.Elem{LightApp: &proto.LightAppElem{Data: data}}, "[卡片消息]", nil

	case types.SegForward:
		return p.packNested(ctx, seg.Forward)

	default:
		return nil, "", fmt.Errorf("segment type %q not packable into a transcript", seg.Type)
	}
}

// packImage uploads the image and wraps the reference into a commonElem.
func (p *packer) packImage(ctx context.Context, img *types.ImageSegment) (*proto.Elem, string, error) {
	if img == nil || img.URI == "" {
		return nil, "", errors.New("missing image uri")
	}
	path, err := p.resolve(ctx, img.URI)
	if err != nil {
		return nil, "", err
	}
	kind, target := kernel.UploadKindC2CImage, p.enc.session.UID
	if p.group {
		kind, target = kernel.UploadKindGroupImage, p.peer.PeerUID
	}
	up, err := p.enc.api.UploadRichMedia(ctx, path, kind, target)
	if err != nil {
		return nil, "", err
	}
	size, err := p.enc.api.GetImageSize(ctx, path)
	if err != nil {
		size = &kernel.ImageSize{Width: img.Width, Height: img.Height}
	}
	picFormat := uint32(proto.PicFormatStatic)
	preview := "[图片]"
	if size.Type == "gif" {
		picFormat = proto.PicFormatGIF
	}
	if img.SubType == "sticker" {
		preview = "[动画表情]"
	}
	fileSize, _ := strconv.ParseUint(up.CommonFileInfo.FileSize, 10, 64)

	appID, expire, scene, busiType := mediaAppIDC2C, uint32(mediaExpireC2C), uint32(1), uint32(picBusinessTypeC2C)
	oldFileID := uint32(0)
	if p.group {
		appID, expire, scene, busiType = mediaAppIDGroup, mediaExpireGroup, 2, picBusinessTypeGroup
		oldFileID = groupOldFileID
	}
	info := &proto.MsgInfo{
		MsgInfoBody: []*proto.MsgInfoBody{{
			Index: &proto.MediaIndex{
				Info: &proto.MediaFileInfo{
					FileSize:   fileSize,
					MD5HexStr:  up.CommonFileInfo.MD5,
					SHA1HexStr: up.CommonFileInfo.SHA,
					FileName:   up.CommonFileInfo.FileName,
					FileType:   &proto.MediaFileType{Type: 1, PicFormat: picFormat},
					Width:      uint32(size.Width),
					Height:     uint32(size.Height),
					Original:   1,
				},
				FileUUID: up.FileID,
				StoreID:  1,
				Expire:   expire,
			},
			Pic: &proto.MediaPic{
				URLPath: fmt.Sprintf("/download?appid=%d&fileid=%s", appID, up.FileID),
				Ext: &proto.MediaPicExt{
					OriginalParam: "&spec=0",
					BigParam:      "&spec=720",
					ThumbParam:    "&spec=198",
				},
				Domain: mediaDomain,
			},
			FileExist: true,
		}},
		ExtBizInfo: &proto.ExtBizInfo{
			Pic: &proto.PicBizInfo{
				Summary:   img.Summary,
				FromScene: scene,
				ToScene:   scene,
				OldFileID: oldFileID,
			},
			BusiType: busiType,
		},
	}
	elem := &proto.Elem{CommonElem: &proto.CommonElem{
		ServiceType:  mediaServiceType,
		PbElem:       info.Marshal(),
		BusinessType: busiType,
	}}
	return elem, preview, nil
}

func (p *packer) packVideo(ctx context.Context, vid *types.VideoSegment) (*proto.Elem, string, error) {
	if vid == nil || vid.URI == "" {
		return nil, "", errors.New("missing video uri")
	}
	path, err := p.resolve(ctx, vid.URI)
	if err != nil {
		return nil, "", err
	}
	var thumbPath string
	if vid.ThumbURI != "" {
		thumbPath, err = p.resolve(ctx, vid.ThumbURI)
	} else {
		thumbPath = p.enc.store.TempPath("jpg")
		p.temps = append(p.temps, thumbPath)
		err = p.enc.api.CreateVideoThumb(ctx, path, thumbPath)
	}
	if err != nil {
		return nil, "", err
	}

	var up *kernel.VideoUpload
	if p.group {
		up, err = p.enc.api.UploadGroupVideo(ctx, p.peer.PeerUID, path, thumbPath)
	} else {
		up, err = p.enc.api.UploadC2CVideo(ctx, p.enc.session.UID, path, thumbPath)
	}
	if err != nil {
		return nil, "", err
	}

	expire, busiType := uint32(mediaExpireC2C), uint32(videoBusinessTypeC2C)
	if p.group {
		expire, busiType = mediaExpireGroup, videoBusinessTypeGroup
	}
	info := &proto.MsgInfo{
		MsgInfoBody: []*proto.MsgInfoBody{{
			Index: &proto.MediaIndex{
				Info: &proto.MediaFileInfo{
					FileSize:   up.FileSize,
					MD5HexStr:  up.MD5,
					SHA1HexStr: up.SHA1,
					FileName:   up.FileName,
					FileType:   &proto.MediaFileType{Type: 2},
					Width:      uint32(up.Width),
					Height:     uint32(up.Height),
					Time:       uint32(up.Duration),
				},
				FileUUID: up.FileUUID,
				StoreID:  1,
				Expire:   expire,
			},
			FileExist: true,
		}},
		ExtBizInfo: &proto.ExtBizInfo{BusiType: busiType},
	}
	elem := &proto.Elem{CommonElem: &proto.CommonElem{
		ServiceType:  mediaServiceType,
		PbElem:       info.Marshal(),
		BusinessType: busiType,
	}}
	return elem, "[视频]", nil
}

// packNested packs an inner transcript, uploads it on its own, and embeds
// a forward card pointing at it. The inner transcript's items fold into
// this packer under a fresh file name so the outer upload carries them.
func (p *packer) packNested(ctx context.Context, seg *types.ForwardSegment) (*proto.Elem, string, error) {
	if seg == nil || len(seg.Messages) == 0 {
		return nil, "", errors.New("empty nested transcript")
	}
	sub := p.enc.newPacker(p.peer)
	if err := sub.pack(ctx, seg.Messages); err != nil {
		return nil, "", err
	}
	p.temps = append(p.temps, sub.temps...)
	resid, fileID, err := sub.upload(ctx)
	if err != nil {
		return nil, "", err
	}
	// Fold the inner items into the outer transmit, renamed so the outer
	// root item keeps the well-known name.
	p.items = append(p.items, sub.transmitItems(fileID)...)
	card, err := sub.card(seg, resid, fileID)
	if err != nil {
		return nil, "", err
	}
	data, err := packLightAppData([]byte(card))
	if err != nil {
		return nil, "", err
	}
	return &proto.Elem{LightApp: &proto.LightAppElem{Data: data}}, "[聊天记录]", nil
}

// transmitItems returns this packer's item list with the root transcript
// stored under rootName.
func (p *packer) transmitItems(rootName string) []*proto.MultiMsgItem {
	items := []*proto.MultiMsgItem{{FileName: rootName, Msg: p.msgs}}
	return append(items, p.items...)
}

// upload sends the packed transcript and returns its resid plus the file
// id the wrapping card references.
func (p *packer) upload(ctx context.Context) (string, string, error) {
	transmit := &proto.MultiMsgTransmit{
		Msg:        p.msgs,
		PbItemList: p.transmitItems(transcriptItemName),
	}
	resid, err := p.enc.api.UploadForward(ctx, p.peer, transmit.Marshal())
	if err != nil {
		return "", "", err
	}
	return resid, uuid.NewString(), nil
}

func (p *packer) resolve(ctx context.Context, uri string) (string, error) {
	path, temp, err := p.enc.store.Resolve(ctx, uri)
	if err != nil {
		return "", err
	}
	if temp {
		p.temps = append(p.temps, path)
	}
	return path, nil
}

type multiMsgCard struct {
	App    string         `json:"app"`
	Config multiMsgConfig `json:"config"`
	Desc   string         `json:"desc"`
	Extra  string         `json:"extra"`
	Meta   multiMsgMeta   `json:"meta"`
	Prompt string         `json:"prompt"`
	Ver    string         `json:"ver"`
	View   string         `json:"view"`
}

type multiMsgConfig struct {
	Autosize int    `json:"autosize"`
	Forward  int    `json:"forward"`
	Round    int    `json:"round"`
	Type     string `json:"type"`
	Width    int    `json:"width"`
}

type multiMsgMeta struct {
	Detail multiMsgDetail `json:"detail"`
}

type multiMsgDetail struct {
	News    []newsItem `json:"news"`
	Resid   string     `json:"resid"`
	Source  string     `json:"source"`
	Summary string     `json:"summary"`
	UniSeq  string     `json:"uniseq"`
}

type newsItem struct {
	Text string `json:"text"`
}

// card renders the multimsg JSON the reader resolves the transcript from.
func (p *packer) card(seg *types.ForwardSegment, resid, fileID string) (string, error) {
	source := seg.Title
	if source == "" {
		if p.group {
			source = "群聊的聊天记录"
		} else {
			source = "聊天记录"
		}
	}
	summary := seg.Summary
	if summary == "" {
		summary = fmt.Sprintf("查看%d条转发消息", p.tsum)
	}
	prompt := seg.Prompt
	if prompt == "" {
		prompt = "[聊天记录]"
	}
	lines := seg.Preview
	if len(lines) == 0 {
		lines = p.news
	}
	news := make([]newsItem, 0, len(lines))
	for _, line := range lines {
		news = append(news, newsItem{Text: line})
	}
	if len(news) == 0 {
		news = []newsItem{{Text: prompt}}
	}
	extra, err := json.Marshal(map[string]any{"filename": fileID, "tsum": 0})
	if err != nil {
		return "", err
	}
	card := multiMsgCard{
		App: "com.tencent.multimsg",
		Config: multiMsgConfig{
			Autosize: 1,
			Forward:  1,
			Round:    1,
			Type:     "normal",
			Width:    300,
		},
		Desc:  prompt,
		Extra: string(extra),
		Meta: multiMsgMeta{Detail: multiMsgDetail{
			News:    news,
			Resid:   resid,
			Source:  source,
			Summary: summary,
			UniSeq:  fileID,
		}},
		Prompt: prompt,
		Ver:    "0.0.0.5",
		View:   "contact",
	}
	raw, err := json.Marshal(card)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// packLightAppData frames a card JSON the way native light-app elements
// carry it: a version byte followed by the deflate stream.
func packLightAppData(jsonPayload []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(0x01)
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(jsonPayload); err != nil {
		zw.Close()
		return nil, fmt.Errorf("compress light app payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress light app payload: %w", err)
	}
	return buf.Bytes(), nil
}
