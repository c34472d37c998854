package normalize

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tinyland-inc/ntbridge/pkg/kernel"
	"github.com/tinyland-inc/ntbridge/pkg/logger"
	"github.com/tinyland-inc/ntbridge/pkg/types"
)

// Incoming converts kernel message elements into protocol segments.
// Elements that cannot be converted are logged and skipped. An empty
// result means the message carries nothing deliverable (pure grey-tip
// messages land here) and should not be forwarded as a message event.
type Incoming struct {
	api kernel.API
}

func NewIncoming(api kernel.API) *Incoming {
	return &Incoming{api: api}
}

func (n *Incoming) Convert(ctx context.Context, msg *types.RawMessage) []types.Segment {
	peer := types.Peer{ChatType: msg.ChatType, PeerUID: msg.PeerUID}
	var segments []types.Segment
	for i := range msg.Elements {
		seg, err := n.element(ctx, peer, msg, &msg.Elements[i])
		if err != nil {
			logger.WarnCF(component, "Skipping unconvertible element", map[string]any{
				"elementType": msg.Elements[i].ElementType,
				"msgId":       msg.MsgID,
				"error":       err.Error(),
			})
			continue
		}
		if seg != nil {
			segments = append(segments, *seg)
		}
	}
	return segments
}

func (n *Incoming) element(ctx context.Context, peer types.Peer, msg *types.RawMessage, el *types.Element) (*types.Segment, error) {
	switch {
	case el.TextElement != nil:
		return n.text(ctx, el.TextElement)

	case el.PicElement != nil:
		return n.pic(ctx, el.PicElement)

	case el.PttElement != nil:
		seg := types.Segment{Type: types.SegRecord, Record: &types.RecordSegment{
			URL:      el.PttElement.FilePath,
			Duration: el.PttElement.Duration,
		}}
		return &seg, nil

	case el.VideoElement != nil:
		return n.video(ctx, peer, msg, el)

	case el.FaceElement != nil:
		seg := types.Segment{Type: types.SegFace, Face: &types.FaceSegment{
			FaceID:  strconv.Itoa(el.FaceElement.FaceIndex),
			IsLarge: el.FaceElement.FaceType == 3,
		}}
		return &seg, nil

	case el.ReplyElement != nil:
		return n.reply(ctx, peer, msg, el.ReplyElement)

	case el.MarketFaceElement != nil:
		return n.marketFace(el.MarketFaceElement), nil

	case el.ArkElement != nil:
		seg := types.Segment{Type: types.SegLightApp, LightApp: &types.LightAppSegment{
			JSONPayload: el.ArkElement.BytesData,
		}}
		return &seg, nil

	case el.GrayTipElement != nil, el.FileElement != nil:
		// Notice content, handled by the event classifier.
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown element type %d", el.ElementType)
	}
}

func (n *Incoming) text(ctx context.Context, el *types.TextElement) (*types.Segment, error) {
	switch el.AtType {
	case types.AtTypeAll:
		seg := types.MentionAllSeg()
		return &seg, nil
	case types.AtTypeOne:
		uin := el.AtUID
		if uin == "" || uin == "0" {
			resolved, err := n.api.GetUINByUID(ctx, el.AtNtUID)
			if err != nil {
				return nil, err
			}
			uin = resolved
		}
		userID, err := strconv.ParseInt(uin, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse mention uin %q: %w", uin, err)
		}
		seg := types.MentionSeg(userID)
		return &seg, nil
	default:
		if el.Content == "" {
			return nil, nil
		}
		seg := types.TextSeg(el.Content)
		return &seg, nil
	}
}

func (n *Incoming) pic(ctx context.Context, el *types.PicElement) (*types.Segment, error) {
	url, err := n.api.GetImageURL(ctx, el)
	if err != nil {
		return nil, err
	}
	subType := "normal"
	if el.PicSubType == 1 {
		subType = "sticker"
	}
	seg := types.Segment{Type: types.SegImage, Image: &types.ImageSegment{
		URL:     url,
		Summary: el.Summary,
		SubType: subType,
		Width:   el.PicWidth,
		Height:  el.PicHeight,
	}}
	return &seg, nil
}

func (n *Incoming) video(ctx context.Context, peer types.Peer, msg *types.RawMessage, el *types.Element) (*types.Segment, error) {
	url, err := n.api.GetVideoURL(ctx, peer, msg.MsgID, el.ElementID)
	if err != nil || url == "" {
		// Fall back to the local path the kernel already has.
		url = el.VideoElement.FilePath
	}
	if url == "" {
		return nil, fmt.Errorf("video element %s has no url or path", el.ElementID)
	}
	seg := types.Segment{Type: types.SegVideo, Video: &types.VideoSegment{URL: url}}
	return &seg, nil
}

// reply resolves the source message sequence the reply points at.
// Messages unpacked from a forward transcript skip resolution since
// their sequences only exist inside the transcript.
func (n *Incoming) reply(ctx context.Context, peer types.Peer, msg *types.RawMessage, el *types.ReplyElement) (*types.Segment, error) {
	if msg.MultiTransInfo != nil {
		return nil, nil
	}
	if el.ReplayMsgSeq == "" {
		return nil, fmt.Errorf("reply element without source seq")
	}
	var senderUIDs []string
	if el.SenderUIDStr != "" {
		senderUIDs = []string{el.SenderUIDStr}
	}
	msgs, err := n.api.QueryMsgsWithFilterExBySeq(ctx, peer, el.ReplayMsgSeq, el.ReplyMsgTime, senderUIDs)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("reply source seq %s not found", el.ReplayMsgSeq)
	}
	source := msgs[0]
	// When the reply carries its source in the records list, prefer the
	// query result whose random matches it. Sequences recycle; randoms
	// do not.
	if record := findRecord(msg, el.SourceMsgIDInRecords); record != nil {
		for _, m := range msgs {
			if m.MsgRandom == record.MsgRandom {
				source = m
				break
			}
		}
	}
	seq, err := strconv.ParseInt(source.MsgSeq, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse source seq %q: %w", source.MsgSeq, err)
	}
	seg := types.Segment{Type: types.SegReply, Reply: &types.ReplySegment{MessageSeq: seq}}
	return &seg, nil
}

func findRecord(msg *types.RawMessage, msgID string) *types.RawMessage {
	if msgID == "" {
		return nil
	}
	for i := range msg.Records {
		if msg.Records[i].MsgID == msgID {
			return &msg.Records[i]
		}
	}
	return nil
}

func (n *Incoming) marketFace(el *types.MarketFaceElement) *types.Segment {
	width := 300
	if len(el.SupportSize) > 0 && el.SupportSize[0].Width > 0 {
		width = el.SupportSize[0].Width
	}
	url := ""
	if len(el.EmojiID) >= 2 {
		url = fmt.Sprintf("https://gxh.vip.qq.com/club/item/parcel/item/%s/%s/raw%d.gif",
			el.EmojiID[:2], el.EmojiID, width)
	}
	return &types.Segment{Type: types.SegMarketFace, MarketFace: &types.MarketFaceSegment{
		URL:            url,
		EmojiPackageID: el.EmojiPackageID,
		EmojiID:        el.EmojiID,
		Key:            el.Key,
		Summary:        el.FaceName,
	}}
}
