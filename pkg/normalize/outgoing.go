package normalize

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/tinyland-inc/ntbridge/pkg/kernel"
	"github.com/tinyland-inc/ntbridge/pkg/logger"
	"github.com/tinyland-inc/ntbridge/pkg/media"
	"github.com/tinyland-inc/ntbridge/pkg/types"
)

const component = "normalize"

// ErrEmptyMessage is returned when no segment of an outgoing message
// survived conversion.
var ErrEmptyMessage = errors.New("no deliverable segments")

// Outgoing converts protocol segments into kernel send elements. Segments
// that cannot be converted are dropped individually; the message fails
// only when nothing survives.
type Outgoing struct {
	api   kernel.API
	store *media.Store
}

func NewOutgoing(api kernel.API, store *media.Store) *Outgoing {
	return &Outgoing{api: api, store: store}
}

// OutgoingResult carries the converted elements plus any temp files the
// conversion produced. The caller deletes the temp files once the send
// completes.
type OutgoingResult struct {
	Elements  []types.Element
	TempFiles []string
}

// Convert maps segments to send elements one by one. Failures are logged
// and skipped so one bad segment never sinks the whole message.
func (o *Outgoing) Convert(ctx context.Context, peer types.Peer, segments []types.Segment) (*OutgoingResult, error) {
	result := &OutgoingResult{}
	for i := range segments {
		seg := &segments[i]
		elem, temps, err := o.segment(ctx, peer, seg)
		result.TempFiles = append(result.TempFiles, temps...)
		if err != nil {
			logger.WarnCF(component, "Dropping undeliverable segment", map[string]any{
				"type":  string(seg.Type),
				"error": err.Error(),
			})
			continue
		}
		result.Elements = append(result.Elements, *elem)
	}
	if len(result.Elements) == 0 {
		return result, ErrEmptyMessage
	}
	return result, nil
}

func (o *Outgoing) segment(ctx context.Context, peer types.Peer, seg *types.Segment) (*types.Element, []string, error) {
	switch seg.Type {
	case types.SegText:
		if seg.Text == nil || seg.Text.Text == "" {
			return nil, nil, errors.New("empty text segment")
		}
		elem := types.SendText(seg.Text.Text)
		return &elem, nil, nil

	case types.SegMention:
		return o.mention(ctx, peer, seg.Mention)

	case types.SegMentionAll:
		elem := types.SendAt("0", "0", types.AtTypeAll, "@全体成员")
		return &elem, nil, nil

	case types.SegFace:
		if seg.Face == nil {
			return nil, nil, errors.New("missing face payload")
		}
		index, err := strconv.Atoi(seg.Face.FaceID)
		if err != nil {
			return nil, nil, fmt.Errorf("parse face id %q: %w", seg.Face.FaceID, err)
		}
		faceType := 0
		if seg.Face.IsLarge {
			faceType = 3
		}
		elem := types.SendFace(index, faceType)
		return &elem, nil, nil

	case types.SegReply:
		return o.reply(ctx, peer, seg.Reply)

	case types.SegImage:
		return o.image(ctx, peer, seg.Image)

	case types.SegRecord:
		return o.record(ctx, seg.Record)

	case types.SegVideo:
		return o.video(ctx, seg.Video)

	case types.SegLightApp:
		if seg.LightApp == nil || seg.LightApp.JSONPayload == "" {
			return nil, nil, errors.New("empty light app payload")
		}
		elem := types.SendArk(seg.LightApp.JSONPayload)
		return &elem, nil, nil

	case types.SegForward:
		// Forward transcripts are packed by the transcript encoder, not
		// mixed into regular sends.
		return nil, nil, errors.New("forward segment in regular message")

	default:
		return nil, nil, fmt.Errorf("unsupported segment type %q", seg.Type)
	}
}

// mention resolves the target's uid and display name. Mentions only exist
// in group chats.
func (o *Outgoing) mention(ctx context.Context, peer types.Peer, m *types.MentionSegment) (*types.Element, []string, error) {
	if m == nil {
		return nil, nil, errors.New("missing mention payload")
	}
	if !peer.IsGroup() {
		return nil, nil, errors.New("mention outside group chat")
	}
	uin := strconv.FormatInt(m.UserID, 10)
	uid, err := o.api.GetUIDByUIN(ctx, uin)
	if err != nil {
		return nil, nil, err
	}
	display := "@" + uin
	if member, err := o.api.GetGroupMember(ctx, peer.PeerUID, uid); err == nil {
		if member.CardName != "" {
			display = "@" + member.CardName
		} else if member.Nick != "" {
			display = "@" + member.Nick
		}
	}
	elem := types.SendAt(uin, uid, types.AtTypeOne, display)
	return &elem, nil, nil
}

// reply needs the source message's id and sender, so it looks the message
// up by sequence first.
func (o *Outgoing) reply(ctx context.Context, peer types.Peer, r *types.ReplySegment) (*types.Element, []string, error) {
	if r == nil {
		return nil, nil, errors.New("missing reply payload")
	}
	seq := strconv.FormatInt(r.MessageSeq, 10)
	msgs, err := o.api.GetMsgsBySeqAndCount(ctx, peer, seq, 1, true, true)
	if err != nil {
		return nil, nil, err
	}
	if len(msgs) == 0 {
		return nil, nil, fmt.Errorf("reply target seq %s not found", seq)
	}
	source := msgs[0]
	elem := types.SendReply(source.MsgSeq, source.MsgID, source.SenderUID)
	return &elem, nil, nil
}

func (o *Outgoing) image(ctx context.Context, peer types.Peer, img *types.ImageSegment) (*types.Element, []string, error) {
	if img == nil || img.URI == "" {
		return nil, nil, errors.New("missing image uri")
	}
	path, temps, err := o.resolve(ctx, img.URI)
	if err != nil {
		return nil, temps, err
	}
	subType := 0
	if img.SubType == "sticker" {
		subType = 1
	}
	elem, err := o.api.PackPicElement(ctx, peer, path, img.Summary, subType)
	if err != nil {
		return nil, temps, err
	}
	return elem, temps, nil
}

func (o *Outgoing) record(ctx context.Context, rec *types.RecordSegment) (*types.Element, []string, error) {
	if rec == nil || rec.URI == "" {
		return nil, nil, errors.New("missing record uri")
	}
	path, temps, err := o.resolve(ctx, rec.URI)
	if err != nil {
		return nil, temps, err
	}
	elem, err := o.api.PackPttElement(ctx, path)
	if err != nil {
		return nil, temps, err
	}
	return elem, temps, nil
}

func (o *Outgoing) video(ctx context.Context, vid *types.VideoSegment) (*types.Element, []string, error) {
	if vid == nil || vid.URI == "" {
		return nil, nil, errors.New("missing video uri")
	}
	path, temps, err := o.resolve(ctx, vid.URI)
	if err != nil {
		return nil, temps, err
	}
	var thumbPath string
	if vid.ThumbURI != "" {
		p, more, err := o.resolve(ctx, vid.ThumbURI)
		temps = append(temps, more...)
		if err != nil {
			return nil, temps, err
		}
		thumbPath = p
	} else {
		thumbPath = o.store.TempPath("jpg")
		temps = append(temps, thumbPath)
		if err := o.api.CreateVideoThumb(ctx, path, thumbPath); err != nil {
			return nil, temps, err
		}
	}
	elem, err := o.api.PackVideoElement(ctx, path, thumbPath)
	if err != nil {
		return nil, temps, err
	}
	return elem, temps, nil
}

func (o *Outgoing) resolve(ctx context.Context, uri string) (string, []string, error) {
	path, temp, err := o.store.Resolve(ctx, uri)
	if err != nil {
		return "", nil, err
	}
	if temp {
		return path, []string{path}, nil
	}
	return path, nil, nil
}
