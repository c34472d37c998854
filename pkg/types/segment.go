package types

// SegmentType names the protocol-facing content kinds exchanged with the
// protocol front-ends.
type SegmentType string

const (
	SegText       SegmentType = "text"
	SegMention    SegmentType = "mention"
	SegMentionAll SegmentType = "mention_all"
	SegFace       SegmentType = "face"
	SegReply      SegmentType = "reply"
	SegImage      SegmentType = "image"
	SegRecord     SegmentType = "record"
	SegVideo      SegmentType = "video"
	SegMarketFace SegmentType = "market_face"
	SegLightApp   SegmentType = "light_app"
	SegForward    SegmentType = "forward"
)

// Segment is the protocol-agnostic content unit. Exactly one payload
// pointer matching Type is set. The same shape is used in both directions:
// outgoing payloads carry a URI to fetch from, incoming payloads carry a
// resolved URL or local path.
type Segment struct {
	Type SegmentType `json:"type"`

	Text       *TextSegment       `json:"text,omitempty"`
	Mention    *MentionSegment    `json:"mention,omitempty"`
	Face       *FaceSegment       `json:"face,omitempty"`
	Reply      *ReplySegment      `json:"reply,omitempty"`
	Image      *ImageSegment      `json:"image,omitempty"`
	Record     *RecordSegment     `json:"record,omitempty"`
	Video      *VideoSegment      `json:"video,omitempty"`
	MarketFace *MarketFaceSegment `json:"market_face,omitempty"`
	LightApp   *LightAppSegment   `json:"light_app,omitempty"`
	Forward    *ForwardSegment    `json:"forward,omitempty"`
}

type TextSegment struct {
	Text string `json:"text"`
}

type MentionSegment struct {
	UserID int64 `json:"user_id"`
}

type FaceSegment struct {
	FaceID  string `json:"face_id"`
	IsLarge bool   `json:"is_large,omitempty"`
}

type ReplySegment struct {
	MessageSeq int64 `json:"message_seq"`
}

type ImageSegment struct {
	URI     string `json:"uri,omitempty"`
	URL     string `json:"url,omitempty"`
	Summary string `json:"summary,omitempty"`
	SubType string `json:"sub_type,omitempty"` // "normal" | "sticker"
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

type RecordSegment struct {
	URI      string `json:"uri,omitempty"`
	URL      string `json:"url,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type VideoSegment struct {
	URI      string `json:"uri,omitempty"`
	ThumbURI string `json:"thumb_uri,omitempty"`
	URL      string `json:"url,omitempty"`
}

type MarketFaceSegment struct {
	URL            string `json:"url"`
	EmojiPackageID int    `json:"emoji_package_id"`
	EmojiID        string `json:"emoji_id"`
	Key            string `json:"key"`
	Summary        string `json:"summary"`
}

type LightAppSegment struct {
	JSONPayload string `json:"json_payload"`
}

// ForwardSegment nests a forwarded chat transcript. Only valid in outgoing
// direction; protocol adapters route it to the forward encoder.
type ForwardSegment struct {
	Messages []ForwardNode `json:"messages"`
	Title    string        `json:"title,omitempty"`
	Summary  string        `json:"summary,omitempty"`
	Prompt   string        `json:"prompt,omitempty"`
	Preview  []string      `json:"preview,omitempty"`
}

// ForwardNode is one fabricated message inside a forward transcript. Its
// segments may themselves contain forward segments, nesting recursively.
type ForwardNode struct {
	UserID     int64     `json:"user_id"`
	SenderName string    `json:"sender_name"`
	Segments   []Segment `json:"segments"`
}

// Convenience constructors used throughout the normalizers and tests.

func TextSeg(s string) Segment {
	return Segment{Type: SegText, Text: &TextSegment{Text: s}}
}

func MentionSeg(userID int64) Segment {
	return Segment{Type: SegMention, Mention: &MentionSegment{UserID: userID}}
}

func MentionAllSeg() Segment {
	return Segment{Type: SegMentionAll}
}

func FaceSeg(id string) Segment {
	return Segment{Type: SegFace, Face: &FaceSegment{FaceID: id}}
}
