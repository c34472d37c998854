package types

// RawMessage is the kernel's native message shape as delivered over the
// helper channel. The bridge only ever reads it.
type RawMessage struct {
	MsgID          string     `json:"msgId"`
	MsgSeq         string     `json:"msgSeq"`
	MsgRandom      string     `json:"msgRandom"`
	MsgTime        string     `json:"msgTime"`
	ChatType       ChatType   `json:"chatType"`
	PeerUID        string     `json:"peerUid"`
	PeerUin        string     `json:"peerUin"`
	PeerName       string     `json:"peerName"`
	SenderUID      string     `json:"senderUid"`
	SenderUin      string     `json:"senderUin"`
	SendNickName   string     `json:"sendNickName"`
	SendMemberName string     `json:"sendMemberName"`
	SendRemarkName string     `json:"sendRemarkName"`
	Elements       []Element  `json:"elements"`
	// Records holds source messages referenced by reply elements.
	Records []RawMessage `json:"records,omitempty"`
	// MultiTransInfo is set on messages unpacked from a forward
	// transcript; reply resolution is skipped for those.
	MultiTransInfo *MultiTransInfo `json:"multiTransInfo,omitempty"`
}

type MultiTransInfo struct {
	Status int    `json:"status"`
	MsgID  string `json:"msgId"`
}

// Element is the kernel's tagged union of message content parts. Exactly
// one payload pointer is set per element.
type Element struct {
	ElementID   string `json:"elementId"`
	ElementType int    `json:"elementType"`

	TextElement       *TextElement       `json:"textElement,omitempty"`
	PicElement        *PicElement        `json:"picElement,omitempty"`
	PttElement        *PttElement        `json:"pttElement,omitempty"`
	VideoElement      *VideoElement      `json:"videoElement,omitempty"`
	FaceElement       *FaceElement       `json:"faceElement,omitempty"`
	ReplyElement      *ReplyElement      `json:"replyElement,omitempty"`
	GrayTipElement    *GrayTipElement    `json:"grayTipElement,omitempty"`
	ArkElement        *ArkElement        `json:"arkElement,omitempty"`
	FileElement       *FileElement       `json:"fileElement,omitempty"`
	MarketFaceElement *MarketFaceElement `json:"marketFaceElement,omitempty"`
}

// Kernel element type ids for send elements.
const (
	ElementTypeText    = 1
	ElementTypePic     = 2
	ElementTypeFile    = 3
	ElementTypePtt     = 4
	ElementTypeVideo   = 5
	ElementTypeFace    = 6
	ElementTypeReply   = 7
	ElementTypeGrayTip = 8
	ElementTypeArk     = 10
)

// AtType marks a text element as an at-mention.
type AtType int

const (
	AtTypeUnknown AtType = 0
	AtTypeAll     AtType = 1
	AtTypeOne     AtType = 2
)

type TextElement struct {
	Content string `json:"content"`
	AtType  AtType `json:"atType"`
	AtUID   string `json:"atUid"`
	AtNtUID string `json:"atNtUid"`
}

type PicElement struct {
	FileName       string `json:"fileName"`
	FilePath       string `json:"sourcePath"`
	FileSize       string `json:"fileSize"`
	FileUUID       string `json:"fileUuid"`
	MD5HexStr      string `json:"md5HexStr"`
	PicWidth       int    `json:"picWidth"`
	PicHeight      int    `json:"picHeight"`
	PicSubType     int    `json:"picSubType"`
	Summary        string `json:"summary"`
	OriginImageURL string `json:"originImageUrl"`
}

type PttElement struct {
	FileName       string `json:"fileName"`
	FilePath       string `json:"filePath"`
	MD5HexStr      string `json:"md5HexStr"`
	FileSize       string `json:"fileSize"`
	Duration       int    `json:"duration"`
	WaveAmplitudes []int  `json:"waveAmplitudes,omitempty"`
}

type VideoElement struct {
	FileName    string         `json:"fileName"`
	FilePath    string         `json:"filePath"`
	VideoMd5    string         `json:"videoMd5"`
	ThumbMd5    string         `json:"thumbMd5"`
	FileTime    int            `json:"fileTime"`
	ThumbSize   int            `json:"thumbSize"`
	FileSize    string         `json:"fileSize"`
	ThumbWidth  int            `json:"thumbWidth"`
	ThumbHeight int            `json:"thumbHeight"`
	ThumbPath   map[int]string `json:"thumbPath,omitempty"`
}

type FaceElement struct {
	FaceIndex int `json:"faceIndex"`
	FaceType  int `json:"faceType,omitempty"`
}

type ReplyElement struct {
	ReplayMsgSeq         string `json:"replayMsgSeq"`
	ReplyMsgTime         string `json:"replyMsgTime"`
	SourceMsgIDInRecords string `json:"sourceMsgIdInRecords"`
	SenderUIDStr         string `json:"senderUidStr"`
	SourceMsgID          string `json:"replayMsgId,omitempty"`
}

type ArkElement struct {
	BytesData string `json:"bytesData"`
}

type FileElement struct {
	FileName string `json:"fileName"`
	FileSize string `json:"fileSize"`
	FileUUID string `json:"fileUuid"`
	FileMd5  string `json:"fileMd5,omitempty"`
}

type MarketFaceElement struct {
	EmojiPackageID int    `json:"emojiPackageId"`
	EmojiID        string `json:"emojiId"`
	Key            string `json:"key"`
	FaceName       string `json:"faceName"`
	SupportSize    []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"supportSize,omitempty"`
}

// GrayTipElement carries a system-generated notice inside a message.
type GrayTipElement struct {
	SubElementType     int                 `json:"subElementType"`
	XMLElement         *XMLElement         `json:"xmlElement,omitempty"`
	GroupElement       *GroupElement       `json:"groupElement,omitempty"`
	JSONGrayTipElement *JSONGrayTipElement `json:"jsonGrayTipElement,omitempty"`
	RevokeElement      *RevokeElement      `json:"revokeElement,omitempty"`
}

type XMLElement struct {
	BusiID     string            `json:"busiId"`
	Content    string            `json:"content"`
	TemplParam map[string]string `json:"templParam"`
}

// Grey-tip group element sub-types observed on the wire.
const (
	GroupElementTypeNameChange = 5
	GroupElementTypeShutUp     = 8
)

type GroupElement struct {
	Type      int           `json:"type"`
	GroupName string        `json:"groupName"`
	MemberUID string        `json:"memberUid"`
	ShutUp    *ShutUpDetail `json:"shutUp,omitempty"`
}

type ShutUpDetail struct {
	Member   ShutUpTarget `json:"member"`
	Admin    ShutUpTarget `json:"admin"`
	Duration string       `json:"duration"`
}

type ShutUpTarget struct {
	UID  string `json:"uid"`
	Card string `json:"card"`
	Name string `json:"name"`
	Role int    `json:"role"`
}

type JSONGrayTipElement struct {
	BusiID         string          `json:"busiId"`
	JSONStr        string          `json:"jsonStr"`
	XMLToJSONParam *XMLToJSONParam `json:"xmlToJsonParam,omitempty"`
}

type XMLToJSONParam struct {
	TemplParam map[string]string `json:"templParam"`
}

type RevokeElement struct {
	OperatorUID string `json:"operatorUid"`
	Wording     string `json:"wording"`
}
