package proto

// MsgInfo is the media-reference envelope wrapped inside a commonElem with
// serviceType 48. The forward encoder builds these for images and videos.
type MsgInfo struct {
	MsgInfoBody []*MsgInfoBody // 1
	ExtBizInfo  *ExtBizInfo    // 2
}

type MsgInfoBody struct {
	Index     *MediaIndex // 1
	Pic       *MediaPic   // 2
	FileExist bool        // 5
}

type MediaIndex struct {
	Info     *MediaFileInfo // 1
	FileUUID string         // 2
	StoreID  uint32         // 3
	Expire   uint32         // 4
}

type MediaFileInfo struct {
	FileSize   uint64         // 1
	MD5HexStr  string         // 2
	SHA1HexStr string         // 3
	FileName   string         // 4
	FileType   *MediaFileType // 5
	Width      uint32         // 6
	Height     uint32         // 7
	Time       uint32         // 8
	Original   uint32         // 9
}

type MediaFileType struct {
	Type      uint32 // 1
	PicFormat uint32 // 2
}

// Picture format constants for MediaFileType.PicFormat.
const (
	PicFormatStatic = 1000
	PicFormatGIF    = 2000
)

type MediaPic struct {
	URLPath string       // 1
	Ext     *MediaPicExt // 2
	Domain  string       // 3
}

type MediaPicExt struct {
	OriginalParam string // 1
	BigParam      string // 2
	ThumbParam    string // 3
}

type ExtBizInfo struct {
	Pic      *PicBizInfo // 1
	BusiType uint32      // 3
}

type PicBizInfo struct {
	BizType   uint32 // 1
	Summary   string // 2
	FromScene uint32 // 3
	ToScene   uint32 // 4
	OldFileID uint32 // 5
}

func (m *MsgInfo) Marshal() []byte {
	var b []byte
	for _, body := range m.MsgInfoBody {
		var s []byte
		if body.Index != nil {
			idx := body.Index
			var i []byte
			if idx.Info != nil {
				info := idx.Info
				var f []byte
				f = appendUint(f, 1, info.FileSize)
				f = appendString(f, 2, info.MD5HexStr)
				f = appendString(f, 3, info.SHA1HexStr)
				f = appendString(f, 4, info.FileName)
				if info.FileType != nil {
					var t []byte
					t = appendUint(t, 1, uint64(info.FileType.Type))
					t = appendUint(t, 2, uint64(info.FileType.PicFormat))
					f = appendSub(f, 5, t)
				}
				f = appendUint(f, 6, uint64(info.Width))
				f = appendUint(f, 7, uint64(info.Height))
				f = appendUint(f, 8, uint64(info.Time))
				f = appendUint(f, 9, uint64(info.Original))
				i = appendSub(i, 1, f)
			}
			i = appendString(i, 2, idx.FileUUID)
			i = appendUint(i, 3, uint64(idx.StoreID))
			i = appendUint(i, 4, uint64(idx.Expire))
			s = appendSub(s, 1, i)
		}
		if body.Pic != nil {
			pic := body.Pic
			var p []byte
			p = appendString(p, 1, pic.URLPath)
			if pic.Ext != nil {
				var e []byte
				e = appendString(e, 1, pic.Ext.OriginalParam)
				e = appendString(e, 2, pic.Ext.BigParam)
				e = appendString(e, 3, pic.Ext.ThumbParam)
				p = appendSub(p, 2, e)
			}
			p = appendString(p, 3, pic.Domain)
			s = appendSub(s, 2, p)
		}
		if body.FileExist {
			s = appendUint(s, 5, 1)
		}
		b = appendSub(b, 1, s)
	}
	if m.ExtBizInfo != nil {
		var s []byte
		if m.ExtBizInfo.Pic != nil {
			pic := m.ExtBizInfo.Pic
			var p []byte
			p = appendUint(p, 1, uint64(pic.BizType))
			p = appendString(p, 2, pic.Summary)
			p = appendUint(p, 3, uint64(pic.FromScene))
			p = appendUint(p, 4, uint64(pic.ToScene))
			p = appendUint(p, 5, uint64(pic.OldFileID))
			s = appendSub(s, 1, p)
		}
		s = appendUint(s, 3, uint64(m.ExtBizInfo.BusiType))
		b = appendSub(b, 2, s)
	}
	return b
}
