package proto

// QSmallFaceExtra decorates small-face elements with display text.
type QSmallFaceExtra struct {
	FaceID     uint32 // 1
	Text       string // 2
	CompatText string // 3
}

func (q *QSmallFaceExtra) Marshal() []byte {
	var b []byte
	b = appendUint(b, 1, uint64(q.FaceID))
	b = appendString(b, 2, q.Text)
	b = appendString(b, 3, q.CompatText)
	return b
}

func UnmarshalQSmallFaceExtra(data []byte) (*QSmallFaceExtra, error) {
	q := &QSmallFaceExtra{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			q.FaceID = uint32(d.varint())
		case 2:
			q.Text = d.string()
		case 3:
			q.CompatText = d.string()
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return q, nil
}

// UserInfoLabel is the label list inside OIDB user-info property 104.
type UserInfoLabel struct {
	Labels []string // 1.4
}

func (u *UserInfoLabel) Marshal() []byte {
	var b []byte
	for _, label := range u.Labels {
		var s []byte
		s = appendString(s, 4, label)
		b = appendSub(b, 1, s)
	}
	return b
}

func UnmarshalUserInfoLabel(data []byte) (*UserInfoLabel, error) {
	u := &UserInfoLabel{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		if num != 1 {
			d.skip(num, typ)
			continue
		}
		sub := &decoder{buf: d.bytes()}
		for {
			n2, t2, ok2 := sub.next()
			if !ok2 {
				break
			}
			if n2 == 4 {
				u.Labels = append(u.Labels, sub.string())
			} else {
				sub.skip(n2, t2)
			}
		}
		if sub.err != nil {
			return nil, sub.err
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return u, nil
}

// GroupFileExtra describes a group file-upload notice element.
type GroupFileExtra struct {
	FileName string              // 2
	Display  string              // 3
	Inner    *GroupFileExtraInfo // 7.2
}

type GroupFileExtraInfo struct {
	BusID    uint32 // 1
	FileID   string // 2
	FileSize uint64 // 3
	FileName string // 4
	FileMD5  string // 8
}

func (g *GroupFileExtra) Marshal() []byte {
	var b []byte
	b = appendString(b, 2, g.FileName)
	b = appendString(b, 3, g.Display)
	if g.Inner != nil {
		var info []byte
		info = appendUint(info, 1, uint64(g.Inner.BusID))
		info = appendString(info, 2, g.Inner.FileID)
		info = appendUint(info, 3, g.Inner.FileSize)
		info = appendString(info, 4, g.Inner.FileName)
		info = appendString(info, 8, g.Inner.FileMD5)
		var wrap []byte
		wrap = appendSub(wrap, 2, info)
		b = appendSub(b, 7, wrap)
	}
	return b
}

// FileExtra is the private-file notice payload carried in a c2c file message.
type FileExtra struct {
	File *FileExtraInfo // 1
}

type FileExtraInfo struct {
	FileType   uint32 // 1
	FileUUID   string // 3
	FileMD5    []byte // 4
	FileName   string // 5
	FileSize   uint64 // 6
	SubCmd     uint32 // 9
	ExpireTime uint32 // 55
}

func (f *FileExtra) Marshal() []byte {
	var b []byte
	if f.File != nil {
		var s []byte
		s = appendUint(s, 1, uint64(f.File.FileType))
		s = appendString(s, 3, f.File.FileUUID)
		s = appendBytes(s, 4, f.File.FileMD5)
		s = appendString(s, 5, f.File.FileName)
		s = appendUint(s, 6, f.File.FileSize)
		s = appendUint(s, 9, uint64(f.File.SubCmd))
		s = appendUint(s, 55, uint64(f.File.ExpireTime))
		b = appendSub(b, 1, s)
	}
	return b
}

func UnmarshalFileExtra(data []byte) (*FileExtra, error) {
	f := &FileExtra{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		if num != 1 {
			d.skip(num, typ)
			continue
		}
		info := &FileExtraInfo{}
		sub := &decoder{buf: d.bytes()}
		for {
			n2, t2, ok2 := sub.next()
			if !ok2 {
				break
			}
			switch n2 {
			case 1:
				info.FileType = uint32(sub.varint())
			case 3:
				info.FileUUID = sub.string()
			case 4:
				info.FileMD5 = sub.bytes()
			case 5:
				info.FileName = sub.string()
			case 6:
				info.FileSize = sub.varint()
			case 9:
				info.SubCmd = uint32(sub.varint())
			case 55:
				info.ExpireTime = uint32(sub.varint())
			default:
				sub.skip(n2, t2)
			}
		}
		if sub.err != nil {
			return nil, sub.err
		}
		f.File = info
	}
	if d.err != nil {
		return nil, d.err
	}
	return f, nil
}

func UnmarshalGroupFileExtra(data []byte) (*GroupFileExtra, error) {
	g := &GroupFileExtra{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 2:
			g.FileName = d.string()
		case 3:
			g.Display = d.string()
		case 7:
			sub := &decoder{buf: d.bytes()}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				if n2 != 2 {
					sub.skip(n2, t2)
					continue
				}
				info := &GroupFileExtraInfo{}
				id := &decoder{buf: sub.bytes()}
				for {
					n3, t3, ok3 := id.next()
					if !ok3 {
						break
					}
					switch n3 {
					case 1:
						info.BusID = uint32(id.varint())
					case 2:
						info.FileID = id.string()
					case 3:
						info.FileSize = id.varint()
					case 4:
						info.FileName = id.string()
					case 8:
						info.FileMD5 = id.string()
					default:
						id.skip(n3, t3)
					}
				}
				if id.err != nil {
					return nil, id.err
				}
				g.Inner = info
			}
			if sub.err != nil {
				return nil, sub.err
			}
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return g, nil
}
