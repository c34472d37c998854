package proto

import "google.golang.org/protobuf/encoding/protowire"

// Elem is one element of a native message body. At most one payload is set.
type Elem struct {
	Text          *TextElem     // field 1
	Face          *FaceElem     // field 2
	TransElemInfo *TransElem    // field 5
	RichMsg       *RichMsgElem  // field 12
	SrcMsg        *SrcMsgElem   // field 45
	LightApp      *LightAppElem // field 51
	CommonElem    *CommonElem   // field 53
}

type TextElem struct {
	Str  string // 1
	Link string // 2
}

type FaceElem struct {
	Index uint32 // 1
}

type TransElem struct {
	ElemType  uint32 // 1
	ElemValue []byte // 2
}

type RichMsgElem struct {
	Template  []byte // 1
	ServiceID int32  // 2
}

type SrcMsgElem struct {
	OrigSeqs  []uint32 // 1
	SenderUin uint64   // 2
	Time      int64    // 3
	Elems     [][]byte // 5
	PbReserve []byte   // 8
	ToUin     uint64   // 10
}

type LightAppElem struct {
	Data []byte // 1
}

type CommonElem struct {
	ServiceType  uint32 // 1
	PbElem       []byte // 2
	BusinessType uint32 // 3
}

func (e *Elem) Marshal() []byte {
	var b []byte
	if e.Text != nil {
		var s []byte
		s = appendString(s, 1, e.Text.Str)
		s = appendString(s, 2, e.Text.Link)
		b = appendSub(b, 1, s)
	}
	if e.Face != nil {
		var s []byte
		s = appendUint(s, 1, uint64(e.Face.Index))
		b = appendSub(b, 2, s)
	}
	if e.TransElemInfo != nil {
		var s []byte
		s = appendUint(s, 1, uint64(e.TransElemInfo.ElemType))
		s = appendBytes(s, 2, e.TransElemInfo.ElemValue)
		b = appendSub(b, 5, s)
	}
	if e.RichMsg != nil {
		var s []byte
		s = appendBytes(s, 1, e.RichMsg.Template)
		s = appendUint(s, 2, uint64(uint32(e.RichMsg.ServiceID)))
		b = appendSub(b, 12, s)
	}
	if e.SrcMsg != nil {
		var s []byte
		for _, q := range e.SrcMsg.OrigSeqs {
			s = protowire.AppendTag(s, 1, protowire.VarintType)
			s = protowire.AppendVarint(s, uint64(q))
		}
		s = appendUint(s, 2, e.SrcMsg.SenderUin)
		s = appendUint(s, 3, uint64(e.SrcMsg.Time))
		for _, raw := range e.SrcMsg.Elems {
			s = appendSub(s, 5, raw)
		}
		s = appendBytes(s, 8, e.SrcMsg.PbReserve)
		s = appendUint(s, 10, e.SrcMsg.ToUin)
		b = appendSub(b, 45, s)
	}
	if e.LightApp != nil {
		var s []byte
		s = appendBytes(s, 1, e.LightApp.Data)
		b = appendSub(b, 51, s)
	}
	if e.CommonElem != nil {
		var s []byte
		s = appendUint(s, 1, uint64(e.CommonElem.ServiceType))
		s = appendBytes(s, 2, e.CommonElem.PbElem)
		s = appendUint(s, 3, uint64(e.CommonElem.BusinessType))
		b = appendSub(b, 53, s)
	}
	return b
}

func UnmarshalElem(data []byte) (*Elem, error) {
	e := &Elem{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			sub := &decoder{buf: d.bytes()}
			t := &TextElem{}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				switch n2 {
				case 1:
					t.Str = sub.string()
				case 2:
					t.Link = sub.string()
				default:
					sub.skip(n2, t2)
				}
			}
			if sub.err != nil {
				return nil, sub.err
			}
			e.Text = t
		case 2:
			sub := &decoder{buf: d.bytes()}
			f := &FaceElem{}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				if n2 == 1 {
					f.Index = uint32(sub.varint())
				} else {
					sub.skip(n2, t2)
				}
			}
			if sub.err != nil {
				return nil, sub.err
			}
			e.Face = f
		case 51:
			sub := &decoder{buf: d.bytes()}
			l := &LightAppElem{}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				if n2 == 1 {
					l.Data = sub.bytes()
				} else {
					sub.skip(n2, t2)
				}
			}
			if sub.err != nil {
				return nil, sub.err
			}
			e.LightApp = l
		case 53:
			sub := &decoder{buf: d.bytes()}
			c := &CommonElem{}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				switch n2 {
				case 1:
					c.ServiceType = uint32(sub.varint())
				case 2:
					c.PbElem = sub.bytes()
				case 3:
					c.BusinessType = uint32(sub.varint())
				default:
					sub.skip(n2, t2)
				}
			}
			if sub.err != nil {
				return nil, sub.err
			}
			e.CommonElem = c
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return e, nil
}

// Message is the kernel's native message frame.
type Message struct {
	RoutingHead *RoutingHead // 1
	ContentHead *ContentHead // 2
	Body        *MessageBody // 3
}

type RoutingHead struct {
	FromUin uint64     // 1
	FromUID string     // 2
	ToUin   uint64     // 5
	ToUID   string     // 6
	C2C     *C2CHead   // 7
	Group   *GroupHead // 8
}

type C2CHead struct {
	FriendName string // 6
}

type GroupHead struct {
	GroupCode uint64 // 1
	GroupCard string // 4
}

type ContentHead struct {
	MsgType  uint32       // 1
	SubType  uint32       // 2
	C2CCmd   uint32       // 3
	Random   uint32       // 4
	MsgSeq   uint32       // 5
	MsgTime  uint32       // 6
	PkgNum   uint32       // 7
	PkgIndex uint32       // 8
	DivSeq   uint32       // 9
	NTMsgSeq uint64       // 11
	MsgUID   uint64       // 12
	Forward  *ForwardHead // 15
}

// ForwardHead marks a frame as part of a forward transcript. Its scalar
// fields are zero on every observed frame; presence is what matters.
type ForwardHead struct {
	Field4 string // 4
	Avatar string // 5
}

type MessageBody struct {
	RichText   *RichText // 1
	MsgContent []byte    // 2
}

type RichText struct {
	Elems []*Elem // 2
}

func (m *Message) Marshal() []byte {
	var b []byte
	if m.RoutingHead != nil {
		var s []byte
		s = appendUint(s, 1, m.RoutingHead.FromUin)
		s = appendString(s, 2, m.RoutingHead.FromUID)
		s = appendUint(s, 5, m.RoutingHead.ToUin)
		s = appendString(s, 6, m.RoutingHead.ToUID)
		if m.RoutingHead.C2C != nil {
			var c []byte
			c = appendString(c, 6, m.RoutingHead.C2C.FriendName)
			s = appendSub(s, 7, c)
		}
		if m.RoutingHead.Group != nil {
			var g []byte
			g = appendUint(g, 1, m.RoutingHead.Group.GroupCode)
			g = appendString(g, 4, m.RoutingHead.Group.GroupCard)
			s = appendSub(s, 8, g)
		}
		b = appendSub(b, 1, s)
	}
	if m.ContentHead != nil {
		h := m.ContentHead
		var s []byte
		s = appendUint(s, 1, uint64(h.MsgType))
		s = appendUint(s, 2, uint64(h.SubType))
		s = appendUint(s, 3, uint64(h.C2CCmd))
		s = appendUint(s, 4, uint64(h.Random))
		s = appendUint(s, 5, uint64(h.MsgSeq))
		s = appendUint(s, 6, uint64(h.MsgTime))
		s = appendUint(s, 7, uint64(h.PkgNum))
		s = appendUint(s, 8, uint64(h.PkgIndex))
		s = appendUint(s, 9, uint64(h.DivSeq))
		s = appendUint(s, 11, h.NTMsgSeq)
		s = appendUint(s, 12, h.MsgUID)
		if h.Forward != nil {
			var f []byte
			f = appendString(f, 4, h.Forward.Field4)
			f = appendString(f, 5, h.Forward.Avatar)
			s = appendSub(s, 15, f)
		}
		b = appendSub(b, 2, s)
	}
	if m.Body != nil {
		var s []byte
		if m.Body.RichText != nil {
			var r []byte
			for _, e := range m.Body.RichText.Elems {
				r = appendSub(r, 2, e.Marshal())
			}
			s = appendSub(s, 1, r)
		}
		s = appendBytes(s, 2, m.Body.MsgContent)
		b = appendSub(b, 3, s)
	}
	return b
}

func UnmarshalMessage(data []byte) (*Message, error) {
	m := &Message{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			h := &RoutingHead{}
			sub := &decoder{buf: d.bytes()}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				switch n2 {
				case 1:
					h.FromUin = sub.varint()
				case 2:
					h.FromUID = sub.string()
				case 5:
					h.ToUin = sub.varint()
				case 6:
					h.ToUID = sub.string()
				case 7:
					c := &C2CHead{}
					cd := &decoder{buf: sub.bytes()}
					for {
						n3, t3, ok3 := cd.next()
						if !ok3 {
							break
						}
						if n3 == 6 {
							c.FriendName = cd.string()
						} else {
							cd.skip(n3, t3)
						}
					}
					h.C2C = c
				case 8:
					g := &GroupHead{}
					gd := &decoder{buf: sub.bytes()}
					for {
						n3, t3, ok3 := gd.next()
						if !ok3 {
							break
						}
						switch n3 {
						case 1:
							g.GroupCode = gd.varint()
						case 4:
							g.GroupCard = gd.string()
						default:
							gd.skip(n3, t3)
						}
					}
					h.Group = g
				default:
					sub.skip(n2, t2)
				}
			}
			if sub.err != nil {
				return nil, sub.err
			}
			m.RoutingHead = h
		case 2:
			h := &ContentHead{}
			sub := &decoder{buf: d.bytes()}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				switch n2 {
				case 1:
					h.MsgType = uint32(sub.varint())
				case 2:
					h.SubType = uint32(sub.varint())
				case 3:
					h.C2CCmd = uint32(sub.varint())
				case 4:
					h.Random = uint32(sub.varint())
				case 5:
					h.MsgSeq = uint32(sub.varint())
				case 6:
					h.MsgTime = uint32(sub.varint())
				case 7:
					h.PkgNum = uint32(sub.varint())
				case 8:
					h.PkgIndex = uint32(sub.varint())
				case 9:
					h.DivSeq = uint32(sub.varint())
				case 11:
					h.NTMsgSeq = sub.varint()
				case 12:
					h.MsgUID = sub.varint()
				case 15:
					f := &ForwardHead{}
					fd := &decoder{buf: sub.bytes()}
					for {
						n3, t3, ok3 := fd.next()
						if !ok3 {
							break
						}
						switch n3 {
						case 4:
							f.Field4 = fd.string()
						case 5:
							f.Avatar = fd.string()
						default:
							fd.skip(n3, t3)
						}
					}
					h.Forward = f
				default:
					sub.skip(n2, t2)
				}
			}
			if sub.err != nil {
				return nil, sub.err
			}
			m.ContentHead = h
		case 3:
			body := &MessageBody{}
			sub := &decoder{buf: d.bytes()}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				switch n2 {
				case 1:
					rt := &RichText{}
					rd := &decoder{buf: sub.bytes()}
					for {
						n3, t3, ok3 := rd.next()
						if !ok3 {
							break
						}
						if n3 == 2 {
							el, err := UnmarshalElem(rd.bytes())
							if err != nil {
								return nil, err
							}
							rt.Elems = append(rt.Elems, el)
						} else {
							rd.skip(n3, t3)
						}
					}
					if rd.err != nil {
						return nil, rd.err
					}
					body.RichText = rt
				case 2:
					body.MsgContent = sub.bytes()
				default:
					sub.skip(n2, t2)
				}
			}
			if sub.err != nil {
				return nil, sub.err
			}
			m.Body = body
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return m, nil
}

// PushMsg wraps a Message in an out-of-band push frame.
type PushMsg struct {
	Message *Message // 1
}

func (p *PushMsg) Marshal() []byte {
	var b []byte
	if p.Message != nil {
		b = appendSub(b, 1, p.Message.Marshal())
	}
	return b
}

func UnmarshalPushMsg(data []byte) (*PushMsg, error) {
	p := &PushMsg{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		if num == 1 {
			m, err := UnmarshalMessage(d.bytes())
			if err != nil {
				return nil, err
			}
			p.Message = m
		} else {
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}

// MultiMsgItem is one named container inside a forward transcript upload.
type MultiMsgItem struct {
	FileName string     // 1
	Msg      []*Message // 2.1
}

// MultiMsgTransmit is the transcript upload payload.
type MultiMsgTransmit struct {
	Msg        []*Message      // 1
	PbItemList []*MultiMsgItem // 2
}

func (i *MultiMsgItem) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, i.FileName)
	var buf []byte
	for _, m := range i.Msg {
		buf = appendSub(buf, 1, m.Marshal())
	}
	b = appendSub(b, 2, buf)
	return b
}

func (t *MultiMsgTransmit) Marshal() []byte {
	var b []byte
	for _, m := range t.Msg {
		b = appendSub(b, 1, m.Marshal())
	}
	for _, item := range t.PbItemList {
		b = appendSub(b, 2, item.Marshal())
	}
	return b
}

func UnmarshalMultiMsgTransmit(data []byte) (*MultiMsgTransmit, error) {
	t := &MultiMsgTransmit{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			m, err := UnmarshalMessage(d.bytes())
			if err != nil {
				return nil, err
			}
			t.Msg = append(t.Msg, m)
		case 2:
			item := &MultiMsgItem{}
			sub := &decoder{buf: d.bytes()}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				switch n2 {
				case 1:
					item.FileName = sub.string()
				case 2:
					bd := &decoder{buf: sub.bytes()}
					for {
						n3, t3, ok3 := bd.next()
						if !ok3 {
							break
						}
						if n3 == 1 {
							m, err := UnmarshalMessage(bd.bytes())
							if err != nil {
								return nil, err
							}
							item.Msg = append(item.Msg, m)
						} else {
							bd.skip(n3, t3)
						}
					}
					if bd.err != nil {
						return nil, bd.err
					}
				default:
					sub.skip(n2, t2)
				}
			}
			if sub.err != nil {
				return nil, sub.err
			}
			t.PbItemList = append(t.PbItemList, item)
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return t, nil
}
