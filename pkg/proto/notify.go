package proto

// Payloads carried in system-notification frames (message types 33/34/44,
// 528, 732). Both directions are implemented: decode for classification,
// encode for tests and replay tooling.

// GroupMemberChange.Type values observed on the wire.
const (
	MemberChangeJoinLeave = 130
	MemberChangeKick      = 131
)

type GroupMemberChange struct {
	GroupCode uint64 // 1
	MemberUID string // 3
	Type      uint32 // 4
	// AdminUID is raw on the kick variant: the operator uid is embedded
	// between \x18 and \x10 control bytes and must be pattern-extracted.
	AdminUID string // 5
}

func (c *GroupMemberChange) Marshal() []byte {
	var b []byte
	b = appendUint(b, 1, c.GroupCode)
	b = appendString(b, 3, c.MemberUID)
	b = appendUint(b, 4, uint64(c.Type))
	b = appendString(b, 5, c.AdminUID)
	return b
}

func UnmarshalGroupMemberChange(data []byte) (*GroupMemberChange, error) {
	c := &GroupMemberChange{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			c.GroupCode = d.varint()
		case 3:
			c.MemberUID = d.string()
		case 4:
			c.Type = uint32(d.varint())
		case 5:
			c.AdminUID = d.string()
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return c, nil
}

type GroupAdminChange struct {
	GroupCode uint64           // 1
	Body      *AdminChangeBody // 4
}

type AdminChangeBody struct {
	ExtraDisable *AdminExtra // 1
	ExtraEnable  *AdminExtra // 2
}

type AdminExtra struct {
	AdminUID string // 1
}

// IsPromote reports whether the change grants admin rather than revoking it.
func (c *GroupAdminChange) IsPromote() bool {
	return c.Body != nil && c.Body.ExtraEnable != nil
}

// AdminUID returns the affected member's uid for either direction.
func (c *GroupAdminChange) AdminUID() string {
	if c.Body == nil {
		return ""
	}
	if c.Body.ExtraEnable != nil {
		return c.Body.ExtraEnable.AdminUID
	}
	if c.Body.ExtraDisable != nil {
		return c.Body.ExtraDisable.AdminUID
	}
	return ""
}

func (c *GroupAdminChange) Marshal() []byte {
	var b []byte
	b = appendUint(b, 1, c.GroupCode)
	if c.Body != nil {
		var s []byte
		if c.Body.ExtraDisable != nil {
			var e []byte
			e = appendString(e, 1, c.Body.ExtraDisable.AdminUID)
			s = appendSub(s, 1, e)
		}
		if c.Body.ExtraEnable != nil {
			var e []byte
			e = appendString(e, 1, c.Body.ExtraEnable.AdminUID)
			s = appendSub(s, 2, e)
		}
		b = appendSub(b, 4, s)
	}
	return b
}

func UnmarshalGroupAdminChange(data []byte) (*GroupAdminChange, error) {
	c := &GroupAdminChange{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			c.GroupCode = d.varint()
		case 4:
			body := &AdminChangeBody{}
			sub := &decoder{buf: d.bytes()}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				switch n2 {
				case 1, 2:
					e := &AdminExtra{}
					ed := &decoder{buf: sub.bytes()}
					for {
						n3, t3, ok3 := ed.next()
						if !ok3 {
							break
						}
						if n3 == 1 {
							e.AdminUID = ed.string()
						} else {
							ed.skip(n3, t3)
						}
					}
					if n2 == 1 {
						body.ExtraDisable = e
					} else {
						body.ExtraEnable = e
					}
				default:
					sub.skip(n2, t2)
				}
			}
			if sub.err != nil {
				return nil, sub.err
			}
			c.Body = body
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return c, nil
}

// FriendDeleteOrPinChange carries 528/39 notices; only the pin-change
// variant (body type 7) is classified.
type FriendDeleteOrPinChange struct {
	Body *PinChangeOuter // 1
}

type PinChangeOuter struct {
	Type       uint32      // 2
	PinChanged *PinChanged // 3
}

type PinChanged struct {
	Body *PinChangedBody // 1
}

type PinChangedBody struct {
	UID       string   // 1
	GroupCode uint64   // 2
	Info      *PinInfo // 3
}

// PinInfo.Timestamp non-empty means the peer is now pinned.
type PinInfo struct {
	Timestamp string // 2
}

const PinChangeBodyType = 7

func (p *FriendDeleteOrPinChange) Marshal() []byte {
	var b []byte
	if p.Body != nil {
		var s []byte
		s = appendUint(s, 2, uint64(p.Body.Type))
		if p.Body.PinChanged != nil && p.Body.PinChanged.Body != nil {
			var inner []byte
			pb := p.Body.PinChanged.Body
			inner = appendString(inner, 1, pb.UID)
			inner = appendUint(inner, 2, pb.GroupCode)
			if pb.Info != nil {
				var info []byte
				info = appendString(info, 2, pb.Info.Timestamp)
				inner = appendSub(inner, 3, info)
			}
			var pc []byte
			pc = appendSub(pc, 1, inner)
			s = appendSub(s, 3, pc)
		}
		b = appendSub(b, 1, s)
	}
	return b
}

func UnmarshalFriendDeleteOrPinChange(data []byte) (*FriendDeleteOrPinChange, error) {
	p := &FriendDeleteOrPinChange{}
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
		outer := &PinChangeOuter{}
		sub := &decoder{buf: d.bytes()}
		for {
			n2, t2, ok2 := sub.next()
			if !ok2 {
				break
			}
			switch n2 {
			case 2:
				outer.Type = uint32(sub.varint())
			case 3:
				pc := &PinChanged{}
				pd := &decoder{buf: sub.bytes()}
				for {
					n3, t3, ok3 := pd.next()
					if !ok3 {
						break
					}
					if n3 != 1 {
						pd.skip(n3, t3)
						continue
					}
					body := &PinChangedBody{}
					bd := &decoder{buf: pd.bytes()}
					for {
						n4, t4, ok4 := bd.next()
						if !ok4 {
							break
						}
						switch n4 {
						case 1:
							body.UID = bd.string()
						case 2:
							body.GroupCode = bd.varint()
						case 3:
							info := &PinInfo{}
							id := &decoder{buf: bd.bytes()}
							for {
								n5, t5, ok5 := id.next()
								if !ok5 {
									break
								}
								if n5 == 2 {
									info.Timestamp = id.string()
								} else {
									id.skip(n5, t5)
								}
							}
							body.Info = info
						default:
							bd.skip(n4, t4)
						}
					}
					if bd.err != nil {
						return nil, bd.err
					}
					pc.Body = body
				}
				if pd.err != nil {
					return nil, pd.err
				}
				outer.PinChanged = pc
			default:
				sub.skip(n2, t2)
			}
		}
		if sub.err != nil {
			return nil, sub.err
		}
		p.Body = outer
	}
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}

// NotifyMessageBody carries 732/16 (reaction) and 732/21 (essence) pushes.
type NotifyMessageBody struct {
	Type           uint32          // 1
	GroupCode      uint64          // 4
	Field13        uint32          // 13
	EssenceMessage *EssenceMessage // 33
	Reaction       *ReactionData   // 44
}

// Discriminators inside NotifyMessageBody.
const (
	NotifyTypeEssence     = 27
	NotifyField13Reaction = 35
	ReactionActionAdd     = 1
	EssenceFlagSet        = 1
)

type EssenceMessage struct {
	GroupCode   uint64 // 1
	MsgSequence uint64 // 2
	Random      uint64 // 3
	SetFlag     uint32 // 4
	MemberUin   uint64 // 5
	OperatorUin uint64 // 6
}

type ReactionData struct {
	Target *ReactionTarget // 1.1.2
	Info   *ReactionInfo   // 1.1.3
}

type ReactionTarget struct {
	Sequence uint64 // 1
}

type ReactionInfo struct {
	Code        string // 1
	Count       uint64 // 3
	OperatorUID string // 4
	ActionType  uint32 // 5
}

func (n *NotifyMessageBody) Marshal() []byte {
	var b []byte
	b = appendUint(b, 1, uint64(n.Type))
	b = appendUint(b, 4, n.GroupCode)
	b = appendUint(b, 13, uint64(n.Field13))
	if n.EssenceMessage != nil {
		e := n.EssenceMessage
		var s []byte
		s = appendUint(s, 1, e.GroupCode)
		s = appendUint(s, 2, e.MsgSequence)
		s = appendUint(s, 3, e.Random)
		s = appendUint(s, 4, uint64(e.SetFlag))
		s = appendUint(s, 5, e.MemberUin)
		s = appendUint(s, 6, e.OperatorUin)
		b = appendSub(b, 33, s)
	}
	if n.Reaction != nil {
		var body []byte
		if n.Reaction.Target != nil {
			var t []byte
			t = appendUint(t, 1, n.Reaction.Target.Sequence)
			body = appendSub(body, 2, t)
		}
		if n.Reaction.Info != nil {
			i := n.Reaction.Info
			var s []byte
			s = appendString(s, 1, i.Code)
			s = appendUint(s, 3, i.Count)
			s = appendString(s, 4, i.OperatorUID)
			s = appendUint(s, 5, uint64(i.ActionType))
			body = appendSub(body, 3, s)
		}
		var inner []byte
		inner = appendSub(inner, 1, body)
		var data []byte
		data = appendSub(data, 1, inner)
		b = appendSub(b, 44, data)
	}
	return b
}

func UnmarshalNotifyMessageBody(data []byte) (*NotifyMessageBody, error) {
	n := &NotifyMessageBody{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			n.Type = uint32(d.varint())
		case 4:
			n.GroupCode = d.varint()
		case 13:
			n.Field13 = uint32(d.varint())
		case 33:
			e := &EssenceMessage{}
			sub := &decoder{buf: d.bytes()}
			for {
				n2, t2, ok2 := sub.next()
				if !ok2 {
					break
				}
				switch n2 {
				case 1:
					e.GroupCode = sub.varint()
				case 2:
					e.MsgSequence = sub.varint()
				case 3:
					e.Random = sub.varint()
				case 4:
					e.SetFlag = uint32(sub.varint())
				case 5:
					e.MemberUin = sub.varint()
				case 6:
					e.OperatorUin = sub.varint()
				default:
					sub.skip(n2, t2)
				}
			}
			if sub.err != nil {
				return nil, sub.err
			}
			n.EssenceMessage = e
		case 44:
			r := &ReactionData{}
			// unwrap data(1) -> body(1)
			level1 := &decoder{buf: d.bytes()}
			for {
				n2, t2, ok2 := level1.next()
				if !ok2 {
					break
				}
				if n2 != 1 {
					level1.skip(n2, t2)
					continue
				}
				level2 := &decoder{buf: level1.bytes()}
				for {
					n3, t3, ok3 := level2.next()
					if !ok3 {
						break
					}
					if n3 != 1 {
						level2.skip(n3, t3)
						continue
					}
					body := &decoder{buf: level2.bytes()}
					for {
						n4, t4, ok4 := body.next()
						if !ok4 {
							break
						}
						switch n4 {
						case 2:
							t := &ReactionTarget{}
							td := &decoder{buf: body.bytes()}
							for {
								n5, t5, ok5 := td.next()
								if !ok5 {
									break
								}
								if n5 == 1 {
									t.Sequence = td.varint()
								} else {
									td.skip(n5, t5)
								}
							}
							r.Target = t
						case 3:
							i := &ReactionInfo{}
							id := &decoder{buf: body.bytes()}
							for {
								n5, t5, ok5 := id.next()
								if !ok5 {
									break
								}
								switch n5 {
								case 1:
									i.Code = id.string()
								case 3:
									i.Count = id.varint()
								case 4:
									i.OperatorUID = id.string()
								case 5:
									i.ActionType = uint32(id.varint())
								default:
									id.skip(n5, t5)
								}
							}
							r.Info = i
						default:
							body.skip(n4, t4)
						}
					}
					if body.err != nil {
						return nil, body.err
					}
				}
				if level2.err != nil {
					return nil, level2.err
				}
			}
			if level1.err != nil {
				return nil, level1.err
			}
			n.Reaction = r
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return n, nil
}
