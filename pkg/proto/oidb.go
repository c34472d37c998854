package proto

// OidbBase frames OIDB service packets exchanged over the binary send
// channel.
type OidbBase struct {
	Command    uint32 // 1
	SubCommand uint32 // 2
	ErrorCode  uint32 // 3
	Body       []byte // 4
	ErrorMsg   string // 5
	IsReserved uint32 // 12
}

func (o *OidbBase) Marshal() []byte {
	var b []byte
	b = appendUint(b, 1, uint64(o.Command))
	b = appendUint(b, 2, uint64(o.SubCommand))
	b = appendUint(b, 3, uint64(o.ErrorCode))
	b = appendBytes(b, 4, o.Body)
	b = appendString(b, 5, o.ErrorMsg)
	b = appendUint(b, 12, uint64(o.IsReserved))
	return b
}

func UnmarshalOidbBase(data []byte) (*OidbBase, error) {
	o := &OidbBase{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 1:
			o.Command = uint32(d.varint())
		case 2:
			o.SubCommand = uint32(d.varint())
		case 3:
			o.ErrorCode = uint32(d.varint())
		case 4:
			o.Body = d.bytes()
		case 5:
			o.ErrorMsg = d.string()
		case 12:
			o.IsReserved = uint32(d.varint())
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return o, nil
}

// FetchUserInfoReq asks OIDB 0xfe1_2 for a set of property keys.
type FetchUserInfoReq struct {
	Uin  uint64   // 1
	Keys []uint32 // 3.1
}

func (r *FetchUserInfoReq) Marshal() []byte {
	var b []byte
	b = appendUint(b, 1, r.Uin)
	for _, key := range r.Keys {
		var s []byte
		s = appendUint(s, 1, uint64(key))
		b = appendSub(b, 3, s)
	}
	return b
}

// FetchUserInfoResp carries the requested properties, split by value kind.
type FetchUserInfoResp struct {
	Uin              uint64            // 1.1
	NumberProperties map[uint32]uint64 // 1.2.1 {key(1), value(2)}
	BytesProperties  map[uint32][]byte // 1.2.2 {key(1), value(2)}
}

func (r *FetchUserInfoResp) Marshal() []byte {
	var props []byte
	for key, value := range r.NumberProperties {
		var p []byte
		p = appendUint(p, 1, uint64(key))
		p = appendUint(p, 2, value)
		props = appendSub(props, 1, p)
	}
	for key, value := range r.BytesProperties {
		var p []byte
		p = appendUint(p, 1, uint64(key))
		p = appendBytes(p, 2, value)
		props = appendSub(props, 2, p)
	}
	var body []byte
	body = appendUint(body, 1, r.Uin)
	body = appendSub(body, 2, props)
	var b []byte
	b = appendSub(b, 1, body)
	return b
}

func UnmarshalFetchUserInfoResp(data []byte) (*FetchUserInfoResp, error) {
	r := &FetchUserInfoResp{
		NumberProperties: map[uint32]uint64{},
		BytesProperties:  map[uint32][]byte{},
	}
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
		body := &decoder{buf: d.bytes()}
		for {
			n2, t2, ok2 := body.next()
			if !ok2 {
				break
			}
			switch n2 {
			case 1:
				r.Uin = body.varint()
			case 2:
				props := &decoder{buf: body.bytes()}
				for {
					n3, t3, ok3 := props.next()
					if !ok3 {
						break
					}
					switch n3 {
					case 1:
						var key uint32
						var value uint64
						pd := &decoder{buf: props.bytes()}
						for {
							n4, t4, ok4 := pd.next()
							if !ok4 {
								break
							}
							switch n4 {
							case 1:
								key = uint32(pd.varint())
							case 2:
								value = pd.varint()
							default:
								pd.skip(n4, t4)
							}
						}
						r.NumberProperties[key] = value
					case 2:
						var key uint32
						var value []byte
						pd := &decoder{buf: props.bytes()}
						for {
							n4, t4, ok4 := pd.next()
							if !ok4 {
								break
							}
							switch n4 {
							case 1:
								key = uint32(pd.varint())
							case 2:
								value = pd.bytes()
							default:
								pd.skip(n4, t4)
							}
						}
						r.BytesProperties[key] = value
					default:
						props.skip(n3, t3)
					}
				}
				if props.err != nil {
					return nil, props.err
				}
			default:
				body.skip(n2, t2)
			}
		}
		if body.err != nil {
			return nil, body.err
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return r, nil
}

// FetchUserLoginDaysReq/Resp wrap a JSON query inside a protobuf frame
// (the 0xdef_1 service speaks JSON-in-protobuf).
type FetchUserLoginDaysReq struct {
	Field2 uint32 // 2
	JSON   string // 3
}

func (r *FetchUserLoginDaysReq) Marshal() []byte {
	var b []byte
	b = appendUint(b, 2, uint64(r.Field2))
	b = appendString(b, 3, r.JSON)
	return b
}

func UnmarshalFetchUserLoginDaysReq(data []byte) (*FetchUserLoginDaysReq, error) {
	r := &FetchUserLoginDaysReq{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		switch num {
		case 2:
			r.Field2 = uint32(d.varint())
		case 3:
			r.JSON = d.string()
		default:
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return r, nil
}

type FetchUserLoginDaysResp struct {
	JSON string // 3
}

func (r *FetchUserLoginDaysResp) Marshal() []byte {
	var b []byte
	b = appendString(b, 3, r.JSON)
	return b
}

func UnmarshalFetchUserLoginDaysResp(data []byte) (*FetchUserLoginDaysResp, error) {
	r := &FetchUserLoginDaysResp{}
	d := &decoder{buf: data}
	for {
		num, typ, ok := d.next()
		if !ok {
			break
		}
		if num == 3 {
			r.JSON = d.string()
		} else {
			d.skip(num, typ)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return r, nil
}
