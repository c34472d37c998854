// Package proto implements hand-built protobuf wire codecs for the kernel's
// native envelopes: the message frame, system-notification payloads, media
// references and OIDB packets. Schemas mirror the helper's wire format;
// unknown fields are skipped so newer kernel builds do not break decoding.
package proto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// decoder walks one protobuf message, tracking the first parse error.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) next() (protowire.Number, protowire.Type, bool) {
	if d.err != nil || len(d.buf) == 0 {
		return 0, 0, false
	}
	num, typ, n := protowire.ConsumeTag(d.buf)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return 0, 0, false
	}
	d.buf = d.buf[n:]
	return num, typ, true
}

func (d *decoder) bytes() []byte {
	v, n := protowire.ConsumeBytes(d.buf)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return nil
	}
	d.buf = d.buf[n:]
	return v
}

func (d *decoder) string() string {
	return string(d.bytes())
}

func (d *decoder) varint() uint64 {
	v, n := protowire.ConsumeVarint(d.buf)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *decoder) skip(num protowire.Number, typ protowire.Type) {
	n := protowire.ConsumeFieldValue(num, typ, d.buf)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return
	}
	d.buf = d.buf[n:]
}

// Append helpers. Zero scalars and empty strings are omitted (proto3
// presence rules); submessages are written whenever their pointer is set,
// even if empty, because presence itself is meaningful on this wire.

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendSub(b []byte, num protowire.Number, sub []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, sub)
}
