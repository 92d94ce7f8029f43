package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/banshee-data/touchd/internal/touch"
	"github.com/banshee-data/touchd/internal/touch/pipeline"
)

// Format selects the payload encoding of published frames.
type Format string

const (
	FormatJSON   Format = "json"
	FormatBinary Format = "binary"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("publish: unknown payload format")

// ParseFormat parses a payload format name. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "binary", "proto", "protobuf":
		return FormatBinary, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Message is one published frame.
type Message struct {
	Seq      uint64
	Time     time.Time
	Contacts touch.Frame
}

// NewMessage copies the contacts of out into a Message.
func NewMessage(out pipeline.Output) Message {
	return Message{Seq: out.Seq, Time: out.Time, Contacts: out.Contacts.Clone()}
}

// Field numbers of the binary encoding.
//
//	message Frame {
//	  uint64 seq = 1;
//	  int64 time_unix_nano = 2;
//	  repeated Contact contacts = 3;
//	}
//	message Contact {
//	  optional sint64 index = 1;
//	  double x = 2;
//	  double y = 3;
//	  double minor = 4;
//	  double major = 5;
//	  double orientation = 6;
//	  bool normalized = 7;
//	  bool stable = 8;
//	  bool valid = 9;
//	}
const (
	frameSeq      protowire.Number = 1
	frameTime     protowire.Number = 2
	frameContacts protowire.Number = 3

	contactIndex       protowire.Number = 1
	contactX           protowire.Number = 2
	contactY           protowire.Number = 3
	contactMinor       protowire.Number = 4
	contactMajor       protowire.Number = 5
	contactOrientation protowire.Number = 6
	contactNormalized  protowire.Number = 7
	contactStable      protowire.Number = 8
	contactValid       protowire.Number = 9
)

// EncodeFrame encodes m in the binary wire format.
func EncodeFrame(m Message) []byte {
	return AppendFrame(nil, m)
}

// AppendFrame appends the binary encoding of m to b.
func AppendFrame(b []byte, m Message) []byte {
	b = protowire.AppendTag(b, frameSeq, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Seq)
	if !m.Time.IsZero() {
		b = protowire.AppendTag(b, frameTime, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Time.UnixNano()))
	}

	var contact []byte
	for _, c := range m.Contacts {
		contact = appendContact(contact[:0], c)
		b = protowire.AppendTag(b, frameContacts, protowire.BytesType)
		b = protowire.AppendBytes(b, contact)
	}
	return b
}

func appendContact(b []byte, c touch.Contact) []byte {
	if c.Index != nil {
		b = protowire.AppendTag(b, contactIndex, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(*c.Index)))
	}
	for _, f := range []struct {
		num protowire.Number
		v   float64
	}{
		{contactX, c.Mean.X},
		{contactY, c.Mean.Y},
		{contactMinor, c.Size.X},
		{contactMajor, c.Size.Y},
		{contactOrientation, c.Orientation},
	} {
		b = protowire.AppendTag(b, f.num, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(f.v))
	}
	for _, f := range []struct {
		num protowire.Number
		v   bool
	}{
		{contactNormalized, c.Normalized},
		{contactStable, c.Stable},
		{contactValid, c.Valid},
	} {
		if !f.v {
			continue
		}
		b = protowire.AppendTag(b, f.num, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(f.v))
	}
	return b
}

// DecodeFrame decodes a message produced by EncodeFrame. Unknown fields
// are skipped.
func DecodeFrame(b []byte) (Message, error) {
	var m Message
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Message{}, fmt.Errorf("frame tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == frameSeq && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Message{}, fmt.Errorf("frame seq: %w", protowire.ParseError(n))
			}
			m.Seq = v
			b = b[n:]
		case num == frameTime && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Message{}, fmt.Errorf("frame time: %w", protowire.ParseError(n))
			}
			m.Time = time.Unix(0, int64(v))
			b = b[n:]
		case num == frameContacts && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Message{}, fmt.Errorf("frame contact: %w", protowire.ParseError(n))
			}
			c, err := decodeContact(v)
			if err != nil {
				return Message{}, err
			}
			m.Contacts = append(m.Contacts, c)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Message{}, fmt.Errorf("frame field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return m, nil
}

func decodeContact(b []byte) (touch.Contact, error) {
	var c touch.Contact
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, fmt.Errorf("contact tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return c, fmt.Errorf("contact field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case contactIndex:
				c.Index = touch.IndexOf(int(protowire.DecodeZigZag(v)))
			case contactNormalized:
				c.Normalized = protowire.DecodeBool(v)
			case contactStable:
				c.Stable = protowire.DecodeBool(v)
			case contactValid:
				c.Valid = protowire.DecodeBool(v)
			}
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return c, fmt.Errorf("contact field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			f := math.Float64frombits(v)
			switch num {
			case contactX:
				c.Mean.X = f
			case contactY:
				c.Mean.Y = f
			case contactMinor:
				c.Size.X = f
			case contactMajor:
				c.Size.Y = f
			case contactOrientation:
				c.Orientation = f
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return c, fmt.Errorf("contact field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return c, nil
}

// ContactJSON is the JSON form of a contact. Index is null for untracked
// contacts.
type ContactJSON struct {
	Index       *int    `json:"index"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Minor       float64 `json:"minor"`
	Major       float64 `json:"major"`
	Orientation float64 `json:"orientation"`
	Normalized  bool    `json:"normalized"`
	Stable      bool    `json:"stable"`
	Valid       bool    `json:"valid"`
}

// FrameJSON is the JSON form of a Message.
type FrameJSON struct {
	Seq      uint64        `json:"seq"`
	Time     time.Time     `json:"time"`
	Contacts []ContactJSON `json:"contacts"`
}

// NewFrameJSON converts m to its JSON form.
func NewFrameJSON(m Message) FrameJSON {
	f := FrameJSON{Seq: m.Seq, Time: m.Time, Contacts: make([]ContactJSON, 0, len(m.Contacts))}
	for _, c := range m.Contacts {
		f.Contacts = append(f.Contacts, ContactJSON{
			Index:       c.Index,
			X:           c.Mean.X,
			Y:           c.Mean.Y,
			Minor:       c.Size.X,
			Major:       c.Size.Y,
			Orientation: c.Orientation,
			Normalized:  c.Normalized,
			Stable:      c.Stable,
			Valid:       c.Valid,
		})
	}
	return f
}

// Encode encodes m in the given format.
func Encode(m Message, format Format) ([]byte, error) {
	switch format {
	case FormatBinary:
		return EncodeFrame(m), nil
	case FormatJSON, "":
		return json.Marshal(NewFrameJSON(m))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
