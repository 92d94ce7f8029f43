package publish

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/banshee-data/touchd/internal/touch"
)

func sampleMessage() Message {
	return Message{
		Seq:  42,
		Time: time.Unix(1700000000, 123456789),
		Contacts: touch.Frame{
			{
				Index:       touch.IndexOf(3),
				Mean:        touch.Vec2{X: 0.25, Y: 0.75},
				Size:        touch.Vec2{X: 0.01, Y: 0.02},
				Orientation: 0.5,
				Normalized:  true,
				Stable:      true,
				Valid:       true,
			},
			{
				Mean: touch.Vec2{X: 12, Y: 9},
				Size: touch.Vec2{X: 3, Y: 4},
			},
		},
	}
}

func TestFrameBinaryRoundTrip(t *testing.T) {
	want := sampleMessage()
	got, err := DecodeFrame(EncodeFrame(want))
	require.NoError(t, err)

	assert.True(t, want.Time.Equal(got.Time))
	got.Time = want.Time
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameBinaryNegativeIndexAndEmptyFrame(t *testing.T) {
	m := Message{Contacts: touch.Frame{{Index: touch.IndexOf(-7)}}}
	got, err := DecodeFrame(EncodeFrame(m))
	require.NoError(t, err)
	require.Len(t, got.Contacts, 1)
	assert.Equal(t, -7, *got.Contacts[0].Index)
	assert.True(t, got.Time.IsZero())

	got, err = DecodeFrame(EncodeFrame(Message{Seq: 1}))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Seq)
	assert.Empty(t, got.Contacts)
}

func TestDecodeFrameSkipsUnknownFields(t *testing.T) {
	b := EncodeFrame(Message{Seq: 9})
	b = protowire.AppendTag(b, 15, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))

	got, err := DecodeFrame(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), got.Seq)
}

func TestDecodeFrameTruncated(t *testing.T) {
	b := EncodeFrame(sampleMessage())
	for _, n := range []int{1, len(b) / 2, len(b) - 1} {
		_, err := DecodeFrame(b[:n])
		assert.Error(t, err, "truncated to %d bytes", n)
	}
}

func TestFrameJSON(t *testing.T) {
	data, err := Encode(sampleMessage(), FormatJSON)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(42), got["seq"])

	contacts := got["contacts"].([]any)
	require.Len(t, contacts, 2)
	first := contacts[0].(map[string]any)
	assert.Equal(t, float64(3), first["index"])
	assert.Equal(t, 0.25, first["x"])
	assert.Equal(t, true, first["stable"])
	second := contacts[1].(map[string]any)
	assert.Nil(t, second["index"])
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":         FormatJSON,
		"JSON":     FormatJSON,
		"binary":   FormatBinary,
		"protobuf": FormatBinary,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Encode(Message{}, "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
