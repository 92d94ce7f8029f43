package l1reports

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeatmapReport(t *testing.T) {
	heatmap := []byte{10, 20, 30, 40, 50, 60}
	buf := Encoder{}.HeatmapReport(Dimensions{Rows: 2, Columns: 3, ZMin: 0, ZMax: 0}, heatmap)

	var got []TouchSample
	p := Parser{OnTouch: func(s TouchSample) {
		s.Heatmap = append([]byte(nil), s.Heatmap...)
		got = append(got, s)
	}}

	require.NoError(t, p.Parse(buf))
	require.Len(t, got, 1)
	assert.Equal(t, uint8(2), got[0].Rows)
	assert.Equal(t, uint8(3), got[0].Columns)
	assert.Equal(t, uint8(255), got[0].Max, "z_max of 0 is replaced")
	assert.Equal(t, heatmap, got[0].Heatmap)
}

func TestParseTruncatedHeatmapAborts(t *testing.T) {
	buf := Encoder{}.HeatmapReport(Dimensions{Rows: 4, Columns: 4, ZMax: 255}, make([]byte, 16))
	buf = buf[:len(buf)-5]

	called := false
	p := Parser{OnTouch: func(TouchSample) { called = true }}

	err := p.Parse(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRead), "got %v", err)
	assert.False(t, called)
}

func TestParseMetadata(t *testing.T) {
	want := Metadata{Rows: 46, Columns: 68, Width: 25.98, Height: 17.32, InvertX: true}
	buf := Encoder{}.MetadataFrame(want)

	var got Metadata
	p := Parser{OnMetadata: func(m Metadata) { got = m }}
	require.NoError(t, p.Parse(buf))

	assert.Equal(t, want.Rows, got.Rows)
	assert.Equal(t, want.Columns, got.Columns)
	assert.InDelta(t, want.Width, got.Width, 1e-9)
	assert.InDelta(t, want.Height, got.Height, 1e-9)
	assert.True(t, got.InvertX)
	assert.False(t, got.InvertY)
}

func TestParseStylus(t *testing.T) {
	in := StylusSample{
		Proximity: true,
		Contact:   true,
		Button:    true,
		X:         0.5,
		Y:         0.25,
		Pressure:  0.5,
		Altitude:  math.Pi / 4,
		Azimuth:   math.Pi / 2,
	}

	var got StylusSample
	p := Parser{OnStylus: func(s StylusSample) { got = s }}
	require.NoError(t, p.Parse(Encoder{}.StylusReport(in)))

	assert.True(t, got.Proximity)
	assert.True(t, got.Contact)
	assert.True(t, got.Button)
	assert.False(t, got.Rubber)
	assert.InDelta(t, 0.5, got.X, 1e-4)
	assert.InDelta(t, 0.25, got.Y, 1e-4)
	assert.InDelta(t, 0.5, got.Pressure, 1e-3)
	assert.InDelta(t, math.Pi/4, got.Altitude, 1e-3)
	assert.InDelta(t, math.Pi/2, got.Azimuth, 1e-3)
}

func TestParseInvalidFrameSize(t *testing.T) {
	buf := []byte{0, 0, 0, 3, 0, 0, 0, 0, byte(FrameReports), 0}
	err := (&Parser{}).Parse(buf)
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestParseIgnoresReportsQuirk(t *testing.T) {
	buf := Encoder{}.wrap(FrameReports, []byte{0x74, 0, 4, 0})
	assert.NoError(t, (&Parser{}).Parse(buf))
}

func TestParseNestedHIDFrames(t *testing.T) {
	inner := Encoder{}.HeatmapReport(Dimensions{Rows: 1, Columns: 2, ZMax: 255}, []byte{1, 2})
	// Strip the report header of the inner buffer and nest it twice.
	frame := inner[HIDReportHeaderSize:]
	payload := append(append([]byte(nil), frame...), frame...)
	buf := Encoder{}.wrap(FrameHID, payload)

	count := 0
	p := Parser{OnTouch: func(TouchSample) { count++ }}
	require.NoError(t, p.Parse(buf))
	assert.Equal(t, 2, count)
}

func TestReadStylusMPP10(t *testing.T) {
	sample := []byte{
		0, 0, 0, 0, // reserved
		StylusModeProximity,
		0x80, 0x25, // x = 9600
		0x00, 0x00, // y = 0
		0x00, 0x02, // pressure = 512
		0xee, // padding
	}
	require.Len(t, sample, StylusSampleMPP10)

	r := NewReader(sample)
	s, err := readStylusMPP10(r)
	require.NoError(t, err)
	assert.Zero(t, r.Size(), "whole sample consumed")
	assert.True(t, s.Proximity)
	assert.True(t, s.Contact)
	assert.InDelta(t, 1, s.X, 1e-12)
	assert.Zero(t, s.Y)
	assert.InDelta(t, 0.5, s.Pressure, 1e-12)

	tests := []struct {
		name string
		size int
		want error
	}{
		{"reserved only", 4, ErrEndOfData},
		{"partial coordinates", 6, ErrInvalidRead},
		{"missing padding", StylusSampleMPP10 - 1, ErrEndOfData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readStylusMPP10(NewReader(sample[:tt.size]))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
