package l1reports

import (
	"encoding/binary"
	"math"
)

// Encoder builds device buffers in the wire format understood by Parser. It
// backs the synthetic device used in dev mode and the fixtures in tests.
type Encoder struct {
	// ReportID and Timestamp fill the leading HID report header.
	ReportID  uint8
	Timestamp uint16
}

// HeatmapReport encodes a reports frame carrying a dimensions report
// followed by the heatmap data.
func (e Encoder) HeatmapReport(dim Dimensions, heatmap []byte) []byte {
	var reports []byte
	reports = appendReportFrame(reports, ReportHeatmapDimensions, []byte{
		dim.Rows, dim.Columns, dim.XMin, dim.YMin, dim.XMax, dim.YMax, dim.ZMin, dim.ZMax,
	})
	reports = appendReportFrame(reports, ReportHeatmapData, heatmap)
	return e.wrap(FrameReports, reports)
}

// MetadataFrame encodes a metadata frame. Width and height are given in
// centimetres.
func (e Encoder) MetadataFrame(m Metadata) []byte {
	payload := make([]byte, 0, MetadataSize)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(m.Rows))
	payload = binary.LittleEndian.AppendUint32(payload, uint32(m.Columns))
	payload = binary.LittleEndian.AppendUint32(payload, uint32(math.Round(m.Width*1000)))
	payload = binary.LittleEndian.AppendUint32(payload, uint32(math.Round(m.Height*1000)))

	xx, yy := float32(1), float32(1)
	if m.InvertX {
		xx = -1
	}
	if m.InvertY {
		yy = -1
	}
	for _, v := range []float32{xx, 0, 0, 0, yy, 0} {
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(v))
	}
	return e.wrap(FrameMetadata, payload)
}

// StylusReport encodes an MPP 1.51 stylus report with a single sample.
// Coordinates and pressure are normalized, angles in radians.
func (e Encoder) StylusReport(s StylusSample) []byte {
	var mode uint16
	if s.Proximity {
		mode |= StylusModeProximity
	}
	if s.Contact {
		mode |= StylusModeContact
	}
	if s.Button {
		mode |= StylusModeButton
	}
	if s.Rubber {
		mode |= StylusModeRubber
	}

	payload := []byte{1, 0, 0, 0}
	for _, v := range []uint16{
		s.Timestamp,
		mode,
		uint16(math.Round(s.X * StylusMaxX)),
		uint16(math.Round(s.Y * StylusMaxY)),
		uint16(math.Round(s.Pressure * StylusMaxPressure151)),
		uint16(math.Round(s.Altitude * 18000 / math.Pi)),
		uint16(math.Round(s.Azimuth * 18000 / math.Pi)),
		0,
	} {
		payload = binary.LittleEndian.AppendUint16(payload, v)
	}
	return e.wrap(FrameReports, appendReportFrame(nil, ReportStylusMPP151, payload))
}

func (e Encoder) wrap(typ FrameType, payload []byte) []byte {
	buf := make([]byte, 0, HIDReportHeaderSize+HIDFrameHeaderSize+len(payload))
	buf = append(buf, e.ReportID)
	buf = binary.LittleEndian.AppendUint16(buf, e.Timestamp)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(HIDFrameHeaderSize+len(payload)))
	buf = append(buf, 0, byte(typ), 0)
	return append(buf, payload...)
}

func appendReportFrame(dst []byte, typ ReportType, payload []byte) []byte {
	dst = append(dst, byte(typ), 0)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(payload)))
	return append(dst, payload...)
}
