package l1reports

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFrame is returned when a frame header declares an impossible size.
var ErrInvalidFrame = errors.New("reports: invalid frame size")

// Parser decodes device buffers and invokes the callbacks for every sample
// found. Callbacks that are nil are skipped. A Parser caches the heatmap
// dimensions between buffers and is not safe for concurrent use.
type Parser struct {
	OnTouch    func(TouchSample)
	OnStylus   func(StylusSample)
	OnMetadata func(Metadata)

	dim Dimensions
}

// Dimensions returns the cached heatmap dimensions.
func (p *Parser) Dimensions() Dimensions {
	return p.dim
}

// Parse decodes a HID report: a three byte header followed by one HID frame.
// Decoding stops at the first error; callbacks for samples decoded before the
// error have already run.
func (p *Parser) Parse(data []byte) error {
	return p.ParseWithHeader(data, HIDReportHeaderSize)
}

// ParseWithHeader decodes a buffer whose leading header has the given size.
func (p *Parser) ParseWithHeader(data []byte, header int) error {
	r := NewReader(data)
	if err := r.Skip(header); err != nil {
		return fmt.Errorf("report header: %w", err)
	}
	return p.parseHIDFrame(r)
}

func (p *Parser) parseHIDFrame(r *Reader) error {
	size, err := r.U32()
	if err != nil {
		return fmt.Errorf("hid frame: %w", err)
	}
	if err := r.Skip(1); err != nil {
		return fmt.Errorf("hid frame: %w", err)
	}
	typ, err := r.U8()
	if err != nil {
		return fmt.Errorf("hid frame: %w", err)
	}
	if err := r.Skip(1); err != nil {
		return fmt.Errorf("hid frame: %w", err)
	}
	if size < HIDFrameHeaderSize {
		return fmt.Errorf("%w: hid frame of %d bytes", ErrInvalidFrame, size)
	}

	payload := int(size) - HIDFrameHeaderSize
	sub := NewReader(nil)
	if payload > 0 {
		if sub, err = r.Sub(payload); err != nil {
			return fmt.Errorf("hid frame payload: %w", err)
		}
	}

	switch FrameType(typ) {
	case FrameHID:
		for sub.Size() > 0 {
			if err := p.parseHIDFrame(sub); err != nil {
				return err
			}
		}
	case FrameHeatmap:
		return p.parseHeatmapFrame(sub)
	case FrameMetadata:
		return p.parseMetadata(sub)
	case FrameReports:
		// Some firmware sends a reports frame with a truncated report header
		// about once per second. It carries nothing useful.
		if payload == quirkReportFrameSize {
			return nil
		}
		for sub.Size() > 0 {
			if err := p.parseReportFrame(sub); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) parseReportFrame(r *Reader) error {
	typ, err := r.U8()
	if err != nil {
		return fmt.Errorf("report frame: %w", err)
	}
	if _, err := r.U8(); err != nil {
		return fmt.Errorf("report frame: %w", err)
	}
	size, err := r.U16()
	if err != nil {
		return fmt.Errorf("report frame: %w", err)
	}

	sub := NewReader(nil)
	if size > 0 {
		if sub, err = r.Sub(int(size)); err != nil {
			return fmt.Errorf("report frame 0x%02x payload: %w", typ, err)
		}
	}

	switch ReportType(typ) {
	case ReportHeatmapDimensions:
		return p.parseDimensions(sub)
	case ReportHeatmapData:
		return p.parseHeatmapData(sub)
	case ReportStylusMPP10:
		return p.parseStylus(sub, false)
	case ReportStylusMPP151:
		return p.parseStylus(sub, true)
	}
	return nil
}

// parseDimensions caches the dimensions for the heatmaps that follow. A
// heatmap is always sized by the most recent dimensions report.
func (p *Parser) parseDimensions(r *Reader) error {
	var b [DimensionsSize]byte
	if err := r.Read(b[:]); err != nil {
		return fmt.Errorf("heatmap dimensions: %w", err)
	}
	p.dim = Dimensions{
		Rows: b[0], Columns: b[1],
		XMin: b[2], YMin: b[3],
		XMax: b[4], YMax: b[5],
		ZMin: b[6], ZMax: b[7],
	}

	// Newer devices report z_max as 0.
	if p.dim.ZMax == 0 {
		p.dim.ZMax = 255
	}
	return nil
}

func (p *Parser) parseHeatmapData(r *Reader) error {
	n := int(p.dim.Rows) * int(p.dim.Columns)
	if n == 0 {
		return nil
	}

	heatmap, err := r.Subspan(n)
	if err != nil {
		return fmt.Errorf("heatmap data: %w", err)
	}

	if p.OnTouch != nil {
		p.OnTouch(TouchSample{
			Rows:    p.dim.Rows,
			Columns: p.dim.Columns,
			Min:     p.dim.ZMin,
			Max:     p.dim.ZMax,
			Heatmap: heatmap,
		})
	}
	return nil
}

// parseHeatmapFrame handles HID native devices, which send the heatmap as
// a frame of its own instead of a report.
func (p *Parser) parseHeatmapFrame(r *Reader) error {
	if err := r.Skip(1); err != nil {
		return fmt.Errorf("heatmap frame: %w", err)
	}
	size, err := r.U32()
	if err != nil {
		return fmt.Errorf("heatmap frame: %w", err)
	}
	sub, err := r.Sub(int(size))
	if err != nil {
		return fmt.Errorf("heatmap frame payload: %w", err)
	}
	return p.parseHeatmapData(sub)
}

func (p *Parser) parseMetadata(r *Reader) error {
	var v [4]uint32
	for i := range v {
		x, err := r.U32()
		if err != nil {
			return fmt.Errorf("metadata: %w", err)
		}
		v[i] = x
	}

	var transform [6]float32
	for i := range transform {
		x, err := r.F32()
		if err != nil {
			return fmt.Errorf("metadata transform: %w", err)
		}
		transform[i] = x
	}

	if p.OnMetadata == nil {
		return nil
	}

	// Widths are sent as fixed point (mm * 100); report centimetres.
	p.OnMetadata(Metadata{
		Rows:    int(v[0]),
		Columns: int(v[1]),
		Width:   float64(v[2]) / 1000,
		Height:  float64(v[3]) / 1000,
		InvertX: transform[0] < 0,
		InvertY: transform[4] < 0,
	})
	return nil
}

// parseStylus decodes the last sample of a stylus report. Earlier samples
// of the same 5ms window are dropped to avoid jittering output.
func (p *Parser) parseStylus(r *Reader, tilt bool) error {
	samples, err := r.U8()
	if err != nil {
		return fmt.Errorf("stylus report: %w", err)
	}
	if err := r.Skip(StylusReportSize - 1); err != nil {
		return fmt.Errorf("stylus report: %w", err)
	}
	if samples == 0 {
		return nil
	}

	sampleSize := StylusSampleMPP10
	if tilt {
		sampleSize = StylusSampleMPP151
	}
	if skip := (int(samples) - 1) * sampleSize; skip > 0 {
		if err := r.Skip(skip); err != nil {
			return fmt.Errorf("stylus samples: %w", err)
		}
	}

	var s StylusSample
	if tilt {
		s, err = readStylusMPP151(r)
	} else {
		s, err = readStylusMPP10(r)
	}
	if err != nil {
		return fmt.Errorf("stylus sample: %w", err)
	}

	if p.OnStylus != nil {
		p.OnStylus(s)
	}
	return nil
}

func readStylusMPP10(r *Reader) (StylusSample, error) {
	start := r.Index()
	if err := r.Skip(4); err != nil {
		return StylusSample{}, err
	}
	mode, err := r.U8()
	if err != nil {
		return StylusSample{}, err
	}
	var v [3]uint16
	for i := range v {
		if v[i], err = r.U16(); err != nil {
			return StylusSample{}, err
		}
	}
	if err := r.Skip(StylusSampleMPP10 - (r.Index() - start)); err != nil {
		return StylusSample{}, err
	}

	x, y, pressure := v[0], v[1], v[2]
	s := stylusState(uint16(mode))
	s.X = float64(x) / StylusMaxX
	s.Y = float64(y) / StylusMaxY
	s.Pressure = float64(pressure) / StylusMaxPressure10

	// The contact bit is never set in rubber mode.
	s.Contact = pressure > 0
	return s, nil
}

func readStylusMPP151(r *Reader) (StylusSample, error) {
	var v [8]uint16
	for i := range v {
		x, err := r.U16()
		if err != nil {
			return StylusSample{}, err
		}
		v[i] = x
	}

	s := stylusState(v[1])
	s.Timestamp = v[0]
	s.X = float64(v[2]) / StylusMaxX
	s.Y = float64(v[3]) / StylusMaxY
	s.Pressure = float64(v[4]) / StylusMaxPressure151
	s.Contact = v[4] > 0

	// Angles are sent in 1/100 degree.
	s.Altitude = float64(v[5]) / (18000 / math.Pi)
	s.Azimuth = float64(v[6]) / (18000 / math.Pi)
	return s, nil
}

func stylusState(mode uint16) StylusSample {
	return StylusSample{
		Proximity: mode&StylusModeProximity != 0,
		Button:    mode&StylusModeButton != 0,
		Rubber:    mode&StylusModeRubber != 0,
	}
}
