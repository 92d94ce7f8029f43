package l1reports

// Sizes of the fixed wire structures, in bytes.
const (
	HIDReportHeaderSize  = 3 // report id (u8) + timestamp (u16)
	HIDFrameHeaderSize   = 7 // size (u32) + reserved (u8) + type (u8) + reserved (u8)
	ReportFrameSize      = 4 // type (u8) + flags (u8) + size (u16)
	DimensionsSize       = 8
	HeatmapHeaderSize    = 5 // reserved (u8) + size (u32)
	MetadataSize         = 40
	StylusReportSize     = 4 // samples (u8) + 3 reserved
	StylusSampleMPP10    = 12
	StylusSampleMPP151   = 16
	quirkReportFrameSize = 4
)

// FrameType identifies the payload of a HID frame.
type FrameType uint8

const (
	FrameHID      FrameType = 0x00
	FrameHeatmap  FrameType = 0x01
	FrameMetadata FrameType = 0x02
	FrameReports  FrameType = 0xFF
)

// ReportType identifies the payload of a report frame.
type ReportType uint8

const (
	ReportHeatmapDimensions ReportType = 0x03
	ReportStylusMPP10       ReportType = 0x10
	ReportHeatmapData       ReportType = 0x25
	ReportStylusMPP151      ReportType = 0x60
)

// Stylus mode bits.
const (
	StylusModeProximity = 1 << 0
	StylusModeContact   = 1 << 1
	StylusModeButton    = 1 << 2
	StylusModeRubber    = 1 << 3
)

// Stylus coordinate and pressure ranges.
const (
	StylusMaxX           = 9600
	StylusMaxY           = 7200
	StylusMaxPressure10  = 1024
	StylusMaxPressure151 = 4096
)

// Dimensions describes the scale and size of the heatmaps that follow it.
type Dimensions struct {
	Rows    uint8
	Columns uint8
	XMin    uint8
	YMin    uint8
	XMax    uint8
	YMax    uint8
	ZMin    uint8
	ZMax    uint8
}

// TouchSample is one capacitive heatmap as sent by the device.
type TouchSample struct {
	Rows    uint8
	Columns uint8

	// Min and Max bound the values that can occur in Heatmap.
	Min uint8
	Max uint8

	// Heatmap is laid out row-major. It aliases the parsed buffer and is only
	// valid for the duration of the callback.
	Heatmap []byte
}

// StylusSample is the last stylus state of a stylus report.
type StylusSample struct {
	Timestamp uint16
	Proximity bool
	Contact   bool
	Button    bool
	Rubber    bool

	// X, Y and Pressure are normalized to [0, 1].
	X        float64
	Y        float64
	Pressure float64

	// Altitude and Azimuth are in radians; zero for devices without tilt.
	Altitude float64
	Azimuth  float64
}

// Metadata describes the physical properties of the digitizer.
type Metadata struct {
	Rows    int
	Columns int

	// Width and Height in centimetres.
	Width  float64
	Height float64

	InvertX bool
	InvertY bool
}
