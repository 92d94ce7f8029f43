package device

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Link types of usbmon captures.
const (
	LinkTypeUSBLinux        = 189
	LinkTypeUSBLinuxMmapped = 220
)

const (
	usbmonHeaderSize        = 48
	usbmonMmappedHeaderSize = 64

	usbmonEventComplete = 'C'
	usbmonXferInterrupt = 1
	usbmonEndpointIn    = 0x80
)

// ErrUnsupportedLinkType is returned for captures that are not usbmon.
var ErrUnsupportedLinkType = errors.New("device: unsupported capture link type")

// PcapFilter selects the transfers of one device in a usbmon capture. Zero
// values match anything.
type PcapFilter struct {
	Bus      int `json:"bus" yaml:"bus"`
	Device   int `json:"device" yaml:"device"`
	Endpoint int `json:"endpoint" yaml:"endpoint"`
}

// UsbmonPacket is the decoded usbmon header of one captured packet.
type UsbmonPacket struct {
	Event    byte
	Transfer uint8
	Endpoint uint8
	Device   uint8
	Bus      uint16
	Status   int32
	Length   uint32
	Captured uint32

	Payload []byte
}

// In reports whether the packet travelled from device to host.
func (p UsbmonPacket) In() bool { return p.Endpoint&usbmonEndpointIn != 0 }

// Report reports whether the packet is a completed interrupt-in transfer
// carrying data, which is how digitizers deliver HID reports.
func (p UsbmonPacket) Report() bool {
	return p.Event == usbmonEventComplete &&
		p.Transfer == usbmonXferInterrupt &&
		p.In() &&
		p.Status == 0 &&
		len(p.Payload) > 0
}

// Match reports whether the packet passes the filter.
func (f PcapFilter) Match(p UsbmonPacket) bool {
	if f.Bus != 0 && int(p.Bus) != f.Bus {
		return false
	}
	if f.Device != 0 && int(p.Device) != f.Device {
		return false
	}
	if f.Endpoint != 0 && int(p.Endpoint&0x7f) != f.Endpoint&0x7f {
		return false
	}
	return true
}

// DecodeUsbmon decodes the usbmon header of a captured packet. Headers are
// host endian; only little endian captures are supported.
func DecodeUsbmon(data []byte, linkType int) (UsbmonPacket, error) {
	var headerSize int
	switch linkType {
	case LinkTypeUSBLinux:
		headerSize = usbmonHeaderSize
	case LinkTypeUSBLinuxMmapped:
		headerSize = usbmonMmappedHeaderSize
	default:
		return UsbmonPacket{}, fmt.Errorf("%w: %d", ErrUnsupportedLinkType, linkType)
	}
	if len(data) < headerSize {
		return UsbmonPacket{}, fmt.Errorf("usbmon header truncated: %d of %d bytes", len(data), headerSize)
	}

	p := UsbmonPacket{
		Event:    data[8],
		Transfer: data[9],
		Endpoint: data[10],
		Device:   data[11],
		Bus:      binary.LittleEndian.Uint16(data[12:14]),
		Status:   int32(binary.LittleEndian.Uint32(data[28:32])),
		Length:   binary.LittleEndian.Uint32(data[32:36]),
		Captured: binary.LittleEndian.Uint32(data[36:40]),
	}

	payload := data[headerSize:]
	if int(p.Captured) < len(payload) {
		payload = payload[:p.Captured]
	}
	p.Payload = payload
	return p, nil
}
