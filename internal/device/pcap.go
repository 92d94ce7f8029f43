//go:build pcap
// +build pcap

package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/banshee-data/touchd/internal/monitoring"
)

// PcapSource replays the HID reports of a usbmon capture. Only completed
// interrupt-in transfers matching the filter are returned.
type PcapSource struct {
	handle   *pcap.Handle
	packets  *gopacket.PacketSource
	linkType int
	filter   PcapFilter

	skipped   int
	closeOnce sync.Once
}

// OpenPcap opens a usbmon capture file.
// This function is only available when building with the 'pcap' build tag.
func OpenPcap(path string, filter PcapFilter) (*PcapSource, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCAP file %s: %w", path, err)
	}

	linkType := handle.LinkType()
	if linkType != layers.LinkType(LinkTypeUSBLinux) && linkType != layers.LinkType(LinkTypeUSBLinuxMmapped) {
		handle.Close()
		return nil, fmt.Errorf("%s: %w: %s", path, ErrUnsupportedLinkType, linkType)
	}

	packets := gopacket.NewPacketSource(handle, gopacket.DecodePayload)
	packets.NoCopy = true
	monitoring.Logf("PCAP replay of %s (link type %d, filter %+v)", path, int(linkType), filter)

	return &PcapSource{
		handle:   handle,
		packets:  packets,
		linkType: int(linkType),
		filter:   filter,
	}, nil
}

// ReadReport returns the payload of the next matching transfer, or io.EOF
// at the end of the capture.
func (s *PcapSource) ReadReport(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		packet, err := s.packets.NextPacket()
		if errors.Is(err, io.EOF) {
			if s.skipped > 0 {
				monitoring.Debugf("PCAP replay skipped %d non-report packets", s.skipped)
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("pcap read: %w", err)
		}

		p, err := DecodeUsbmon(packet.Data(), s.linkType)
		if err != nil {
			s.skipped++
			continue
		}
		if !p.Report() || !s.filter.Match(p) {
			s.skipped++
			continue
		}
		return p.Payload, nil
	}
}

// Close closes the capture.
func (s *PcapSource) Close() error {
	s.closeOnce.Do(s.handle.Close)
	return nil
}
