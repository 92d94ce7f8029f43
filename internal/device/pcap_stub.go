//go:build !pcap
// +build !pcap

package device

import (
	"context"
	"fmt"
)

// PcapSource is unavailable without the pcap build tag.
type PcapSource struct{}

// OpenPcap is a stub implementation when PCAP support is disabled
// Build with -tags=pcap to enable PCAP file reading
func OpenPcap(path string, filter PcapFilter) (*PcapSource, error) {
	return nil, fmt.Errorf("PCAP support not enabled: rebuild with -tags=pcap to enable PCAP file reading")
}

func (s *PcapSource) ReadReport(ctx context.Context) ([]byte, error) {
	return nil, ErrClosed
}

func (s *PcapSource) Close() error { return nil }
