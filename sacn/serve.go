package sacn

import (
	"context"
	"fmt"
	"net/netip"
)

//DatagramReader returns one datagram per call, or 0 bytes if none is pending
type DatagramReader interface {
	ReadDatagram(buf []byte) (int, netip.Addr, error)
}

//StatusFunc is called by Serve whenever the bridge reports a changed status
type StatusFunc func(State)

//Serve drives the bridge: it reads one datagram, samples the clock once, processes the datagram
//and runs the timeout checks, until ctx is done or reading fails.
func Serve(ctx context.Context, r DatagramReader, b *Bridge, clock Clock, onStatus StatusFunc) error {
	//an ethernet MTU, every valid packet fits
	buf := make([]byte, 1500)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, from, err := r.ReadDatagram(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read datagram: %w", err)
		}
		now := clock.NowMillis()
		if n > 0 {
			b.ProcessDatagram(now, from, buf[:n])
		}
		b.Tick(now)
		if b.StatusChanged() && onStatus != nil {
			onStatus(b.State())
		}
	}
}
