//sacnsend transmits a moving chase on one universe, e.g. to test sacnbridge.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/Hundemeier/go-sacn/packets"
	"github.com/Hundemeier/go-sacn/sacn"
)

type options struct {
	universe     uint16
	priority     uint8
	syncAddress  uint16
	cid          string
	name         string
	destinations []string
	multicast    bool
	ifiName      string
	bind         string
	rate         float64
	count        int
	channels     int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flagSet := pflag.NewFlagSet("sacnsend", pflag.ContinueOnError)
	flagSet.Uint16VarP(&opts.universe, "universe", "u", 1, "universe to send on")
	flagSet.Uint8VarP(&opts.priority, "priority", "p", packets.DefaultPriority, "priority of the source [0-200]")
	flagSet.Uint16Var(&opts.syncAddress, "sync", 0, "synchronization address, 0 sends unsynchronized")
	flagSet.StringVar(&opts.cid, "cid", "", "CID as UUID (default: random)")
	flagSet.StringVar(&opts.name, "name", "sacnsend", "source name")
	flagSet.StringSliceVarP(&opts.destinations, "dest", "d", nil, "unicast destinations, ip[:port]")
	flagSet.BoolVarP(&opts.multicast, "multicast", "m", false, "send via multicast")
	flagSet.StringVarP(&opts.ifiName, "interface", "i", "", "network interface for multicast")
	flagSet.StringVar(&opts.bind, "bind", "", "local address to send from")
	flagSet.Float64Var(&opts.rate, "rate", 30, "packets per second")
	flagSet.IntVarP(&opts.count, "count", "n", 0, "number of frames to send, 0 runs until interrupted")
	flagSet.IntVar(&opts.channels, "channels", packets.MaxChannels, "number of channels per packet")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.rate <= 0 {
		return fmt.Errorf("rate must be positive, got %v", opts.rate)
	}
	if opts.channels < 1 || opts.channels > packets.MaxChannels {
		return fmt.Errorf("channels out of range [1-%d]: %d", packets.MaxChannels, opts.channels)
	}
	if !opts.multicast && len(opts.destinations) == 0 {
		return errors.New("neither --multicast nor --dest given, nothing would be sent")
	}

	cid := uuid.New()
	if opts.cid != "" {
		var err error
		if cid, err = uuid.Parse(opts.cid); err != nil {
			return fmt.Errorf("parse cid: %w", err)
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var ifi *net.Interface
	if opts.ifiName != "" {
		var err error
		if ifi, err = net.InterfaceByName(opts.ifiName); err != nil {
			return fmt.Errorf("interface %q: %w", opts.ifiName, err)
		}
	}
	trans, err := sacn.NewTransmitter(opts.bind, ifi, cid, opts.name)
	if err != nil {
		return err
	}
	defer trans.Close()

	if err := trans.Activate(opts.universe, opts.priority, opts.syncAddress); err != nil {
		return err
	}
	trans.SetMulticast(opts.universe, opts.multicast)
	for _, err := range trans.SetDestinations(opts.universe, opts.destinations) {
		logger.Warn("skipping destination", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("sending", "universe", opts.universe, "cid", cid.String(), "priority", opts.priority,
		"sync", opts.syncAddress, "multicast", opts.multicast, "destinations", trans.Destinations(opts.universe))
	if err := chase(ctx, trans, opts); err != nil {
		return err
	}
	return trans.Terminate(opts.universe)
}

//chase moves a single full channel across the universe, one channel per frame
func chase(ctx context.Context, trans *sacn.Transmitter, opts options) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / opts.rate))
	defer ticker.Stop()

	data := make([]byte, opts.channels)
	for frame := 0; opts.count == 0 || frame < opts.count; frame++ {
		clear(data)
		data[frame%len(data)] = 0xff
		if err := trans.Send(opts.universe, data); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		if opts.syncAddress != 0 {
			if err := trans.SendSync(opts.syncAddress); err != nil {
				return fmt.Errorf("send sync: %w", err)
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
