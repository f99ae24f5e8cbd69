/*Package sacn is a sACN (ANSI E1.31) receiver bridge. The standard can be obtained here: http://tsp.esta.org/tsp/documents/docs/E1-31-2016.pdf

The Bridge takes received datagrams one at a time and drives up to MaxPorts output ports through
a Sink. The packet parsing lives in the packets package.

Receiving

Each output port listens on one universe. Up to two sources may send to the same universe at the same
time. The receiver checks for out-of-order packets (inspecting the sequence number), sorts for
priority and merges two sources either HTP (highest value per channel) or LTP (last source wins).
A third source is dropped and counted as a source conflict, it never brings the bridge down.

Sources that stop sending are removed after the merge timeout. A lower priority source may take over
after the priority timeout. If no packet arrives at all for the network data loss timeout, every
port is stopped.

Synchronization

Sources that send a synchronization address are tracked per source slot. Once sync packets arrive,
data for those sources is held back until the sync packet with the matching address is received.
Synchronization can be turned off with SetDisableSynchronize.

Multicast

ReceiverSocket joins the multicast groups the bridge needs. Depending on your operating system, you
might can provide nil as an interface, sometimes you have to use a dedicated interface, to get
multicast working. Windows needs an interface and Linux generally not.

Note that the network infrastructure has to be multicast ready and that on some networks the delay of
packets will increase. Also the packet loss can be higher if multicast is chosen
(This is often a problem when WLAN is used). This can cause unintentional timeouts, if the sources
are only transmitting every 2 seconds (like grandMA2 consoles).

Example

	package main

	import (
		"context"
		"log"

		"github.com/Hundemeier/go-sacn/sacn"
	)

	func main() {
		socket, err := sacn.NewReceiverSocket("", nil)
		if err != nil {
			log.Fatal(err)
		}
		defer socket.Close()

		bridge := sacn.NewBridge(sacn.Options{Sink: mySink, Groups: socket})
		bridge.SetUniverse(0, sacn.DirectionOutput, 1)
		bridge.SetDirection(0, sacn.DirectionOutput)

		log.Fatal(sacn.Serve(context.Background(), socket, bridge, sacn.NewMonotonicClock(), nil))
	}

Transmitting

The Transmitter sends data and sync packets, e.g. to test a bridge. There are two different types of
addressing the receiver: unicast and multicast. You can use both at the same time and any number of
unicast addresses.*/
package sacn
