// Package osc implements the Open Sound Control 1.0 wire format over UDP
// and a message bus that bridges network arrivals to host callbacks.
//
// This implementation follows the Open Sound Control 1.0 Specification
// (http://opensoundcontrol.org/spec-1_0.html) for single messages. Bundles
// and TCP transport are out of scope.
//
// Supported argument type tags:
//
//	'i' (int32)
//	'f' (float32)
//	's' (string)
//	'T'/'F' (bool)
//	'd' (float64)
//	'h' (int64)
//	'b' (blob)
//
// Inbound datagrams are decoded on a dedicated receive goroutine and pushed
// onto an arrival queue. Handlers never run there: the host calls Pump on
// its own goroutine, which drains the queue and invokes every matching
// handler in registration order.
//
// Sending:
//
//	d, err := osc.NewDispatcher(osc.DefaultConfig())
//	if err != nil { ... }
//	d.Send("/synth/freq", int32(440), float32(0.8))
//
// Receiving:
//
//	d.RegisterHandler("/input/button/*", func(msg *osc.Message) {
//		fmt.Println(msg)
//	})
//	for range time.Tick(10 * time.Millisecond) {
//		d.Pump()
//	}
//
// Address patterns support the OSC 1.0 syntax ('?', '*', '[...]', '{a,b}',
// with '*' and '?' confined to one address segment), plus the single
// literal pattern "*" matching every address.
package osc
