// Package link carries voice timer requests over a byte stream.
//
// On the device the stream is a BLE serial characteristic; on a host it is
// any net.Conn. Each packet is a 2-byte big-endian length followed by a CBOR
// envelope from package wire. Packets are limited to 512 bytes.
//
// The Server answers every decodable request with a Response and pushes
// Notifications to all sessions when timers expire, finish ringing or are
// changed by another session. The Client correlates responses by MessageID.
//
// Devices on the local network can be found over mDNS: Advertise publishes
// the listener as _voicetimer._tcp and Browse finds it.
package link
