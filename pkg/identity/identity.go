// Package identity derives the agent's stable self-identifier, the drone's
// analogue of the teacher's pipe-name hashing in crc.go — here the input is
// the control interface's hardware address rather than a string name, since
// the protocol's "from" field must stay stable across restarts.
package identity

import (
	"encoding/hex"
	"fmt"
	"net"
)

// DeriveID returns the lowercase hex MAC address of ifaceName, used
// unprefixed as the agent's wire identity in every outbound frame's "from"
// field. An unknown interface, or one without a hardware address (e.g. some
// tunnel devices), yields an error; the agent then runs with the empty
// string as its ID.
func DeriveID(ifaceName string) (string, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return "", fmt.Errorf("identity: lookup interface %q: %w", ifaceName, err)
	}
	if len(iface.HardwareAddr) == 0 {
		return "", fmt.Errorf("identity: interface %q has no hardware address", ifaceName)
	}
	return hex.EncodeToString(iface.HardwareAddr), nil
}

// Interface resolves ifaceName to a *net.Interface, the shared lookup used
// by both DeriveID and the multicast socket so the two never disagree on
// which interface is in play.
func Interface(ifaceName string) (*net.Interface, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("identity: lookup interface %q: %w", ifaceName, err)
	}
	return iface, nil
}
