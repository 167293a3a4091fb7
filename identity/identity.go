// Package identity derives device identifiers the same way the registry
// contract does, so a client can predict or recover an id without a ledger
// round trip.
package identity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/preetidudam/EDI-Project/interfaces"
)

// SchemeV1 names the derivation in use: keccak256(abi.encodePacked(owner, name)).
// The contract and this package must agree on it.
const SchemeV1 = "keccak256(address||utf8(name))"

// DeriveDeviceID returns keccak256 over the 20 raw owner bytes followed by the
// UTF-8 bytes of name, with no padding or length prefix. The name is used as
// given; no trimming or normalization happens here.
// It reports false, and hashes nothing, for the zero owner or an empty name.
func DeriveDeviceID(owner common.Address, name string) (interfaces.DeviceID, bool) {
	if owner == (common.Address{}) || name == "" {
		return interfaces.DeviceID{}, false
	}
	return interfaces.DeviceID(crypto.Keccak256Hash(owner.Bytes(), []byte(name))), true
}

// DeriveFromHex is DeriveDeviceID for a textual owner address. It reports
// false when owner is not a 20-byte hex address.
func DeriveFromHex(owner string, name string) (interfaces.DeviceID, bool) {
	if !common.IsHexAddress(owner) {
		return interfaces.DeviceID{}, false
	}
	return DeriveDeviceID(common.HexToAddress(owner), name)
}
