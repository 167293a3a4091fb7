package identity

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/preetidudam/EDI-Project/interfaces"
)

var (
	ownerA = common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
	ownerB = common.HexToAddress("0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2")
)

func mustDerive(t *testing.T, owner common.Address, name string) interfaces.DeviceID {
	t.Helper()
	id, ok := DeriveDeviceID(owner, name)
	require.True(t, ok)
	return id
}

func TestDeriveDeviceID_KnownVectors(t *testing.T) {
	cases := []struct {
		owner common.Address
		name  string
		want  string
	}{
		{ownerA, "Weather Sensor", "0x634b4ec1fdef2f32decfd53ff51009f9180edb5228844ba48536563ecaf59429"},
		{ownerA, "Thermostat", "0xbe010ad0f5153d55ef82c840c1e2b4a1cb58c1802e1e9b7039c1a7a99e7f394f"},
		{ownerB, "Weather Sensor", "0x8e051bcb2ed3bd8a1a6aef14b6748ee7102e05d7b0a2bdb1d3c64bc8dea3bbef"},
		{ownerA, "Température ☀", "0xdcc90351b218edc7a651f09fca337a93e5ce70658820d3e944d754bb0e8cbd60"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, mustDerive(t, tc.owner, tc.name).Hex())
		})
	}
}

func TestDeriveDeviceID_MatchesPackedKeccak(t *testing.T) {
	for _, name := range []string{"a", "Weather Sensor", " padded ", "名前"} {
		h := sha3.NewLegacyKeccak256()
		h.Write(ownerB.Bytes())
		h.Write([]byte(name))

		var want [32]byte
		copy(want[:], h.Sum(nil))
		require.Equal(t, want, [32]byte(mustDerive(t, ownerB, name)), "name %q", name)
	}
}

func TestDeriveDeviceID_EmptyInputs(t *testing.T) {
	_, ok := DeriveDeviceID(common.Address{}, "Weather Sensor")
	require.False(t, ok)

	_, ok = DeriveDeviceID(ownerA, "")
	require.False(t, ok)
}

func TestDeriveDeviceID_Deterministic(t *testing.T) {
	first := mustDerive(t, ownerA, "Weather Sensor")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, mustDerive(t, ownerA, "Weather Sensor"))
	}
}

func TestDeriveDeviceID_Distinct(t *testing.T) {
	base := mustDerive(t, ownerA, "Weather Sensor")
	require.NotEqual(t, base, mustDerive(t, ownerA, "Thermostat"))
	require.NotEqual(t, base, mustDerive(t, ownerB, "Weather Sensor"))
	// names are hashed as given
	require.NotEqual(t, base, mustDerive(t, ownerA, "Weather Sensor "))
	require.NotEqual(t, base, mustDerive(t, ownerA, "weather sensor"))
}

func TestDeriveFromHex(t *testing.T) {
	id, ok := DeriveFromHex("0x5b38da6a701c568545dcfcb03fcb875f56beddc4", "Weather Sensor")
	require.True(t, ok)
	require.Equal(t, mustDerive(t, ownerA, "Weather Sensor"), id)

	_, ok = DeriveFromHex("0x1234", "Weather Sensor")
	require.False(t, ok)

	_, ok = DeriveFromHex("not an address", "Weather Sensor")
	require.False(t, ok)

	_, ok = DeriveFromHex("0x5b38da6a701c568545dcfcb03fcb875f56beddc4", "")
	require.False(t, ok)
}
