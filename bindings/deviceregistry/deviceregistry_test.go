package deviceregistry

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestDeviceRegisteredTopic(t *testing.T) {
	parsed, err := DeviceRegistryMetaData.GetAbi()
	require.NoError(t, err)

	ev, ok := parsed.Events[DeviceRegisteredEventName]
	require.True(t, ok)
	require.Equal(t, common.HexToHash("0x3c127575a1a414a6c6a0e28ae10d8401f8b5322057b2dc4295d1e8fcf4d1074b"), ev.ID)
}

func TestParseDeviceRegistered(t *testing.T) {
	parsed, err := DeviceRegistryMetaData.GetAbi()
	require.NoError(t, err)
	ev := parsed.Events[DeviceRegisteredEventName]

	contract := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	owner := common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
	id := common.HexToHash("0x634b4ec1fdef2f32decfd53ff51009f9180edb5228844ba48536563ecaf59429")

	data, err := ev.Inputs.NonIndexed().Pack("Weather Sensor", big.NewInt(1700000000))
	require.NoError(t, err)

	log := types.Log{
		Address: contract,
		Topics:  []common.Hash{ev.ID, id, common.BytesToHash(owner.Bytes())},
		Data:    data,
	}

	filterer, err := NewDeviceRegistryFilterer(contract)
	require.NoError(t, err)

	out, err := filterer.ParseDeviceRegistered(log)
	require.NoError(t, err)
	require.Equal(t, [32]byte(id), out.DeviceId)
	require.Equal(t, owner, out.Owner)
	require.Equal(t, "Weather Sensor", out.Name)
	require.Equal(t, int64(1700000000), out.Timestamp.Int64())
	require.Equal(t, contract, out.Raw.Address)
}

func TestParseDeviceRegisteredRejectsForeignTopic(t *testing.T) {
	filterer, err := NewDeviceRegistryFilterer(common.Address{})
	require.NoError(t, err)

	_, err = filterer.ParseDeviceRegistered(types.Log{Topics: []common.Hash{common.HexToHash("0x01")}})
	require.Error(t, err)

	_, err = filterer.ParseDeviceRegistered(types.Log{})
	require.Error(t, err)
}
