package session

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/interfaces"
)

// Query issues read-only registry calls. Both operations are idempotent and
// may be retried freely.
type Query struct{}

// GetDevice reads one device. A zero identifier, a revert and an empty record
// are all reported as NotFound.
func (Query) GetDevice(ctx context.Context, handle interfaces.DeviceRegistry, id interfaces.DeviceID) (interfaces.Device, error) {
	if handle == nil {
		return interfaces.Device{}, errclass.New(errclass.KindNotConnected)
	}
	if id.IsZero() {
		return interfaces.Device{}, errclass.New(errclass.KindNotFound)
	}

	device, err := handle.GetDeviceDetails(ctx, id)
	if err != nil {
		classified := errclass.ClassifyError(err)
		if classified.Kind == errclass.KindUnknownFailure && errclass.IsRevert(err) {
			return interfaces.Device{}, errclass.Wrap(errclass.KindNotFound, err)
		}
		return interfaces.Device{}, classified
	}
	if device.Owner == (common.Address{}) {
		return interfaces.Device{}, errclass.New(errclass.KindNotFound)
	}
	return device, nil
}

// ListOwned reads every device owned by the handle's account. The result is
// never nil; an empty list is a valid answer.
func (Query) ListOwned(ctx context.Context, handle interfaces.DeviceRegistry) ([]interfaces.Device, error) {
	if handle == nil {
		return nil, errclass.New(errclass.KindNotConnected)
	}

	devices, err := handle.GetAllMyDevices(ctx)
	if err != nil {
		return nil, errclass.ClassifyError(err)
	}
	if devices == nil {
		devices = []interfaces.Device{}
	}
	return devices, nil
}
