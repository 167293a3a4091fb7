package clients

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/httpserver"
	"github.com/preetidudam/EDI-Project/registry"
	"github.com/preetidudam/EDI-Project/session"
	"github.com/preetidudam/EDI-Project/wallet"
)

var (
	registryAddr = common.HexToAddress("0x00000000000000000000000000000000000d1d10")
	accountA     = common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
)

const weatherSensorA = "0x634b4ec1fdef2f32decfd53ff51009f9180edb5228844ba48536563ecaf59429"

func newTestClient(t *testing.T, accounts ...string) (*SessionClient, *registry.MemoryLedger) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ledger := registry.NewMemoryLedger(registryAddr)
	manager := session.New(session.ManagerConfig{
		Provider: wallet.NewMemoryProvider(accounts...),
		Registry: registryAddr,
		Factory:  ledger,
		Log:      logger,
	})
	t.Cleanup(manager.Close)

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{Log: logger, DrainDuration: time.Millisecond}, httpserver.NewHandler(manager, logger, nil), nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &SessionClient{ServerAddr: ts.URL, HTTPClient: ts.Client()}, ledger
}

func TestSessionClientRoundTrip(t *testing.T) {
	client, ledger := newTestClient(t, accountA.Hex())
	ctx := context.Background()

	resp, err := client.EnsureConnected(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp.Session.Account)
	assert.Equal(t, accountA, *resp.Session.Account)
	assert.True(t, resp.Session.Usable)
	assert.True(t, resp.ContractConfigured)

	reg, err := client.Register(ctx, "Weather Sensor")
	require.NoError(t, err)
	assert.Equal(t, weatherSensorA, reg.DeviceID.Hex())
	assert.Equal(t, session.ResolvedFromEvent, reg.Resolution)
	assert.Equal(t, accountA, reg.Account)
	assert.False(t, reg.Stale)
	assert.Len(t, ledger.Devices(), 1)

	listing, err := client.Devices(ctx)
	require.NoError(t, err)
	assert.Equal(t, accountA, listing.Account)
	require.Len(t, listing.Devices, 1)
	assert.Equal(t, "Weather Sensor", listing.Devices[0].Name)

	device, err := client.Device(ctx, weatherSensorA)
	require.NoError(t, err)
	assert.Equal(t, accountA, device.Owner)

	derived, err := client.Derive(ctx, "", "Weather Sensor")
	require.NoError(t, err)
	assert.Equal(t, weatherSensorA, derived.DeviceID.Hex())

	cleared, err := client.Disconnect(ctx)
	require.NoError(t, err)
	assert.Nil(t, cleared.Session.Account)
	assert.False(t, cleared.Session.Usable)
}

func TestSessionClientErrors(t *testing.T) {
	client, _ := newTestClient(t, accountA.Hex())
	ctx := context.Background()

	_, err := client.Devices(ctx)
	assert.ErrorIs(t, err, errclass.ErrNotConnected)

	_, err = client.Connect(ctx)
	require.NoError(t, err)

	_, err = client.Register(ctx, "Weather Sensor")
	require.NoError(t, err)
	_, err = client.Register(ctx, "Weather Sensor")
	assert.ErrorIs(t, err, errclass.ErrDuplicateDevice)

	_, err = client.Register(ctx, "")
	assert.ErrorIs(t, err, errclass.ErrInvalidInput)

	_, err = client.Device(ctx, "0x"+weatherSensorA[4:])
	assert.ErrorIs(t, err, errclass.ErrNotFound)

	var classified *errclass.Error
	require.ErrorAs(t, err, &classified)
	assert.NotEmpty(t, classified.Message)
}

func TestSessionClientNoAccounts(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.EnsureConnected(context.Background())
	assert.ErrorIs(t, err, errclass.ErrNoAccountsAvailable)
}

func TestSessionClientUnexpectedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer ts.Close()

	client := &SessionClient{ServerAddr: ts.URL}
	_, err := client.Session(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	var classified *errclass.Error
	assert.False(t, errors.As(err, &classified))
}
