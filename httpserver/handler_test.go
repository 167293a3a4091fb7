package httpserver

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/registry"
	"github.com/preetidudam/EDI-Project/session"
	"github.com/preetidudam/EDI-Project/wallet"
)

var (
	registryAddr = common.HexToAddress("0x00000000000000000000000000000000000d1d10")
	accountA     = common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
)

const weatherSensorA = "0x634b4ec1fdef2f32decfd53ff51009f9180edb5228844ba48536563ecaf59429"

type testEnv struct {
	ledger  *registry.MemoryLedger
	manager *session.Manager
	audit   *observer.ObservedLogs
	router  http.Handler
	server  *Server
}

func newTestEnv(t *testing.T, contract common.Address, accounts ...string) *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ledger := registry.NewMemoryLedger(registryAddr)
	manager := session.New(session.ManagerConfig{
		Provider: wallet.NewMemoryProvider(accounts...),
		Registry: contract,
		Factory:  ledger,
		Log:      logger,
	})
	t.Cleanup(manager.Close)

	core, audit := observer.New(zapcore.InfoLevel)
	handler := NewHandler(manager, logger, zap.New(core))

	srv, err := New(&HTTPServerConfig{Log: logger, DrainDuration: time.Millisecond}, handler, nil)
	require.NoError(t, err)

	return &testEnv{ledger: ledger, manager: manager, audit: audit, router: srv.Handler(), server: srv}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, registryAddr, accountA.Hex())

	rr := env.do(t, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"session":{"account":null,"usable":false,"generation":0},"contractConfigured":true}`, rr.Body.String())

	rr = env.do(t, http.MethodPost, "/api/session/connect", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"session":{"account":"0x5b38da6a701c568545dcfcb03fcb875f56beddc4","usable":true,"generation":1},"contractConfigured":true}`, rr.Body.String())

	rr = env.do(t, http.MethodPost, "/api/session/disconnect", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"account":null`)

	assert.Equal(t, 1, env.audit.FilterMessage("connected").Len())
	assert.Equal(t, 1, env.audit.FilterMessage("disconnected").Len())
}

func TestConnectErrors(t *testing.T) {
	t.Run("unconfigured contract", func(t *testing.T) {
		env := newTestEnv(t, common.Address{}, accountA.Hex())
		rr := env.do(t, http.MethodPost, "/api/session/connect", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "ConfigurationError", body["kind"])
		assert.Equal(t, errclass.KindConfigurationError.DefaultMessage(), body["message"])
	})

	t.Run("no accounts", func(t *testing.T) {
		env := newTestEnv(t, registryAddr)
		rr := env.do(t, http.MethodPost, "/api/session/connect", "")
		assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
		assert.Equal(t, "NoAccountsAvailable", decodeError(t, rr)["kind"])
		assert.Equal(t, 1, env.audit.FilterMessage("connect failed").Len())
	})
}

func TestRegisterAndFetch(t *testing.T) {
	env := newTestEnv(t, registryAddr, accountA.Hex())
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/session/connect", "").Code)

	rr := env.do(t, http.MethodPost, "/api/devices", `{"name":"Weather Sensor"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var reg map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reg))
	assert.Equal(t, weatherSensorA, reg["deviceId"])
	assert.Equal(t, "event", reg["resolution"])
	assert.Equal(t, false, reg["stale"])
	assert.NotEmpty(t, reg["txHash"])

	entries := env.audit.FilterMessage("device registered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, weatherSensorA, entries[0].ContextMap()["deviceId"])

	rr = env.do(t, http.MethodGet, "/api/devices/"+weatherSensorA, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var device map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &device))
	assert.Equal(t, "Weather Sensor", device["name"])
	assert.Equal(t, weatherSensorA, device["deviceId"])

	rr = env.do(t, http.MethodGet, "/api/devices", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var listing struct {
		Devices []map[string]interface{} `json:"devices"`
		Stale   bool                     `json:"stale"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	require.Len(t, listing.Devices, 1)
	assert.False(t, listing.Stale)

	rr = env.do(t, http.MethodPost, "/api/devices", `{"name":"Weather Sensor"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "DuplicateDevice", decodeError(t, rr)["kind"])
}

func TestRegisterErrors(t *testing.T) {
	env := newTestEnv(t, registryAddr, accountA.Hex())

	rr := env.do(t, http.MethodPost, "/api/devices", `{"name":"Weather Sensor"}`)
	assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
	body := decodeError(t, rr)
	assert.Equal(t, "NotConnected", body["kind"])
	assert.Equal(t, "Connect your wallet first.", body["message"])

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/session/connect", "").Code)

	rr = env.do(t, http.MethodPost, "/api/devices", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Device name cannot be empty.", decodeError(t, rr)["message"])

	rr = env.do(t, http.MethodPost, "/api/devices", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "InvalidInput", decodeError(t, rr)["kind"])

	assert.Equal(t, 0, env.ledger.Calls())
}

func TestGetDeviceErrors(t *testing.T) {
	env := newTestEnv(t, registryAddr, accountA.Hex())
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/session/connect", "").Code)

	rr := env.do(t, http.MethodGet, "/api/devices/"+weatherSensorA, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Device not found. Check the ID and try again.", decodeError(t, rr)["message"])

	rr = env.do(t, http.MethodGet, "/api/devices/0x1234", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDerive(t *testing.T) {
	env := newTestEnv(t, registryAddr, accountA.Hex())

	rr := env.do(t, http.MethodGet, "/api/derive?owner="+accountA.Hex()+"&name=Weather%20Sensor", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, weatherSensorA, resp["deviceId"])

	rr = env.do(t, http.MethodGet, "/api/derive?name=Weather%20Sensor", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/session/connect", "").Code)
	rr = env.do(t, http.MethodGet, "/api/derive?name=Weather%20Sensor", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, weatherSensorA, resp["deviceId"])

	rr = env.do(t, http.MethodGet, "/api/derive?owner=nope&name=x", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t, registryAddr, accountA.Hex())
	ts := httptest.NewServer(env.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/session/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	connect, err := http.Post(ts.URL+"/api/session/connect", "application/json", nil)
	require.NoError(t, err)
	connect.Body.Close()
	require.Equal(t, http.StatusOK, connect.StatusCode)

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream ended early")
			if line == "event: account_changed" {
				return
			}
		case <-timeout:
			t.Fatal("no account_changed event received")
		}
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(errclass.KindInvalidInput))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(errclass.KindUserRejected))
	assert.Equal(t, http.StatusConflict, StatusFor(errclass.KindOperationInProgress))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(errclass.KindReconnectFailed))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errclass.KindUnknownFailure))
}
