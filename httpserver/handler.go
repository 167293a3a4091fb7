package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/identity"
	"github.com/preetidudam/EDI-Project/interfaces"
	"github.com/preetidudam/EDI-Project/session"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler serves the session and device API on top of a session.Manager.
type Handler struct {
	manager *session.Manager
	log     *slog.Logger
	// audit records every state-changing request.
	audit *zap.Logger
}

// NewHandler creates a handler. A nil audit logger disables the audit trail.
func NewHandler(manager *session.Manager, log *slog.Logger, audit *zap.Logger) *Handler {
	if audit == nil {
		audit = zap.NewNop()
	}
	return &Handler{manager: manager, log: log, audit: audit}
}

// SessionResponse describes the current session.
type SessionResponse struct {
	Session            session.Session `json:"session"`
	ContractConfigured bool            `json:"contractConfigured"`
}

// RegisterRequest is the body of POST /api/devices.
type RegisterRequest struct {
	Name string `json:"name"`
}

// DeriveResponse is the body of GET /api/derive.
type DeriveResponse struct {
	Owner    common.Address      `json:"owner"`
	Name     string              `json:"name"`
	DeviceID interfaces.DeviceID `json:"deviceId"`
	Scheme   string              `json:"scheme"`
}

func (h *Handler) sessionResponse() SessionResponse {
	return SessionResponse{Session: h.manager.Session(), ContractConfigured: h.manager.ContractConfigured()}
}

func (h *Handler) respond(w http.ResponseWriter, status int, v interface{}) {
	if err := writeJSON(w, status, v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleConnect requests account access from the wallet.
//
// URL format: POST /api/session/connect
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Connect(r.Context())
	if err != nil {
		h.audit.Warn("connect failed", zap.String("kind", errclass.KindOf(err).String()))
		h.writeError(w, err)
		return
	}

	h.audit.Info("connected",
		zap.String("account", s.Account.Hex()),
		zap.Uint64("generation", s.Generation))
	h.respond(w, http.StatusOK, h.sessionResponse())
}

// HandleDisconnect clears the session.
//
// URL format: POST /api/session/disconnect
func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	h.manager.Disconnect()
	h.audit.Info("disconnected", zap.Uint64("generation", h.manager.Session().Generation))
	h.respond(w, http.StatusOK, h.sessionResponse())
}

// HandleSession returns the current session.
//
// URL format: GET /api/session
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.sessionResponse())
}

// HandleListDevices loads the active account's devices.
//
// URL format: GET /api/devices
func (h *Handler) HandleListDevices(w http.ResponseWriter, r *http.Request) {
	listing, err := h.manager.LoadMyDevices(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, listing)
}

// HandleGetDevice fetches one device by its hex identifier.
//
// URL format: GET /api/devices/{device_id}
func (h *Handler) HandleGetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.manager.LookupDevice(r.Context(), chi.URLParam(r, "device_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, device)
}

// HandleRegister registers a device under the active account and waits for
// confirmation.
//
// URL format: POST /api/devices
// Request body: {"name": "Weather Sensor"}
// Response: 201 with the registration
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.log.Error("Failed to read request body", "err", err)
		h.writeError(w, errclass.Wrap(errclass.KindInvalidInput, err))
		return
	}

	var req RegisterRequest
	if err := json.Unmarshal(body, &req); err != nil {
		e := errclass.Wrap(errclass.KindInvalidInput, err)
		e.Message = "Request body must be a JSON object with a name."
		h.writeError(w, e)
		return
	}

	reg, err := h.manager.RegisterDevice(r.Context(), req.Name)
	if err != nil {
		h.audit.Warn("registration failed",
			zap.String("name", req.Name),
			zap.String("kind", errclass.KindOf(err).String()))
		h.writeError(w, err)
		return
	}

	h.audit.Info("device registered",
		zap.String("deviceId", reg.DeviceID.Hex()),
		zap.String("account", reg.Account.Hex()),
		zap.String("txHash", reg.TxHash.Hex()),
		zap.Stringer("resolution", reg.Resolution),
		zap.Bool("stale", reg.Stale))
	h.respond(w, http.StatusCreated, reg)
}

// HandleDerive previews the identifier a registration would produce. Without
// an owner parameter the active account is used.
//
// URL format: GET /api/derive?name=...&owner=0x...
func (h *Handler) HandleDerive(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	ownerHex := r.URL.Query().Get("owner")

	owner := h.manager.Session().Account
	if ownerHex != "" {
		if !common.IsHexAddress(ownerHex) {
			e := errclass.New(errclass.KindInvalidInput)
			e.Message = "Owner must be a 20-byte hex address."
			h.writeError(w, e)
			return
		}
		owner = common.HexToAddress(ownerHex)
	}

	id, ok := identity.DeriveDeviceID(owner, name)
	if !ok {
		e := errclass.New(errclass.KindInvalidInput)
		e.Message = "An owner and a non-empty name are required."
		h.writeError(w, e)
		return
	}

	h.respond(w, http.StatusOK, DeriveResponse{Owner: owner, Name: name, DeviceID: id, Scheme: identity.SchemeV1})
}

// HandleEvents streams manager events as server-sent events until the client
// goes away.
//
// URL format: GET /api/session/events
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, errors.New("streaming unsupported"))
		return
	}

	clientID := uuid.NewString()
	log := h.log.With("client", clientID)

	// the stream outlives the server's write timeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Warn("Could not clear write deadline", "err", err)
	}

	events := make(chan session.Event, 32)
	sub := h.manager.Subscribe(events)
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	log.Debug("Event stream opened")

	var seq uint64
	for {
		select {
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error("Failed to encode event", "err", err)
				continue
			}
			seq++
			if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, ev.Kind, data); err != nil {
				log.Debug("Event stream write failed", "err", err)
				return
			}
			flusher.Flush()
		case <-sub.Err():
			return
		case <-r.Context().Done():
			log.Debug("Event stream closed")
			return
		}
	}
}
