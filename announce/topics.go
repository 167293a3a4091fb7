package announce

import (
	"strings"

	"github.com/preetidudam/EDI-Project/interfaces"
)

// Topics builds the announcement topic tree under a prefix.
//
//	<prefix>/devices/<deviceId>/registered   retained registration record
//	<prefix>/session/status                  retained session state, LWT "offline"
type Topics struct {
	Prefix string
}

func (t Topics) join(parts ...string) string {
	prefix := strings.TrimSuffix(t.Prefix, "/")
	if prefix == "" {
		return strings.Join(parts, "/")
	}
	return prefix + "/" + strings.Join(parts, "/")
}

// DeviceRegistered is the retained topic for one device.
func (t Topics) DeviceRegistered(id interfaces.DeviceID) string {
	return t.join("devices", id.Hex(), "registered")
}

// SessionStatus is the retained topic for the session state.
func (t Topics) SessionStatus() string {
	return t.join("session", "status")
}
