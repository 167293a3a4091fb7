/*
Package httpserver exposes a session manager over HTTP.

# Session

	POST /api/session/connect      request wallet access and attach the registry
	POST /api/session/disconnect   clear the session
	GET  /api/session              current session and whether the registry is configured
	GET  /api/session/events       server-sent events, one per manager Event

# Devices

	GET  /api/devices              load the active account's devices
	GET  /api/devices/{device_id}  fetch one device and make it the selected device
	POST /api/devices              register {"name": "..."}; 201 with the registration
	GET  /api/derive               preview an id: ?name=...[&owner=0x...]

Errors are JSON objects {"kind": "...", "message": "..."}. The message is safe
to show to a user; the status code follows the kind.

# Health

	GET /livez, /readyz, /drain, /undrain

/readyz also reports whether a registry contract is configured. While drained,
connect and register answer 503 TransientFailure; reads keep working.

pprof is mounted under /debug when enabled. Metrics are served on a separate
listener.
*/
package httpserver
