/*
Package clients provides a client library for the registry session API served
by cmd/httpserver.

Failed calls return an *errclass.Error carrying the kind and message from the
server's error body, so callers can use errors.Is against the errclass
sentinels exactly as they would with a local session.Manager.

# Example Usage

	client := &clients.SessionClient{ServerAddr: "http://127.0.0.1:8080"}

	if _, err := client.Connect(ctx); err != nil {
	    return err
	}

	reg, err := client.Register(ctx, "Weather Sensor")
	if errors.Is(err, errclass.ErrDuplicateDevice) {
	    // already registered under this account
	}
*/
package clients
