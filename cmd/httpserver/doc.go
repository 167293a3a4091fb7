// Package main (cmd/httpserver) serves the device registry session API.
//
// The server holds one wallet session, backed either by a go-ethereum keystore
// and an RPC node or, with --in-memory, by an in-process ledger and a key-less
// development wallet. Prometheus metrics are served on --metrics-addr.
//
// When mqtt.enabled is set in the config file, or REGISTRY_MQTT_BROKER is set,
// confirmed registrations and session changes are also published to the broker
// as retained messages.
//
// Example:
//
//	registry-server --config registry.yaml --keystore ./keystore --password-file ./pass.txt
//	registry-server --in-memory --registry-contract 0x00000000000000000000000000000000000d1d10
package main
