/*
Command devicectl registers and looks up devices in the device registry.

	devicectl derive --owner 0x5B38Da6a701c568545dCfcB03FcB875f56beddC4 --name "Weather Sensor"
	devicectl --keystore ~/.ethereum/keystore --registry-contract 0x... register --name "Weather Sensor"
	devicectl --keystore ~/.ethereum/keystore --registry-contract 0x... devices

	devicectl --server http://127.0.0.1:8080 register --name "Weather Sensor"

With --server the commands go through a running registry-server and use its
wallet session instead of opening one locally.

Every command prints JSON on stdout. The registry address can also come from
REGISTRY_CONTRACT_ADDRESS or the config file.
*/
package main
