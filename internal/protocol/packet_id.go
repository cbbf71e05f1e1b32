package protocol

// CurrentProtocolVersion is protocol 763 (1.20.1), the version these IDs belong to.
const CurrentProtocolVersion = 763

const (
	// Handshaking (C→S)
	C2SHandshake = 0x00

	// Status (C→S)
	C2SStatusRequest = 0x00
	C2SPingRequest   = 0x01

	// Status (S→C)
	S2CStatusResponse = 0x00
	S2CPingResponse   = 0x01

	// Login (C→S)
	C2SLoginStart          = 0x00
	C2SLoginPluginResponse = 0x02

	// Login (S→C)
	S2CLoginDisconnect    = 0x00
	S2CEncryptionRequest  = 0x01
	S2CLoginSuccess       = 0x02
	S2CSetCompression     = 0x03
	S2CLoginPluginRequest = 0x04

	// Play (S→C)
	S2CSpawnEntity     = 0x01
	S2CSpawnPlayer     = 0x03
	S2CEntityAnimation = 0x04
	S2CPlayDisconnect  = 0x1a
	S2CPlayKeepAlive   = 0x23

	// Play (C→S)
	C2SPlayKeepAlive = 0x12
)
