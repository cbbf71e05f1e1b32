package session

import "github.com/Versifine/mcprobe/internal/protocol"

// Observer receives the decoded values a session produces. The session calls
// it synchronously, in packet order.
type Observer interface {
	CompressionEnabled(threshold int)
	LoginSucceeded(success *protocol.LoginSuccess)
	EntitySpawned(entity *protocol.SpawnEntity)
	PlayerSpawned(player *protocol.SpawnPlayer)
	EntityAnimated(animation *protocol.EntityAnimation)
	UnknownPacket(state protocol.State, packetID int32, count int)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) CompressionEnabled(int) {}
func (NopObserver) LoginSucceeded(*protocol.LoginSuccess) {}
func (NopObserver) EntitySpawned(*protocol.SpawnEntity) {}
func (NopObserver) PlayerSpawned(*protocol.SpawnPlayer) {}
func (NopObserver) EntityAnimated(*protocol.EntityAnimation) {}
func (NopObserver) UnknownPacket(protocol.State, int32, int) {}
