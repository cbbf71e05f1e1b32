package protocol

import (
	"io"

	"github.com/google/uuid"
)

// SpawnEntity represents the S2C Spawn Entity packet (0x01).
type SpawnEntity struct {
	EntityID   int32
	ObjectUUID uuid.UUID
	Type       int32
	TypeName   string
	X          float64
	Y          float64
	Z          float64
	Pitch      int8
	Yaw        int8
	HeadYaw    int8
	Data       int32
	VelocityX  int16
	VelocityY  int16
	VelocityZ  int16
}

func ParseSpawnEntity(r io.Reader) (*SpawnEntity, error) {
	const name = "spawn entity"
	var (
		e   SpawnEntity
		err error
	)
	if e.EntityID, err = ReadVarint(r); err != nil {
		return nil, fieldErr(name, "entity id", err)
	}
	if e.ObjectUUID, err = ReadUUID(r); err != nil {
		return nil, fieldErr(name, "uuid", err)
	}
	if e.Type, err = ReadVarint(r); err != nil {
		return nil, fieldErr(name, "type", err)
	}
	e.TypeName = EntityTypeName(e.Type)
	if e.X, e.Y, e.Z, err = readPosition(r); err != nil {
		return nil, fieldErr(name, "position", err)
	}
	if e.Pitch, err = ReadAngle(r); err != nil {
		return nil, fieldErr(name, "pitch", err)
	}
	if e.Yaw, err = ReadAngle(r); err != nil {
		return nil, fieldErr(name, "yaw", err)
	}
	if e.HeadYaw, err = ReadAngle(r); err != nil {
		return nil, fieldErr(name, "head yaw", err)
	}
	if e.Data, err = ReadVarint(r); err != nil {
		return nil, fieldErr(name, "data", err)
	}
	if e.VelocityX, err = ReadInt16(r); err != nil {
		return nil, fieldErr(name, "velocity x", err)
	}
	if e.VelocityY, err = ReadInt16(r); err != nil {
		return nil, fieldErr(name, "velocity y", err)
	}
	if e.VelocityZ, err = ReadInt16(r); err != nil {
		return nil, fieldErr(name, "velocity z", err)
	}
	return &e, nil
}

// SpawnPlayer represents the S2C Spawn Player packet (0x03).
type SpawnPlayer struct {
	EntityID   int32
	PlayerUUID uuid.UUID
	X          float64
	Y          float64
	Z          float64
	Yaw        int8
	Pitch      int8
}

func ParseSpawnPlayer(r io.Reader) (*SpawnPlayer, error) {
	const name = "spawn player"
	var (
		p   SpawnPlayer
		err error
	)
	if p.EntityID, err = ReadVarint(r); err != nil {
		return nil, fieldErr(name, "entity id", err)
	}
	if p.PlayerUUID, err = ReadUUID(r); err != nil {
		return nil, fieldErr(name, "uuid", err)
	}
	if p.X, p.Y, p.Z, err = readPosition(r); err != nil {
		return nil, fieldErr(name, "position", err)
	}
	if p.Yaw, err = ReadAngle(r); err != nil {
		return nil, fieldErr(name, "yaw", err)
	}
	if p.Pitch, err = ReadAngle(r); err != nil {
		return nil, fieldErr(name, "pitch", err)
	}
	return &p, nil
}

// EntityAnimation represents the S2C Entity Animation packet (0x04).
type EntityAnimation struct {
	EntityID  int32
	Animation uint8
	Name      string
}

func ParseEntityAnimation(r io.Reader) (*EntityAnimation, error) {
	entityID, err := ReadVarint(r)
	if err != nil {
		return nil, fieldErr("entity animation", "entity id", err)
	}
	animation, err := ReadByte(r)
	if err != nil {
		return nil, fieldErr("entity animation", "animation", err)
	}
	return &EntityAnimation{
		EntityID:  entityID,
		Animation: animation,
		Name:      AnimationName(animation),
	}, nil
}

func readPosition(r io.Reader) (x, y, z float64, err error) {
	if x, err = ReadDouble(r); err != nil {
		return
	}
	if y, err = ReadDouble(r); err != nil {
		return
	}
	z, err = ReadDouble(r)
	return
}
