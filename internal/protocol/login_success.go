package protocol

import (
	"io"

	"github.com/google/uuid"
)

type LoginSuccess struct {
	UUID             uuid.UUID
	Username         string
	PropertiesLength int32
	Properties       []Property
}

type Property struct {
	Name      string
	Value     string
	Signature *string
}

func ParseLoginSuccess(r io.Reader) (*LoginSuccess, error) {
	id, err := ReadUUID(r)
	if err != nil {
		return nil, fieldErr("login success", "uuid", err)
	}
	username, err := ReadString(r)
	if err != nil {
		return nil, fieldErr("login success", "username", err)
	}
	propertiesLength, err := ReadVarint(r)
	if err != nil {
		return nil, fieldErr("login success", "property count", err)
	}
	if propertiesLength < 0 {
		return nil, fieldErr("login success", "property count", ErrNegativeLength)
	}
	properties := make([]Property, 0, min(propertiesLength, 16))
	for i := int32(0); i < propertiesLength; i++ {
		prop, err := ReadProperty(r)
		if err != nil {
			return nil, err
		}
		properties = append(properties, prop)
	}
	return &LoginSuccess{
		UUID:             id,
		Username:         username,
		PropertiesLength: propertiesLength,
		Properties:       properties,
	}, nil
}

func ReadProperty(r io.Reader) (Property, error) {
	name, err := ReadString(r)
	if err != nil {
		return Property{}, fieldErr("login success", "property name", err)
	}
	value, err := ReadString(r)
	if err != nil {
		return Property{}, fieldErr("login success", "property value", err)
	}
	hasSignature, err := ReadBool(r)
	if err != nil {
		return Property{}, fieldErr("login success", "property has-signature", err)
	}
	var signature *string
	if hasSignature {
		sig, err := ReadString(r)
		if err != nil {
			return Property{}, fieldErr("login success", "property signature", err)
		}
		signature = &sig
	}
	return Property{
		Name:      name,
		Value:     value,
		Signature: signature,
	}, nil
}
