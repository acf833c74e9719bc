// Package uuid stores media identifiers as BINARY(16) while exposing the
// canonical 36-character form everywhere else.
package uuid

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

type UUID uuid.UUID

// Nil is the zero identifier.
var Nil UUID

func NewUUID() UUID {
	return UUID(uuid.New())
}

func Parse(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Nil, err
	}
	return UUID(id), nil
}

func (u UUID) IsZero() bool { return u == Nil }

func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// Scan accepts the 16 raw bytes of a BINARY(16) column or, for CHAR(36)
// columns and drivers that hand back text, the canonical string form.
func (u *UUID) Scan(src any) error {
	var (
		id  uuid.UUID
		err error
	)
	switch v := src.(type) {
	case []byte:
		if len(v) == 16 {
			id, err = uuid.FromBytes(v)
		} else {
			id, err = uuid.ParseBytes(v)
		}
	case string:
		id, err = uuid.Parse(v)
	default:
		return fmt.Errorf("cannot scan %T into UUID", src)
	}
	if err != nil {
		return fmt.Errorf("scan UUID: %w", err)
	}
	*u = UUID(id)
	return nil
}

func (u UUID) Value() (driver.Value, error) {
	b := uuid.UUID(u)
	return b[:], nil
}

func (u UUID) MarshalText() ([]byte, error) {
	return uuid.UUID(u).MarshalText()
}

func (u *UUID) UnmarshalText(text []byte) error {
	id, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*u = UUID(id)
	return nil
}
