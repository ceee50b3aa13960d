package netdump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// DiscType is the one-byte disc classification in a disc info record.
type DiscType uint8

const (
	DiscTypeGameCube DiscType = iota
	DiscTypeWiiSingleSided
	DiscTypeWiiDoubleSided
)

func (t DiscType) String() string {
	switch t {
	case DiscTypeGameCube:
		return "GameCube"
	case DiscTypeWiiSingleSided:
		return "Wii Single-Sided"
	case DiscTypeWiiDoubleSided:
		return "Wii Double-Sided"
	}
	return fmt.Sprintf("invalid disc type %d", uint8(t))
}

func (t DiscType) MarshalJSON() ([]byte, error) {
	switch t {
	case DiscTypeGameCube:
		return json.Marshal("GC")
	case DiscTypeWiiSingleSided:
		return json.Marshal("WiiSingleSided")
	case DiscTypeWiiDoubleSided:
		return json.Marshal("WiiDoubleSided")
	}
	return nil, errors.Wrapf(ErrDecode, "disc type byte 0x%02x out of range", uint8(t))
}

// DiscInfo is the decoded disc metadata record.
type DiscInfo struct {
	DiscType     DiscType `json:"disc_type"`
	GameName     string   `json:"game_name"`
	InternalName string   `json:"internal_name"`
}

// Summary renders the record the way the interactive client prints it.
func (i *DiscInfo) Summary() string {
	return fmt.Sprintf("Disc Type: %v\nGame Name: %s\nInternal Name: %s\n",
		i.DiscType, i.GameName, i.InternalName)
}

// WriteJSON writes the record as an indented structured document.
func (i *DiscInfo) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(i), "failed to serialize disc info")
}

// readDiscInfo decodes the fixed 1+32+512 byte record following a disc-info
// status. An out-of-range type byte or invalid text is a decode failure,
// never a silent default.
func readDiscInfo(r io.Reader) (*DiscInfo, error) {
	raw := make([]byte, 1+gameNameSize+internalNameSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrap(err, "failed to read disc info record")
	}

	if raw[0] > uint8(DiscTypeWiiDoubleSided) {
		return nil, errors.Wrapf(ErrDecode, "disc type byte 0x%02x out of range", raw[0])
	}

	gameName, err := decodeName(raw[1 : 1+gameNameSize])
	if err != nil {
		return nil, errors.Wrap(err, "game name")
	}
	internalName, err := decodeName(raw[1+gameNameSize:])
	if err != nil {
		return nil, errors.Wrap(err, "internal name")
	}

	return &DiscInfo{
		DiscType:     DiscType(raw[0]),
		GameName:     gameName,
		InternalName: internalName,
	}, nil
}

// decodeName trims trailing NUL padding only, preserving embedded NULs, and
// requires the remainder to be valid UTF-8.
func decodeName(field []byte) (string, error) {
	trimmed := bytes.TrimRight(field, "\x00")
	if !utf8.Valid(trimmed) {
		return "", errors.Wrapf(ErrDecode, "name field is not valid UTF-8: % x", trimmed)
	}
	return string(trimmed), nil
}
