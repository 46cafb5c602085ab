package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-glb/common"
)

// GLB framing constants.
const (
	glbMagic      = 0x46546C67 // "glTF"
	glbVersion    = 2
	glbChunkJSON  = 0x4E4F534A // "JSON"
	glbChunkBIN   = 0x004E4942 // "BIN\0"
	glbHeaderSize = 12
	glbChunkSize  = 8
)

// ContainerHeader is the 12-byte GLB header.
type ContainerHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

// Container holds the payloads of a GLB file. JSON and BIN alias the parsed bytes and are never mutated.
type Container struct {
	Header ContainerHeader

	// JSON is the scene description payload, including any trailing space padding.
	JSON []byte

	// BIN is the binary payload, nil when the file has no BIN chunk.
	BIN []byte

	// Skipped counts chunks of unrecognized type.
	Skipped int
}

// ParseContainer splits a GLB file into its JSON and BIN chunks.
// The magic number is checked before anything else is read. Unknown chunk types are skipped.
//
// Parameters:
//   - data: the complete GLB file
//   - strictLength: when true the header's total length must equal len(data)
//
// Returns:
//   - *Container: the header and payloads
//   - error: ErrMalformedContainer, ErrUnsupportedVersion, ErrMalformedChunk or ErrMissingChunk
func ParseContainer(data []byte, strictLength bool) (*Container, error) {
	if len(data) < 4 || binary.LittleEndian.Uint32(data) != glbMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedContainer)
	}
	if len(data) < glbHeaderSize {
		return nil, fmt.Errorf("%w: header is %d bytes", ErrMalformedContainer, len(data))
	}

	c := &Container{
		Header: ContainerHeader{
			Magic:   glbMagic,
			Version: binary.LittleEndian.Uint32(data[4:]),
			Length:  binary.LittleEndian.Uint32(data[8:]),
		},
	}
	if c.Header.Version != glbVersion {
		return nil, fmt.Errorf("%w: %w: GLB version %d", ErrMalformedContainer, ErrUnsupportedVersion, c.Header.Version)
	}
	if strictLength && int(c.Header.Length) != len(data) {
		return nil, fmt.Errorf("%w: header length %d, data length %d", ErrMalformedContainer, c.Header.Length, len(data))
	}

	offset := glbHeaderSize
	for offset < len(data) {
		if len(data)-offset < glbChunkSize {
			return nil, fmt.Errorf("%w: truncated chunk header at offset %d", ErrMalformedChunk, offset)
		}
		length := int(binary.LittleEndian.Uint32(data[offset:]))
		kind := binary.LittleEndian.Uint32(data[offset+4:])
		offset += glbChunkSize

		if length%4 != 0 {
			return nil, fmt.Errorf("%w: chunk length %d is not 4-byte aligned", ErrMalformedChunk, length)
		}
		if length > len(data)-offset {
			return nil, fmt.Errorf("%w: chunk of %d bytes at offset %d runs past end of data", ErrMalformedChunk, length, offset)
		}
		payload := data[offset : offset+length : offset+length]
		offset += length

		switch kind {
		case glbChunkJSON:
			if c.JSON == nil {
				c.JSON = payload
			}
		case glbChunkBIN:
			if c.BIN == nil {
				c.BIN = payload
			}
		default:
			c.Skipped++
		}
	}

	if c.JSON == nil {
		return nil, fmt.Errorf("%w: no JSON chunk", ErrMissingChunk)
	}
	return c, nil
}

// EncodeContainer frames a JSON payload and an optional BIN payload as a GLB file.
// JSON is padded with spaces and BIN with zeros to 4-byte boundaries.
//
// Parameters:
//   - jsonData: the scene description
//   - bin: the binary payload, or nil for none
//
// Returns:
//   - []byte: the GLB file
func EncodeContainer(jsonData, bin []byte) []byte {
	jsonLen := common.Align4(len(jsonData))
	total := glbHeaderSize + glbChunkSize + jsonLen
	if bin != nil {
		total += glbChunkSize + common.Align4(len(bin))
	}

	var buf bytes.Buffer
	buf.Grow(total)

	writeU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}

	writeU32(glbMagic)
	writeU32(glbVersion)
	writeU32(uint32(total))

	writeU32(uint32(jsonLen))
	writeU32(glbChunkJSON)
	buf.Write(common.PadTo4(jsonData, ' '))

	if bin != nil {
		binLen := common.Align4(len(bin))
		writeU32(uint32(binLen))
		writeU32(glbChunkBIN)
		buf.Write(common.PadTo4(bin, 0))
	}
	return buf.Bytes()
}
