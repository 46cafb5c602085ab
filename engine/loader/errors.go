package loader

import "errors"

// Import errors. Every failure aborts the whole import; callers test them with errors.Is.
var (
	// ErrMalformedContainer is returned when the GLB header is invalid (bad magic, short header, or a
	// total length that does not match the data in strict mode).
	ErrMalformedContainer = errors.New("malformed GLB container")

	// ErrUnsupportedVersion is returned when the GLB or asset version is not 2. A bad GLB header
	// version also matches ErrMalformedContainer.
	ErrUnsupportedVersion = errors.New("unsupported glTF version")

	// ErrMalformedChunk is returned when a chunk length is not 4-byte aligned or runs past the data.
	ErrMalformedChunk = errors.New("malformed GLB chunk")

	// ErrMissingChunk is returned when the JSON chunk, or the BIN chunk a buffer needs, is absent.
	ErrMissingChunk = errors.New("missing GLB chunk")

	// ErrNoDefaultScene is returned when the document declares no default scene.
	ErrNoDefaultScene = errors.New("document has no default scene")

	// ErrUnsupportedAccessorFormat is returned for component type and shape combinations with no element format.
	ErrUnsupportedAccessorFormat = errors.New("unsupported accessor format")

	// ErrUnsupportedTopology is returned for primitive modes with no renderer equivalent (line loops, triangle fans).
	ErrUnsupportedTopology = errors.New("unsupported primitive topology")

	// ErrInvalidSkin is returned when a skin's joints and inverse bind matrices disagree.
	ErrInvalidSkin = errors.New("invalid skin")

	// ErrCyclicNodeGraph is returned when the node hierarchy is not a tree.
	ErrCyclicNodeGraph = errors.New("cyclic node graph")

	// ErrAccessorOutOfRange is returned when an accessor reads past its buffer view or buffer.
	ErrAccessorOutOfRange = errors.New("accessor out of range")

	// ErrInvalidAnimation is returned for animation samplers with mismatched or unordered keyframes.
	ErrInvalidAnimation = errors.New("invalid animation")

	// ErrInvalidReference is returned when an index points outside its array.
	ErrInvalidReference = errors.New("invalid reference")
)
