package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

// smallIntFormats lists the scalar format of each 8/16-bit component type as (plain, normalized).
// VEC2..VEC4 follow the scalar in declaration order.
var smallIntFormats = map[int][2]model.ElementFormat{
	gltfComponentByte:          {model.ElementFormatByte, model.ElementFormatByteNormalized},
	gltfComponentUnsignedByte:  {model.ElementFormatUByte, model.ElementFormatUByteNormalized},
	gltfComponentShort:         {model.ElementFormatShort, model.ElementFormatShortNormalized},
	gltfComponentUnsignedShort: {model.ElementFormatUShort, model.ElementFormatUShortNormalized},
}

// elementFormat maps (componentType, accessor type, normalized) to an element format.
// Every combination without a mapping fails with ErrUnsupportedAccessorFormat.
//
// Parameters:
//   - componentType: the glTF component type
//   - accessorType: the glTF accessor type
//   - normalized: the accessor's normalized flag
//
// Returns:
//   - model.ElementFormat: the element format
//   - error: ErrUnsupportedAccessorFormat if there is no mapping
func elementFormat(componentType int, accessorType string, normalized bool) (model.ElementFormat, error) {
	unsupported := func() (model.ElementFormat, error) {
		return model.ElementFormatUndefined, fmt.Errorf("component type %d, type %s, normalized %t: %w",
			componentType, accessorType, normalized, ErrUnsupportedAccessorFormat)
	}

	if accessorType == gltfTypeMat4 {
		if componentType == gltfComponentFloat && !normalized {
			return model.ElementFormatFloat4x4, nil
		}
		return unsupported()
	}

	n := componentCount(accessorType)
	if n < 1 || n > 4 || matrixRows(accessorType) != 0 {
		return unsupported()
	}
	vector := model.ElementFormat(n - 1)

	switch componentType {
	case gltfComponentFloat:
		if normalized {
			return unsupported()
		}
		return model.ElementFormatFloat + vector, nil
	case gltfComponentUnsignedInt:
		if normalized {
			return unsupported()
		}
		return model.ElementFormatUInt + vector, nil
	}

	formats, ok := smallIntFormats[componentType]
	if !ok {
		return unsupported()
	}
	if normalized {
		return formats[1] + vector, nil
	}
	return formats[0] + vector, nil
}

var semanticNames = map[string]model.ElementSemantic{
	"POSITION": model.SemanticPosition,
	"NORMAL":   model.SemanticNormal,
	"TANGENT":  model.SemanticTangent,
	"TEXCOORD": model.SemanticTexCoord,
	"COLOR":    model.SemanticColor,
	"JOINTS":   model.SemanticJoints,
	"WEIGHTS":  model.SemanticWeights,
}

// parseSemantic splits an attribute name such as TEXCOORD_1 into its semantic and set index.
// Application-specific attributes (leading underscore) and unknown names report false.
func parseSemantic(name string) (model.ElementSemantic, int, bool) {
	base, suffix, hasIndex := strings.Cut(name, "_")
	semantic, ok := semanticNames[base]
	if !ok {
		return 0, 0, false
	}
	if !hasIndex {
		return semantic, 0, true
	}
	index, err := strconv.Atoi(suffix)
	if err != nil || index < 0 {
		return 0, 0, false
	}
	return semantic, index, true
}
