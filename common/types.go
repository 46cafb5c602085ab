// package common contains common types that are used throughout the importer. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PixelFormat identifies the layout of texture pixels handed to a graphics backend.
type PixelFormat int

const (
	// PixelFormatRGBA8Unorm is 4 bytes per pixel, straight alpha.
	PixelFormatRGBA8Unorm PixelFormat = iota
	// PixelFormatRGBA8UnormPremultiplied is 4 bytes per pixel with color channels multiplied by alpha.
	PixelFormatRGBA8UnormPremultiplied
	// PixelFormatRGBA8UnormSrgb is 4 bytes per pixel in the sRGB color space.
	PixelFormatRGBA8UnormSrgb
)

// String returns a readable name for the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8Unorm:
		return "rgba8unorm"
	case PixelFormatRGBA8UnormPremultiplied:
		return "rgba8unorm-premultiplied"
	case PixelFormatRGBA8UnormSrgb:
		return "rgba8unorm-srgb"
	default:
		return "unknown"
	}
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// LinearWrapSampler returns the sampler used for textures that repeat outside [0, 1].
//
// Returns:
//   - SamplerStagingData: linear filtering with repeat addressing on every axis
func LinearWrapSampler() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// LinearClampSampler returns the sampler used for textures clamped to their edge texels.
//
// Returns:
//   - SamplerStagingData: linear filtering with clamp-to-edge addressing on every axis
func LinearClampSampler() SamplerStagingData {
	s := LinearWrapSampler()
	s.AddressModeU = wgpu.AddressModeClampToEdge
	s.AddressModeV = wgpu.AddressModeClampToEdge
	s.AddressModeW = wgpu.AddressModeClampToEdge
	return s
}
