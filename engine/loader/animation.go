package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// readAnimations decodes every animation into clips keyed by name. Unnamed clips are named
// Track{i}. Channels with unknown target paths or without a target node are skipped.
//
// Parameters:
//   - p: the parser
//   - logger: receives skipped-channel diagnostics
//
// Returns:
//   - map[string]*model.AnimationClip: the clips
//   - error: ErrInvalidAnimation, ErrInvalidReference or an accessor error
func readAnimations(p gltfParser, logger *zap.Logger) (map[string]*model.AnimationClip, error) {
	doc := p.Document()
	clips := make(map[string]*model.AnimationClip, len(doc.Animations))

	for i := range doc.Animations {
		anim := &doc.Animations[i]
		name := common.Coalesce(anim.Name, fmt.Sprintf("Track%d", i))
		if _, dup := clips[name]; dup {
			name = fmt.Sprintf("%s_%d", name, i)
		}

		clip := &model.AnimationClip{Name: name}
		for c := range anim.Channels {
			ch, err := readChannel(p, anim, c, logger)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: %w", name, c, err)
			}
			if ch == nil {
				continue
			}
			clip.Channels = append(clip.Channels, ch)
			clip.Duration = max(clip.Duration, ch.Duration)
		}
		clips[name] = clip
	}
	return clips, nil
}

// readChannel decodes one channel, returning nil for channels that are skipped.
func readChannel(p gltfParser, anim *gltfAnimation, index int, logger *zap.Logger) (*model.AnimationChannel, error) {
	doc := p.Document()
	src := &anim.Channels[index]

	if src.Target.Node == nil {
		logger.Debug("skipping animation channel without target node", zap.Int("channel", index))
		return nil, nil
	}
	node := *src.Target.Node
	if node < 0 || node >= len(doc.Nodes) {
		return nil, fmt.Errorf("target node %d: %w", node, ErrInvalidReference)
	}

	var property model.AnimationProperty
	switch src.Target.Path {
	case gltfPathTranslation:
		property = model.PropertyTranslation
	case gltfPathRotation:
		property = model.PropertyRotation
	case gltfPathScale:
		property = model.PropertyScale
	case gltfPathWeights:
		property = model.PropertyMorphWeights
	default:
		logger.Debug("skipping animation channel with unknown path", zap.Int("channel", index), zap.String("path", src.Target.Path))
		return nil, nil
	}

	if src.Sampler < 0 || src.Sampler >= len(anim.Samplers) {
		return nil, fmt.Errorf("sampler %d: %w", src.Sampler, ErrInvalidReference)
	}
	sampler := &anim.Samplers[src.Sampler]

	interpolation := model.InterpolationLinear
	switch sampler.Interpolation {
	case gltfInterpolationStep:
		interpolation = model.InterpolationStep
	case gltfInterpolationCubicSpline:
		interpolation = model.InterpolationCubicSpline
	}

	input, err := p.Accessor(sampler.Input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if !input.is(gltfComponentFloat, gltfTypeScalar) {
		return nil, fmt.Errorf("input accessor is %s/%d, want SCALAR FLOAT: %w", input.accessorType, input.componentType, ErrInvalidAnimation)
	}
	times := readAll(input, input.Float)
	for k := 1; k < len(times); k++ {
		if times[k] < times[k-1] {
			return nil, fmt.Errorf("keyframe %d time %g precedes %g: %w", k, times[k], times[k-1], ErrInvalidAnimation)
		}
	}

	output, err := p.Accessor(sampler.Output)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}

	// Cubic spline outputs hold (in-tangent, value, out-tangent) per keyframe; only values are kept.
	perKey, valueSlot := 1, 0
	if interpolation == model.InterpolationCubicSpline {
		perKey, valueSlot = 3, 1
	}

	ch := &model.AnimationChannel{
		NodeIndex:     node,
		Property:      property,
		Interpolation: interpolation,
	}

	switch property {
	case model.PropertyTranslation, model.PropertyScale:
		if output.components != 3 || output.count != len(times)*perKey {
			return nil, fmt.Errorf("%s output has %d %s elements for %d keyframes: %w", property, output.count, output.accessorType, len(times), ErrInvalidAnimation)
		}
		ch.Vector3 = buildCurve(times, func(k int) mgl32.Vec3 { return output.Vec3(k*perKey + valueSlot) })
		ch.Duration = ch.Vector3.Duration()

	case model.PropertyRotation:
		if output.components != 4 || output.count != len(times)*perKey {
			return nil, fmt.Errorf("rotation output has %d %s elements for %d keyframes: %w", output.count, output.accessorType, len(times), ErrInvalidAnimation)
		}
		ch.Quaternion = buildCurve(times, func(k int) mgl32.Quat { return output.Quat(k*perKey + valueSlot) })
		ch.Duration = ch.Quaternion.Duration()

	case model.PropertyMorphWeights:
		if len(times) == 0 {
			return nil, fmt.Errorf("weights channel has no keyframes: %w", ErrInvalidAnimation)
		}
		scalars := output.count * output.components
		width := scalars / (len(times) * perKey)
		if width == 0 || width*len(times)*perKey != scalars {
			return nil, fmt.Errorf("%d weights do not divide into %d keyframes: %w", scalars, len(times), ErrInvalidAnimation)
		}
		ch.WeightsWidth = width
		ch.Weights = buildCurve(times, func(k int) []float32 { return output.FloatArray((k*perKey+valueSlot)*width, width) })
		ch.Duration = ch.Weights.Duration()
	}
	return ch, nil
}

// buildCurve pairs keyframe times with values.
func buildCurve[T any](times []float32, value func(k int) T) *model.Curve[T] {
	c := &model.Curve[T]{Keyframes: make([]model.Keyframe[T], len(times))}
	for k, t := range times {
		c.Keyframes[k] = model.Keyframe[T]{Time: t, Value: value(k)}
	}
	if len(times) > 0 {
		c.StartTime = times[0]
		c.EndTime = times[len(times)-1]
	}
	return c
}
