package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	target mgl32.Vec3

	// Spherical coordinates of the eye around target.
	radius    float32
	azimuth   float32
	elevation float32

	minElevation float32
	maxElevation float32
	orbitSpeed   float32
	zoomFactor   float32

	viewMatrix           mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4
}

// Camera is an orbit camera that looks at a target from spherical coordinates.
// The projection maps depth to WebGPU's [0, 1] clip range.
type Camera interface {
	// Frame points the camera at the center of bounds and backs off until the box fits the view.
	// Near and far planes are scaled to the box.
	//
	// Parameters:
	//   - bounds: the world-space box to frame; empty boxes frame the unit cube
	Frame(bounds common.BoundingBox)

	// Orbit rotates the eye around the target by a number of orbit steps.
	// Elevation is clamped short of the poles.
	//
	// Parameters:
	//   - azimuthSteps: horizontal steps, positive to the right
	//   - elevationSteps: vertical steps, positive upward
	Orbit(azimuthSteps, elevationSteps float32)

	// Zoom moves the eye toward the target. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: scroll delta
	Zoom(delta float32)

	// SetAspect sets the aspect ratio (width / height).
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// Position returns the eye position.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space eye position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space target
	Target() mgl32.Vec3

	// Radius returns the distance between eye and target.
	//
	// Returns:
	//   - float32: the orbit radius
	Radius() float32

	// ViewMatrix returns the current view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - mgl32.Mat4: the combined matrix
	ViewProjectionMatrix() mgl32.Mat4
}

var _ Camera = &cameraImpl{}

// NewCamera creates an orbit camera looking at the origin from a radius of 5.
//
// Parameters:
//   - options: a variadic list of CameraBuilderOption functions
//
// Returns:
//   - Camera: the camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:           &sync.Mutex{},
		fov:          mgl32.DegToRad(45),
		aspect:       16.0 / 9.0,
		near:         0.1,
		far:          100,
		radius:       5,
		elevation:    math32.Pi / 8,
		minElevation: -math32.Pi/2 + 0.05,
		maxElevation: math32.Pi/2 - 0.05,
		orbitSpeed:   0.03,
		zoomFactor:   0.1,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Frame(bounds common.BoundingBox) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bounds.IsEmpty() {
		bounds = common.NewBoundingBox([]float32{-0.5, -0.5, -0.5}, []float32{0.5, 0.5, 0.5})
	}
	c.target = bounds.Center()

	r := bounds.Size().Len() / 2
	if r < 1e-4 {
		r = 1e-4
	}
	c.radius = r / math32.Sin(c.fov/2)
	c.near = c.radius * 0.01
	c.far = c.radius * 10
	c.updateMatrices()
}

func (c *cameraImpl) Orbit(azimuthSteps, elevationSteps float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.azimuth += azimuthSteps * c.orbitSpeed
	c.elevation = mgl32.Clamp(c.elevation+elevationSteps*c.orbitSpeed, c.minElevation, c.maxElevation)
	c.updateMatrices()
}

func (c *cameraImpl) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	scale := 1 - delta*c.zoomFactor
	if scale < 0.1 {
		scale = 0.1
	}
	c.radius = math32.Max(c.radius*scale, c.near*2)
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

// position converts the spherical coordinates to a world-space eye position.
// Caller must hold the mutex.
func (c *cameraImpl) position() mgl32.Vec3 {
	cosElev, sinElev := math32.Cos(c.elevation), math32.Sin(c.elevation)
	cosAzim, sinAzim := math32.Cos(c.azimuth), math32.Sin(c.azimuth)
	return c.target.Add(mgl32.Vec3{
		c.radius * cosElev * sinAzim,
		c.radius * sinElev,
		c.radius * cosElev * cosAzim,
	})
}

// updateMatrices recomputes the view, projection and view-projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = mgl32.LookAtV(c.position(), c.target, mgl32.Vec3{0, 1, 0})
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}
