package camera

// CameraBuilderOption is a functional option for configuring a Camera via NewCamera.
type CameraBuilderOption func(*cameraImpl)

// WithFov sets the vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if fov > 0 {
			c.fov = fov
		}
	}
}

// WithAspect sets the aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithOrbitSpeed sets the angle in radians of one orbit step.
//
// Parameters:
//   - speed: radians per step
//
// Returns:
//   - CameraBuilderOption: a function that sets the orbit speed
func WithOrbitSpeed(speed float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.orbitSpeed = speed
	}
}

// WithElevation sets the initial elevation in radians.
//
// Parameters:
//   - elevation: the angle above the horizontal plane
//
// Returns:
//   - CameraBuilderOption: a function that sets the elevation
func WithElevation(elevation float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.elevation = elevation
	}
}
