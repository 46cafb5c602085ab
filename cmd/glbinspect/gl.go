package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-glb/engine/renderer"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glContext is a hidden GLFW window whose OpenGL context receives uploads. GL calls only run
// on the thread that created it, through executor.
type glContext struct {
	window   *glfw.Window
	backend  renderer.GLBackend
	executor renderer.ForegroundExecutor
	wake     chan struct{}
}

// newGLContext creates the context on the calling thread, which must be locked.
//
// Reference: https://www.glfw.org/docs/latest/context_guide.html#context_offscreen
func newGLContext() (*glContext, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(1, 1, "glbinspect", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GL context: %w", err)
	}
	win.MakeContextCurrent()

	backend, err := renderer.NewGLBackend()
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}

	c := &glContext{
		window:  win,
		backend: backend,
		wake:    make(chan struct{}, 1),
	}
	c.executor = renderer.NewForegroundExecutor(renderer.WithWakeFunc(c.signal))
	return c, nil
}

func (c *glContext) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// serve runs fn on a new goroutine and executes queued GL work on the calling thread until fn
// returns. Objects released in the meantime are deleted as work arrives.
func (c *glContext) serve(fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()

	for {
		select {
		case <-c.wake:
			c.executor.Drain()
			c.backend.Collect()
		case <-done:
			c.executor.Drain()
			return
		}
	}
}

// Close deletes released GL objects and destroys the context. Models must be released first.
func (c *glContext) Close() {
	c.executor.Close()
	c.backend.Collect()
	c.window.Destroy()
	glfw.Terminate()
}
