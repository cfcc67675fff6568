package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

func initializedDriver(t *testing.T) *backend.SoftwareDriver {
	t.Helper()
	d := backend.NewSoftwareDriver()
	require.NoError(t, d.Initialize(0, gpucore.DefaultRenderConfig()))
	t.Cleanup(d.Shutdown)
	return d
}

func rgba8(w, h int) gpucore.RenderTargetDescriptor {
	return gpucore.RenderTargetDescriptor{Width: w, Height: h, Format: gpucore.FormatRGBA8, DepthBuffer: true, SampleCount: 1}
}

func TestSurfaceCreateValidation(t *testing.T) {
	var s Surface
	assert.ErrorIs(t, s.Create(nil, rgba8(4, 4)), ErrNilDriver)
	assert.ErrorIs(t, s.Create(backend.NewSoftwareDriver(), rgba8(4, 4)), backend.ErrNotInitialized)

	d := initializedDriver(t)
	assert.ErrorIs(t, s.Create(d, rgba8(0, 4)), gpucore.ErrInvalidDimensions)
	assert.ErrorIs(t, s.Create(d, rgba8(4, -2)), gpucore.ErrInvalidDimensions)
	assert.False(t, s.IsCreated())

	_, err := s.ReadPixels()
	assert.ErrorIs(t, err, ErrNoSurface)
	assert.ErrorIs(t, s.Resize(4, 4), ErrNoSurface)
}

func TestSurfaceReadPixelsReusesBuffer(t *testing.T) {
	d := initializedDriver(t)
	var s Surface
	require.NoError(t, s.Create(d, rgba8(6, 3)))
	defer s.Destroy()

	a, err := s.ReadPixels()
	require.NoError(t, err)
	b, err := s.ReadPixels()
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Same(t, &a.Data[0], &b.Data[0])
	assert.Equal(t, 6, a.Width)
	assert.Equal(t, 3, a.Height)
}

func TestSurfaceResize(t *testing.T) {
	d := initializedDriver(t)
	var s Surface
	require.NoError(t, s.Create(d, rgba8(4, 4)))

	require.NoError(t, s.Resize(4, 4))
	require.NoError(t, s.Resize(10, 2))
	w, h := d.TargetSize()
	assert.Equal(t, [2]int{10, 2}, [2]int{w, h})
	assert.Equal(t, 10, s.Descriptor().Width)
	assert.True(t, s.Descriptor().DepthBuffer)

	out, err := s.ReadPixels()
	require.NoError(t, err)
	assert.Len(t, out.Data, 10*2*4)
}

func TestSurfaceDestroyKeepsDriver(t *testing.T) {
	d := initializedDriver(t)
	var s Surface
	require.NoError(t, s.Create(d, rgba8(4, 4)))

	s.Destroy()
	s.Destroy()
	assert.False(t, s.IsCreated())
	assert.True(t, d.IsInitialized())
	w, h := d.TargetSize()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestSecondaryTarget(t *testing.T) {
	d := initializedDriver(t)
	require.NoError(t, d.CreateTarget(rgba8(4, 4)))

	_, err := NewSecondaryTarget("x", nil, rgba8(2, 2))
	assert.ErrorIs(t, err, ErrNilDriver)
	_, err = NewSecondaryTarget("x", d, rgba8(0, 2))
	assert.ErrorIs(t, err, gpucore.ErrInvalidDimensions)

	st, err := NewSecondaryTarget("glow", d, rgba8(2, 2))
	require.NoError(t, err)
	assert.Equal(t, "glow", st.Name())
	assert.ErrorIs(t, st.Bind(), backend.ErrNoActiveFrame)
	assert.False(t, st.IsBound())

	// While bound, draws are clipped to the secondary target's size.
	img := make([]byte, 4*4*4)
	for i := range img {
		img[i] = 255
	}
	require.NoError(t, d.BeginFrame())
	require.NoError(t, d.Clear(gpucore.Transparent))
	require.NoError(t, st.Bind())
	assert.True(t, st.IsBound())
	require.NoError(t, d.DrawPixels(img, 4, 4))
	require.NoError(t, st.Unbind())
	assert.False(t, st.IsBound())
	require.NoError(t, d.EndFrame())

	var out gpucore.PixelReadback
	require.NoError(t, d.ReadbackPixels(&out))
	_, _, _, a := out.RGBA(1, 1)
	assert.Equal(t, uint8(255), a)
	_, _, _, a = out.RGBA(3, 3)
	assert.Zero(t, a)

	assert.ErrorIs(t, st.Resize(-1, 2), gpucore.ErrInvalidDimensions)
	require.NoError(t, st.Resize(8, 8))
	assert.Equal(t, 8, st.Descriptor().Width)
}
