package render

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

// stubDriver is a software driver posing as another backend with a
// scripted support probe and initialization result.
type stubDriver struct {
	*backend.SoftwareDriver
	typ       gpucore.BackendType
	supported bool
	initErr   error
}

func (d *stubDriver) Type() gpucore.BackendType { return d.typ }
func (d *stubDriver) Name() string              { return string(d.typ) }
func (d *stubDriver) IsSupported() bool         { return d.supported }

func (d *stubDriver) Initialize(window uintptr, cfg gpucore.RenderConfig) error {
	if d.initErr != nil {
		return d.initErr
	}
	return d.SoftwareDriver.Initialize(window, cfg)
}

type registryBuilder struct {
	reg   *backend.Registry
	calls map[gpucore.BackendType]int
}

func newRegistry() *registryBuilder {
	return &registryBuilder{reg: backend.NewRegistry(), calls: map[gpucore.BackendType]int{}}
}

func (b *registryBuilder) stub(t gpucore.BackendType, prio int, supported bool, initErr error) *registryBuilder {
	b.reg.Register(t, prio, func() backend.Driver {
		b.calls[t]++
		return &stubDriver{SoftwareDriver: backend.NewSoftwareDriver(), typ: t, supported: supported, initErr: initErr}
	})
	return b
}

func (b *registryBuilder) software() *registryBuilder {
	b.reg.Register(gpucore.BackendSoftware, backend.PrioritySoftware, func() backend.Driver {
		b.calls[gpucore.BackendSoftware]++
		return backend.NewSoftwareDriver()
	})
	return b
}

func testConfig(w, h int) gpucore.RenderConfig {
	cfg := gpucore.DefaultRenderConfig()
	cfg.Width, cfg.Height = w, h
	return cfg
}

func newSoftwarePipeline(t *testing.T, cfg gpucore.RenderConfig, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithRegistry(newRegistry().software().reg)}, opts...)
	p := New(opts...)
	require.NoError(t, p.Initialize(0, cfg))
	t.Cleanup(p.Shutdown)
	return p
}

func TestPipelineEndToEndTransparent(t *testing.T) {
	p := newSoftwarePipeline(t, testConfig(64, 64))

	require.NoError(t, p.BeginFrame())
	require.NoError(t, p.EndFrame())

	out, err := p.ReadbackFrame()
	require.NoError(t, err)
	require.True(t, out.IsValid())
	assert.Equal(t, 64, out.Width)
	assert.Equal(t, 64, out.Height)
	require.Len(t, out.Data, 64*64*4)
	for i, b := range out.Data {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

func TestPipelineClearColor(t *testing.T) {
	cfg := testConfig(8, 8)
	cfg.ClearColor = gpucore.Color{R: 1, G: 0, B: 0, A: 1}
	p := newSoftwarePipeline(t, cfg)

	require.NoError(t, p.BeginFrame())
	require.NoError(t, p.EndFrame())
	out, err := p.ReadbackFrame()
	require.NoError(t, err)

	r, g, b, a := out.RGBA(3, 5)
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, [4]uint8{r, g, b, a})
}

func TestPipelineFallbackWhenUnsupported(t *testing.T) {
	rb := newRegistry().
		stub(gpucore.BackendVulkan, backend.PriorityVulkan, false, nil).
		software()
	p := New(WithRegistry(rb.reg))
	require.NoError(t, p.Initialize(0, testConfig(16, 16)))
	defer p.Shutdown()

	assert.Equal(t, gpucore.BackendSoftware, p.ActiveBackend())
	assert.Equal(t, 1, rb.calls[gpucore.BackendVulkan])
}

func TestPipelineFallbackWhenInitFails(t *testing.T) {
	rb := newRegistry().
		stub(gpucore.BackendDX12, backend.PriorityDX12, true, errors.New("device lost")).
		stub(gpucore.BackendGL, backend.PriorityGL, true, nil).
		software()
	p := New(WithRegistry(rb.reg))
	require.NoError(t, p.Initialize(0, testConfig(16, 16)))
	defer p.Shutdown()

	assert.Equal(t, gpucore.BackendGL, p.ActiveBackend())
	assert.Zero(t, rb.calls[gpucore.BackendSoftware], "lower priority backend must not be tried")
}

func TestPipelinePreferredBackendFirst(t *testing.T) {
	rb := newRegistry().
		stub(gpucore.BackendVulkan, backend.PriorityVulkan, true, nil).
		software()
	cfg := testConfig(16, 16)
	cfg.PreferredBackend = gpucore.BackendSoftware

	p := New(WithRegistry(rb.reg))
	require.NoError(t, p.Initialize(0, cfg))
	defer p.Shutdown()

	assert.Equal(t, gpucore.BackendSoftware, p.ActiveBackend())
	assert.Zero(t, rb.calls[gpucore.BackendVulkan])
}

func TestPipelinePreferredTriedOnce(t *testing.T) {
	rb := newRegistry().
		stub(gpucore.BackendVulkan, backend.PriorityVulkan, false, nil).
		stub(gpucore.BackendMetal, backend.PriorityMetal, false, nil).
		software()
	cfg := testConfig(16, 16)
	cfg.PreferredBackend = gpucore.BackendMetal

	p := New(WithRegistry(rb.reg))
	require.NoError(t, p.Initialize(0, cfg))
	defer p.Shutdown()

	assert.Equal(t, gpucore.BackendSoftware, p.ActiveBackend())
	assert.Equal(t, 1, rb.calls[gpucore.BackendMetal])
	assert.Equal(t, 1, rb.calls[gpucore.BackendVulkan])
}

func TestPipelineNoBackend(t *testing.T) {
	rb := newRegistry().
		stub(gpucore.BackendVulkan, backend.PriorityVulkan, false, nil).
		stub(gpucore.BackendGL, backend.PriorityGL, true, errors.New("no context"))
	p := New(WithRegistry(rb.reg))

	err := p.Initialize(0, testConfig(16, 16))
	require.ErrorIs(t, err, ErrNoBackend)
	assert.ErrorIs(t, err, backend.ErrUnsupported)
	assert.False(t, p.IsInitialized())
	assert.Equal(t, gpucore.BackendNone, p.ActiveBackend())

	err = New(WithRegistry(backend.NewRegistry())).Initialize(0, testConfig(16, 16))
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestPipelineInvalidConfig(t *testing.T) {
	p := New(WithRegistry(newRegistry().software().reg))
	err := p.Initialize(0, testConfig(0, 16))
	assert.ErrorIs(t, err, gpucore.ErrInvalidDimensions)
	assert.False(t, p.IsInitialized())
}

func TestPipelineInitializeIdempotent(t *testing.T) {
	rb := newRegistry().software()
	p := New(WithRegistry(rb.reg))
	require.NoError(t, p.Initialize(0, testConfig(32, 32)))
	defer p.Shutdown()

	drv := p.Driver()
	caps := drv.Capabilities()
	require.NoError(t, p.Initialize(0, testConfig(64, 64)))

	assert.Same(t, drv, p.Driver())
	assert.Equal(t, caps, p.Driver().Capabilities())
	assert.Equal(t, 1, rb.calls[gpucore.BackendSoftware])
	w, h := p.Surface().Size()
	assert.Equal(t, [2]int{32, 32}, [2]int{w, h})
}

func TestPipelineFrameOrder(t *testing.T) {
	p := newSoftwarePipeline(t, testConfig(8, 8))

	assert.ErrorIs(t, p.EndFrame(), backend.ErrNoActiveFrame)
	assert.ErrorIs(t, p.DrawPixels(make([]byte, 4), 1, 1), backend.ErrNoActiveFrame)
	assert.Zero(t, p.Stats().FrameCount)

	require.NoError(t, p.BeginFrame())
	assert.True(t, p.IsFrameActive())
	assert.ErrorIs(t, p.BeginFrame(), backend.ErrFrameActive)

	_, err := p.ReadbackFrame()
	assert.ErrorIs(t, err, backend.ErrFrameActive)
	assert.ErrorIs(t, p.Resize(16, 16), backend.ErrFrameActive)

	require.NoError(t, p.EndFrame())
	assert.False(t, p.IsFrameActive())
	assert.Equal(t, uint64(1), p.Stats().FrameCount)
}

// clearFailDriver is a software driver whose Clear always fails.
type clearFailDriver struct {
	*backend.SoftwareDriver
}

func (d *clearFailDriver) Clear(gpucore.Color) error { return errors.New("device lost") }

func TestPipelineBeginFrameClearFailure(t *testing.T) {
	drv := &clearFailDriver{SoftwareDriver: backend.NewSoftwareDriver()}
	reg := backend.NewRegistry()
	reg.Register(gpucore.BackendSoftware, backend.PrioritySoftware, func() backend.Driver { return drv })
	p := New(WithRegistry(reg))
	require.NoError(t, p.Initialize(0, testConfig(8, 8)))
	defer p.Shutdown()

	err := p.BeginFrame()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device lost")
	assert.False(t, p.IsFrameActive())
	assert.Zero(t, drv.FrameStats().FrameCount, "a dropped frame is not counted")

	// The driver left its frame, so the next attempt reaches Clear again.
	err = p.BeginFrame()
	require.Error(t, err)
	assert.NotErrorIs(t, err, backend.ErrFrameActive)
}

func TestPipelineRequiresInitialize(t *testing.T) {
	p := New(WithRegistry(newRegistry().software().reg))
	assert.ErrorIs(t, p.BeginFrame(), backend.ErrNotInitialized)
	_, err := p.ReadbackFrame()
	assert.ErrorIs(t, err, backend.ErrNotInitialized)
	assert.ErrorIs(t, p.Resize(8, 8), backend.ErrNotInitialized)
	_, err = p.NewSecondaryTarget("bloom", gpucore.RenderTargetDescriptor{Width: 8, Height: 8})
	assert.ErrorIs(t, err, backend.ErrNotInitialized)
	p.Shutdown()
}

func TestPipelineStats(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	p := newSoftwarePipeline(t, testConfig(4, 4), WithClock(clock))

	require.NoError(t, p.BeginFrame())
	require.NoError(t, p.DrawPixels(make([]byte, 4*4*4), 4, 4))
	require.NoError(t, p.DrawPixels(make([]byte, 2*2*4), 2, 2))
	now = now.Add(7 * time.Millisecond)
	require.NoError(t, p.EndFrame())

	s := p.Stats()
	assert.Equal(t, uint64(1), s.FrameCount)
	assert.Equal(t, 7*time.Millisecond, s.CPUTime)
	assert.Zero(t, s.GPUTime)
	assert.Equal(t, uint32(2), s.DrawCalls)
	assert.Equal(t, uint32(4), s.Triangles)

	require.NoError(t, p.BeginFrame())
	require.NoError(t, p.EndFrame())
	s = p.Stats()
	assert.Equal(t, uint64(2), s.FrameCount)
	assert.Zero(t, s.DrawCalls)
}

func TestPipelineDrawPixels(t *testing.T) {
	p := newSoftwarePipeline(t, testConfig(4, 4))

	img := make([]byte, 2*2*4)
	for i := 0; i < len(img); i += 4 {
		img[i], img[i+1], img[i+2], img[i+3] = 200, 100, 50, 128
	}
	require.NoError(t, p.BeginFrame())
	require.NoError(t, p.DrawPixels(img, 2, 2))
	require.NoError(t, p.EndFrame())

	out, err := p.ReadbackFrame()
	require.NoError(t, err)
	r, g, b, a := out.RGBA(1, 1)
	assert.Equal(t, [4]uint8{200, 100, 50, 128}, [4]uint8{r, g, b, a})
	_, _, _, a = out.RGBA(2, 2)
	assert.Zero(t, a)
}

func TestPipelineResize(t *testing.T) {
	p := newSoftwarePipeline(t, testConfig(8, 8))

	first, err := p.ReadbackFrame()
	require.NoError(t, err)
	require.NoError(t, p.Resize(8, 8))
	again, err := p.ReadbackFrame()
	require.NoError(t, err)
	assert.Same(t, first, again)

	assert.ErrorIs(t, p.Resize(0, 8), gpucore.ErrInvalidDimensions)
	assert.ErrorIs(t, p.Resize(8, -1), gpucore.ErrInvalidDimensions)
	w, h := p.Surface().Size()
	assert.Equal(t, [2]int{8, 8}, [2]int{w, h})

	require.NoError(t, p.Resize(12, 6))
	assert.Equal(t, 12, p.Config().Width)
	assert.Equal(t, 6, p.Config().Height)

	require.NoError(t, p.BeginFrame())
	require.NoError(t, p.EndFrame())
	out, err := p.ReadbackFrame()
	require.NoError(t, err)
	assert.Equal(t, 12, out.Width)
	assert.Equal(t, 6, out.Height)
	assert.Len(t, out.Data, 12*6*4)
}

func TestPipelineShutdown(t *testing.T) {
	p := New(WithRegistry(newRegistry().software().reg))
	require.NoError(t, p.Initialize(0, testConfig(8, 8)))
	drv := p.Driver()
	require.NoError(t, p.BeginFrame())

	p.Shutdown()
	assert.False(t, p.IsInitialized())
	assert.False(t, p.IsFrameActive())
	assert.False(t, drv.IsInitialized())
	assert.Nil(t, p.Surface())
	p.Shutdown()

	require.NoError(t, p.Initialize(0, testConfig(8, 8)))
	assert.True(t, p.IsInitialized())
	p.Shutdown()
}
