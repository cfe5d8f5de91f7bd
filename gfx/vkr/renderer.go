// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/core"
	"github.com/Godric2010/resa/device"
	"github.com/Godric2010/resa/gfx"
	"github.com/Godric2010/resa/model"
)

// ClearColor is what every frame starts from
var ClearColor = glm.Vec4{0.05, 0.05, 0.05, 1}

// Window is what the renderer needs from the window system
type Window interface {
	Surfacer
	FramebufferSize() (width, height uint32)
}

// Renderer is the Vulkan gfx.Backend. It draws the built-in quad.
type Renderer struct {
	kind gfx.Kind
	log  logrus.FieldLogger

	ctx       *Context
	desc      device.Descriptor
	device    *device.Logical
	sync      *FrameSynchronizer
	allocator *MemoryAllocator

	shaders  []Shader
	cache    vk.PipelineCache
	layout   vk.PipelineLayout
	mesh     model.Mesh
	vertices *Buffer

	swapchain    *Swapchain
	renderPass   vk.RenderPass
	pipeline     vk.Pipeline
	framebuffers []vk.Framebuffer

	release  *gfx.ReleaseStack
	sized    *gfx.ReleaseStack
	disposed bool
}

var _ gfx.Backend = (*Renderer)(nil)

// NewRenderer builds a renderer of the given kind for win. Every failure
// is fatal and leaves nothing behind.
func NewRenderer(kind gfx.Kind, log logrus.FieldLogger, win Window, cfg core.RendererConfiguration, shaders []core.ShaderBinary) (*Renderer, error) {
	switch kind {
	case gfx.KindVulkan, gfx.KindMoltenVK:
	default:
		return nil, gfx.Fatal(errors.Errorf("unsupported backend %s", kind), "vkr.NewRenderer()")
	}
	ctxConfig := ContextConfig{Kind: kind, Validation: cfg.Validation}

	r := &Renderer{
		kind:    kind,
		log:     log,
		mesh:    model.Quad(0.5),
		release: gfx.NewReleaseStack(log),
		sized:   gfx.NewReleaseStack(log),
	}
	if err := r.init(win, ctxConfig, cfg, shaders); err != nil {
		r.Dispose()
		return nil, gfx.Fatal(err, "vkr.NewRenderer()")
	}
	return r, nil
}

type initStep struct {
	name string
	run  func() error
}

// initSteps lists what init creates, in creation order. Every step pushes
// its own release, so teardown runs the list backwards: pipeline objects,
// shader resources, frame synchronization, swapchain, device, context.
func (r *Renderer) initSteps(win Window, ctxConfig ContextConfig, cfg core.RendererConfiguration, binaries []core.ShaderBinary) []initStep {
	return []initStep{
		{"graphics context", func() error { return r.createContext(win, ctxConfig) }},
		{"physical device", func() error { return r.selectDevice(cfg) }},
		{"logical device", r.createDevice},
		{"swapchain", func() error {
			width, height := win.FramebufferSize()
			r.release.Push("swapchain", func() error {
				r.swapchain.Destroy()
				return nil
			})
			return r.createSwapchain(vk.Extent2D{Width: width, Height: height}, nil)
		}},
		{"frame synchronizer", func() error { return r.createSync(cfg) }},
		{"depth transition", r.transitionDepth},
		{"shaders", func() error { return r.createShaders(binaries) }},
		{"pipeline cache", r.createCache},
		{"pipeline layout", r.createLayout},
		{"vertex buffer", r.createVertexBuffer},
		{"pipelines", func() error {
			r.release.Push("size dependent objects", func() error {
				r.sized.Release()
				return nil
			})
			return r.createPipelines()
		}},
	}
}

func (r *Renderer) init(win Window, ctxConfig ContextConfig, cfg core.RendererConfiguration, binaries []core.ShaderBinary) error {
	for _, step := range r.initSteps(win, ctxConfig, cfg, binaries) {
		if err := step.run(); err != nil {
			return err
		}
		r.log.Debugf("%s ready", step.name)
	}
	return nil
}

func (r *Renderer) createContext(win Window, ctxConfig ContextConfig) error {
	ctx, err := NewContext(r.log.WithField("component", "context"), win, ctxConfig)
	if err != nil {
		return err
	}
	r.ctx = ctx
	r.release.PushReleasable("graphics context", releasable(ctx.Destroy))
	return nil
}

func (r *Renderer) selectDevice(cfg core.RendererConfiguration) error {
	ctx := r.ctx
	list, err := device.Enumerate(r.log.WithField("component", "device"), ctx.Instance, ctx.Surface)
	if err != nil {
		return err
	}
	for _, d := range list {
		r.log.WithFields(logrus.Fields{
			"name":     d.Name,
			"class":    d.Class,
			"api":      d.APIVersion,
			"memory":   d.Memory,
			"graphics": d.GraphicsFamily,
		}).Debug("physical device found")
	}
	desc, err := device.Select(list, cfg.Device)
	if err != nil {
		return err
	}
	r.desc = desc
	if cfg.Device != "" && desc.Name != cfg.Device {
		r.log.Warnf("device %q not found, using %s", cfg.Device, desc.Name)
	}
	if r.kind == gfx.KindMoltenVK && !desc.HasExtension(device.PortabilitySubsetExtension) {
		r.log.Warnf("device %s does not advertise %s", desc.Name, device.PortabilitySubsetExtension)
	}
	return nil
}

func (r *Renderer) createDevice() error {
	logical, err := device.NewLogical(r.log.WithField("component", "device"), r.desc, device.Extensions(r.desc), device.DefaultFeatures)
	if err != nil {
		return err
	}
	r.device = logical
	r.release.PushReleasable("logical device", releasable(logical.Destroy))
	r.allocator = NewMemoryAllocator(logical)
	return nil
}

// createSwapchain replaces old, if any, with a swapchain of the given size
func (r *Renderer) createSwapchain(extent vk.Extent2D, old *Swapchain) error {
	sc, err := NewSwapchain(r.log.WithField("component", "swapchain"), r.ctx, r.device, extent, DefaultSurfaceFormat, old)
	if err != nil {
		return err
	}
	old.Destroy()
	r.swapchain = sc
	return nil
}

func (r *Renderer) createSync(cfg core.RendererConfiguration) error {
	sync, err := NewFrameSynchronizer(r.log.WithField("component", "sync"), r.device, r.device.GraphicsFamily, cfg.FramesInFlight, cfg.FenceTimeout)
	if err != nil {
		return err
	}
	r.sync = sync
	r.release.PushReleasable("frame synchronizer", releasable(sync.Destroy))
	return nil
}

func (r *Renderer) transitionDepth() error {
	return errors.Wrap(r.sync.SubmitOnce(r.swapchain.RecordDepthTransition), "depth layout transition")
}

func (r *Renderer) createShaders(binaries []core.ShaderBinary) error {
	dev := r.device.Device
	for _, binary := range binaries {
		shader, err := NewShader(dev, binary)
		if err != nil {
			return err
		}
		r.shaders = append(r.shaders, shader)
		r.release.Push("shader "+shader.Name, func() error {
			vk.DestroyShaderModule(dev, shader.Module, nil)
			return nil
		})
	}
	return nil
}

func (r *Renderer) createCache() error {
	dev := r.device.Device
	cache, err := CreatePipelineCache(dev)
	if err != nil {
		return err
	}
	r.cache = cache
	r.release.Push("pipeline cache", func() error {
		vk.DestroyPipelineCache(dev, cache, nil)
		return nil
	})
	return nil
}

func (r *Renderer) createLayout() error {
	dev := r.device.Device
	layout, err := CreatePipelineLayout(dev)
	if err != nil {
		return err
	}
	r.layout = layout
	r.release.Push("pipeline layout", func() error {
		vk.DestroyPipelineLayout(dev, layout, nil)
		return nil
	})
	return nil
}

func (r *Renderer) createVertexBuffer() error {
	data := r.mesh.Bytes()
	vertices, err := NewBuffer(r.allocator, uint(len(data)), vk.BufferUsageVertexBufferBit)
	if err != nil {
		return err
	}
	r.vertices = vertices
	r.release.PushReleasable("vertex buffer", vertices)
	return vertices.Upload(data)
}

// createPipelines creates everything that depends on the swapchain size or
// format, on the sized stack.
func (r *Renderer) createPipelines() error {
	dev := r.device.Device
	sc := r.swapchain

	var err error
	if r.renderPass, err = CreateRenderPass(dev, sc.Format.Format, sc.Depth.Format()); err != nil {
		return err
	}
	renderPass := r.renderPass
	r.sized.Push("render pass", func() error {
		vk.DestroyRenderPass(dev, renderPass, nil)
		return nil
	})

	if r.pipeline, err = CreatePipeline(dev, r.cache, r.layout, renderPass, r.shaders); err != nil {
		return err
	}
	pipeline := r.pipeline
	r.sized.Push("pipeline", func() error {
		vk.DestroyPipeline(dev, pipeline, nil)
		return nil
	})

	if r.framebuffers, err = CreateFramebuffers(dev, renderPass, sc); err != nil {
		return err
	}
	framebuffers := r.framebuffers
	r.sized.Push("framebuffers", func() error {
		for i := len(framebuffers) - 1; i >= 0; i-- {
			vk.DestroyFramebuffer(dev, framebuffers[i], nil)
		}
		return nil
	})
	return nil
}

// Kind implements gfx.Backend
func (r *Renderer) Kind() gfx.Kind {
	return r.kind
}

// Device describes the physical device the renderer runs on
func (r *Renderer) Device() device.Descriptor {
	return r.desc
}

// Render implements gfx.Backend
func (r *Renderer) Render() (gfx.FrameStatus, error) {
	if r.disposed {
		return gfx.StatusSkipped, gfx.ErrBackendClosed
	}

	frame, err := r.sync.Begin()
	if errors.Is(err, gfx.ErrFenceTimeout) {
		r.log.Warn("frame fence wait timed out, skipping frame")
		return gfx.StatusSkipped, nil
	} else if err != nil {
		return gfx.StatusSkipped, err
	}

	index, acquired, err := r.swapchain.Acquire(frame.ImageAvailable)
	if err != nil || acquired == gfx.StatusOutOfDate {
		r.sync.Abandon(frame)
		return acquired, err
	}

	err = r.sync.RecordAndSubmit(frame, func(cmd vk.CommandBuffer) error {
		return r.record(cmd, index)
	}, frame.ImageAvailable, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), frame.RenderFinished)
	if err != nil {
		return gfx.StatusSkipped, err
	}

	presented, err := r.swapchain.Present(r.device.Present, index, frame.RenderFinished)
	if err != nil {
		return presented, err
	}
	if presented == gfx.StatusPresented && acquired == gfx.StatusSuboptimal {
		presented = gfx.StatusSuboptimal
	}
	return presented, nil
}

func (r *Renderer) record(cmd vk.CommandBuffer, index uint32) error {
	extent := r.swapchain.Extent

	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(ClearColor[:])
	clearValues[1].SetDepthStencil(1, 0)

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  r.renderPass,
		Framebuffer: r.framebuffers[index],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	viewport := vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{Extent: extent}

	vk.CmdBeginRenderPass(cmd, &rpbi, vk.SubpassContentsInline)
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, r.pipeline)
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{scissor})
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{r.vertices.Get()}, []vk.DeviceSize{0})
	vk.CmdDraw(cmd, r.mesh.Len(), 1, 0, 0)
	vk.CmdEndRenderPass(cmd)
	return nil
}

// RecreatePipelines implements gfx.Backend. A zero sized surface, as
// with a minimized window, keeps the current swapchain.
func (r *Renderer) RecreatePipelines(width, height uint32) error {
	if r.disposed {
		return gfx.ErrBackendClosed
	}
	if width == 0 || height == 0 {
		r.log.Debug("surface has no area, recreation postponed")
		return nil
	}
	if err := r.device.WaitIdle(); err != nil {
		return err
	}

	r.sized.Release()
	if err := r.createSwapchain(vk.Extent2D{Width: width, Height: height}, r.swapchain); err != nil {
		return err
	}
	if err := r.transitionDepth(); err != nil {
		return err
	}
	if err := r.createPipelines(); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"width":  r.swapchain.Extent.Width,
		"height": r.swapchain.Extent.Height,
	}).Info("pipelines recreated")
	return nil
}

// Dispose implements gfx.Backend
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	if err := r.device.WaitIdle(); err != nil {
		r.log.WithError(err).Warn("device did not go idle before teardown")
	}
	r.release.Release()
	r.log.Info("renderer disposed")
}

type releasable func()

func (f releasable) Release() { f() }
