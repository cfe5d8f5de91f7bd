// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/Godric2010/resa/core"
	"github.com/Godric2010/resa/model"
)

// Shader is a compiled shader module
type Shader struct {
	Name   string
	Type   core.ShaderType
	Module vk.ShaderModule
}

// Stage returns the pipeline stage the shader runs in
func (s Shader) Stage() (vk.ShaderStageFlagBits, error) {
	switch s.Type {
	case core.VertexShaderType:
		return vk.ShaderStageVertexBit, nil
	case core.FragmentShaderType:
		return vk.ShaderStageFragmentBit, nil
	}
	return 0, errors.Errorf("%s: unsupported shader type %s", s.Name, s.Type)
}

// NewShader creates a shader module from a compiled binary
func NewShader(dev vk.Device, binary core.ShaderBinary) (Shader, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(binary.Code)),
		PCode:    core.SliceUint32(binary.Code),
	}

	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(dev, &smci, nil, &module)); err != nil {
		return Shader{}, errors.Wrapf(err, "vk.CreateShaderModule(%s)", binary.Name)
	}
	return Shader{
		Name:   binary.Name,
		Type:   binary.Type,
		Module: module,
	}, nil
}

// CreateRenderPass creates a pass with a cleared color attachment that
// ends up presentable and a cleared depth attachment.
func CreateRenderPass(dev vk.Device, colorFormat, depthFormat vk.Format) (vk.RenderPass, error) {
	attachments := []vk.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
		{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthAttachmentRef := &vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    uint32(len(colorAttachmentRef)),
		PColorAttachments:       colorAttachmentRef,
		PDepthStencilAttachment: depthAttachmentRef,
	}

	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stages,
		SrcAccessMask: 0,
		DstStageMask:  stages,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(dev, &rpci, nil, &renderPass)); err != nil {
		return vk.NullRenderPass, errors.Wrap(err, "vk.CreateRenderPass()")
	}
	return renderPass, nil
}

// CreatePipelineLayout creates a layout without descriptor sets
func CreatePipelineLayout(dev vk.Device) (vk.PipelineLayout, error) {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	var pipelineLayout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(dev, &plci, nil, &pipelineLayout)); err != nil {
		return vk.NullPipelineLayout, errors.Wrap(err, "vk.CreatePipelineLayout()")
	}
	return pipelineLayout, nil
}

// CreatePipelineCache creates an empty pipeline cache
func CreatePipelineCache(dev vk.Device) (vk.PipelineCache, error) {
	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var pipelineCache vk.PipelineCache
	if err := vk.Error(vk.CreatePipelineCache(dev, &pcci, nil, &pipelineCache)); err != nil {
		return nil, errors.Wrap(err, "vk.CreatePipelineCache()")
	}
	return pipelineCache, nil
}

// CreatePipeline creates the graphics pipeline drawing model vertices.
// Viewport and scissor are dynamic, so the pipeline survives resizes.
func CreatePipeline(dev vk.Device, cache vk.PipelineCache, layout vk.PipelineLayout, renderPass vk.RenderPass, shaders []Shader) (vk.Pipeline, error) {
	stages := make([]vk.PipelineShaderStageCreateInfo, len(shaders))
	for idx, shader := range shaders {
		stage, err := shader.Stage()
		if err != nil {
			return vk.NullPipeline, err
		}
		stages[idx] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: shader.Module,
			PName:  "main\x00",
		}
	}

	bindings := model.VertexBindingDescriptions()
	attributes := model.VertexAttributeDescriptions()

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1.0,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       vk.True,
			DepthWriteEnable:      vk.True,
			DepthCompareOp:        vk.CompareOpLessOrEqual,
			DepthBoundsTestEnable: vk.False,
			StencilTestEnable:     vk.False,
			Back: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
			Front: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: 0xF,
				BlendEnable:    vk.False,
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateViewport,
				vk.DynamicStateScissor,
			},
		},
		Layout:     layout,
		RenderPass: renderPass,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vk.Error(vk.CreateGraphicsPipelines(dev, cache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return vk.NullPipeline, errors.Wrap(err, "vk.CreateGraphicsPipelines()")
	}
	return pipelines[0], nil
}

// CreateFramebuffers creates one framebuffer per swapchain view, all
// sharing the swapchain's depth view.
func CreateFramebuffers(dev vk.Device, renderPass vk.RenderPass, sc *Swapchain) ([]vk.Framebuffer, error) {
	framebuffers := make([]vk.Framebuffer, 0, len(sc.Views))
	for idx, view := range sc.Views {
		attachments := []vk.ImageView{view, sc.DepthView}
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           sc.Extent.Width,
			Height:          sc.Extent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(dev, &fci, nil, &framebuffer)); err != nil {
			for _, fb := range framebuffers {
				vk.DestroyFramebuffer(dev, fb, nil)
			}
			return nil, errors.Wrapf(err, "vk.CreateFramebuffer(%d)", idx)
		}
		framebuffers = append(framebuffers, framebuffer)
	}
	return framebuffers, nil
}
