package libgl

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const MaxAttachments = 8

var ErrFramebufferIncomplete = errors.New("framebuffer incomplete")

type framebuffer struct {
	glId     uint32
	textures []UnboundTexture
}

type UnboundFramebuffer interface {
	LabeledGlObject
	Id() uint32
	// target must be GL_DRAW_FRAMEBUFFER, GL_READ_FRAMEBUFFER or GL_FRAMEBUFFER
	Bind(target uint32) BoundFramebuffer
	// target must be GL_DRAW_FRAMEBUFFER, GL_READ_FRAMEBUFFER or GL_FRAMEBUFFER
	Check(target uint32) error
	GetTexture(index int) UnboundTexture
	AttachTexture(index int, texture UnboundTexture)
	AttachTextureLevel(index int, texture UnboundTexture, level int)
	AttachTextureLayer(index int, texture UnboundTexture, layer int)
	BindTargets(attachments ...int)
	ClearColor(index int, color mgl32.Vec4)
	Delete()
}

type BoundFramebuffer interface {
	UnboundFramebuffer
}

func NewFramebuffer() UnboundFramebuffer {
	var id uint32
	gl.CreateFramebuffers(1, &id)

	return &framebuffer{
		glId:     id,
		textures: make([]UnboundTexture, MaxAttachments+2),
	}
}

func (fb *framebuffer) Id() uint32 {
	return fb.glId
}

func (fb *framebuffer) SetDebugLabel(label string) {
	setObjectLabel(gl.FRAMEBUFFER, fb.glId, label)
}

func (fb *framebuffer) BindTargets(indices ...int) {
	attachments := make([]uint32, len(indices))
	for i, v := range indices {
		if v <= MaxAttachments {
			attachments[i] = uint32(gl.COLOR_ATTACHMENT0 + v)
		} else {
			attachments[i] = uint32(v)
		}
	}
	gl.NamedFramebufferDrawBuffers(fb.glId, int32(len(indices)), &attachments[0])
}

// Check returns an error wrapping ErrFramebufferIncomplete unless the framebuffer is complete.
func (fb *framebuffer) Check(target uint32) error {
	status := gl.CheckNamedFramebufferStatus(fb.glId, target)
	var reason string
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return nil
	case 0:
		reason = "status query failed"
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		reason = "an attachment is framebuffer incomplete (GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT)"
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		reason = "the framebuffer has no attachments (GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT)"
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		reason = "the object type of a draw attachment is none (GL_FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER)"
	case gl.FRAMEBUFFER_INCOMPLETE_READ_BUFFER:
		reason = "the object type of the read attachment is none (GL_FRAMEBUFFER_INCOMPLETE_READ_BUFFER)"
	case gl.FRAMEBUFFER_UNSUPPORTED:
		reason = "the combination of internal formats of the attachments is not supported (GL_FRAMEBUFFER_UNSUPPORTED)"
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		reason = "the attachments have different sampling (GL_FRAMEBUFFER_INCOMPLETE_MULTISAMPLE)"
	case gl.FRAMEBUFFER_INCOMPLETE_LAYER_TARGETS:
		reason = "GL_FRAMEBUFFER_INCOMPLETE_LAYER_TARGETS"
	default:
		reason = fmt.Sprintf("unknown framebuffer status: %X", status)
	}
	return fmt.Errorf("%w: %s", ErrFramebufferIncomplete, reason)
}

func (fb *framebuffer) Bind(target uint32) BoundFramebuffer {
	State.BindFramebuffer(target, fb.glId)
	return BoundFramebuffer(fb)
}

func (fb *framebuffer) AttachTexture(index int, texture UnboundTexture) {
	fb.AttachTextureLevel(index, texture, 0)
}

func (fb *framebuffer) AttachTextureLevel(index int, texture UnboundTexture, level int) {
	fb.textures[fb.mapAttachmentIndex(index)] = texture
	if index <= MaxAttachments {
		index += gl.COLOR_ATTACHMENT0
	}
	gl.NamedFramebufferTexture(fb.glId, uint32(index), texture.Id(), int32(level))
}

func (fb *framebuffer) AttachTextureLayer(index int, texture UnboundTexture, layer int) {
	fb.textures[fb.mapAttachmentIndex(index)] = texture
	if index <= MaxAttachments {
		index += gl.COLOR_ATTACHMENT0
	}
	gl.NamedFramebufferTextureLayer(fb.glId, uint32(index), texture.Id(), 0, int32(layer))
}

// ClearColor clears one colour attachment regardless of the bound framebuffer.
func (fb *framebuffer) ClearColor(index int, color mgl32.Vec4) {
	gl.ClearNamedFramebufferfv(fb.glId, gl.COLOR, int32(index), &color[0])
}

func (fb *framebuffer) mapAttachmentIndex(index int) int {
	if index == gl.DEPTH_ATTACHMENT || index == gl.DEPTH_STENCIL_ATTACHMENT {
		return 0
	} else if index == gl.STENCIL_ATTACHMENT {
		return 1
	}
	return index + 2
}

func (fb *framebuffer) GetTexture(index int) UnboundTexture {
	return fb.textures[fb.mapAttachmentIndex(index)]
}

// Delete releases the framebuffer but not its attachments.
func (fb *framebuffer) Delete() {
	if fb.glId == 0 {
		return
	}
	if State.DrawFramebuffer == fb.glId {
		State.BindDrawFramebuffer(0)
	}
	if State.ReadFramebuffer == fb.glId {
		State.BindReadFramebuffer(0)
	}
	gl.DeleteFramebuffers(1, &fb.glId)
	fb.glId = 0
}
