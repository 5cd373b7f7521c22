package main

import (
	"fmt"

	"github.com/inkyblackness/imgui-go/v4"
)

// Panel is the debug window. It edits a copy of the settings and reports what changed.
type Panel struct {
	Grid       GridConfig
	IBL        IBLConfig
	LightColor [3]float32
	Textured   bool
	ShowLights bool
	Status     string

	GridChanged bool
	Rebake      bool
}

func NewPanel(cfg Config) *Panel {
	return &Panel{
		Grid:       cfg.Grid,
		IBL:        cfg.IBL,
		LightColor: cfg.Render.LightColor,
		Textured:   cfg.Render.Shading == ShadingTextured,
		ShowLights: cfg.Render.Lights,
	}
}

// Build emits the widgets for this frame. Call between imgui.NewFrame and Render.
func (p *Panel) Build(cam *Camera) {
	p.GridChanged = false
	p.Rebake = false

	imgui.Begin("Scene")
	defer imgui.End()

	if imgui.RadioButton("Textured", p.Textured) {
		p.Textured = true
	}
	imgui.SameLine()
	if imgui.RadioButton("Constant", !p.Textured) {
		p.Textured = false
	}
	imgui.Checkbox("Show lights", &p.ShowLights)

	imgui.PushID("grid")
	if imgui.CollapsingHeader("Grid") {
		rows, columns := int32(p.Grid.Rows), int32(p.Grid.Columns)
		if imgui.SliderInt("Rows", &rows, 1, 8) {
			p.Grid.Rows = int(rows)
			p.GridChanged = true
		}
		if imgui.SliderInt("Columns", &columns, 1, 8) {
			p.Grid.Columns = int(columns)
			p.GridChanged = true
		}
		if imgui.SliderFloat("Spacing", &p.Grid.Spacing, 1, 6) {
			p.GridChanged = true
		}
		if imgui.SliderFloat2("Metallic", &p.Grid.Metallic, 0, 1) {
			p.GridChanged = true
		}
		if imgui.SliderFloat2("Roughness", &p.Grid.Roughness, 0, 1) {
			p.GridChanged = true
		}
	}
	imgui.PopID()

	imgui.PushID("lights")
	if imgui.CollapsingHeader("Lights") {
		imgui.ColorEdit3V("Color", &p.LightColor, imgui.ColorEditFlagsFloat|imgui.ColorEditFlagsHDR)
	}
	imgui.PopID()

	imgui.PushID("ibl")
	if imgui.CollapsingHeader("Irradiance") {
		size, quality := int32(p.IBL.Size), int32(p.IBL.Quality)
		if imgui.SliderInt("Size", &size, 8, 256) {
			p.IBL.Size = int(size)
		}
		if imgui.SliderInt("Quality", &quality, 8, 64) {
			p.IBL.Quality = int(quality)
		}
		if imgui.Button("Rebake") {
			p.Rebake = true
		}
		if p.Status != "" {
			imgui.Text(p.Status)
		}
	}
	imgui.PopID()

	imgui.PushID("camera")
	if imgui.CollapsingHeader("Camera") {
		imgui.DragFloat3("Pos", (*[3]float32)(&cam.Position))
		imgui.DragFloat3("Dir", (*[3]float32)(&cam.Orientation))
		fwd := cam.Forward()
		imgui.Text(fmt.Sprintf("facing %.2f %.2f %.2f", fwd[0], fwd[1], fwd[2]))
	}
	imgui.PopID()
}
