// Offscreen 3D viewport for loaded surfaces.
package main

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Mr-akami/indices-vertices-visualizer/cmd/terraview/shaders"
	"github.com/Mr-akami/indices-vertices-visualizer/internal/engine/camera"
	"github.com/Mr-akami/indices-vertices-visualizer/internal/engine/mesh"
	"github.com/Mr-akami/indices-vertices-visualizer/internal/scene"
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/mathx"
)

// normalHelperLength scales normal helper lines against the entry's
// bounding-sphere radius.
const normalHelperLength = 0.05

// Viewport renders the scene to an offscreen framebuffer whose color
// texture is displayed as an ImGui image. It is the scene's GroupBuilder:
// every entry's buffers are uploaded into a surfaceGroup the viewport
// iterates each frame.
type Viewport struct {
	// Framebuffer resources
	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
	width        int32
	height       int32

	surface surfaceProgram
	line    lineProgram

	grid lineBuffer
	axes lineBuffer

	groups     []*surfaceGroup
	background [3]float32
}

// surfaceProgram is the lit vertex-color shader with its uniform locations.
type surfaceProgram struct {
	program       uint32
	locModel      int32
	locView       int32
	locProjection int32
	locLightDir   int32
	locAmbient    int32
	locDiffuse    int32
	locOpacity    int32
	locOverride   int32
	locOverrideMx int32
}

// lineProgram is the flat vertex-color shader used for helpers and normals.
type lineProgram struct {
	program       uint32
	locModel      int32
	locView       int32
	locProjection int32
	locAlpha      int32
}

// lineBuffer is a static VAO of GL_LINES vertices (position + color).
type lineBuffer struct {
	vao   uint32
	vbo   uint32
	count int32
}

// surfaceGroup is one entry's GPU state. The scene owns its lifecycle
// through the RenderGroup interface.
type surfaceGroup struct {
	vp *Viewport

	vao uint32
	vbo uint32
	ebo uint32

	normals lineBuffer

	indexCount  int32
	vertexCount int32
	visible     bool

	buffers *mesh.RenderBuffers
}

// NewViewport creates the framebuffer and shader programs. Requires a
// current OpenGL context.
func NewViewport(width, height int32, background [3]float32) (*Viewport, error) {
	vp := &Viewport{
		width:      width,
		height:     height,
		background: background,
	}

	if err := vp.createFramebuffer(); err != nil {
		return nil, fmt.Errorf("framebuffer: %w", err)
	}
	if err := vp.createPrograms(); err != nil {
		vp.Destroy()
		return nil, fmt.Errorf("shader: %w", err)
	}

	vp.grid = buildGridBuffer()
	vp.axes = buildAxesBuffer()

	return vp, nil
}

func (vp *Viewport) createFramebuffer() error {
	gl.GenFramebuffers(1, &vp.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, vp.fbo)

	gl.GenTextures(1, &vp.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, vp.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, vp.width, vp.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, vp.colorTexture, 0)

	gl.GenRenderbuffers(1, &vp.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, vp.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, vp.width, vp.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, vp.depthRBO)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// Resize recreates the framebuffer when the panel size changes. No-op for
// matching or degenerate sizes.
func (vp *Viewport) Resize(width, height int32) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if width == vp.width && height == vp.height {
		return nil
	}

	gl.DeleteFramebuffers(1, &vp.fbo)
	gl.DeleteTextures(1, &vp.colorTexture)
	gl.DeleteRenderbuffers(1, &vp.depthRBO)

	vp.width = width
	vp.height = height
	return vp.createFramebuffer()
}

func (vp *Viewport) createPrograms() error {
	program, err := linkProgram(shaders.SurfaceVertexShader, shaders.SurfaceFragmentShader)
	if err != nil {
		return fmt.Errorf("surface program: %w", err)
	}
	vp.surface = surfaceProgram{
		program:       program,
		locModel:      gl.GetUniformLocation(program, gl.Str("uModel\x00")),
		locView:       gl.GetUniformLocation(program, gl.Str("uView\x00")),
		locProjection: gl.GetUniformLocation(program, gl.Str("uProjection\x00")),
		locLightDir:   gl.GetUniformLocation(program, gl.Str("uLightDir\x00")),
		locAmbient:    gl.GetUniformLocation(program, gl.Str("uAmbient\x00")),
		locDiffuse:    gl.GetUniformLocation(program, gl.Str("uDiffuse\x00")),
		locOpacity:    gl.GetUniformLocation(program, gl.Str("uOpacity\x00")),
		locOverride:   gl.GetUniformLocation(program, gl.Str("uOverrideColor\x00")),
		locOverrideMx: gl.GetUniformLocation(program, gl.Str("uOverrideMix\x00")),
	}

	program, err = linkProgram(shaders.LineVertexShader, shaders.LineFragmentShader)
	if err != nil {
		return fmt.Errorf("line program: %w", err)
	}
	vp.line = lineProgram{
		program:       program,
		locModel:      gl.GetUniformLocation(program, gl.Str("uModel\x00")),
		locView:       gl.GetUniformLocation(program, gl.Str("uView\x00")),
		locProjection: gl.GetUniformLocation(program, gl.Str("uProjection\x00")),
		locAlpha:      gl.GetUniformLocation(program, gl.Str("uAlpha\x00")),
	}

	return nil
}

func linkProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link failed: %s", log)
	}

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %s", log)
	}

	return shader, nil
}

// Build uploads an entry's buffers to the GPU. Implements scene.GroupBuilder.
func (vp *Viewport) Build(name string, buffers *mesh.RenderBuffers, view scene.ViewState) (scene.RenderGroup, error) {
	if len(buffers.Positions) == 0 {
		return nil, fmt.Errorf("empty buffers for %q", name)
	}

	group := &surfaceGroup{
		vp:          vp,
		visible:     true,
		buffers:     buffers,
		indexCount:  int32(len(buffers.Indices)),
		vertexCount: int32(len(buffers.Positions) / 3),
	}

	// Interleave position, normal and color per vertex. Stride 9 floats.
	vertexCount := len(buffers.Positions) / 3
	interleaved := make([]float32, 0, vertexCount*9)
	for i := 0; i < vertexCount; i++ {
		interleaved = append(interleaved,
			buffers.Positions[i*3], buffers.Positions[i*3+1], buffers.Positions[i*3+2],
			buffers.Normals[i*3], buffers.Normals[i*3+1], buffers.Normals[i*3+2],
			buffers.Colors[i*3], buffers.Colors[i*3+1], buffers.Colors[i*3+2],
		)
	}

	gl.GenVertexArrays(1, &group.vao)
	gl.BindVertexArray(group.vao)

	gl.GenBuffers(1, &group.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, group.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(interleaved)*4, unsafe.Pointer(&interleaved[0]), gl.STATIC_DRAW)

	if len(buffers.Indices) > 0 {
		gl.GenBuffers(1, &group.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, group.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(buffers.Indices)*4, unsafe.Pointer(&buffers.Indices[0]), gl.STATIC_DRAW)
	}

	const stride = int32(9 * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 12)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 3, gl.FLOAT, false, stride, 24)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)

	group.normals = buildNormalLines(buffers)

	vp.groups = append(vp.groups, group)
	return group, nil
}

// SetVisible implements scene.RenderGroup.
func (g *surfaceGroup) SetVisible(visible bool) {
	g.visible = visible
}

// Release deletes the group's GPU objects and detaches it from the
// viewport. Implements scene.RenderGroup.
func (g *surfaceGroup) Release() {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
		gl.DeleteBuffers(1, &g.vbo)
		if g.ebo != 0 {
			gl.DeleteBuffers(1, &g.ebo)
		}
		g.vao = 0
	}
	g.normals.release()

	for i, group := range g.vp.groups {
		if group == g {
			g.vp.groups = append(g.vp.groups[:i], g.vp.groups[i+1:]...)
			break
		}
	}
}

// buildNormalLines packs one line segment per vertex, from the vertex along
// its normal, into a static buffer.
func buildNormalLines(buffers *mesh.RenderBuffers) lineBuffer {
	vertexCount := len(buffers.Positions) / 3
	if vertexCount == 0 {
		return lineBuffer{}
	}

	length := buffers.Sphere.Radius * normalHelperLength
	if length <= 0 {
		length = 1
	}

	const r, g, b = 0.95, 0.55, 0.15
	verts := make([]float32, 0, vertexCount*12)
	for i := 0; i < vertexCount; i++ {
		px, py, pz := buffers.Positions[i*3], buffers.Positions[i*3+1], buffers.Positions[i*3+2]
		nx, ny, nz := buffers.Normals[i*3], buffers.Normals[i*3+1], buffers.Normals[i*3+2]
		verts = append(verts,
			px, py, pz, r, g, b,
			px+nx*length, py+ny*length, pz+nz*length, r, g, b,
		)
	}

	return uploadLineBuffer(verts)
}

// buildGridBuffer builds a unit grid in the XZ plane, scaled at draw time
// by the camera helper scale.
func buildGridBuffer() lineBuffer {
	const divisions = 10
	const c = 0.32

	var verts []float32
	for i := -divisions; i <= divisions; i++ {
		t := float32(i) / float32(divisions)
		verts = append(verts,
			t, 0, -1, c, c, c,
			t, 0, 1, c, c, c,
			-1, 0, t, c, c, c,
			1, 0, t, c, c, c,
		)
	}
	return uploadLineBuffer(verts)
}

// buildAxesBuffer builds unit X/Y/Z axis lines colored red/green/blue.
func buildAxesBuffer() lineBuffer {
	verts := []float32{
		0, 0, 0, 0.9, 0.2, 0.2,
		1, 0, 0, 0.9, 0.2, 0.2,
		0, 0, 0, 0.2, 0.9, 0.2,
		0, 1, 0, 0.2, 0.9, 0.2,
		0, 0, 0, 0.25, 0.45, 0.95,
		0, 0, 1, 0.25, 0.45, 0.95,
	}
	return uploadLineBuffer(verts)
}

func uploadLineBuffer(verts []float32) lineBuffer {
	if len(verts) == 0 {
		return lineBuffer{}
	}

	var buf lineBuffer
	gl.GenVertexArrays(1, &buf.vao)
	gl.BindVertexArray(buf.vao)

	gl.GenBuffers(1, &buf.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.STATIC_DRAW)

	const stride = int32(6 * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 12)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	buf.count = int32(len(verts) / 6)
	return buf
}

func (b *lineBuffer) release() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		gl.DeleteBuffers(1, &b.vbo)
		b.vao = 0
		b.count = 0
	}
}

// Render draws all visible groups plus helpers to the framebuffer and
// returns the color texture ID.
func (vp *Viewport) Render(cam *camera.OrbitCamera, view scene.ViewState) uint32 {
	// Save caller state; ImGui's backend owns the default framebuffer.
	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	var prevViewport [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, vp.fbo)
	gl.Viewport(0, 0, vp.width, vp.height)

	gl.ClearColor(vp.background[0], vp.background[1], vp.background[2], 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	aspect := float32(vp.width) / float32(vp.height)
	projection := cam.ProjectionMatrix(aspect)
	viewMat := cam.ViewMatrix()
	model := mathx.Identity()

	vp.drawSurfaces(projection, viewMat, model, view)
	vp.drawHelpers(projection, viewMat, cam.HelperScale, view)

	gl.Disable(gl.CULL_FACE)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)

	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
	gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])

	return vp.colorTexture
}

func (vp *Viewport) drawSurfaces(projection, viewMat, model mathx.Mat4, view scene.ViewState) {
	sp := &vp.surface
	gl.UseProgram(sp.program)
	gl.UniformMatrix4fv(sp.locProjection, 1, false, projection.Ptr())
	gl.UniformMatrix4fv(sp.locView, 1, false, viewMat.Ptr())
	gl.UniformMatrix4fv(sp.locModel, 1, false, model.Ptr())
	gl.Uniform3f(sp.locLightDir, 0.5, 1.0, 0.5)
	gl.Uniform3f(sp.locAmbient, 0.35, 0.35, 0.35)
	gl.Uniform3f(sp.locDiffuse, 0.65, 0.65, 0.65)

	switch view.FaceSide {
	case scene.FaceFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case scene.FaceBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Disable(gl.CULL_FACE)
	}

	for _, group := range vp.groups {
		if !group.visible || group.vao == 0 || group.indexCount == 0 {
			continue
		}
		gl.BindVertexArray(group.vao)

		// Filled pass, pushed back slightly so the wireframe wins the
		// depth test.
		gl.Uniform1f(sp.locOpacity, view.Opacity)
		gl.Uniform1f(sp.locOverrideMx, 0)
		if view.Wireframe {
			gl.Enable(gl.POLYGON_OFFSET_FILL)
			gl.PolygonOffset(1, 1)
		}
		gl.DrawElements(gl.TRIANGLES, group.indexCount, gl.UNSIGNED_INT, nil)
		if view.Wireframe {
			gl.Disable(gl.POLYGON_OFFSET_FILL)

			gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
			gl.Uniform1f(sp.locOpacity, 1)
			gl.Uniform1f(sp.locOverrideMx, 1)
			gl.Uniform3f(sp.locOverride, 0.05, 0.05, 0.08)
			gl.DrawElements(gl.TRIANGLES, group.indexCount, gl.UNSIGNED_INT, nil)
			gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
		}

		if view.ShowVertices {
			gl.PointSize(view.PointSize)
			gl.Uniform1f(sp.locOpacity, 1)
			gl.Uniform1f(sp.locOverrideMx, 1)
			gl.Uniform3f(sp.locOverride, 0.95, 0.9, 0.35)
			gl.DrawArrays(gl.POINTS, 0, group.vertexCount)
		}

		gl.BindVertexArray(0)
	}

	gl.Disable(gl.CULL_FACE)
}

func (vp *Viewport) drawHelpers(projection, viewMat mathx.Mat4, helperScale float32, view scene.ViewState) {
	lp := &vp.line
	gl.UseProgram(lp.program)
	gl.UniformMatrix4fv(lp.locProjection, 1, false, projection.Ptr())
	gl.UniformMatrix4fv(lp.locView, 1, false, viewMat.Ptr())

	if view.ShowNormals {
		identity := mathx.Identity()
		gl.UniformMatrix4fv(lp.locModel, 1, false, identity.Ptr())
		gl.Uniform1f(lp.locAlpha, 1)
		for _, group := range vp.groups {
			if !group.visible || group.normals.vao == 0 {
				continue
			}
			gl.BindVertexArray(group.normals.vao)
			gl.DrawArrays(gl.LINES, 0, group.normals.count)
		}
	}

	if helperScale <= 0 {
		helperScale = 1
	}
	scaled := mathx.Scale(helperScale * 1.2)
	gl.UniformMatrix4fv(lp.locModel, 1, false, scaled.Ptr())

	if view.ShowGrid && vp.grid.vao != 0 {
		gl.Uniform1f(lp.locAlpha, 0.6)
		gl.BindVertexArray(vp.grid.vao)
		gl.DrawArrays(gl.LINES, 0, vp.grid.count)
	}
	if view.ShowAxes && vp.axes.vao != 0 {
		gl.Uniform1f(lp.locAlpha, 1)
		gl.BindVertexArray(vp.axes.vao)
		gl.DrawArrays(gl.LINES, 0, vp.axes.count)
	}

	gl.BindVertexArray(0)
}

// Size returns the framebuffer dimensions.
func (vp *Viewport) Size() (int32, int32) {
	return vp.width, vp.height
}

// Groups returns the live render groups for overlay passes.
func (vp *Viewport) Groups() []*surfaceGroup {
	return vp.groups
}

// Destroy releases all GPU resources. Groups are released by the scene.
func (vp *Viewport) Destroy() {
	if vp.fbo != 0 {
		gl.DeleteFramebuffers(1, &vp.fbo)
		gl.DeleteTextures(1, &vp.colorTexture)
		gl.DeleteRenderbuffers(1, &vp.depthRBO)
		vp.fbo = 0
	}
	if vp.surface.program != 0 {
		gl.DeleteProgram(vp.surface.program)
		vp.surface.program = 0
	}
	if vp.line.program != 0 {
		gl.DeleteProgram(vp.line.program)
		vp.line.program = 0
	}
	vp.grid.release()
	vp.axes.release()
}
