// Terrain Viewer - An interactive viewer for LandXML and JSON surface meshes.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Mr-akami/indices-vertices-visualizer/internal/assets"
	"github.com/Mr-akami/indices-vertices-visualizer/internal/config"
	"github.com/Mr-akami/indices-vertices-visualizer/internal/engine/camera"
	"github.com/Mr-akami/indices-vertices-visualizer/internal/engine/mesh"
	"github.com/Mr-akami/indices-vertices-visualizer/internal/logger"
	"github.com/Mr-akami/indices-vertices-visualizer/internal/scene"
	"github.com/Mr-akami/indices-vertices-visualizer/pkg/mathx"
)

// noticeDuration is how long load errors stay in the status bar.
const noticeDuration = 6 * time.Second

// maxIndexLabels caps the triangle-index overlay so huge surveys don't
// drown the frame in text.
const maxIndexLabels = 2000

func main() {
	runtime.LockOSThread()

	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		cfg = config.Default()
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
	}
	defer logger.Sync()

	app := NewApp(cfg)
	defer app.Close()
	app.Run()
}

// App represents the Terrain Viewer application state.
type App struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	cfg     *config.Config

	scene    *scene.Scene
	loader   *scene.Loader
	viewport *Viewport
	cam      *camera.OrbitCamera
	view     scene.ViewState

	// Path selected from the file dialog, processed on the main thread.
	pendingOpenPath string

	// Status bar notice for failed loads.
	notice     string
	noticeTime time.Time

	// Mouse tracking for viewport drag deltas.
	lastMousePos imgui.Vec2
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config) *App {
	app := &App{
		cfg:    cfg,
		cam:    camera.New(),
		loader: scene.NewLoader(),
		view:   viewStateFromConfig(cfg),
	}

	var err error
	app.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		panic(fmt.Sprintf("failed to create backend: %v", err))
	}

	bg := cfg.Viewer.Background
	app.backend.SetBgColor(imgui.NewVec4(bg[0], bg[1], bg[2], 1.0))
	app.backend.CreateWindow("Terrain Viewer", cfg.Window.Width, cfg.Window.Height)

	if err := gl.Init(); err != nil {
		logger.Error("OpenGL init failed, running without 3D view", zap.Error(err))
	} else {
		app.viewport, err = NewViewport(800, 600, bg)
		if err != nil {
			logger.Error("viewport setup failed, running without 3D view", zap.Error(err))
			app.viewport = nil
		}
	}

	// A nil viewport degrades to a headless scene: loads and stats still
	// work, the center panel stays empty.
	if app.viewport != nil {
		app.scene = scene.New(app.viewport)
	} else {
		app.scene = scene.New(nil)
	}
	app.scene.OnRefit = app.onRefit

	app.backend.SetDropCallback(func(paths []string) {
		for _, path := range paths {
			logger.Info("file dropped", zap.String("path", path))
			app.loader.LoadFile(path)
		}
	})

	app.queueStartupDataset()

	return app
}

func (app *App) onRefit(center mathx.Vec3, radius float32) {
	app.cam.FitSphere(center, radius)
}

// viewStateFromConfig builds the startup display state, falling back to
// defaults for unknown names.
func viewStateFromConfig(cfg *config.Config) scene.ViewState {
	view := scene.DefaultViewState()

	if mode, err := mesh.ParseColorMode(cfg.Viewer.ColorMode); err == nil {
		view.ColorMode = mode
	} else {
		logger.Warn("unknown color mode in config", zap.String("value", cfg.Viewer.ColorMode))
	}
	if side, err := scene.ParseFaceSide(cfg.Viewer.FaceSide); err == nil {
		view.FaceSide = side
	} else {
		logger.Warn("unknown face side in config", zap.String("value", cfg.Viewer.FaceSide))
	}

	view.Opacity = cfg.Viewer.Opacity
	view.PointSize = cfg.Viewer.PointSize
	view.Wireframe = cfg.Viewer.Wireframe
	view.ShowGrid = cfg.Viewer.ShowGrid
	view.ShowAxes = cfg.Viewer.ShowAxes
	view.Clamp()
	return view
}

// queueStartupDataset schedules the startup mesh: a configured file if
// set, otherwise the bundled dataset. Failure is logged, never fatal.
func (app *App) queueStartupDataset() {
	if app.cfg.Dataset.SkipDefault {
		return
	}

	if path := app.cfg.Dataset.DefaultMesh; path != "" {
		data, err := assets.ReadMesh(path)
		if err != nil {
			logger.Warn("startup mesh unavailable", zap.Error(err))
			app.showNotice(err.Error())
			return
		}
		app.loader.Load(path, data)
		return
	}

	data, err := assets.DefaultMesh()
	if err != nil {
		logger.Warn("bundled mesh unavailable", zap.Error(err))
		return
	}
	app.loader.Load(assets.DefaultMeshName, data)
}

// Close cleans up resources.
func (app *App) Close() {
	for _, entry := range app.scene.Entries() {
		app.scene.Remove(entry.ID, app.view)
	}
	if app.viewport != nil {
		app.viewport.Destroy()
		app.viewport = nil
	}
}

// Run starts the main application loop.
func (app *App) Run() {
	app.backend.Run(app.render)
}

// openFileDialog shows a native file dialog to pick a mesh file.
// SDL window operations must happen on the main thread, so the result is
// queued into pendingOpenPath and processed in render().
func (app *App) openFileDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("Surface Meshes", "xml", "landxml", "json").
			Filter("All Files", "*").
			Title("Open Surface Mesh").
			Load()

		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Error("file dialog failed", zap.Error(err))
			}
			return
		}

		app.pendingOpenPath = filename
	}()
}

// render is called each frame to draw the UI.
func (app *App) render() {
	if app.pendingOpenPath != "" {
		path := app.pendingOpenPath
		app.pendingOpenPath = ""
		app.loader.LoadFile(path)
	}

	app.drainLoader()

	app.renderMenuBar()

	viewport := imgui.MainViewport()
	workPos := viewport.WorkPos()
	workSize := viewport.WorkSize()

	leftPanelWidth := float32(300)
	statusBarHeight := float32(30)
	contentHeight := workSize.Y - statusBarHeight

	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse

	imgui.SetNextWindowPos(workPos)
	imgui.SetNextWindowSize(imgui.NewVec2(leftPanelWidth, contentHeight))
	if imgui.BeginV("Surfaces", nil, flags) {
		app.renderSurfacesPanel()
		imgui.Separator()
		app.renderViewPanel()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+leftPanelWidth, workPos.Y))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X-leftPanelWidth, contentHeight))
	if imgui.BeginV("Viewport", nil, flags) {
		app.renderViewportPanel()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X, workPos.Y+contentHeight))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X, statusBarHeight))
	statusFlags := flags | imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar
	if imgui.BeginV("##StatusBar", nil, statusFlags) {
		app.renderStatusBar()
	}
	imgui.End()
}

// drainLoader applies every finished decode. Results from files that
// finished together still become sequential adds, each with its own
// recenter.
func (app *App) drainLoader() {
	for {
		result, ok := app.loader.Poll()
		if !ok {
			return
		}
		if result.Err != nil {
			logger.Error("load failed",
				zap.String("source", result.Source),
				zap.Error(result.Err),
			)
			app.showNotice(fmt.Sprintf("Failed to load %s: %v", result.Source, result.Err))
			continue
		}

		for _, surface := range result.Surfaces {
			if _, err := app.scene.Add(surface.Name, surface, app.view); err != nil {
				logger.Error("add failed", zap.String("name", surface.Name), zap.Error(err))
				app.showNotice(err.Error())
			}
		}
		logger.Info("loaded",
			zap.String("source", result.Source),
			zap.Int("surfaces", len(result.Surfaces)),
		)
	}
}

func (app *App) renderMenuBar() {
	if !imgui.BeginMainMenuBar() {
		return
	}

	if imgui.BeginMenu("File") {
		if imgui.MenuItemBool("Open Mesh...") {
			app.openFileDialog()
		}
		imgui.Separator()
		if imgui.MenuItemBool("Save Settings") {
			app.saveSettings()
		}
		imgui.Separator()
		if imgui.MenuItemBool("Exit") {
			os.Exit(0)
		}
		imgui.EndMenu()
	}

	if imgui.BeginMenu("View") {
		if imgui.MenuItemBool("Fit to Scene") {
			app.fitToScene()
		}
		imgui.EndMenu()
	}

	imgui.EndMainMenuBar()
}

// renderSurfacesPanel lists loaded entries with visibility toggles and
// remove buttons.
func (app *App) renderSurfacesPanel() {
	entries := app.scene.Entries()

	imgui.Text(fmt.Sprintf("Loaded: %d", len(entries)))
	imgui.Spacing()

	if len(entries) == 0 {
		imgui.TextDisabled("Drop a .xml or .json mesh here")
		return
	}

	for _, entry := range entries {
		visible := entry.Visible
		if imgui.Checkbox(fmt.Sprintf("##vis%d", entry.ID), &visible) {
			app.scene.SetVisible(entry.ID, visible)
		}
		imgui.SameLine()

		if imgui.Button(fmt.Sprintf("X##rm%d", entry.ID)) {
			app.scene.Remove(entry.ID, app.view)
			continue
		}
		imgui.SameLine()

		imgui.Text(entry.Name)
		if imgui.IsItemHovered() {
			imgui.SetTooltip(fmt.Sprintf("%s\nTriangles: %d\nVertices: %d",
				entry.Name, entry.Data.TriangleCount(), entry.Data.VertexCount()))
		}
	}
}

// renderViewPanel draws the display configuration controls.
func (app *App) renderViewPanel() {
	imgui.Text("Display")
	imgui.Spacing()

	// Color mode changes bake new vertex colors, so they rebuild.
	if imgui.BeginCombo("Colors", app.view.ColorMode.String()) {
		for _, mode := range []mesh.ColorMode{mesh.ColorFlat, mesh.ColorHeight, mesh.ColorIndex} {
			isSelected := app.view.ColorMode == mode
			if imgui.SelectableBoolV(mode.String(), isSelected, 0, imgui.NewVec2(0, 0)) && !isSelected {
				app.view.ColorMode = mode
				app.applyViewRebuild()
			}
		}
		imgui.EndCombo()
	}

	if imgui.BeginCombo("Faces", app.view.FaceSide.String()) {
		for _, side := range []scene.FaceSide{scene.FaceFront, scene.FaceBack, scene.FaceDouble} {
			isSelected := app.view.FaceSide == side
			if imgui.SelectableBoolV(side.String(), isSelected, 0, imgui.NewVec2(0, 0)) {
				app.view.FaceSide = side
			}
		}
		imgui.EndCombo()
	}

	imgui.SliderFloatV("Opacity", &app.view.Opacity, 0.0, 1.0, "%.2f", imgui.SliderFlagsNone)
	imgui.SliderFloatV("Point Size", &app.view.PointSize, 1.0, 10.0, "%.0f", imgui.SliderFlagsNone)

	imgui.Checkbox("Wireframe", &app.view.Wireframe)
	imgui.Checkbox("Vertices", &app.view.ShowVertices)
	imgui.Checkbox("Normals", &app.view.ShowNormals)
	imgui.Checkbox("Triangle Indices", &app.view.ShowIndices)
	imgui.Checkbox("Grid", &app.view.ShowGrid)
	imgui.Checkbox("Axes", &app.view.ShowAxes)

	imgui.Spacing()
	if imgui.Button("Fit to Scene") {
		app.fitToScene()
	}
}

// applyViewRebuild pushes the current view state through a full scene
// rebuild. Needed only when baked buffer data (colors) changes.
func (app *App) applyViewRebuild() {
	app.view.Clamp()
	if err := app.scene.SetView(app.view); err != nil {
		logger.Error("view rebuild failed", zap.Error(err))
		app.showNotice(err.Error())
	}
}

// renderViewportPanel draws the offscreen 3D view and routes mouse input
// to the camera while the image is hovered.
func (app *App) renderViewportPanel() {
	if app.viewport == nil {
		imgui.TextDisabled("3D view unavailable (OpenGL init failed)")
		return
	}

	avail := imgui.ContentRegionAvail()
	if avail.X < 16 || avail.Y < 16 {
		return
	}

	if err := app.viewport.Resize(int32(avail.X), int32(avail.Y)); err != nil {
		logger.Error("viewport resize failed", zap.Error(err))
	}

	textureID := app.viewport.Render(app.cam, app.view)

	imagePos := imgui.CursorScreenPos()

	// Flip V: the framebuffer texture has its origin at the bottom left.
	texRef := imgui.NewTextureRefTextureID(imgui.TextureID(textureID))
	imgui.ImageWithBgV(
		*texRef,
		imgui.NewVec2(avail.X, avail.Y),
		imgui.NewVec2(0, 1),
		imgui.NewVec2(1, 0),
		imgui.NewVec4(0, 0, 0, 0),
		imgui.NewVec4(1, 1, 1, 1),
	)

	if imgui.IsItemHovered() {
		mousePos := imgui.MousePos()
		if imgui.IsMouseDragging(imgui.MouseButtonLeft) {
			app.cam.HandleDrag(mousePos.X-app.lastMousePos.X, mousePos.Y-app.lastMousePos.Y)
		}
		if imgui.IsMouseDragging(imgui.MouseButtonRight) || imgui.IsMouseDragging(imgui.MouseButtonMiddle) {
			app.cam.HandlePan(mousePos.X-app.lastMousePos.X, mousePos.Y-app.lastMousePos.Y)
		}
		app.lastMousePos = mousePos

		wheel := imgui.CurrentIO().MouseWheel()
		if wheel != 0 {
			app.cam.HandleZoom(wheel)
		}
	}

	if app.view.ShowIndices {
		app.drawTriangleLabels(imagePos, avail.X, avail.Y)
	}
}

// drawTriangleLabels projects visible triangle centroids into the panel
// and numbers them, in entry load order, up to a fixed cap.
func (app *App) drawTriangleLabels(imagePos imgui.Vec2, displayW, displayH float32) {
	width, height := app.viewport.Size()
	if width == 0 || height == 0 {
		return
	}
	aspect := float32(width) / float32(height)
	viewProj := app.cam.ProjectionMatrix(aspect).Mul(app.cam.ViewMatrix())

	drawList := imgui.WindowDrawList()
	color := imgui.ColorU32Vec4(imgui.NewVec4(1.0, 1.0, 0.6, 1.0))

	drawn := 0
	for _, group := range app.viewport.Groups() {
		if !group.visible || group.buffers == nil {
			continue
		}
		buffers := group.buffers
		triangles := len(buffers.Indices) / 3
		for t := 0; t < triangles; t++ {
			if drawn >= maxIndexLabels {
				return
			}
			centroid := triangleCentroid(buffers, t)

			projected, w := viewProj.TransformPoint(centroid)
			if w <= 0 {
				continue
			}
			if projected.X < -1 || projected.X > 1 || projected.Y < -1 || projected.Y > 1 {
				continue
			}

			screenX := imagePos.X + (projected.X*0.5+0.5)*displayW
			screenY := imagePos.Y + (1-(projected.Y*0.5+0.5))*displayH
			drawList.AddTextVec2(imgui.NewVec2(screenX, screenY), color, strconv.Itoa(t))
			drawn++
		}
	}
}

func triangleCentroid(buffers *mesh.RenderBuffers, t int) (centroid mathx.Vec3) {
	i0 := buffers.Indices[t*3]
	i1 := buffers.Indices[t*3+1]
	i2 := buffers.Indices[t*3+2]

	for _, i := range []uint32{i0, i1, i2} {
		centroid.X += buffers.Positions[i*3]
		centroid.Y += buffers.Positions[i*3+1]
		centroid.Z += buffers.Positions[i*3+2]
	}
	centroid.X /= 3
	centroid.Y /= 3
	centroid.Z /= 3
	return centroid
}

// fitToScene reframes the camera on everything currently visible.
func (app *App) fitToScene() {
	if sphere, ok := app.scene.VisibleSphere(); ok {
		app.cam.FitSphere(sphere.Center, sphere.Radius)
	}
}

// saveSettings writes the current display configuration back to the
// per-user config file.
func (app *App) saveSettings() {
	app.cfg.Viewer.ColorMode = app.view.ColorMode.String()
	app.cfg.Viewer.FaceSide = app.view.FaceSide.String()
	app.cfg.Viewer.Opacity = app.view.Opacity
	app.cfg.Viewer.PointSize = app.view.PointSize
	app.cfg.Viewer.Wireframe = app.view.Wireframe
	app.cfg.Viewer.ShowGrid = app.view.ShowGrid
	app.cfg.Viewer.ShowAxes = app.view.ShowAxes

	if err := app.cfg.Save(); err != nil {
		logger.Error("saving settings failed", zap.Error(err))
		app.showNotice(fmt.Sprintf("Failed to save settings: %v", err))
		return
	}
	logger.Info("settings saved")
}

func (app *App) showNotice(message string) {
	app.notice = message
	app.noticeTime = time.Now()
}

// renderStatusBar shows aggregate stats for visible surfaces and any
// recent load error.
func (app *App) renderStatusBar() {
	stats := app.scene.Stats()
	center := app.scene.Center()

	imgui.Text(fmt.Sprintf("%d surfaces | %d triangles | %d vertices | center (%.1f, %.1f, %.1f)",
		app.scene.Len(), stats.Triangles, stats.Vertices, center.X, center.Y, center.Z))

	if app.notice != "" && time.Since(app.noticeTime) < noticeDuration {
		imgui.SameLine()
		imgui.TextColored(imgui.NewVec4(1.0, 0.45, 0.4, 1.0), app.notice)
	} else if app.notice != "" {
		app.notice = ""
	}
}
