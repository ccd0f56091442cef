package fyne

import (
	"fmt"
	"image"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/turntable/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/turntable/internal/domain"
	"github.com/tejashwikalptaru/turntable/internal/ports"
	"github.com/tejashwikalptaru/turntable/internal/service"
)

const (
	modeFrequency = "Frequency"
	modeWaveform  = "Waveform"
)

// WindowOptions configures the main window.
type WindowOptions struct {
	Title   string
	Version string // shown in the About dialog

	// Width and Height are the surface size; the stage asks for half of it
	// as its minimum and scales the frame to fit.
	Width, Height int

	// Frame returns the image the last render produced.
	Frame func() image.Image

	// Initial seeds the controls.
	Initial domain.VisualConfig
	Volume  float64
}

// MainWindow is the visualizer window: the stage on top, the control panel
// below. It is a passive view; every input goes to the presenter.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	opts   WindowOptions

	raster *canvas.Raster
	stage  *widgets.Stage

	checks     map[service.Toggle]*widget.Check
	modeRadio  *widget.RadioGroup
	volume     *widget.Slider
	rotation   *widget.Slider
	earthquake *widget.Slider
	barHeight  *widget.Slider
	bass       *widget.Slider
	treble     *widget.Slider

	playButton  *widget.Button
	fullscreen  *widget.Button
	trackSelect *widget.Select
	trackTitle  *widget.Label
	length      *widget.Label

	mu         sync.Mutex
	trackPaths []string

	closeOnce sync.Once
	presenter *Presenter
}

// NewMainWindow builds the window. Nothing is shown until ShowAndRun.
func NewMainWindow(app fyneapp.App, opts WindowOptions) *MainWindow {
	w := &MainWindow{
		app:    app,
		opts:   opts,
		checks: make(map[service.Toggle]*widget.Check),
	}
	w.window = app.NewWindow(opts.Title)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(float32(opts.Width), float32(opts.Height)+220))
	return w
}

func (w *MainWindow) buildUI() {
	w.raster = canvas.NewRaster(func(int, int) image.Image {
		if w.opts.Frame == nil {
			return image.NewRGBA(image.Rect(0, 0, 1, 1))
		}
		return w.opts.Frame()
	})
	w.raster.ScaleMode = canvas.ImageScaleFastest
	w.raster.SetMinSize(fyneapp.NewSize(float32(w.opts.Width)/2, float32(w.opts.Height)/2))
	w.stage = widgets.NewStage(w.raster)

	cfg := w.opts.Initial
	toggles := []struct {
		toggle service.Toggle
		label  string
		on     bool
	}{
		{service.ToggleGradient, "Gradient", cfg.ShowGradient},
		{service.ToggleBars, "Bars", cfg.ShowBars},
		{service.ToggleCircles, "Album Cover", cfg.ShowCircles},
		{service.ToggleNoise, "Noise", cfg.ShowNoise},
		{service.ToggleInvert, "Invert", cfg.ShowInvert},
		{service.ToggleEmboss, "Emboss", cfg.ShowEmboss},
	}
	checkRow := container.NewHBox()
	for _, t := range toggles {
		c := widget.NewCheck(t.label, nil)
		c.SetChecked(t.on)
		w.checks[t.toggle] = c
		checkRow.Add(c)
	}

	w.modeRadio = widget.NewRadioGroup([]string{modeFrequency, modeWaveform}, nil)
	w.modeRadio.Horizontal = true
	w.modeRadio.Required = true
	if cfg.ShowFrequency {
		w.modeRadio.SetSelected(modeFrequency)
	} else {
		w.modeRadio.SetSelected(modeWaveform)
	}

	w.volume = newSlider(0, service.VolumeSliderMax, service.VolumeSliderStep, w.opts.Volume)
	w.rotation = newSlider(0, service.RotationSliderMax, 0.1, service.SliderFromRotationSpeed(cfg.RotationSpeed))
	w.earthquake = newSlider(0, service.EarthquakeSliderMax, 1, cfg.EarthquakeJitter*100)
	w.barHeight = newSlider(0, service.BarSliderMax, 0.1, cfg.BarHeightScale)
	w.bass = newSlider(0, service.FilterSliderMax, service.FilterSliderStep, 0)
	w.treble = newSlider(0, service.FilterSliderMax, service.FilterSliderStep, 0)

	sliders := container.NewGridWithColumns(6,
		labeled("Volume", w.volume),
		labeled("Rotation", w.rotation),
		labeled("Earthquake", w.earthquake),
		labeled("Bar Height", w.barHeight),
		labeled("Bass", w.bass),
		labeled("Treble", w.treble),
	)

	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.fullscreen = widget.NewButtonWithIcon("", theme.ViewFullScreenIcon(), w.toggleFullScreen)
	w.trackSelect = widget.NewSelect(nil, nil)
	w.trackSelect.PlaceHolder = "Select a track"
	w.trackTitle = widget.NewLabel("No track loaded")
	w.trackTitle.Truncation = fyneapp.TextTruncateEllipsis
	w.length = widget.NewLabel(domain.FormatClock(domain.DefaultTrackDuration))

	transport := container.NewBorder(nil, nil,
		container.NewHBox(w.playButton, w.trackSelect),
		container.NewHBox(w.length, w.fullscreen),
		w.trackTitle,
	)
	panel := container.NewVBox(transport, container.NewHBox(checkRow, w.modeRadio), sliders)

	w.window.SetContent(container.NewBorder(nil, panel, nil, nil, w.stage))
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

func newSlider(lo, hi, step, value float64) *widget.Slider {
	s := widget.NewSlider(lo, hi)
	s.Step = step
	s.Value = value
	return s
}

func labeled(label string, obj fyneapp.CanvasObject) fyneapp.CanvasObject {
	return container.NewBorder(nil, nil, widget.NewLabel(label), nil, obj)
}

// SetPresenter connects the controls to p. Call it before ShowAndRun.
func (w *MainWindow) SetPresenter(p *Presenter) {
	w.presenter = p

	for toggle, c := range w.checks {
		c.OnChanged = func(on bool) { p.OnToggleChanged(toggle, on) }
	}
	w.modeRadio.OnChanged = func(mode string) {
		if mode == modeWaveform {
			p.OnSampleModeChanged(domain.ModeWaveform)
		} else {
			p.OnSampleModeChanged(domain.ModeFrequency)
		}
	}
	w.volume.OnChanged = p.OnVolumeChanged
	w.rotation.OnChanged = p.OnRotationChanged
	w.earthquake.OnChanged = p.OnEarthquakeChanged
	w.barHeight.OnChanged = p.OnBarHeightChanged
	w.bass.OnChanged = p.OnBassChanged
	w.treble.OnChanged = p.OnTrebleChanged

	w.playButton.OnTapped = p.OnPlayClicked
	w.trackSelect.OnChanged = func(string) {
		if path, ok := w.selectedPath(); ok {
			p.OnTrackSelected(path)
		}
	}

	w.stage.OnTapped = p.OnPlayClicked
	w.stage.OnDoubleTapped = w.toggleFullScreen
	w.stage.OnTappedSecondary = w.showEffectsMenu
	w.addShortcuts()
}

func (w *MainWindow) selectedPath() (string, bool) {
	i := w.trackSelect.SelectedIndex()
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.trackPaths) {
		return "", false
	}
	return w.trackPaths[i], true
}

func (w *MainWindow) createMenu() []*fyneapp.Menu {
	openFile := fyneapp.NewMenuItem("Open…", func() {
		NewFileDialog(w.window, w.onFileChosen).Show()
	})
	openFolder := fyneapp.NewMenuItem("Open Folder…", func() {
		NewFolderDialog(w.window, w.onFolderChosen).Show()
	})
	fullscreen := fyneapp.NewMenuItem("Toggle Fullscreen", w.toggleFullScreen)
	about := fyneapp.NewMenuItem("About", func() { showAbout(w.window, w.opts.Version) })
	file := fyneapp.NewMenu("File", openFile, openFolder)
	view := fyneapp.NewMenu("View", fullscreen)
	help := fyneapp.NewMenu("Help", about)
	return []*fyneapp.Menu{file, view, help}
}

func (w *MainWindow) onFileChosen(path string) {
	if w.presenter != nil {
		w.presenter.OnFileOpened(path)
	}
}

func (w *MainWindow) onFolderChosen(path string) {
	if w.presenter != nil {
		w.presenter.OnFolderOpened(path)
	}
}

// showEffectsMenu pops the scene toggles up at pos.
func (w *MainWindow) showEffectsMenu(pos fyneapp.Position) {
	order := []service.Toggle{
		service.ToggleGradient, service.ToggleBars, service.ToggleCircles,
		service.ToggleNoise, service.ToggleInvert, service.ToggleEmboss,
	}
	items := make([]*fyneapp.MenuItem, 0, len(order))
	for _, t := range order {
		c := w.checks[t]
		item := fyneapp.NewMenuItem(c.Text, func() { c.SetChecked(!c.Checked) })
		item.Checked = c.Checked
		items = append(items, item)
	}
	widget.ShowPopUpMenuAtPosition(fyneapp.NewMenu("Effects", items...), w.window.Canvas(), pos)
}

func (w *MainWindow) toggleFullScreen() {
	w.window.SetFullScreen(!w.window.FullScreen())
}

func (w *MainWindow) addShortcuts() {
	w.window.Canvas().SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		switch ev.Name {
		case fyneapp.KeySpace:
			w.presenter.OnPlayClicked()
		case fyneapp.KeyF11:
			w.toggleFullScreen()
		case fyneapp.KeyEscape:
			if w.window.FullScreen() {
				w.window.SetFullScreen(false)
			}
		}
	})
}

// RefreshFrame repaints the stage from the latest frame. Call it on the UI thread.
func (w *MainWindow) RefreshFrame() {
	w.raster.Refresh()
}

// SetOnClosed registers fn to run when the user closes the window.
func (w *MainWindow) SetOnClosed(fn func()) {
	w.window.SetOnClosed(fn)
}

// ShowAndRun shows the window and blocks until the app quits.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window. It is safe to call more than once.
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		fyneapp.DoAndWait(w.window.Close)
	})
}

// Window returns the underlying Fyne window.
func (w *MainWindow) Window() fyneapp.Window {
	return w.window
}

// View implementation. Calls may come from service goroutines.

// SetPlaying implements ports.View.
func (w *MainWindow) SetPlaying(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// SetTrackTitle implements ports.View.
func (w *MainWindow) SetTrackTitle(title string) {
	fyneapp.Do(func() {
		w.trackTitle.SetText(title)
		w.window.SetTitle(fmt.Sprintf("%s - %s", title, w.opts.Title))
	})
}

// SetDuration implements ports.View.
func (w *MainWindow) SetDuration(d time.Duration) {
	fyneapp.Do(func() {
		w.length.SetText(domain.FormatClock(d))
	})
}

// SetTracks implements ports.View.
func (w *MainWindow) SetTracks(tracks []domain.Track) {
	names := make([]string, len(tracks))
	paths := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = t.DisplayName()
		paths[i] = t.FilePath
	}
	fyneapp.Do(func() {
		w.mu.Lock()
		w.trackPaths = paths
		w.mu.Unlock()
		w.trackSelect.SetOptions(names)
	})
}

// ShowError implements ports.View.
func (w *MainWindow) ShowError(title string, err error) {
	fyneapp.Do(func() {
		dialog.ShowError(fmt.Errorf("%s: %w", title, err), w.window)
	})
}

var _ ports.View = (*MainWindow)(nil)
