// Package widgets provides custom Fyne widgets for the turntable window.
package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// Stage wraps the visualizer output and turns pointer gestures into actions:
// a tap toggles playback, a double tap toggles fullscreen and a secondary tap
// opens the effects menu.
type Stage struct {
	widget.BaseWidget

	content fyne.CanvasObject

	OnTapped          func()
	OnDoubleTapped    func()
	OnTappedSecondary func(pos fyne.Position)
}

// NewStage creates a stage around content.
func NewStage(content fyne.CanvasObject) *Stage {
	s := &Stage{content: content}
	s.ExtendBaseWidget(s)
	return s
}

// CreateRenderer implements fyne.Widget.
func (s *Stage) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.content)
}

// MinSize keeps the stage at least as large as its content asks for.
func (s *Stage) MinSize() fyne.Size {
	s.ExtendBaseWidget(s)
	return s.content.MinSize()
}

// Tapped implements fyne.Tappable.
func (s *Stage) Tapped(*fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped()
	}
}

// DoubleTapped implements fyne.DoubleTappable.
func (s *Stage) DoubleTapped(*fyne.PointEvent) {
	if s.OnDoubleTapped != nil {
		s.OnDoubleTapped()
	}
}

// TappedSecondary implements fyne.SecondaryTappable.
func (s *Stage) TappedSecondary(pe *fyne.PointEvent) {
	if s.OnTappedSecondary != nil {
		s.OnTappedSecondary(pe.AbsolutePosition)
	}
}

var (
	_ fyne.Tappable          = (*Stage)(nil)
	_ fyne.DoubleTappable    = (*Stage)(nil)
	_ fyne.SecondaryTappable = (*Stage)(nil)
)
