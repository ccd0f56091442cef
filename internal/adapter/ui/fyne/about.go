package fyne

import (
	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// aboutContent is the Markdown shown in the About dialog.
const aboutContent = `A record player that spins to your music, built with Go and Fyne.

**Controls:**
- Click the stage or press Space to play and pause
- Double click or press F11 for fullscreen
- Right click the stage for the effects menu
- Open a file or a whole folder from the File menu

**Effects:** gradient wash, spectrum or waveform bars, album cover disc,
noise, invert and emboss.
`

// showAbout opens the About dialog with the running version in its title.
func showAbout(window fyneapp.Window, version string) {
	body := widget.NewRichTextFromMarkdown(aboutContent)
	body.Wrapping = fyneapp.TextWrapWord
	title := "About"
	if version != "" {
		title = "About " + version
	}
	d := dialog.NewCustom(title, "Close", body, window)
	d.Resize(fyneapp.NewSize(420, 320))
	d.Show()
}
