package fyne

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// playableExtensions limits the open dialog to files the decoder handles.
var playableExtensions = []string{".mp3", ".wav"}

// FileDialog asks for one audio file.
type FileDialog struct {
	window   fyne.Window
	callback func(string)
}

// NewFileDialog creates a file dialog that reports the chosen path to callback.
func NewFileDialog(window fyne.Window, callback func(string)) *FileDialog {
	return &FileDialog{window: window, callback: callback}
}

// Show displays the dialog. Cancelling calls nothing.
func (d *FileDialog) Show() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, d.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()
		if d.callback != nil {
			d.callback(reader.URI().Path())
		}
	}, d.window)
	fd.SetFilter(storage.NewExtensionFileFilter(playableExtensions))
	fd.Show()
}

// FolderDialog asks for a music folder.
type FolderDialog struct {
	window   fyne.Window
	callback func(string)
}

// NewFolderDialog creates a folder dialog that reports the chosen path to callback.
func NewFolderDialog(window fyne.Window, callback func(string)) *FolderDialog {
	return &FolderDialog{window: window, callback: callback}
}

// Show displays the dialog. Cancelling calls nothing.
func (d *FolderDialog) Show() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, d.window)
			return
		}
		if uri == nil {
			return
		}
		if d.callback != nil {
			d.callback(uri.Path())
		}
	}, d.window)
}
