package main

import "fyne.io/fyne/v2"

// UpdateWidgetOnMainThread schedules a widget update on the Fyne event loop.
// Station callbacks run on the polling goroutine and must not touch widgets
// directly.
func UpdateWidgetOnMainThread(callback func()) {
	if callback == nil {
		return
	}
	fyne.Do(callback)
}
