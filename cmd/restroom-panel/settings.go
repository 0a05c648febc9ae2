package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/restroom/pkg/board"
	"github.com/itohio/restroom/pkg/report"
)

// showSettingsDialog displays the configuration tabs. Changes are saved
// immediately and take effect on the next connect.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createGasTab(state),
		createScaleTab(state),
		createPresenceTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

func saveConfig(state *appState) {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := board.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Display name to port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}
	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				selected := portMap[portSelect.Selected]
				if selected == "" {
					selected = portSelect.Selected
				}
				state.cfg.Serial.Port = selected
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.BaudRate = baud
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Serial", form)
}

// createGasTab creates the gas sensor averaging and calibration tab.
func createGasTab(state *appState) *container.TabItem {
	gas := &state.cfg.Ammonia

	averagingEntry := widget.NewEntry()
	averagingEntry.SetText(gas.AveragingInterval.String())
	intervalEntry := widget.NewEntry()
	intervalEntry.SetText(gas.CalibrationInterval.String())
	retryEntry := widget.NewEntry()
	retryEntry.SetText(gas.Calibration.RetryInterval.String())
	maxSamplesEntry := widget.NewEntry()
	maxSamplesEntry.SetText(strconv.Itoa(gas.Calibration.MaxSamples))
	incremental := widget.NewCheck("", nil)
	incremental.SetChecked(gas.Calibration.Incremental)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Averaging Interval", Widget: averagingEntry},
			{Text: "Calibration Interval", Widget: intervalEntry},
			{Text: "Retry Interval", Widget: retryEntry},
			{Text: "Max Samples", Widget: maxSamplesEntry},
			{Text: "Non-blocking Calibration", Widget: incremental},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(averagingEntry.Text); err == nil {
				gas.AveragingInterval = d
			}
			if d, err := time.ParseDuration(intervalEntry.Text); err == nil {
				gas.CalibrationInterval = d
			}
			if d, err := time.ParseDuration(retryEntry.Text); err == nil {
				gas.Calibration.RetryInterval = d
			}
			if n, err := strconv.Atoi(maxSamplesEntry.Text); err == nil && n > 0 {
				gas.Calibration.MaxSamples = n
			}
			gas.Calibration.Incremental = incremental.Checked
			saveConfig(state)
		},
	}

	return container.NewTabItem("Gas Sensor", form)
}

// createScaleTab creates the odor scale tab.
func createScaleTab(state *appState) *container.TabItem {
	scale := &state.cfg.Ammonia.Scale

	entries := []struct {
		label string
		value *float32
		entry *widget.Entry
	}{
		{label: "Intercept", value: &scale.Intercept},
		{label: "Slope", value: &scale.Slope},
		{label: "Good up to (score)", value: &scale.GoodMax},
		{label: "Normal up to (score)", value: &scale.NormalMax},
	}
	form := &widget.Form{}
	for i := range entries {
		e := widget.NewEntry()
		e.SetText(fmt.Sprintf("%.3f", *entries[i].value))
		entries[i].entry = e
		form.Append(entries[i].label, e)
	}
	form.OnSubmit = func() {
		for _, e := range entries {
			if v, err := strconv.ParseFloat(e.entry.Text, 32); err == nil {
				*e.value = float32(v)
			}
		}
		saveConfig(state)
	}

	return container.NewTabItem("Odor Scale", form)
}

// createPresenceTab creates the soap threshold and report language tab.
func createPresenceTab(state *appState) *container.TabItem {
	thresholdEntry := widget.NewEntry()
	thresholdEntry.SetText(strconv.Itoa(int(state.cfg.Soap.EmptyThresholdCM)))
	localeSelect := widget.NewSelect(report.Locales(), nil)
	localeSelect.SetSelected(state.cfg.Report.Locale)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Soap Empty Above (cm)", Widget: thresholdEntry},
			{Text: "Report Language", Widget: localeSelect},
		},
		OnSubmit: func() {
			if n, err := strconv.Atoi(thresholdEntry.Text); err == nil && n > 0 {
				state.cfg.Soap.EmptyThresholdCM = int32(n)
			}
			if localeSelect.Selected != "" {
				state.cfg.Report.Locale = localeSelect.Selected
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Soap & Report", form)
}

// createMockTab creates the simulated board tab.
func createMockTab(state *appState) *container.TabItem {
	mock := &state.cfg.Mock

	baselineEntry := widget.NewEntry()
	baselineEntry.SetText(strconv.Itoa(int(mock.BaselineADC)))
	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.1f", mock.Noise))
	depthEntry := widget.NewEntry()
	depthEntry.SetText(fmt.Sprintf("%.0f", mock.OdorDepth))
	periodEntry := widget.NewEntry()
	periodEntry.SetText(mock.OdorPeriod.String())
	durationEntry := widget.NewEntry()
	durationEntry.SetText(mock.OdorDuration.String())
	sampleRateEntry := widget.NewEntry()
	sampleRateEntry.SetText(mock.SampleRate.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Clean Air ADC", Widget: baselineEntry},
			{Text: "Noise (counts)", Widget: noiseEntry},
			{Text: "Odor Depth (counts)", Widget: depthEntry},
			{Text: "Odor Period", Widget: periodEntry},
			{Text: "Odor Duration", Widget: durationEntry},
			{Text: "Sample Rate", Widget: sampleRateEntry},
		},
		OnSubmit: func() {
			if n, err := strconv.ParseUint(baselineEntry.Text, 10, 16); err == nil {
				mock.BaselineADC = uint16(n)
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				mock.Noise = v
			}
			if v, err := strconv.ParseFloat(depthEntry.Text, 64); err == nil {
				mock.OdorDepth = v
			}
			if d, err := time.ParseDuration(periodEntry.Text); err == nil {
				mock.OdorPeriod = d
			}
			if d, err := time.ParseDuration(durationEntry.Text); err == nil {
				mock.OdorDuration = d
			}
			if d, err := time.ParseDuration(sampleRateEntry.Text); err == nil {
				mock.SampleRate = d
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
