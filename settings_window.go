package main

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/borgmon/alert-timeline/pkg/models"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// SettingsWindow edits the persisted configuration
type SettingsWindow struct {
	window fyne.Window
	app    fyne.App
	config *models.Config
	onSave func(*models.Config)
	logger *zap.Logger

	autoStartCheck  *widget.Check
	logLevelSelect  *widget.Select
	storageSelect   *widget.Select
	sqlitePathEntry *widget.Entry
	chimePathEntry  *widget.Entry
	cleanupEntry    *widget.Entry
	trayLimitEntry  *widget.Entry
	saveStatusLabel *widget.Label
}

func NewSettingsWindow(app fyne.App, config *models.Config, logger *zap.Logger, onSave func(*models.Config)) *SettingsWindow {
	sw := &SettingsWindow{
		app:    app,
		config: config,
		onSave: onSave,
		logger: logger,
	}

	sw.window = app.NewWindow(appDisplayName + " - Settings")
	sw.buildUI()

	return sw
}

func (sw *SettingsWindow) buildUI() {
	sw.autoStartCheck = widget.NewCheck("Launch "+appDisplayName+" when your system starts", nil)
	sw.autoStartCheck.SetChecked(sw.config.AutoStart)

	sw.logLevelSelect = widget.NewSelect(logLevels, nil)
	sw.logLevelSelect.SetSelected(sw.config.LogLevel)

	sw.sqlitePathEntry = widget.NewEntry()
	sw.sqlitePathEntry.SetText(sw.config.SQLitePath)

	sw.storageSelect = widget.NewSelect([]string{models.StoragePreferences, models.StorageSQLite}, func(backend string) {
		if backend == models.StorageSQLite {
			sw.sqlitePathEntry.Enable()
		} else {
			sw.sqlitePathEntry.Disable()
		}
	})
	sw.storageSelect.SetSelected(sw.config.StorageBackend)

	sw.chimePathEntry = widget.NewEntry()
	sw.chimePathEntry.SetText(sw.config.ChimePath)
	sw.chimePathEntry.SetPlaceHolder("path to a 16-bit WAV file, empty for silence")

	sw.cleanupEntry = widget.NewEntry()
	sw.cleanupEntry.SetText(strconv.Itoa(sw.config.CleanupDelaySeconds))

	sw.trayLimitEntry = widget.NewEntry()
	sw.trayLimitEntry.SetText(strconv.Itoa(sw.config.TrayUpcomingLimit))

	// Storage root URI display (read-only)
	storageURIEntry := widget.NewEntry()
	storageURIEntry.SetText(sw.app.Storage().RootURI().String())
	storageURIEntry.Disable()
	openStorageButton := widget.NewButton("Open in File Manager", func() {
		sw.openStorageFolder()
	})

	restartHelp := widget.NewLabel("Storage, log level and chime changes apply after a restart.")
	restartHelp.Wrapping = fyne.TextWrapWord
	restartHelp.Importance = widget.MediumImportance

	form := container.New(layout.NewFormLayout(),
		widget.NewLabel("Auto Start:"), sw.autoStartCheck,
		widget.NewLabel("Storage:"), sw.storageSelect,
		widget.NewLabel("Database:"), sw.sqlitePathEntry,
		widget.NewLabel("Chime:"), sw.chimePathEntry,
		widget.NewLabel("Keep fired alerts (s):"), sw.cleanupEntry,
		widget.NewLabel("Alerts in tray menu:"), sw.trayLimitEntry,
		widget.NewLabel("Log Level:"), sw.logLevelSelect,
		widget.NewLabel("Storage Location:"), container.NewBorder(nil, nil, nil, openStorageButton, storageURIEntry),
	)

	sw.saveStatusLabel = widget.NewLabel("")
	saveButton := widget.NewButton("Save", func() {
		newConfig, err := sw.configFromUI()
		if err != nil {
			dialog.ShowError(err, sw.window)
			return
		}
		sw.config = newConfig
		if sw.onSave != nil {
			sw.onSave(newConfig)
		}
		sw.saveStatusLabel.SetText("Settings saved")
	})
	saveButton.Importance = widget.HighImportance
	closeButton := widget.NewButton("Close", func() {
		sw.window.Close()
	})

	buttonRow := container.NewBorder(nil, nil,
		container.NewHBox(saveButton, sw.saveStatusLabel),
		closeButton,
	)

	content := container.NewBorder(
		nil,
		container.NewPadded(buttonRow),
		nil,
		nil,
		container.NewVScroll(container.NewVBox(form, restartHelp)),
	)

	sw.window.SetContent(container.NewPadded(content))
	sw.window.Resize(fyne.NewSize(640, 460))
	sw.window.CenterOnScreen()

	sw.window.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		if key.Name == fyne.KeyEscape {
			sw.window.Close()
		}
	})
}

func (sw *SettingsWindow) configFromUI() (*models.Config, error) {
	cleanup, err := strconv.Atoi(strings.TrimSpace(sw.cleanupEntry.Text))
	if err != nil || cleanup < 0 {
		return nil, fmt.Errorf("keep fired alerts must be a number of seconds")
	}
	limit, err := strconv.Atoi(strings.TrimSpace(sw.trayLimitEntry.Text))
	if err != nil || limit < 0 {
		return nil, fmt.Errorf("alerts in tray menu must be a positive number")
	}

	return &models.Config{
		AutoStart:           sw.autoStartCheck.Checked,
		LogLevel:            sw.logLevelSelect.Selected,
		CleanupDelaySeconds: cleanup,
		StorageBackend:      sw.storageSelect.Selected,
		SQLitePath:          strings.TrimSpace(sw.sqlitePathEntry.Text),
		ChimePath:           strings.TrimSpace(sw.chimePathEntry.Text),
		TrayUpcomingLimit:   limit,
	}, nil
}

func (sw *SettingsWindow) openStorageFolder() {
	path := sw.app.Storage().RootURI().Path()
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		sw.logger.Warn("Unsupported OS for file manager", zap.String("os", runtime.GOOS))
		return
	}

	if err := cmd.Start(); err != nil {
		sw.logger.Warn("Error opening file manager", zap.Error(err))
	}
}
