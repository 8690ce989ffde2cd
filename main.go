package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/storage"
	"go.uber.org/zap"

	"github.com/borgmon/alert-timeline/pkg/audio"
	"github.com/borgmon/alert-timeline/pkg/engine"
	"github.com/borgmon/alert-timeline/pkg/export"
	"github.com/borgmon/alert-timeline/pkg/logger"
	"github.com/borgmon/alert-timeline/pkg/models"
	"github.com/borgmon/alert-timeline/pkg/platform"
	"github.com/borgmon/alert-timeline/pkg/store"
)

const (
	appID          = "com.borgmon.alert-timeline"
	appName        = "alert-timeline"
	appDisplayName = "Alert Timeline"
	exportFileName = "alerts.ics"
)

type AlertTimeline struct {
	app            fyne.App
	configStore    *store.ConfigStore
	config         *models.Config
	logger         *zap.Logger
	engine         *engine.Engine
	closeBackend   func() error
	timelineWindow *TimelineWindow
	settingsWindow *SettingsWindow
}

func main() {
	at := &AlertTimeline{
		app: app.NewWithID(appID),
	}

	if err := at.initialize(context.Background()); err != nil {
		log.Fatal(err)
	}

	at.run()
}

func (at *AlertTimeline) initialize(ctx context.Context) error {
	at.configStore = store.NewConfigStore(at.app)
	at.config = at.configStore.Load()

	l, err := logger.New(at.config.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	at.logger = l

	// Sync autostart state with config on startup
	if err := setupAutostart(at.config.AutoStart, at.logger); err != nil {
		at.logger.Warn("Failed to setup autostart", zap.Error(err))
	}

	at.configStore.Save(at.config)

	backend := at.openBackend(ctx)
	notifier := &desktopNotifier{
		app:    at.app,
		chime:  audio.NewChime(at.config.ChimePath, at.logger.Named("audio")),
		logger: at.logger,
	}

	at.engine = engine.New(engine.Options{
		Store:        store.NewAlertStore(backend, at.logger.Named("store")),
		Notifier:     notifier,
		Opener:       notifier,
		CleanupDelay: at.config.CleanupDelay(),
		Logger:       at.logger.Named("engine"),
	})
	at.engine.Start(ctx)

	// Views are built after Start so the initial state needs no events
	at.engine.Subscribe(engine.ObserverFuncs{
		Updated: func(models.Alert) { at.refreshViews() },
		Deleted: func(string) { at.refreshViews() },
	})
	at.setupSystemTray()

	return nil
}

// openBackend returns the configured storage backend, falling back to
// preferences when the database cannot be opened
func (at *AlertTimeline) openBackend(ctx context.Context) store.Backend {
	if at.config.UsesSQLite() {
		db, err := store.OpenSQLite(ctx, at.config.SQLitePath)
		if err == nil {
			at.closeBackend = db.Close
			at.logger.Info("Using SQLite storage", zap.String("path", at.config.SQLitePath))
			return db
		}
		at.logger.Error("Failed to open SQLite storage, using preferences",
			zap.String("path", at.config.SQLitePath), zap.Error(err))
	}
	return store.NewPreferencesBackend(at.app)
}

func (at *AlertTimeline) run() {
	at.app.Lifecycle().SetOnStarted(func() {
		platform.SetActivationPolicy()
	})
	at.app.Run()
}

// refreshViews redraws everything that lists alerts. Safe from any goroutine.
func (at *AlertTimeline) refreshViews() {
	fyne.Do(func() {
		at.updateSystemTrayMenu()
		if at.timelineWindow != nil {
			at.timelineWindow.refresh()
		}
	})
}

func (at *AlertTimeline) showTimelineWindow() {
	if at.timelineWindow != nil {
		at.timelineWindow.window.RequestFocus()
		at.timelineWindow.window.Show()
		return
	}

	at.timelineWindow = NewTimelineWindow(at)
	at.timelineWindow.window.SetOnClosed(func() {
		at.timelineWindow = nil
	})
	at.timelineWindow.window.Show()
	platform.ActivateApp()
}

func (at *AlertTimeline) showSettingsWindow() {
	if at.settingsWindow != nil {
		at.settingsWindow.window.RequestFocus()
		at.settingsWindow.window.Show()
		return
	}

	at.settingsWindow = NewSettingsWindow(at.app, at.config, at.logger, func(newConfig *models.Config) {
		at.applyConfig(newConfig)
	})
	at.settingsWindow.window.SetOnClosed(func() {
		at.settingsWindow = nil
	})
	at.settingsWindow.window.Show()
	platform.ActivateApp()
}

// applyConfig persists new settings. Storage, log level and chime changes
// take effect on the next launch.
func (at *AlertTimeline) applyConfig(newConfig *models.Config) {
	if err := setupAutostart(newConfig.AutoStart, at.logger); err != nil {
		at.logger.Warn("Failed to update autostart", zap.Error(err))
	}
	at.configStore.Save(newConfig)
	at.config = newConfig
	at.logger.Info("Settings saved",
		zap.String("storage_backend", newConfig.StorageBackend),
		zap.String("log_level", newConfig.LogLevel))
	at.refreshViews()
}

// exportCalendar writes every alert to an .ics file in the app storage root
func (at *AlertTimeline) exportCalendar() (fyne.URI, error) {
	uri, err := storage.Child(at.app.Storage().RootURI(), exportFileName)
	if err != nil {
		return nil, err
	}

	w, err := storage.Writer(uri)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	alerts := at.engine.List()
	if err := export.Write(w, alerts, time.Now()); err != nil {
		return nil, err
	}
	at.logger.Info("Calendar exported", zap.String("uri", uri.String()), zap.Int("alerts", len(alerts)))
	return uri, nil
}

func (at *AlertTimeline) quit() {
	at.engine.Stop()
	if at.closeBackend != nil {
		if err := at.closeBackend(); err != nil {
			at.logger.Warn("Failed to close storage", zap.Error(err))
		}
	}
	_ = at.logger.Sync()
	at.app.Quit()
}
