package main

import (
	"net/url"

	"fyne.io/fyne/v2"
	"go.uber.org/zap"

	"github.com/borgmon/alert-timeline/pkg/audio"
	"github.com/borgmon/alert-timeline/pkg/engine"
)

// desktopNotifier delivers engine notifications through the fyne driver
type desktopNotifier struct {
	app    fyne.App
	chime  *audio.Chime
	logger *zap.Logger
}

func (n *desktopNotifier) Notify(note engine.Notification) {
	fyne.Do(func() {
		n.app.SendNotification(fyne.NewNotification(note.Title, note.Body))
	})
	if note.Kind == engine.NotifyMain {
		n.chime.Play()
	}
}

func (n *desktopNotifier) OpenURL(rawURL string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		n.logger.Warn("Refusing to open malformed URL", zap.String("url", rawURL), zap.Error(err))
		return
	}
	fyne.Do(func() {
		if err := n.app.OpenURL(u); err != nil {
			n.logger.Warn("Failed to open URL", zap.String("url", rawURL), zap.Error(err))
		}
	})
}
