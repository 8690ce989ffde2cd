package engine

import "github.com/borgmon/alert-timeline/pkg/models"

// NotificationKind tells the fire-time notification apart from the early
// reminder
type NotificationKind int

const (
	NotifyMain NotificationKind = iota
	NotifyReminder
)

// Notification is what the engine asks a Notifier to show
type Notification struct {
	Kind    NotificationKind
	AlertID string
	Title   string
	Body    string
}

// Notifier shows a desktop notification
type Notifier interface {
	Notify(n Notification)
}

// URLOpener opens a link in the user's browser
type URLOpener interface {
	OpenURL(rawURL string)
}

// Observer is told about alerts changing or going away so views can refresh
type Observer interface {
	OnAlertUpdated(alert models.Alert)
	OnAlertDeleted(id string)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Updated func(models.Alert)
	Deleted func(string)
}

func (o ObserverFuncs) OnAlertUpdated(alert models.Alert) {
	if o.Updated != nil {
		o.Updated(alert)
	}
}

func (o ObserverFuncs) OnAlertDeleted(id string) {
	if o.Deleted != nil {
		o.Deleted(id)
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

type nopOpener struct{}

func (nopOpener) OpenURL(string) {}
