package domain

type NotificationChannel string

const (
	NotificationChannelSMS   NotificationChannel = "sms"
	NotificationChannelEmail NotificationChannel = "email"
)

// NotificationIntent is a declarative side-effect request. The scheduling
// core emits intents as pure data; delivery, retry, and failure logging
// belong to the host application's dispatcher.
type NotificationIntent struct {
	Channel    NotificationChannel
	To         string
	TemplateID string
	Params     map[string]string
}
