package adapter

// AlertLevel ranks admin notifications.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertError    AlertLevel = "error"
	AlertCritical AlertLevel = "critical"
)

// AdminNotifier delivers operational alerts to the admin chat. Calls are
// fire-and-forget and must never block the user-facing turn.
type AdminNotifier interface {
	Notify(level AlertLevel, title, message string, details map[string]string)
}
