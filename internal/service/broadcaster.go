package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToAdmins(msgType string, payload interface{})
}

// MsgTypeDashboardUpdated is pushed to admins after each applied recompute
const MsgTypeDashboardUpdated = "dashboard_updated"
