package entity

// WatchStatus is the lifecycle state shared by price alerts and flight tracks.
// Records are never deleted; they leave the active state instead.
type WatchStatus string

const (
	WatchActive    WatchStatus = "active"
	WatchCancelled WatchStatus = "cancelled"
	WatchExpired   WatchStatus = "expired"
)
