package models

// Event names emitted by the viewers service.
const (
	EventViewerCreated = "viewer created"
	EventViewerUpdated = "viewer updated"
	EventViewerDeleted = "viewer deleted"
)

// Event is the change record pushed to the event-ingestion service after a
// successful viewer mutation. Token carries the caller's raw bearer token
// so the downstream service can attribute the change.
type Event struct {
	Name     string `json:"event"`
	Token    string `json:"token"`
	ViewerID string `json:"viewerId"`
	Viewer   Viewer `json:"viewer"`
}
