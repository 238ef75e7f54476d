package domain

import "time"

// ImageStoredEvent is published after an upload and its eager renditions have
// been persisted, so external collaborators (product/recipe services) can
// react without polling the bucket.
type ImageStoredEvent struct {
	BasePath   string    `json:"base_path"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Renditions []string  `json:"renditions"`
	StoredAt   time.Time `json:"stored_at"`
}
