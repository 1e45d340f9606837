package models

import "time"

// Profile holds the subset of the provider's people record that the
// relay exposes to its callers.
type Profile struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// FileItem is a single entry from the provider's file listing.
type FileItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	ModifiedTime time.Time `json:"modifiedTime,omitzero"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
}

// CalendarEvent is a single entry from the provider's event listing.
type CalendarEvent struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Location string `json:"location,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
	HTMLLink string `json:"htmlLink,omitempty"`
}

// MediaItem is the normalized shape for a photo or video, regardless of
// whether it came from the library listing or a picker selection. The
// thumbnail URL is derived from the primary URL plus a size suffix.
type MediaItem struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	PrimaryURL   string `json:"primaryUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	MimeType     string `json:"mimeType"`
	Width        int64  `json:"width"`
	Height       int64  `json:"height"`
	CreationTime string `json:"creationTime"`
}

// SelectionSession is a provider-issued picker session. The provider owns
// its lifecycle; the relay only keeps the id and the interactive URI.
type SelectionSession struct {
	ID        string `json:"id"`
	PickerURI string `json:"pickerUri"`
}
