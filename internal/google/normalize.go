package google

import (
	"strconv"

	"gapirelay-go/pkg/models"
)

// thumbnailSuffix is appended to a media base URL to request a small
// rendition from the provider's image server.
const thumbnailSuffix = "=w256-h256"

// libraryMediaItem is the raw shape of a photo library listing entry.
type libraryMediaItem struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	BaseURL       string `json:"baseUrl"`
	MimeType      string `json:"mimeType"`
	MediaMetadata struct {
		CreationTime string `json:"creationTime"`
		Width        string `json:"width"`
		Height       string `json:"height"`
	} `json:"mediaMetadata"`
}

// pickerMediaItem is the raw shape of a picker selection entry. The picker
// API nests the file payload one level deeper than the library listing.
type pickerMediaItem struct {
	ID         string `json:"id"`
	CreateTime string `json:"createTime"`
	MediaFile  struct {
		BaseURL           string `json:"baseUrl"`
		MimeType          string `json:"mimeType"`
		Filename          string `json:"filename"`
		MediaFileMetadata struct {
			Width  int64 `json:"width"`
			Height int64 `json:"height"`
		} `json:"mediaFileMetadata"`
	} `json:"mediaFile"`
}

// normalizeLibraryItem maps a library listing entry to the one shape
// downstream consumers see. Pure: identical input yields identical output.
func normalizeLibraryItem(raw libraryMediaItem) models.MediaItem {
	width, _ := strconv.ParseInt(raw.MediaMetadata.Width, 10, 64)
	height, _ := strconv.ParseInt(raw.MediaMetadata.Height, 10, 64)
	return models.MediaItem{
		ID:           raw.ID,
		DisplayName:  raw.Filename,
		PrimaryURL:   raw.BaseURL,
		ThumbnailURL: raw.BaseURL + thumbnailSuffix,
		MimeType:     raw.MimeType,
		Width:        width,
		Height:       height,
		CreationTime: raw.MediaMetadata.CreationTime,
	}
}

// normalizePickerItem maps a picker selection entry to the same shape.
func normalizePickerItem(raw pickerMediaItem) models.MediaItem {
	return models.MediaItem{
		ID:           raw.ID,
		DisplayName:  raw.MediaFile.Filename,
		PrimaryURL:   raw.MediaFile.BaseURL,
		ThumbnailURL: raw.MediaFile.BaseURL + thumbnailSuffix,
		MimeType:     raw.MediaFile.MimeType,
		Width:        raw.MediaFile.MediaFileMetadata.Width,
		Height:       raw.MediaFile.MediaFileMetadata.Height,
		CreationTime: raw.CreateTime,
	}
}
