package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gapirelay-go/internal/metrics"
	"gapirelay-go/pkg/models"
)

// Endpoints holds the provider API base URLs. They default to Google but are
// injectable so tests can point at local servers.
type Endpoints struct {
	PeopleBaseURL   string
	DriveBaseURL    string
	CalendarBaseURL string
	PhotosBaseURL   string
	PickerBaseURL   string
}

// Service makes authenticated read-only calls against the provider APIs on
// behalf of a user, using the bearer token the relay holds for them.
type Service struct {
	client    *http.Client
	logger    zerolog.Logger
	endpoints Endpoints
}

// NewService creates a Service. A nil client falls back to a default with a
// conservative timeout.
func NewService(client *http.Client, endpoints Endpoints, logger zerolog.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Service{
		client:    client,
		logger:    logger.With().Str("component", "google").Logger(),
		endpoints: endpoints,
	}
}

// Profile fetches the user's display name and primary email address.
func (s *Service) Profile(ctx context.Context, accessToken string) (*models.Profile, error) {
	var resp struct {
		Names []struct {
			DisplayName string `json:"displayName"`
		} `json:"names"`
		EmailAddresses []struct {
			Value string `json:"value"`
		} `json:"emailAddresses"`
	}

	u := s.endpoints.PeopleBaseURL + "/people/me?personFields=names,emailAddresses"
	if err := s.getJSON(ctx, "profile", u, accessToken, &resp); err != nil {
		return nil, err
	}

	profile := &models.Profile{}
	if len(resp.Names) > 0 {
		profile.DisplayName = resp.Names[0].DisplayName
	}
	if len(resp.EmailAddresses) > 0 {
		profile.Email = resp.EmailAddresses[0].Value
	}
	return profile, nil
}

// ListFiles fetches the user's most recently modified files.
func (s *Service) ListFiles(ctx context.Context, accessToken string) ([]models.FileItem, error) {
	var resp struct {
		Files []struct {
			ID           string `json:"id"`
			Name         string `json:"name"`
			MimeType     string `json:"mimeType"`
			ModifiedTime string `json:"modifiedTime"`
			WebViewLink  string `json:"webViewLink"`
		} `json:"files"`
	}

	q := url.Values{}
	q.Set("pageSize", "25")
	q.Set("orderBy", "modifiedTime desc")
	q.Set("fields", "files(id,name,mimeType,modifiedTime,webViewLink)")
	u := s.endpoints.DriveBaseURL + "/files?" + q.Encode()
	if err := s.getJSON(ctx, "files", u, accessToken, &resp); err != nil {
		return nil, err
	}

	files := make([]models.FileItem, 0, len(resp.Files))
	for _, f := range resp.Files {
		item := models.FileItem{
			ID:          f.ID,
			Name:        f.Name,
			MimeType:    f.MimeType,
			WebViewLink: f.WebViewLink,
		}
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			item.ModifiedTime = t
		}
		files = append(files, item)
	}
	return files, nil
}

// CalendarEvents fetches the user's primary-calendar events for one day.
func (s *Service) CalendarEvents(ctx context.Context, accessToken string, day time.Time) ([]models.CalendarEvent, error) {
	var resp struct {
		Items []struct {
			ID       string `json:"id"`
			Summary  string `json:"summary"`
			Location string `json:"location"`
			HTMLLink string `json:"htmlLink"`
			Start    struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"end"`
		} `json:"items"`
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	q := url.Values{}
	q.Set("timeMin", dayStart.Format(time.RFC3339))
	q.Set("timeMax", dayStart.AddDate(0, 0, 1).Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	u := s.endpoints.CalendarBaseURL + "/calendars/primary/events?" + q.Encode()
	if err := s.getJSON(ctx, "calendar", u, accessToken, &resp); err != nil {
		return nil, err
	}

	events := make([]models.CalendarEvent, 0, len(resp.Items))
	for _, it := range resp.Items {
		ev := models.CalendarEvent{
			ID:       it.ID,
			Summary:  it.Summary,
			Location: it.Location,
			HTMLLink: it.HTMLLink,
			Start:    it.Start.DateTime,
			End:      it.End.DateTime,
		}
		// All-day events carry a date instead of a dateTime.
		if ev.Start == "" {
			ev.Start = it.Start.Date
		}
		if ev.End == "" {
			ev.End = it.End.Date
		}
		events = append(events, ev)
	}
	return events, nil
}

// ListPhotos fetches the user's photo library listing, normalized.
func (s *Service) ListPhotos(ctx context.Context, accessToken string) ([]models.MediaItem, error) {
	var resp struct {
		MediaItems []libraryMediaItem `json:"mediaItems"`
	}

	u := s.endpoints.PhotosBaseURL + "/mediaItems?pageSize=50"
	if err := s.getJSON(ctx, "photos", u, accessToken, &resp); err != nil {
		return nil, err
	}

	items := make([]models.MediaItem, 0, len(resp.MediaItems))
	for _, raw := range resp.MediaItems {
		items = append(items, normalizeLibraryItem(raw))
	}
	return items, nil
}

// CreatePickerSession opens a provider-hosted selection session. The provider
// owns its lifecycle; the relay only relays the id and interactive URI.
func (s *Service) CreatePickerSession(ctx context.Context, accessToken string) (*models.SelectionSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoints.PickerBaseURL+"/sessions", strings.NewReader("{}"))
	if err != nil {
		return nil, fmt.Errorf("failed to build picker session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	var session models.SelectionSession
	if err := s.do("picker_session", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// PickedMediaItems lists the media the user selected in a picker session,
// normalized. While the user is still picking the provider answers
// FAILED_PRECONDITION, surfaced as ErrSelectionNotReady.
func (s *Service) PickedMediaItems(ctx context.Context, accessToken, sessionID string) ([]models.MediaItem, error) {
	var resp struct {
		MediaItems []pickerMediaItem `json:"mediaItems"`
	}

	q := url.Values{}
	q.Set("sessionId", sessionID)
	q.Set("pageSize", "100")
	u := s.endpoints.PickerBaseURL + "/mediaItems?" + q.Encode()
	if err := s.getJSON(ctx, "picker_media", u, accessToken, &resp); err != nil {
		return nil, err
	}

	items := make([]models.MediaItem, 0, len(resp.MediaItems))
	for _, raw := range resp.MediaItems {
		items = append(items, normalizePickerItem(raw))
	}
	return items, nil
}

// getJSON performs an authenticated GET and decodes the 2xx body into out.
func (s *Service) getJSON(ctx context.Context, endpoint, rawURL, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return s.do(endpoint, req, out)
}

func (s *Service) do(endpoint string, req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
		return s.upstreamError(endpoint, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// upstreamError maps a non-2xx provider response to a typed error. The
// picker's "user has not finished picking" precondition is the one retryable
// case.
func (s *Service) upstreamError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var detail struct {
		Error struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &detail)

	if detail.Error.Status == "FAILED_PRECONDITION" {
		return ErrSelectionNotReady
	}

	msg := detail.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	s.logger.Warn().Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("upstream call failed")
	return &UpstreamError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Status:     detail.Error.Status,
		Detail:     msg,
	}
}
