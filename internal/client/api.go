package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"screencast/backend/internal/models"

	"github.com/pion/webrtc/v4"
)

var ErrRoomNotFound = errors.New("room not found or inactive")

// APIError is a non-2xx response from the room API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrRoomNotFound && e.Status == http.StatusNotFound
}

// API calls the room lifecycle endpoints.
type API struct {
	BaseURL string
	HTTP    *http.Client
}

func NewAPI(baseURL string) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SignalingURL returns the websocket URL served next to the API.
func (a *API) SignalingURL() (string, error) {
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func (a *API) CreateRoom(ctx context.Context, deviceID string) (*models.Room, error) {
	var out struct {
		Room models.Room `json:"room"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/rooms", map[string]string{"deviceId": deviceID}, &out); err != nil {
		return nil, err
	}
	return &out.Room, nil
}

func (a *API) JoinRoom(ctx context.Context, code, deviceID string) (*models.Room, *models.Participant, error) {
	var out struct {
		Room        models.Room        `json:"room"`
		Participant models.Participant `json:"participant"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/rooms/join", map[string]string{"code": code, "deviceId": deviceID}, &out); err != nil {
		return nil, nil, err
	}
	return &out.Room, &out.Participant, nil
}

func (a *API) Participants(ctx context.Context, code string) ([]models.Participant, error) {
	var out struct {
		Participants []models.Participant `json:"participants"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(code)+"/participants", nil, &out); err != nil {
		return nil, err
	}
	return out.Participants, nil
}

func (a *API) LeaveRoom(ctx context.Context, code, deviceID string) error {
	return a.do(ctx, http.MethodPost, "/api/rooms/"+url.PathEscape(code)+"/leave", map[string]string{"deviceId": deviceID}, nil)
}

func (a *API) ICEServers(ctx context.Context) ([]webrtc.ICEServer, error) {
	var out struct {
		ICEServers []webrtc.ICEServer `json:"iceServers"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/ice-servers", nil, &out); err != nil {
		return nil, err
	}
	return out.ICEServers, nil
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
