package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wellnesschat/backend/internal/chathub"
)

// ErrRoomNotLive is returned when the server has no live room with the given id.
var ErrRoomNotLive = errors.New("room is not live")

// ServerClient calls the operator routes of a running server.
type ServerClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewServerClient(baseURL, token string) *ServerClient {
	return &ServerClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Stats fetches the live hub counters.
func (s *ServerClient) Stats(ctx context.Context) (chathub.Stats, error) {
	var stats chathub.Stats
	resp, err := s.do(ctx, http.MethodGet, "/admin/stats")
	if err != nil {
		return stats, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return stats, statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return stats, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

// EndRoom asks the server to close a live room.
func (s *ServerClient) EndRoom(ctx context.Context, roomID string) error {
	resp, err := s.do(ctx, http.MethodPost, "/admin/rooms/"+url.PathEscape(roomID)+"/end")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrRoomNotLive, roomID)
	default:
		return statusError(resp)
	}
}

func (s *ServerClient) do(ctx context.Context, method, path string) (*http.Response, error) {
	if s.Token == "" {
		return nil, errors.New("ADMIN_TOKEN is not set")
	}
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s %s: %w", method, path, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
}

// StatsTable renders live hub counters.
func StatsTable(s chathub.Stats) string {
	mode := "persistent"
	if s.Degraded {
		mode = "memory only"
	}
	rows := [][]string{{
		fmt.Sprintf("%d", s.Waiting),
		fmt.Sprintf("%d", s.Rooms),
		fmt.Sprintf("%d", s.Clients),
		mode,
	}}
	return render([]string{"Waiting", "Rooms", "Push clients", "State"}, rows, "")
}
