package video

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	config "github.com/classroomtt/tutor_marketplace/configs"
	"github.com/google/uuid"
)

// Meeting is the result of a successful provisioning call.
type Meeting struct {
	JoinURL  string
	Provider string
}

// ErrPending signals that the provider accepted the request but the
// room is not ready yet; the caller should leave the session's link
// pending and retry later. It is never a hard failure.
var ErrPending = errors.New("meeting provisioning still pending")

// Provider creates meeting rooms for sessions.
type Provider interface {
	ProvisionMeeting(sessionID uuid.UUID, startAt time.Time, durationMinutes int) (*Meeting, error)
}

var Client Provider

// DailyClient provisions rooms through the Daily REST API.
type DailyClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type dailyRoomRequest struct {
	Name       string `json:"name"`
	Privacy    string `json:"privacy"`
	Properties struct {
		Nbf int64 `json:"nbf"`
		Exp int64 `json:"exp"`
	} `json:"properties"`
}

type dailyRoomResponse struct {
	URL string `json:"url"`
}

func InitProvider() {
	apiKey := config.Config("DAILY_API_KEY")
	if apiKey == "" {
		log.Println("⚠️ Video provider not configured. Sessions will stay without meeting links until it is.")
		return
	}

	Client = &DailyClient{
		APIKey:     apiKey,
		BaseURL:    config.ConfigOr("DAILY_API_URL", "https://api.daily.co/v1"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	log.Println("✅ Video provider initialized successfully.")
}

func (c *DailyClient) ProvisionMeeting(sessionID uuid.UUID, startAt time.Time, durationMinutes int) (*Meeting, error) {
	payload := dailyRoomRequest{
		Name:    "session-" + sessionID.String(),
		Privacy: "private",
	}
	// The room opens 15 minutes before the scheduled start and closes
	// an hour after the scheduled end.
	payload.Properties.Nbf = startAt.Add(-15 * time.Minute).Unix()
	payload.Properties.Exp = startAt.Add(time.Duration(durationMinutes)*time.Minute + time.Hour).Unix()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room request: %v", err)
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/rooms", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach video provider: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		return nil, ErrPending
	}

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("video provider returned %d: %s", resp.StatusCode, string(respBody))
	}

	var room dailyRoomResponse
	if err := json.Unmarshal(respBody, &room); err != nil {
		return nil, fmt.Errorf("failed to decode room response: %v", err)
	}
	if room.URL == "" {
		return nil, ErrPending
	}

	return &Meeting{JoinURL: room.URL, Provider: "daily"}, nil
}
