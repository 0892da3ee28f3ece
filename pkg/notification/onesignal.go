package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"veshop-backend/pkg/logger"

	"go.uber.org/zap"
)

const oneSignalURL = "https://onesignal.com/api/v1/notifications"

// OneSignalService sends push notifications to customer devices.
type OneSignalService struct {
	AppID      string
	RestAPIKey string
	Client     *http.Client
}

// NotificationPayload is the OneSignal REST API request body.
type NotificationPayload struct {
	AppID            string                 `json:"app_id"`
	IncludePlayerIDs []string               `json:"include_player_ids,omitempty"`
	Headings         map[string]string      `json:"headings,omitempty"`
	Contents         map[string]string      `json:"contents,omitempty"`
	Data             map[string]interface{} `json:"data,omitempty"`
	Sound            string                 `json:"sound,omitempty"`
	Priority         int                    `json:"priority,omitempty"`
}

func NewOneSignalService(appID, restAPIKey string) *OneSignalService {
	return &OneSignalService{
		AppID:      appID,
		RestAPIKey: restAPIKey,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether credentials are configured.
func (s *OneSignalService) Enabled() bool {
	return s.AppID != "" && s.RestAPIKey != ""
}

// SendNotification delivers a push to one device.
func (s *OneSignalService) SendNotification(playerID, title, content string, data map[string]interface{}) error {
	if !s.Enabled() {
		return nil
	}
	if playerID == "" {
		return fmt.Errorf("player_id trống")
	}

	payload := NotificationPayload{
		AppID:            s.AppID,
		IncludePlayerIDs: []string{playerID},
		Headings: map[string]string{
			"en": title,
		},
		Contents: map[string]string{
			"en": content,
		},
		Data:     data,
		Sound:    "default",
		Priority: 10,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, oneSignalURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Basic %s", s.RestAPIKey))

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorResp map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err == nil {
			logger.Warn("OneSignal API error",
				zap.Int("status", resp.StatusCode),
				zap.Any("response", errorResp),
			)
		}
		return fmt.Errorf("OneSignal API error: status %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		logger.Debug("✅ OneSignal notification sent", zap.Any("id", result["id"]))
	}
	return nil
}

// SendNotificationAsync fires the push off-request; delivery failures
// are logged, never surfaced to the caller.
func (s *OneSignalService) SendNotificationAsync(playerID, title, content string, data map[string]interface{}) {
	if !s.Enabled() || playerID == "" {
		return
	}
	go func() {
		if err := s.SendNotification(playerID, title, content, data); err != nil {
			logger.Warn("OneSignal async notification failed", zap.Error(err))
		}
	}()
}
