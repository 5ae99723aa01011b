package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const ultraMsgBaseURL = "https://api.ultramsg.com"

// MessageSender delivers a text to a phone number and reports the provider
// status code.
type MessageSender interface {
	SendMessage(ctx context.Context, phone, text string) (int, error)
}

type UltraMsgService struct {
	InstanceID string
	Token      string
	BaseURL    string

	client *http.Client
	log    zerolog.Logger
}

func NewUltraMsgService(instanceID, token string, log zerolog.Logger) *UltraMsgService {
	return &UltraMsgService{
		InstanceID: instanceID,
		Token:      token,
		BaseURL:    ultraMsgBaseURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("channel", "whatsapp").Logger(),
	}
}

func (s *UltraMsgService) SendMessage(ctx context.Context, phone, text string) (int, error) {
	if strings.TrimSpace(phone) == "" {
		return 0, fmt.Errorf("empty recipient phone")
	}

	form := url.Values{}
	form.Set("token", s.Token)
	form.Set("to", phone)
	form.Set("body", text)

	endpoint := fmt.Sprintf("%s/%s/messages/chat", strings.TrimRight(s.BaseURL, "/"), s.InstanceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("create ultramsg request: %w", err)
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send ultramsg request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("ultramsg returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	s.log.Debug().Str("to", phone).Msg("✅ WhatsApp sent")
	return resp.StatusCode, nil
}

// ConsoleService only logs. Used when no messaging provider is configured.
type ConsoleService struct {
	log zerolog.Logger
}

func NewConsoleService(log zerolog.Logger) *ConsoleService {
	return &ConsoleService{log: log.With().Str("channel", "console").Logger()}
}

func (c *ConsoleService) SendMessage(_ context.Context, phone, text string) (int, error) {
	c.log.Info().Str("to", phone).Str("body", text).Msg("[notify] message")
	return http.StatusOK, nil
}
