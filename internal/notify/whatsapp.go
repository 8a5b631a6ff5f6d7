package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

// WhatsAppSender delivers a WhatsApp text to a local phone number.
// Implementations can be swapped (deep link, Cloud API) without changing
// callers.
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}

// DeepLinkSender builds wa.me links instead of delivering through an API.
// The link is logged and kept for the office to open from the dashboard;
// useful before Cloud API credentials exist.
type DeepLinkSender struct {
	countryPrefix string
	logger        *logging.Logger
	lastLink      string
}

// NewDeepLinkSender creates a sender for the given country prefix ("54" for
// Argentina).
func NewDeepLinkSender(countryPrefix string, logger *logging.Logger) *DeepLinkSender {
	if logger == nil {
		logger = logging.Default()
	}
	if countryPrefix == "" {
		countryPrefix = "54"
	}
	return &DeepLinkSender{countryPrefix: countryPrefix, logger: logger}
}

// SendWhatsApp records the deep link for the message.
func (s *DeepLinkSender) SendWhatsApp(_ context.Context, to, body string) error {
	link := fmt.Sprintf("https://wa.me/%s%s?text=%s", s.countryPrefix, to, url.QueryEscape(body))
	s.lastLink = link
	s.logger.Info("whatsapp deep link ready", "to", to, "link_length", len(link))
	return nil
}

// LastLink returns the most recently built deep link.
func (s *DeepLinkSender) LastLink() string {
	return s.lastLink
}

// CloudAPISender delivers messages through the WhatsApp Business Cloud API.
type CloudAPISender struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	countryPrefix string
	client        *http.Client
	logger        *logging.Logger
}

// CloudAPIConfig holds configuration for the Cloud API.
type CloudAPIConfig struct {
	BaseURL       string
	AccessToken   string
	PhoneNumberID string
	CountryPrefix string
}

// NewCloudAPISender creates a Cloud API sender. Returns nil when no access
// token is configured so callers can fall back to the deep-link sender.
func NewCloudAPISender(cfg CloudAPIConfig, logger *logging.Logger) *CloudAPISender {
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com/v18.0"
	}
	if cfg.CountryPrefix == "" {
		cfg.CountryPrefix = "54"
	}
	return &CloudAPISender{
		baseURL:       cfg.BaseURL,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		countryPrefix: cfg.CountryPrefix,
		client:        &http.Client{Timeout: 10 * time.Second},
		logger:        logger,
	}
}

type cloudAPIRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             cloudAPIText `json:"text"`
}

type cloudAPIText struct {
	Body string `json:"body"`
}

// SendWhatsApp posts a text message to the Cloud API.
func (s *CloudAPISender) SendWhatsApp(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(cloudAPIRequest{
		MessagingProduct: "whatsapp",
		To:               s.countryPrefix + to,
		Type:             "text",
		Text:             cloudAPIText{Body: body},
	})
	if err != nil {
		return fmt.Errorf("notify: marshal whatsapp payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: whatsapp send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Error("whatsapp cloud api returned error status", "status", resp.StatusCode, "body", string(snippet), "to", to)
		return fmt.Errorf("notify: whatsapp returned status %d", resp.StatusCode)
	}

	s.logger.Info("whatsapp message sent", "to", to, "status", resp.StatusCode)
	return nil
}

// StubWhatsAppSender is a no-op sender for testing or when WhatsApp is
// disabled.
type StubWhatsAppSender struct {
	logger *logging.Logger
	Sent   []string
}

// NewStubWhatsAppSender creates a stub sender that logs but doesn't send.
func NewStubWhatsAppSender(logger *logging.Logger) *StubWhatsAppSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubWhatsAppSender{logger: logger}
}

// SendWhatsApp records the destination but doesn't actually send.
func (s *StubWhatsAppSender) SendWhatsApp(_ context.Context, to, body string) error {
	s.Sent = append(s.Sent, to)
	s.logger.Info("stub whatsapp sender: would send", "to", to, "body_length", len(body))
	return nil
}

var (
	_ WhatsAppSender = (*DeepLinkSender)(nil)
	_ WhatsAppSender = (*CloudAPISender)(nil)
	_ WhatsAppSender = (*StubWhatsAppSender)(nil)
)
