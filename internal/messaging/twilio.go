package messaging

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ValidateTwilioSignature validates that a request came from Twilio
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}

	expected := computeSignature(buildSignaturePayload(webhookURL, r.PostForm), authToken)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// buildSignaturePayload concatenates the URL with every POST parameter, keys sorted.
func buildSignaturePayload(webhookURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(webhookURL)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// TwilioWebhookRequest is an inbound WhatsApp or SMS message from Twilio.
type TwilioWebhookRequest struct {
	MessageSid  string
	AccountSid  string
	From        string
	To          string
	Body        string
	NumMedia    string
	ProfileName string
	WaID        string
}

// IsWhatsApp reports whether the sender used the WhatsApp channel.
func (r *TwilioWebhookRequest) IsWhatsApp() bool {
	return strings.HasPrefix(strings.ToLower(r.From), "whatsapp:")
}

// ParseTwilioWebhook parses a Twilio webhook request
func ParseTwilioWebhook(r *http.Request) (*TwilioWebhookRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("messaging: parse form: %w", err)
	}

	return &TwilioWebhookRequest{
		MessageSid:  r.FormValue("MessageSid"),
		AccountSid:  r.FormValue("AccountSid"),
		From:        r.FormValue("From"),
		To:          r.FormValue("To"),
		Body:        r.FormValue("Body"),
		NumMedia:    r.FormValue("NumMedia"),
		ProfileName: r.FormValue("ProfileName"),
		WaID:        r.FormValue("WaId"),
	}, nil
}
