package messaging

import "net/http"

// EmptyTwiML acknowledges a Twilio webhook without replying to the sender.
const EmptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// LivenessText is served on the root route.
const LivenessText = "WhatsApp bot is running!"

func writeTwiML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
