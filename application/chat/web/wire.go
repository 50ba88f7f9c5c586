package web

import "peer-chat/application/chat/msglog"

// SendRequest is the body of POST /send-peer.
type SendRequest struct {
	From     string `json:"from"`
	FromUser string `json:"from_user"`
	To       string `json:"to"`
	Message  string `json:"message"`
}

// Sender prefers from_user over from.
func (r SendRequest) Sender() string {
	if r.FromUser != "" {
		return r.FromUser
	}
	return r.From
}

type SendResponse struct {
	Status string `json:"status"`
	To     string `json:"to"`
	Target string `json:"target"`
}

// BroadcastRequest is the body of POST /broadcast-peer.
type BroadcastRequest struct {
	From     string `json:"from"`
	FromUser string `json:"from_user"`
	Message  string `json:"message"`
}

func (r BroadcastRequest) Sender() string {
	if r.FromUser != "" {
		return r.FromUser
	}
	return r.From
}

type BroadcastResponse struct {
	Status string   `json:"status"`
	SentTo []string `json:"sent_to"`
	Failed []string `json:"failed"`
}

// LogsResponse is the body of GET /get-log-messages.
type LogsResponse struct {
	Peer string         `json:"peer"`
	Logs []msglog.Entry `json:"logs"`
}
