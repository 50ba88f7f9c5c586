package directory

import "fmt"

// RegisterRequest is the body of POST /add-list.
type RegisterRequest struct {
	User string `json:"user"`
	Host string `json:"host,omitempty"`
	Port uint16 `json:"port"`
	Item string `json:"item,omitempty"`
}

const defaultHost = "127.0.0.1"

// Peer applies the defaults: host 127.0.0.1 and status ONLINE.
func (r RegisterRequest) Peer() (Peer, error) {
	st, err := ParseStatus(r.Item)
	if err != nil {
		return Peer{}, err
	}

	host := r.Host
	if host == "" {
		host = defaultHost
	}

	return Peer{ID: r.User, Host: host, Port: r.Port, Status: st}, nil
}

type RegisterResponse struct {
	Message string `json:"message"`
	Peer    Peer   `json:"peer"`
}

func NewRegisterResponse(p Peer) RegisterResponse {
	return RegisterResponse{
		Message: fmt.Sprintf("Peer '%s' added to connection list", p.ID),
		Peer:    p,
	}
}

// ListResponse is the body of GET /get-list.
type ListResponse struct {
	Count int    `json:"count"`
	List  []Peer `json:"list"`
}

// ConnectRequest is the body of POST /connect-peer.
type ConnectRequest struct {
	FromUser string `json:"from_user"`
	ToPeer   string `json:"to_peer"`
}

type ConnectResponse struct {
	Message     string `json:"message"`
	FromUser    string `json:"from_user"`
	ToPeer      string `json:"to_peer"`
	ConnectedTo Peer   `json:"connected_to"`

	ConnectedFrom Peer `json:"connected_from"`
}

func NewConnectResponse(c Connection) ConnectResponse {
	return ConnectResponse{
		Message:     fmt.Sprintf("Successfully connected %s <-> %s", c.From, c.To),
		FromUser:    c.From,
		ToPeer:      c.To,
		ConnectedTo: c.ConnectedTo,

		ConnectedFrom: c.ConnectedFrom,
	}
}

// ConnectionsResponse is the body of GET /get-connections.
type ConnectionsResponse struct {
	Peer  string `json:"peer"`
	Count int    `json:"count"`
	List  []Peer `json:"list"`
}
