package model

import "fmt"

// Secrets represents the network secrets file structure.
// Field order matches the file written by gen-secrets.
type Secrets struct {
	Authorities []string `json:"authorities"`
	Sudo        string   `json:"sudo"`
	Admin       string   `json:"admin"`
	NodeKey     string   `json:"nodekey"`
	PeerID      string   `json:"peer_id"`
}

// String never prints mnemonics or the node key, only their shape.
func (s Secrets) String() string {
	return fmt.Sprintf("Secrets{authorities: %d, peer_id: %s}", len(s.Authorities), s.PeerID)
}

// GoString keeps %#v from leaking secret material as well.
func (s Secrets) GoString() string {
	return s.String()
}
