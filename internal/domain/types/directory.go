package types

// AgentRegistration is the body of a directory registration.
type AgentRegistration struct {
	AgentName     string   `json:"agent_name"`
	Org           string   `json:"org"`
	PublicKey     string   `json:"public_key"`
	EncryptionKey string   `json:"encryption_key,omitempty"`
	Endpoint      string   `json:"endpoint,omitempty"`
	Description   string   `json:"description,omitempty"`
	Capabilities  []string `json:"capabilities,omitempty"`
}

// AgentRecord is a directory entry.
type AgentRecord struct {
	ID DirectoryID `json:"id"`
	AgentRegistration
	RegisteredAt int64 `json:"registered_at"`
	LastSeen     int64 `json:"last_seen"`
}

// Ref returns an AgentRef carrying the record's public keys.
func (r AgentRecord) Ref() AgentRef {
	return AgentRef{Agent: r.AgentName, Org: r.Org, Key: r.PublicKey, EncKey: r.EncryptionKey}
}

// AgentQuery filters a directory listing. Zero fields match everything.
type AgentQuery struct {
	Capability string
	Org        string
	Text       string
	Limit      int
}

// AgentList is a page of directory results.
type AgentList struct {
	Agents []AgentRecord `json:"agents"`
	Total  int           `json:"total"`
}

// Heartbeat acknowledges a liveness refresh.
type Heartbeat struct {
	ID       DirectoryID `json:"id"`
	LastSeen int64       `json:"last_seen"`
}
