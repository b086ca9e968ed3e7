package types

// Implementation describes the name and version of a protocol participant
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities represents the capabilities a client supports
type ClientCapabilities struct {
	// Experimental features support
	Experimental map[string]interface{} `json:"experimental,omitempty"`
}

// ServerCapabilities represents the capabilities a server supports
type ServerCapabilities struct {
	// Experimental features support
	Experimental map[string]interface{} `json:"experimental,omitempty"`

	// Resources capability
	Resources *ResourcesServerCapabilities `json:"resources,omitempty"`

	// Tools capability
	Tools *ToolsServerCapabilities `json:"tools,omitempty"`
}

// ResourcesServerCapabilities represents resources-specific server capabilities
type ResourcesServerCapabilities struct {
	// Whether the server supports notifications for changes to the resource list
	ListChanged bool `json:"listChanged,omitempty"`
}

// ToolsServerCapabilities represents tools-specific server capabilities
type ToolsServerCapabilities struct {
	// Whether the server supports notifications for changes to the tool list
	ListChanged bool `json:"listChanged,omitempty"`
}

// InitializeRequest is the params block of the initialize handshake
type InitializeRequest struct {
	ProcessID    int                `json:"processId,omitempty"`
	ClientInfo   Implementation     `json:"clientInfo"`
	Capabilities ClientCapabilities `json:"capabilities"`
	Trace        string             `json:"trace,omitempty"`
}

// InitializeResult is the result block of the initialize handshake
type InitializeResult struct {
	ServerInfo   *Implementation    `json:"serverInfo,omitempty"`
	Capabilities ServerCapabilities `json:"capabilities"`
}
