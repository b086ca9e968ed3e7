package methods

// Method constants for basic protocol operations
const (
	// Initialization methods
	Initialize  = "initialize"
	Initialized = "initialized"

	// Termination methods
	Shutdown = "shutdown"
	Exit     = "exit"

	// Server methods - Tools
	ListTools = "tools/list"
	CallTool  = "tools/call"

	// Server methods - Resources
	ReadResource = "resources/read"
)
