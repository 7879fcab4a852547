// Package ipc carries newline-delimited JSON commands between talker
// invocations and the running daemon over a unix socket.
package ipc

// Commands understood by the daemon.
const (
	CommandStatus   = "status"
	CommandTrigger  = "trigger"
	CommandMode     = "mode"
	CommandDescribe = "describe"
)

type Request struct {
	Command string `json:"command"`
	Arg     string `json:"arg,omitempty"`
}

type Response struct {
	OK       bool   `json:"ok"`
	State    string `json:"state,omitempty"`
	Mode     string `json:"mode,omitempty"`
	NextFire string `json:"next_fire,omitempty"`
	Backend  string `json:"backend,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}
