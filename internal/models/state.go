package models

// ActuatorState is the current value of the single controllable output.
type ActuatorState struct {
	OutputOn bool `json:"output_on"`
}

// ConnectionState tracks the network link and the broker session independently.
// A session is never attempted while LinkUp is false.
type ConnectionState struct {
	LinkUp    bool `json:"link_up"`
	SessionUp bool `json:"session_up"`
}

// ConnectionPhase is the supervisor state derived from a ConnectionState.
type ConnectionPhase string

const (
	PhaseLinkDown          ConnectionPhase = "link_down"
	PhaseLinkUpSessionDown ConnectionPhase = "link_up_session_down"
	PhaseReady             ConnectionPhase = "ready"
)

// Phase reports which of the three supervisor states the connection is in.
func (c ConnectionState) Phase() ConnectionPhase {
	switch {
	case !c.LinkUp:
		return PhaseLinkDown
	case !c.SessionUp:
		return PhaseLinkUpSessionDown
	default:
		return PhaseReady
	}
}

// NodeState is the mutable state of the node, owned by the main loop and
// passed explicitly to every component that reads or writes it.
type NodeState struct {
	Actuator   ActuatorState   `json:"actuator"`
	Connection ConnectionState `json:"connection"`
}

// NewNodeState returns the boot state: output off, nothing connected.
func NewNodeState() *NodeState {
	return &NodeState{}
}
