package flow

// Connection is a directed edge from an output port to an input port.
// Flow connections transfer control; data connections transfer values.
type Connection struct {
	ID         string `json:"id"`
	SourceNode string `json:"source_node"`
	SourcePort string `json:"source_port"`
	TargetNode string `json:"target_node"`
	TargetPort string `json:"target_port"`
}
