package flow

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
)

// WorkflowDocument is the persisted form of a workflow: everything an
// editor round-trips, including presentation-only fields. Unknown fields
// in stored documents are ignored on read, never rejected.
type WorkflowDocument struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Version     string               `json:"version,omitempty"`
	Author      string               `json:"author,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Nodes       []NodeDocument       `json:"nodes"`
	Connections []ConnectionDocument `json:"connections"`
}

// NodeDocument is the persisted form of one node, with its explicit port
// list so identities survive the round trip.
type NodeDocument struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Label      string         `json:"label,omitempty"`
	Position   Position       `json:"position"`
	Properties map[string]any `json:"properties,omitempty"`
	Inputs     []Port         `json:"inputs"`
	Outputs    []Port         `json:"outputs"`
	Disabled   bool           `json:"disabled,omitempty"`
}

// ConnectionDocument is the persisted form of one edge.
type ConnectionDocument struct {
	ID         string `json:"id"`
	SourceNode string `json:"source_node"`
	SourcePort string `json:"source_port"`
	TargetNode string `json:"target_node"`
	TargetPort string `json:"target_port"`
}

// ToDocument converts a workflow into its persisted form.
func (w *Workflow) ToDocument() WorkflowDocument {
	doc := WorkflowDocument{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Version:     w.Version,
		Author:      w.Author,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
	for _, n := range w.nodes {
		doc.Nodes = append(doc.Nodes, NodeDocument{
			ID:         n.ID,
			Type:       n.Type,
			Label:      n.Label,
			Position:   n.Position,
			Properties: n.Properties,
			Inputs:     n.Inputs,
			Outputs:    n.Outputs,
			Disabled:   n.Disabled,
		})
	}
	for _, c := range w.conns {
		doc.Connections = append(doc.Connections, ConnectionDocument(*c))
	}
	return doc
}

// FromDocument rebuilds a workflow from its persisted form.
func FromDocument(doc WorkflowDocument) *Workflow {
	w := &Workflow{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Version:     doc.Version,
		Author:      doc.Author,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		nodeIndex:   make(map[string]*ActivityNode, len(doc.Nodes)),
	}
	for _, nd := range doc.Nodes {
		node := &ActivityNode{
			ID:         nd.ID,
			Type:       nd.Type,
			Label:      nd.Label,
			Position:   nd.Position,
			Properties: nd.Properties,
			Inputs:     nd.Inputs,
			Outputs:    nd.Outputs,
			Disabled:   nd.Disabled,
		}
		if node.Properties == nil {
			node.Properties = make(map[string]any)
		}
		w.nodes = append(w.nodes, node)
		w.nodeIndex[node.ID] = node
	}
	for _, cd := range doc.Connections {
		conn := Connection(cd)
		w.conns = append(w.conns, &conn)
	}
	return w
}

// EncodeWorkflow writes a workflow document as indented JSON.
func EncodeWorkflow(w io.Writer, wf *Workflow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wf.ToDocument()); err != nil {
		return fmt.Errorf("encode workflow: %w", err)
	}
	return nil
}

// DecodeWorkflow reads a workflow document from JSON. Extra fields in the
// document are ignored.
func DecodeWorkflow(r io.Reader) (*Workflow, error) {
	var doc WorkflowDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	return FromDocument(doc), nil
}

// LoadWorkflow reads a workflow document from disk.
func LoadWorkflow(path string) (*Workflow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load workflow: %w", err)
	}
	defer f.Close()
	return DecodeWorkflow(f)
}

// SaveWorkflow writes a workflow document to disk.
func SaveWorkflow(path string, wf *Workflow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	defer f.Close()
	return EncodeWorkflow(f, wf)
}
