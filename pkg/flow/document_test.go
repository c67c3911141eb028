package flow

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDocument_RoundTrip(t *testing.T) {
	c := Builtins()
	wf := NewWorkflow("login")
	wf.Description = "logs into the demo app"
	wf.Author = "tester"
	start := mustNode(t, c, ActivityStart, "")
	typeText := mustNode(t, c, ActivityTypeText, "enter name")
	typeText.SetProperty("Text", "{user}")
	typeText.SetProperty("PressEnter", true)
	typeText.Position = Position{X: 120, Y: 40}
	end := mustNode(t, c, ActivityEnd, "")
	wf.AddNode(start)
	wf.AddNode(typeText)
	wf.AddNode(end)
	mustConnect(t, wf, start, "Out", typeText, "In")
	mustConnect(t, wf, typeText, "Out", end, "In")

	var buf bytes.Buffer
	if err := EncodeWorkflow(&buf, wf); err != nil {
		t.Fatalf("EncodeWorkflow: %v", err)
	}
	loaded, err := DecodeWorkflow(&buf)
	if err != nil {
		t.Fatalf("DecodeWorkflow: %v", err)
	}

	if diff := cmp.Diff(wf.ToDocument(), loaded.ToDocument()); diff != "" {
		t.Fatalf("document mismatch after round trip (-want +got):\n%s", diff)
	}

	// The rebuilt graph validates and executes identically.
	if ok, errs := loaded.Validate(); !ok {
		t.Fatalf("round-tripped graph invalid: %v", errs)
	}
	actuator := &fakeActuator{}
	rc := newTestContext(nil, actuator)
	rc.Vars.Set("user", "bob")
	res := NewEngine(c).Run(context.Background(), loaded, rc)
	if !res.Success {
		t.Fatalf("round-tripped run failed: %q", res.Error)
	}
	if res.NodesExecuted != 3 {
		t.Errorf("NodesExecuted = %d, want 3", res.NodesExecuted)
	}
	if len(actuator.typed) != 1 || actuator.typed[0] != "bob" {
		t.Errorf("typed %v, want [bob]", actuator.typed)
	}
}

func TestDocument_UnknownFieldsIgnored(t *testing.T) {
	raw := `{
		"id": "wf-1",
		"name": "tolerant",
		"canvas_zoom": 1.5,
		"nodes": [
			{"id": "n1", "type": "Start", "sticky_note": "hi",
			 "outputs": [{"id": "p1", "name": "Out", "kind": "flow", "direction": "out"}],
			 "inputs": []}
		],
		"connections": []
	}`
	wf, err := DecodeWorkflow(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeWorkflow: %v", err)
	}
	if wf.Name != "tolerant" {
		t.Errorf("Name = %q", wf.Name)
	}
	node, ok := wf.Node("n1")
	if !ok {
		t.Fatal("node n1 missing")
	}
	if node.Type != ActivityStart {
		t.Errorf("Type = %q", node.Type)
	}
	if _, ok := node.OutputPort("Out"); !ok {
		t.Error("port list not preserved")
	}
}

func TestDocument_SaveLoadFile(t *testing.T) {
	c := Builtins()
	wf, _, _ := startEndWorkflow(t, c)
	path := filepath.Join(t.TempDir(), "wf.json")

	if err := SaveWorkflow(path, wf); err != nil {
		t.Fatalf("SaveWorkflow: %v", err)
	}
	loaded, err := LoadWorkflow(path)
	if err != nil {
		t.Fatalf("LoadWorkflow: %v", err)
	}
	if ok, errs := loaded.Validate(); !ok {
		t.Fatalf("loaded graph invalid: %v", errs)
	}
	if diff := cmp.Diff(wf.ToDocument(), loaded.ToDocument()); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument_LoadMissingFile(t *testing.T) {
	if _, err := LoadWorkflow(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
