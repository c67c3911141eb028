// Package mcp exposes workflow execution and template search as MCP tools
// over stdio, so agent hosts can drive automation runs directly.
package mcp

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"ocular/internal/browser"
	"ocular/internal/logging"
	"ocular/pkg/flow"
	"ocular/pkg/vision"
)

// DefaultRunTimeout bounds a run_workflow call that names no timeout.
var DefaultRunTimeout = 5 * time.Minute

// Server wraps the MCP SDK server with workflow tools.
type Server struct {
	MCPServer *sdkmcp.Server
	Catalog   *flow.Catalog
}

// NewServer creates an MCP server with the workflow and perception tools
// registered over the built-in activity catalog.
func NewServer() *Server {
	s := &Server{Catalog: flow.Builtins()}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "ocular", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "validate_workflow",
		Description: "Structurally validate a workflow document. Returns every violation, not just the first.",
	}, s.handleValidate)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_workflow",
		Description: "Execute a workflow document against a browser session. Returns the run result with node count and failure details.",
	}, s.handleRun)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "find_template",
		Description: "Search an image file for a template image and return ranked detections.",
	}, s.handleFind)
}

// --- Tool input/output types ---

type validateInput struct {
	Path string `json:"path" jsonschema:"path to the workflow JSON document"`
}

type validateOutput struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

type runInput struct {
	Path      string `json:"path" jsonschema:"path to the workflow JSON document"`
	StartURL  string `json:"start_url,omitempty" jsonschema:"URL to navigate to before the run"`
	DryRun    bool   `json:"dry_run,omitempty" jsonschema:"log input actions instead of performing them"`
	Headful   bool   `json:"headful,omitempty" jsonschema:"run the browser with a visible window (headless by default)"`
	TimeoutMS int    `json:"timeout_ms,omitempty" jsonschema:"max run duration in milliseconds"`
}

type runOutput struct {
	Success       bool   `json:"success"`
	Cancelled     bool   `json:"cancelled,omitempty"`
	Error         string `json:"error,omitempty"`
	FailedNode    string `json:"failed_node,omitempty"`
	NodesExecuted int    `json:"nodes_executed"`
	ElapsedMS     int64  `json:"elapsed_ms"`
}

type findInput struct {
	ImagePath    string  `json:"image_path" jsonschema:"path to the image to search"`
	TemplatePath string  `json:"template_path" jsonschema:"path to the template image"`
	Threshold    float64 `json:"threshold,omitempty" jsonschema:"minimum confidence, default 0.8"`
	MultiScale   bool    `json:"multi_scale,omitempty" jsonschema:"search across a range of template scales"`
	MinScale     float64 `json:"min_scale,omitempty" jsonschema:"multi-scale lower bound, default 0.8"`
	MaxScale     float64 `json:"max_scale,omitempty" jsonschema:"multi-scale upper bound, default 1.2"`
	ScaleSteps   int     `json:"scale_steps,omitempty" jsonschema:"multi-scale step count, default 5"`
	Region       string  `json:"region,omitempty" jsonschema:"ratio rectangle startX,startY,endX,endY restricting the search"`
}

type findOutput struct {
	Detections []vision.Detection `json:"detections"`
	Best       *vision.Detection  `json:"best,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleValidate(ctx context.Context, _ *sdkmcp.CallToolRequest, input validateInput) (*sdkmcp.CallToolResult, validateOutput, error) {
	wf, err := flow.LoadWorkflow(input.Path)
	if err != nil {
		return nil, validateOutput{}, err
	}
	ok, errs := wf.Validate()
	out := validateOutput{Valid: ok}
	for _, e := range errs {
		out.Errors = append(out.Errors, e.Error())
	}
	return nil, out, nil
}

func (s *Server) handleRun(ctx context.Context, _ *sdkmcp.CallToolRequest, input runInput) (*sdkmcp.CallToolResult, runOutput, error) {
	logger := logging.New("mcp-run")

	wf, err := flow.LoadWorkflow(input.Path)
	if err != nil {
		return nil, runOutput{}, err
	}

	timeout := DefaultRunTimeout
	if input.TimeoutMS > 0 {
		timeout = time.Duration(input.TimeoutMS) * time.Millisecond
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b, err := browser.New(runCtx, browser.Options{Headless: !input.Headful})
	if err != nil {
		return nil, runOutput{}, fmt.Errorf("run_workflow: %w", err)
	}
	defer b.Close()

	if input.StartURL != "" {
		if err := b.Navigate(runCtx, input.StartURL); err != nil {
			return nil, runOutput{}, err
		}
	}

	var actuator flow.Actuator = b
	if input.DryRun {
		actuator = flow.NopActuator{Logger: logger}
	}

	engine := flow.NewEngine(s.Catalog)
	engine.Logger = logger
	engine.Observer = &flow.LogObserver{Logger: logger}

	res := engine.Run(runCtx, wf, flow.NewRunContext(b, actuator, logger))
	return nil, runOutput{
		Success:       res.Success,
		Cancelled:     res.Cancelled,
		Error:         res.Error,
		FailedNode:    res.FailedNode,
		NodesExecuted: res.NodesExecuted,
		ElapsedMS:     res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
	}, nil
}

func (s *Server) handleFind(ctx context.Context, _ *sdkmcp.CallToolRequest, input findInput) (*sdkmcp.CallToolResult, findOutput, error) {
	src, err := vision.LoadImage(input.ImagePath)
	if err != nil {
		return nil, findOutput{}, err
	}

	threshold := input.Threshold
	if threshold == 0 {
		threshold = 0.8
	}
	region := vision.FullRegion()
	if input.Region != "" {
		region, err = vision.ParseRegion(input.Region)
		if err != nil {
			return nil, findOutput{}, err
		}
	}

	svc := vision.NewService()
	var dets []vision.Detection
	if input.MultiScale {
		minScale, maxScale, steps := input.MinScale, input.MaxScale, input.ScaleSteps
		if minScale == 0 {
			minScale = 0.8
		}
		if maxScale == 0 {
			maxScale = 1.2
		}
		if steps == 0 {
			steps = 5
		}
		dets, err = svc.FindTemplateMultiScale(ctx, src, input.TemplatePath, threshold, minScale, maxScale, steps, region)
	} else {
		dets, err = svc.FindTemplate(ctx, src, input.TemplatePath, threshold, region)
	}
	if err != nil {
		return nil, findOutput{}, err
	}

	out := findOutput{Detections: dets}
	if best, ok := vision.Best(dets); ok {
		out.Best = &best
	}
	return nil, out, nil
}
