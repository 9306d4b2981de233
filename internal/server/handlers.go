package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/mls-photo-enhancer/internal/archive"
	"github.com/ironsheep/mls-photo-enhancer/internal/batch"
	"github.com/ironsheep/mls-photo-enhancer/internal/enhance"
	"github.com/ironsheep/mls-photo-enhancer/internal/imaging"
	"github.com/ironsheep/mls-photo-enhancer/internal/metering"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "photo_enhance", "photo_inspect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries the optional progress token for long-running calls.
	Meta *struct {
		ProgressToken interface{} `json:"progressToken"`
	} `json:"_meta,omitempty"`
}

// progressFunc reports completed/total work units for the current call.
type progressFunc func(completed, total int)

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// When the caller supplies _meta.progressToken, photo_enhance emits
// notifications/progress after every image.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	var progress progressFunc
	if params.Meta != nil && params.Meta.ProgressToken != nil {
		token := params.Meta.ProgressToken
		progress = func(completed, total int) {
			s.send(MCPNotification{
				JSONRPC: "2.0",
				Method:  "notifications/progress",
				Params: map[string]interface{}{
					"progressToken": token,
					"progress":      completed,
					"total":         total,
				},
			})
		}
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments, progress)
	if err != nil {
		s.logger.Info("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage, progress progressFunc) (interface{}, error) {
	switch name {
	case "photo_enhance":
		return s.handlePhotoEnhance(ctx, args, progress)
	case "photo_inspect":
		return s.handlePhotoInspect(args)
	case "photo_plan_status":
		return s.handlePlanStatus(ctx, args)
	case "photo_set_plan":
		return s.handleSetPlan(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Enhancement ===

type photoEnhanceArgs struct {
	Paths   []string `json:"paths"`
	Variant string   `json:"variant"`
	Output  string   `json:"output"`
	Mode    string   `json:"mode"`
	Account string   `json:"account"`
}

// EnhanceResult is the photo_enhance tool result.
type EnhanceResult struct {
	BatchID string          `json:"batch_id"`
	Variant enhance.Variant `json:"variant"`
	Summary batch.Summary   `json:"summary"`

	// Mode is "zip" or "files".
	Mode string `json:"mode"`

	// Output is the archive path or output directory.
	Output string `json:"output"`

	Files  []EnhancedFile  `json:"files"`
	Errors []FailedFile    `json:"errors,omitempty"`
	Usage  metering.Status `json:"usage"`
}

// EnhancedFile describes one produced image.
type EnhancedFile struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Path   string `json:"path,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int    `json:"bytes"`
}

// FailedFile describes one input that produced no image.
type FailedFile struct {
	Index  int    `json:"index"`
	Source string `json:"source"`
	Error  string `json:"error"`
}

func (s *Server) handlePhotoEnhance(ctx context.Context, args json.RawMessage, progress progressFunc) (interface{}, error) {
	var a photoEnhanceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must list at least one image")
	}
	if a.Output == "" {
		return nil, errors.New("output is required")
	}

	var variant enhance.Variant
	if a.Variant != "" {
		v, err := enhance.ParseVariant(a.Variant)
		if err != nil {
			return nil, err
		}
		variant = v
	}

	mode, err := outputMode(a.Mode, a.Output)
	if err != nil {
		return nil, err
	}

	account := s.accountOrDefault(a.Account)

	report, err := s.runner.Run(ctx, batch.ReadItems(a.Paths), batch.Options{
		Workers: s.workers,
		Variant: variant,
		Account: account,
		OnItem:  progress,
	})
	if err != nil {
		return nil, err
	}

	result := &EnhanceResult{
		BatchID: report.ID,
		Variant: report.Variant,
		Summary: report.Summary,
		Mode:    mode,
		Output:  a.Output,
		Files:   []EnhancedFile{},
	}

	entries := report.Entries()
	var paths []string
	switch mode {
	case "zip":
		if err := archive.WriteFile(a.Output, entries); err != nil {
			return nil, err
		}
	case "files":
		if paths, err = archive.WriteDir(a.Output, entries); err != nil {
			return nil, err
		}
	}

	for _, res := range report.Results {
		if res.Err != nil {
			result.Errors = append(result.Errors, FailedFile{Index: res.Index, Source: res.Source, Error: res.Err.Error()})
			continue
		}
		f := EnhancedFile{
			Index:  res.Image.Index,
			Name:   res.Image.Name,
			Source: res.Image.Source,
			Width:  res.Image.Width,
			Height: res.Image.Height,
			Bytes:  len(res.Image.Data),
		}
		if paths != nil {
			f.Path = paths[len(result.Files)]
		}
		result.Files = append(result.Files, f)
	}

	status, err := s.meter.Status(ctx, account)
	if err != nil {
		return nil, err
	}
	result.Usage = status

	return result, nil
}

// outputMode resolves the delivery mode. An explicit mode wins; otherwise a
// ".zip" output path selects "zip" and anything else is a directory.
func outputMode(mode, output string) (string, error) {
	switch strings.ToLower(mode) {
	case "zip":
		return "zip", nil
	case "files":
		return "files", nil
	case "":
		if strings.EqualFold(filepath.Ext(output), ".zip") {
			return "zip", nil
		}
		return "files", nil
	}
	return "", fmt.Errorf("invalid mode %q: must be zip or files", mode)
}

// === Inspection ===

type photoInspectArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePhotoInspect(args json.RawMessage) (interface{}, error) {
	var a photoInspectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	up, err := imaging.ReadUpload(a.Path)
	if err != nil {
		return nil, err
	}
	return s.decoder.Inspect(up.Data, up.Name)
}

// === Plans ===

type planStatusArgs struct {
	Account string `json:"account"`
}

// PlanStatusResult is the photo_plan_status tool result.
type PlanStatusResult struct {
	metering.Status
	Summary string          `json:"summary"`
	Plans   []metering.Plan `json:"plans"`
}

func (s *Server) handlePlanStatus(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a planStatusArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	st, err := s.meter.Status(ctx, s.accountOrDefault(a.Account))
	if err != nil {
		return nil, err
	}
	return &PlanStatusResult{Status: st, Summary: st.String(), Plans: metering.Plans()}, nil
}

type setPlanArgs struct {
	Account string `json:"account"`
	Plan    string `json:"plan"`
}

func (s *Server) handleSetPlan(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a setPlanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	st, err := s.meter.SetPlan(ctx, s.accountOrDefault(a.Account), a.Plan)
	if err != nil {
		return nil, err
	}
	return &PlanStatusResult{Status: st, Summary: st.String(), Plans: metering.Plans()}, nil
}

func (s *Server) accountOrDefault(account string) string {
	if account = strings.TrimSpace(account); account != "" {
		return account
	}
	return s.account
}
