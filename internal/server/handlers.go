package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/interpret"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ballot_image_info").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errNoElection is returned by tools that need an election when the server
// was started without one.
var errNoElection = errors.New("no election configured")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Info("tool failed", "tool", params.Name, "error", err)
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies the server's options to unset parameters
//  3. Loads pages from cache
//  4. Calls into the interpret package
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "ballot_image_info":
		return s.handleImageInfo(args)
	case "ballot_find_timing_marks":
		return s.handleFindTimingMarks(args)
	case "ballot_decode_timing_mark_metadata":
		return s.handleDecodeTimingMarkMetadata(args)
	case "ballot_detect_qr_code":
		return s.handleDetectQRCode(args)
	case "ballot_interpret_card":
		return s.handleInterpretCard(args)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	return json.Unmarshal(args, v)
}

// pageOptions returns the server's interpret options restricted to the
// named paper size, if any.
func (s *Server) pageOptions(paperName string) (interpret.Options, error) {
	opts := s.opts.Interpret
	if paperName != "" && paperName != "auto" {
		size, err := paper.ParseSize(paperName)
		if err != nil {
			return opts, err
		}
		opts.Papers = []paper.Info{paper.Scanned(size)}
	}
	return opts, nil
}

// === Page Information ===

type pathArgs struct {
	Path string `json:"path"`
}

type imageInfoResult struct {
	*imaging.ImageInfo

	Paper    paper.Size      `json:"paper,omitempty"`
	GridSize *paper.GridSize `json:"gridSize,omitempty"`
	Resized  bool            `json:"resized,omitempty"`

	// PageError explains why no paper size matched.
	PageError string `json:"pageError,omitempty"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	result := imageInfoResult{ImageInfo: info}
	page, err := interpret.PreparePage(a.Path, img, s.opts.Interpret.PaperSizes(), s.log)
	if err != nil {
		result.PageError = err.Error()
		return result, nil
	}
	result.Paper = page.Paper.Size
	result.GridSize = &page.Geometry.GridSize
	result.Resized = page.Resized
	return result, nil
}

// === Timing Marks ===

type findTimingMarksArgs struct {
	Path            string `json:"path"`
	Paper           string `json:"paper"`
	BestEffort      bool   `json:"best_effort"`
	MetadataBorders *bool  `json:"metadata_borders"`
}

func (s *Server) handleFindTimingMarks(args json.RawMessage) (interface{}, error) {
	var a findTimingMarksArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.pageOptions(a.Paper)
	if err != nil {
		return nil, err
	}
	if a.BestEffort {
		opts.TimingMarks.BestEffort = true
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	if a.MetadataBorders != nil {
		// the election would otherwise decide
		opts.Election = nil
		opts.TimingMarks.MetadataBorders = *a.MetadataBorders
	}
	return interpret.InspectTimingMarks(a.Path, img, opts)
}

type decodeMetadataArgs struct {
	Path  string `json:"path"`
	Paper string `json:"paper"`
}

func (s *Server) handleDecodeTimingMarkMetadata(args json.RawMessage) (interface{}, error) {
	var a decodeMetadataArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.pageOptions(a.Paper)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return interpret.DecodeTimingMarkMetadata(a.Path, img, opts)
}

// === QR Code ===

func (s *Server) handleDetectQRCode(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return interpret.InspectQRCode(a.Path, img, s.election())
}

// === Card Interpretation ===

type interpretCardArgs struct {
	SideA         string `json:"side_a"`
	SideB         string `json:"side_b"`
	ScoreWriteIns *bool  `json:"score_write_ins"`
}

func (s *Server) handleInterpretCard(args json.RawMessage) (interface{}, error) {
	var a interpretCardArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if s.election() == nil {
		return nil, errNoElection
	}
	opts := s.opts.Interpret
	if a.ScoreWriteIns != nil {
		opts.ScoreWriteIns = *a.ScoreWriteIns
	}

	var sides [2]*image.Gray
	var eg errgroup.Group
	for i, path := range []string{a.SideA, a.SideB} {
		eg.Go(func() error {
			img, err := s.cache.Load(path)
			sides[i] = img
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return interpret.Interpret(sides[0], sides[1], opts)
}
