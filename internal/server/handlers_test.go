package server

import (
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goqr "github.com/skip2/go-qrcode"

	"github.com/ironsheep/ballot-interpreter/internal/ballottest"
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
)

// writePage encodes img as a PNG in a temp dir and returns its path
func writePage(t *testing.T, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func loadElection(t *testing.T, encoding election.MetadataEncoding) *election.Election {
	t.Helper()

	e, err := election.Load("../election/testdata/election.json")
	if err != nil {
		t.Fatalf("failed to load election: %v", err)
	}
	e.BallotLayout.MetadataEncoding = encoding
	return e
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolResult decodes the JSON text of a successful tool call into v
func toolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v (%v)", resp.Error.Message, resp.Error.Data)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), v); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
}

func requireToolError(t *testing.T, resp *MCPResponse, contains string) {
	t.Helper()

	if resp.Error == nil {
		t.Fatal("Expected error response")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, contains) {
		t.Errorf("Error data %q should contain %q", data, contains)
	}
}

func frontCard(cardNumber int) ballottest.Card {
	enc := metadata.AccuvoteEncoding
	return ballottest.Card{
		BottomRow: metadata.BottomRow(metadata.EncodeFront(enc, 0, cardNumber)),
		Bubbles:   []ballottest.Bubble{{Column: 12, Row: 9, Filled: true}, {Column: 12, Row: 11}, {Column: 12, Row: 13, Filled: true}},
	}
}

func backCard() ballottest.Card {
	enc := metadata.AccuvoteEncoding
	return ballottest.Card{
		BottomRow: metadata.BottomRow(metadata.EncodeBack(enc, 8, 11, 22, 'G')),
		Bubbles:   []ballottest.Bubble{{Column: 26, Row: 20}, {Column: 26, Row: 22, Filled: true}},
	}
}

func TestHandleToolsCall_ImageInfo(t *testing.T) {
	s := newTestServer(nil)
	path := writePage(t, "page.png", ballottest.Card{}.Render())

	var got struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Format    string `json:"format"`
		Paper     string `json:"paper"`
		PageError string `json:"pageError"`
		GridSize  struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"gridSize"`
	}
	toolResult(t, callTool(t, s, "ballot_image_info", map[string]interface{}{"path": path}), &got)

	if got.Width != 1700 || got.Height != 2200 {
		t.Errorf("dimensions: got %dx%d, want 1700x2200", got.Width, got.Height)
	}
	if got.Format != "png" {
		t.Errorf("format: got %s, want png", got.Format)
	}
	if got.Paper != "letter" {
		t.Errorf("paper: got %q, want letter (%s)", got.Paper, got.PageError)
	}
	if got.GridSize.Width != 34 || got.GridSize.Height != 41 {
		t.Errorf("grid size: got %+v, want 34x41", got.GridSize)
	}
}

func TestHandleToolsCall_ImageInfo_UnknownPaper(t *testing.T) {
	s := newTestServer(nil)
	path := writePage(t, "small.png", imaging.NewUniform(500, 500, imaging.White))

	var got struct {
		Paper     string `json:"paper"`
		PageError string `json:"pageError"`
	}
	toolResult(t, callTool(t, s, "ballot_image_info", map[string]interface{}{"path": path}), &got)

	if got.Paper != "" {
		t.Errorf("paper: got %q, want none", got.Paper)
	}
	if !strings.Contains(got.PageError, "unexpected-dimensions") {
		t.Errorf("pageError: got %q", got.PageError)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer(nil)
	tools := []string{
		"ballot_image_info",
		"ballot_find_timing_marks",
		"ballot_decode_timing_mark_metadata",
		"ballot_detect_qr_code",
	}
	for _, name := range tools {
		t.Run(name, func(t *testing.T) {
			resp := callTool(t, s, name, map[string]interface{}{"path": "/nonexistent/page.png"})
			requireToolError(t, resp, "")
		})
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer(nil)
	resp := callTool(t, s, "image_load", map[string]interface{}{"path": "x.png"})
	requireToolError(t, resp, "unknown tool: image_load")
}

func TestHandleToolsCall_MissingArguments(t *testing.T) {
	s := newTestServer(nil)
	resp := callTool(t, s, "ballot_image_info", nil)
	requireToolError(t, resp, "missing arguments")
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(nil)
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("Expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_FindTimingMarks(t *testing.T) {
	s := newTestServer(nil)
	path := writePage(t, "page.png", ballottest.Card{}.Render())

	var got struct {
		Page struct {
			Threshold int `json:"threshold"`
		} `json:"page"`
		TimingMarks struct {
			Borders []struct {
				Border   string     `json:"border"`
				Strategy string     `json:"strategy"`
				Marks    []struct{} `json:"marks"`
			} `json:"borders"`
			Corners *struct{} `json:"corners"`
			Error   string    `json:"error"`
		} `json:"timingMarks"`
	}
	toolResult(t, callTool(t, s, "ballot_find_timing_marks", map[string]interface{}{"path": path}), &got)

	tm := got.TimingMarks
	if tm.Error != "" || tm.Corners == nil {
		t.Fatalf("expected a grid, got error %q", tm.Error)
	}
	if len(tm.Borders) != 4 {
		t.Fatalf("borders: got %d, want 4", len(tm.Borders))
	}
	if tm.Borders[0].Border != "top" || len(tm.Borders[0].Marks) != 34 {
		t.Errorf("top border: got %s with %d marks", tm.Borders[0].Border, len(tm.Borders[0].Marks))
	}
	if tm.Borders[2].Border != "left" || len(tm.Borders[2].Marks) != 41 {
		t.Errorf("left border: got %s with %d marks", tm.Borders[2].Border, len(tm.Borders[2].Marks))
	}
}

func TestHandleToolsCall_FindTimingMarks_Options(t *testing.T) {
	s := newTestServer(nil)
	path := writePage(t, "page.png", frontCard(5).Render())

	type result struct {
		TimingMarks struct {
			Borders []struct {
				Strategy string `json:"strategy"`
			} `json:"borders"`
			Error string `json:"error"`
		} `json:"timingMarks"`
	}

	var exact result
	toolResult(t, callTool(t, s, "ballot_find_timing_marks", map[string]interface{}{"path": path}), &exact)
	if exact.TimingMarks.Error == "" {
		t.Error("metadata row should fail the exact bottom border search")
	}

	var inferred result
	toolResult(t, callTool(t, s, "ballot_find_timing_marks", map[string]interface{}{
		"path":             path,
		"metadata_borders": true,
	}), &inferred)
	if inferred.TimingMarks.Error != "" {
		t.Fatalf("metadata borders: unexpected error %q", inferred.TimingMarks.Error)
	}
	if got := inferred.TimingMarks.Borders[1].Strategy; got != "inferred" {
		t.Errorf("bottom strategy: got %q, want inferred", got)
	}

	resp := callTool(t, s, "ballot_find_timing_marks", map[string]interface{}{"path": path, "paper": "legal"})
	requireToolError(t, resp, "unexpected-dimensions")

	resp = callTool(t, s, "ballot_find_timing_marks", map[string]interface{}{"path": path, "paper": "tabloid"})
	requireToolError(t, resp, "unknown paper size")
}

func TestHandleToolsCall_DecodeTimingMarkMetadata(t *testing.T) {
	s := newTestServer(nil)

	tests := []struct {
		name        string
		card        ballottest.Card
		side        string
		orientation string
	}{
		{"front", frontCard(5), "front", "portrait"},
		{"upside down back", func() ballottest.Card { c := backCard(); c.UpsideDown = true; return c }(), "back", "portrait-reversed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePage(t, "page.png", tt.card.Render())
			var got struct {
				Side        string `json:"side"`
				Orientation string `json:"orientation"`
				BottomRow   string `json:"bottomRow"`
			}
			toolResult(t, callTool(t, s, "ballot_decode_timing_mark_metadata", map[string]interface{}{"path": path}), &got)
			if got.Side != tt.side {
				t.Errorf("side: got %s, want %s", got.Side, tt.side)
			}
			if got.Orientation != tt.orientation {
				t.Errorf("orientation: got %s, want %s", got.Orientation, tt.orientation)
			}
			if len(got.BottomRow) != 34 {
				t.Errorf("bottomRow: got %q", got.BottomRow)
			}
		})
	}
}

func TestHandleToolsCall_DecodeTimingMarkMetadata_Invalid(t *testing.T) {
	s := newTestServer(nil)
	path := writePage(t, "page.png", ballottest.Card{}.Render())
	resp := callTool(t, s, "ballot_decode_timing_mark_metadata", map[string]interface{}{"path": path})
	requireToolError(t, resp, "invalid-card-metadata")
}

func qrPage(t *testing.T, e *election.Election, style string, page metadata.PageNumber) image.Image {
	t.Helper()

	data, err := metadata.EncodeQR(metadata.QRMetadata{
		BallotHash:    "d27ab6588b1869544cde",
		PrecinctID:    "town-id-01001-precinct-id-default",
		BallotStyleID: style,
		PageNumber:    page,
		BallotType:    metadata.BallotTypePrecinct,
	}, e)
	if err != nil {
		t.Fatalf("EncodeQR: %v", err)
	}
	q, err := goqr.New(string(data), goqr.Medium)
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	overlay := ballottest.Overlay{Image: imaging.ToGray(q.Image(240)), Left: 250, Top: 1700}
	return ballottest.Card{Overlays: []ballottest.Overlay{overlay}}.Render()
}

func TestHandleToolsCall_DetectQRCode(t *testing.T) {
	e := loadElection(t, election.EncodingQRCode)
	path := writePage(t, "page.png", qrPage(t, e, "card-number-5", 1))

	var got struct {
		Region      string `json:"region"`
		Orientation string `json:"orientation"`
		Metadata    *struct {
			BallotStyleID string `json:"ballotStyleId"`
			PageNumber    int    `json:"pageNumber"`
		} `json:"metadata"`
	}
	toolResult(t, callTool(t, newTestServer(e), "ballot_detect_qr_code", map[string]interface{}{"path": path}), &got)

	if got.Region != "bottom" || got.Orientation != "portrait" {
		t.Errorf("location: got %s/%s", got.Region, got.Orientation)
	}
	if got.Metadata == nil {
		t.Fatal("expected decoded metadata")
	}
	if got.Metadata.BallotStyleID != "card-number-5" || got.Metadata.PageNumber != 1 {
		t.Errorf("metadata: got %+v", *got.Metadata)
	}

	// without an election only the raw payload is reported
	var raw struct {
		Data     []byte    `json:"data"`
		Metadata *struct{} `json:"metadata"`
	}
	toolResult(t, callTool(t, newTestServer(nil), "ballot_detect_qr_code", map[string]interface{}{"path": path}), &raw)
	if len(raw.Data) == 0 || raw.Metadata != nil {
		t.Errorf("raw: got %d bytes, metadata %v", len(raw.Data), raw.Metadata)
	}
}

func TestHandleToolsCall_InterpretCard(t *testing.T) {
	e := loadElection(t, election.EncodingTimingMarks)
	s := newTestServer(e)
	sideA := writePage(t, "a.png", frontCard(5).Render())
	sideB := writePage(t, "b.png", backCard().Render())

	var got struct {
		BallotStyleID string `json:"ballotStyleId"`
		SheetNumber   int    `json:"sheetNumber"`
		Front         struct {
			Label string `json:"label"`
			Marks []struct {
				Mark *struct {
					FillScore float64 `json:"fillScore"`
				} `json:"mark"`
			} `json:"marks"`
		} `json:"front"`
	}
	toolResult(t, callTool(t, s, "ballot_interpret_card", map[string]interface{}{
		"side_a": sideA,
		"side_b": sideB,
	}), &got)

	if got.BallotStyleID != "card-number-5" || got.SheetNumber != 1 {
		t.Errorf("card: got %s sheet %d", got.BallotStyleID, got.SheetNumber)
	}
	if got.Front.Label != "side A" {
		t.Errorf("front label: got %s", got.Front.Label)
	}
	if len(got.Front.Marks) != 3 || got.Front.Marks[0].Mark == nil || got.Front.Marks[2].Mark == nil {
		t.Fatalf("front marks: got %+v", got.Front.Marks)
	}
	if got.Front.Marks[0].Mark.FillScore < 0.3 {
		t.Errorf("filled bubble: got fill %v", got.Front.Marks[0].Mark.FillScore)
	}
	if got.Front.Marks[2].Mark.FillScore < 0.3 {
		t.Errorf("filled write-in bubble: got fill %v", got.Front.Marks[2].Mark.FillScore)
	}

	// interpretation errors carry their kind
	resp := callTool(t, s, "ballot_interpret_card", map[string]interface{}{"side_a": sideA, "side_b": sideA})
	requireToolError(t, resp, "invalid-card-metadata")
}

func TestHandleToolsCall_InterpretCard_NoElection(t *testing.T) {
	s := newTestServer(nil)
	resp := callTool(t, s, "ballot_interpret_card", map[string]interface{}{"side_a": "a.png", "side_b": "b.png"})
	requireToolError(t, resp, errNoElection.Error())
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer(nil)
	for _, tool := range GetToolDefinitions() {
		if _, err := s.executeTool(tool.Name, json.RawMessage(`{invalid}`)); err == nil {
			t.Errorf("%s: expected error for invalid JSON", tool.Name)
		}
	}
}
