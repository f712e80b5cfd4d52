package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func paperProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"auto", "letter", "legal", "custom-8.5x17", "custom-8.5x19", "custom-8.5x22"},
		"description": "Paper size the page was printed on. Default: matched from the image dimensions",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "ballot_image_info",
			Description: "Load a scanned ballot page and report its dimensions, format, binarization threshold, scanner border inset and matched paper size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the scanned page"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ballot_find_timing_marks",
			Description: "Find the timing mark grid on a scanned ballot page. Reports every border's candidates and fitted marks, the grid corners and the detected scale.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty("Absolute path to the scanned page"),
					"paper": paperProperty(),
					"best_effort": map[string]interface{}{
						"type":        "boolean",
						"description": "Retry borders that fail the exact search with the best-effort search. Default false",
						"default":     false,
					},
					"metadata_borders": map[string]interface{}{
						"type":        "boolean",
						"description": "Treat the top and bottom borders as timing mark metadata. Default: true when the configured election uses timing mark metadata",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ballot_decode_timing_mark_metadata",
			Description: "Decode the front or back metadata printed in the bottom timing mark row of a scanned page, trying the page upside down when the upright decode fails.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty("Absolute path to the scanned page"),
					"paper": paperProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ballot_detect_qr_code",
			Description: "Find the QR code on a scanned page and return its raw bytes, location and implied orientation. Decodes ballot metadata when an election is configured.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the scanned page"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ballot_interpret_card",
			Description: "Interpret both sides of a ballot card against the configured election: identify front and back, normalize orientation and score every bubble.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"side_a": pathProperty("Absolute path to one side of the card"),
					"side_b": pathProperty("Absolute path to the other side of the card"),
					"score_write_ins": map[string]interface{}{
						"type":        "boolean",
						"description": "Also score write-in areas. Default: server configuration",
					},
				},
				"required": []string{"side_a", "side_b"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
