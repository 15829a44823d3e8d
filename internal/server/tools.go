package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Map Operations
		{
			Name:        "map_load",
			Description: "Load a .npy sky map and return its resolution, pixel scale, statistics, and cached variants. Keeps the map cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the .npy map file",
					},
					"opening_angle": map[string]interface{}{
						"type":        "number",
						"description": "Angular extent of the map in degrees",
					},
				},
				"required": []string{"path", "opening_angle"},
			},
		},
		{
			Name:        "map_filter",
			Description: "Run the dipole-enhancement filter cascade (gaussian high-pass, third derivative, absolute value, gaussian low-pass) on a map and cache the result as a new variant.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the .npy map file",
					},
					"opening_angle": map[string]interface{}{
						"type":        "number",
						"description": "Angular extent of the map in degrees",
					},
					"variant": map[string]interface{}{
						"type":        "string",
						"description": "Source variant to filter (default 'orig')",
						"default":     "orig",
					},
					"kernel_width": map[string]interface{}{
						"type":        "number",
						"description": "Smoothing kernel width in arc-minutes (default 5)",
						"default":     5,
					},
					"direction": map[string]interface{}{
						"type":        "integer",
						"enum":        []int{1, 2},
						"description": "Third-derivative axis: 1 = x, 2 = y (default 1)",
						"default":     1,
					},
				},
				"required": []string{"path", "opening_angle"},
			},
		},
		{
			Name:        "map_render",
			Description: "Render a map variant as a base64-encoded PNG with a configurable colormap. Optionally overlays markers from a saved peak table.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the .npy map file",
					},
					"opening_angle": map[string]interface{}{
						"type":        "number",
						"description": "Angular extent of the map in degrees",
					},
					"variant": map[string]interface{}{
						"type":        "string",
						"description": "Variant to render (default 'orig')",
						"default":     "orig",
					},
					"colormap": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"coolwarm", "viridis", "gray"},
						"description": "Colormap name (default 'coolwarm')",
						"default":     "coolwarm",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 4.0 to upsample a small map). Default 1.0",
						"default":     1.0,
					},
					"smooth_radius": map[string]interface{}{
						"type":        "number",
						"description": "Optional gaussian blur radius in pixels applied for display only",
					},
					"region": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"description": "Optional pixel region to crop before scaling. If omitted, renders the full map.",
					},
					"peaks_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to a saved peak table; its peaks are drawn as cross markers",
					},
					"marker_color": map[string]interface{}{
						"type":        "string",
						"description": "Marker color as hex (default '#00FF00')",
						"default":     "#00FF00",
					},
				},
				"required": []string{"path", "opening_angle"},
			},
		},

		// Detection Operations
		{
			Name:        "dipoles_detect",
			Description: "Run the full dipole detection pipeline on a sky map: filter cascade, thresholded peak location, edge rejection, and significance scoring. Returns the peak table.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the .npy map file",
					},
					"opening_angle": map[string]interface{}{
						"type":        "number",
						"description": "Angular extent of the map in degrees",
					},
					"kernel_width": map[string]interface{}{
						"type":        "number",
						"description": "Smoothing kernel width in arc-minutes (default 5)",
						"default":     5,
					},
					"direction": map[string]interface{}{
						"type":        "integer",
						"enum":        []int{1, 2},
						"description": "Third-derivative axis: 1 = x, 2 = y (default 1)",
						"default":     1,
					},
					"nbins": map[string]interface{}{
						"type":        "integer",
						"description": "Number of threshold bins (default 100)",
						"default":     100,
					},
					"filters": map[string]interface{}{
						"type":        "boolean",
						"description": "Whether to run the filter cascade before detection (default true). Set false for maps filtered in an earlier run.",
						"default":     true,
					},
					"variant": map[string]interface{}{
						"type":        "string",
						"description": "Source variant to detect on (default 'orig')",
						"default":     "orig",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Optional path; if set, the peak table is also written there as JSON",
					},
				},
				"required": []string{"path", "opening_angle"},
			},
		},
		{
			Name:        "dipoles_match",
			Description: "Match the peaks of a saved peak table against a reference catalog. Each peak gains the index of and distance to its nearest catalog record.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"peaks_path": map[string]interface{}{
						"type":        "string",
						"description": "Path to a peak table written by dipoles_detect",
					},
					"catalog_path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the reference catalog CSV",
					},
					"x_key": map[string]interface{}{
						"type":        "string",
						"description": "Catalog column holding the x position in degrees (default 'x_deg')",
						"default":     "x_deg",
					},
					"y_key": map[string]interface{}{
						"type":        "string",
						"description": "Catalog column holding the y position in degrees (default 'y_deg')",
						"default":     "y_deg",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Optional path; if set, the matched table is also written there as JSON",
					},
				},
				"required": []string{"peaks_path", "catalog_path"},
			},
		},
		{
			Name:        "catalog_info",
			Description: "Inspect a reference catalog CSV: record count and column names.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the catalog CSV file",
					},
				},
				"required": []string{"path"},
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
