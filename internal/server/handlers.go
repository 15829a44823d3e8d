package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/sky-tools-mcp/internal/catalog"
	"github.com/ironsheep/sky-tools-mcp/internal/detection"
	"github.com/ironsheep/sky-tools-mcp/internal/skymap"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "map_load", "dipoles_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

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
//  2. Applies default values for optional parameters
//  3. Loads sky maps from cache as needed
//  4. Calls the appropriate skymap/detection/catalog function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Map Operations
	case "map_load":
		return s.handleMapLoad(args)
	case "map_filter":
		return s.handleMapFilter(args)
	case "map_render":
		return s.handleMapRender(args)

	// Detection Operations
	case "dipoles_detect":
		return s.handleDipolesDetect(args)
	case "dipoles_match":
		return s.handleDipolesMatch(args)
	case "catalog_info":
		return s.handleCatalogInfo(args)

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

// === Map Operation Handlers ===

type mapLoadArgs struct {
	Path         string  `json:"path"`
	OpeningAngle float64 `json:"opening_angle"`
}

func (s *Server) handleMapLoad(args json.RawMessage) (interface{}, error) {
	var a mapLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return skymap.LoadMapInfo(s.cache, a.Path, a.OpeningAngle)
}

type mapFilterArgs struct {
	Path         string  `json:"path"`
	OpeningAngle float64 `json:"opening_angle"`
	Variant      string  `json:"variant"`
	KernelWidth  float64 `json:"kernel_width"`
	Direction    int     `json:"direction"`
}

// mapFilterResult reports the variant created by map_filter and its statistics.
type mapFilterResult struct {
	Variant     string       `json:"variant"`
	KernelWidth float64      `json:"kernel_width"`
	Direction   int          `json:"direction"`
	Cached      bool         `json:"cached"`
	Stats       skymap.Stats `json:"stats"`
}

func (s *Server) handleMapFilter(args json.RawMessage) (interface{}, error) {
	var a mapFilterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Variant == "" {
		a.Variant = skymap.DefaultVariant
	}
	if a.KernelWidth == 0 {
		a.KernelWidth = 5
	}
	if a.Direction == 0 {
		a.Direction = skymap.DirectionX
	}

	field, err := s.cache.Load(a.Path, a.OpeningAngle)
	if err != nil {
		return nil, err
	}

	name := detection.FilteredVariantName(a.Variant)
	cached := field.HasVariant(name)
	if !cached {
		filtered, err := detection.ApplyDipoleFilter(field, a.Variant, a.KernelWidth, a.Direction)
		if err != nil {
			return nil, err
		}
		if err := field.AddVariant(name, filtered); err != nil {
			return nil, err
		}
	}

	grid, err := field.Variant(name)
	if err != nil {
		return nil, err
	}
	return &mapFilterResult{
		Variant:     name,
		KernelWidth: a.KernelWidth,
		Direction:   a.Direction,
		Cached:      cached,
		Stats:       skymap.GridStats(grid),
	}, nil
}

type mapRenderArgs struct {
	Path         string         `json:"path"`
	OpeningAngle float64        `json:"opening_angle"`
	Variant      string         `json:"variant"`
	Colormap     string         `json:"colormap"`
	Scale        float64        `json:"scale"`
	SmoothRadius float64        `json:"smooth_radius"`
	Region       *skymap.Region `json:"region,omitempty"`
	PeaksPath    string         `json:"peaks_path"`
	MarkerColor  string         `json:"marker_color"`
}

func (s *Server) handleMapRender(args json.RawMessage) (interface{}, error) {
	var a mapRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	field, err := s.cache.Load(a.Path, a.OpeningAngle)
	if err != nil {
		return nil, err
	}

	opts := skymap.RenderOptions{
		Colormap:     a.Colormap,
		Scale:        a.Scale,
		SmoothRadius: a.SmoothRadius,
		Region:       a.Region,
		MarkerColor:  a.MarkerColor,
	}
	if a.PeaksPath != "" {
		table, err := detection.LoadPeakTable(a.PeaksPath)
		if err != nil {
			return nil, err
		}
		opts.Markers = table.Positions()
	}
	return skymap.RenderMap(field, a.Variant, opts)
}

// === Detection Operation Handlers ===

type dipolesDetectArgs struct {
	Path         string  `json:"path"`
	OpeningAngle float64 `json:"opening_angle"`
	KernelWidth  float64 `json:"kernel_width"`
	Direction    int     `json:"direction"`
	NBins        int     `json:"nbins"`
	Filters      *bool   `json:"filters,omitempty"`
	Variant      string  `json:"variant"`
	Output       string  `json:"output"`
}

func (s *Server) handleDipolesDetect(args json.RawMessage) (interface{}, error) {
	var a dipolesDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	field, err := s.cache.Load(a.Path, a.OpeningAngle)
	if err != nil {
		return nil, err
	}

	opts := detection.DetectOptions{
		Variant:     a.Variant,
		KernelWidth: a.KernelWidth,
		Direction:   a.Direction,
		NBins:       a.NBins,
		SkipFilters: a.Filters != nil && !*a.Filters,
	}
	table, err := detection.DetectDipoles(field, opts)
	if err != nil {
		return nil, err
	}

	if a.Output != "" {
		if err := table.Save(a.Output); err != nil {
			return nil, err
		}
	}
	return table, nil
}

type dipolesMatchArgs struct {
	PeaksPath   string `json:"peaks_path"`
	CatalogPath string `json:"catalog_path"`
	XKey        string `json:"x_key"`
	YKey        string `json:"y_key"`
	Output      string `json:"output"`
}

func (s *Server) handleDipolesMatch(args json.RawMessage) (interface{}, error) {
	var a dipolesMatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.XKey == "" {
		a.XKey = "x_deg"
	}
	if a.YKey == "" {
		a.YKey = "y_deg"
	}

	table, err := detection.LoadPeakTable(a.PeaksPath)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(a.CatalogPath)
	if err != nil {
		return nil, err
	}
	view, err := cat.View(a.XKey, a.YKey)
	if err != nil {
		return nil, err
	}

	matched, err := detection.MatchNearest(table, view)
	if err != nil {
		return nil, err
	}

	if a.Output != "" {
		if err := matched.Save(a.Output); err != nil {
			return nil, err
		}
	}
	return matched, nil
}

type catalogInfoArgs struct {
	Path string `json:"path"`
}

// catalogInfoResult summarises a reference catalog file.
type catalogInfoResult struct {
	Path    string   `json:"path"`
	Count   int      `json:"count"`
	Columns []string `json:"columns"`
}

func (s *Server) handleCatalogInfo(args json.RawMessage) (interface{}, error) {
	var a catalogInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cat, err := catalog.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return &catalogInfoResult{
		Path:    a.Path,
		Count:   cat.Len(),
		Columns: cat.Columns(),
	}, nil
}
