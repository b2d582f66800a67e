// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Uruz material tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/uruz/internal/matservice"
	"github.com/starford/uruz/internal/storage"
)

// Server wraps the MCP server with Uruz tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *matservice.Service
	store storage.Provider
}

// New creates a new MCP server with all Uruz tools registered.
func New(svc *matservice.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Uruz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_materials",
		mcp.WithDescription("Full-text search through material names, comments, and application areas."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchMaterials)

	s.mcp.AddTool(mcp.NewTool("read_material",
		mcp.WithDescription("Read the full JSON document of a material record. "+
			"The document structure is described by the get_record_contract tool "+
			"and the uruz://record-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the record (e.g. steels/12x18n10t.json)")),
	), s.readMaterial)

	s.mcp.AddTool(mcp.NewTool("list_materials",
		mcp.WithDescription("List all material records, or records in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listMaterials)

	s.mcp.AddTool(mcp.NewTool("property_at_temperature",
		mcp.WithDescription("Resolve a physical or mechanical property of a material at a given "+
			"temperature. Exact stored samples are returned as-is; temperatures between two "+
			"samples are linearly interpolated; temperatures outside the sampled range yield no data."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the record")),
		mcp.WithString("property", mcp.Required(), mcp.Description("Property key (e.g. modulus_elasticity, yield_strength)")),
		mcp.WithNumber("temperature", mcp.Required(), mcp.Description("Temperature in °С")),
		mcp.WithString("category", mcp.Description("Strength category name, for mechanical properties")),
	), s.propertyAtTemperature)

	s.mcp.AddTool(mcp.NewTool("match_composition",
		mcp.WithDescription("Rank every composition source in the library against target element "+
			"percentages. Targets are a JSON object of element symbol to percentage, "+
			"e.g. {\"Cr\": 12, \"Ni\": 10}. Full matches sort before partial matches."),
		mcp.WithString("targets", mcp.Required(), mcp.Description("JSON object: element symbol -> target percentage")),
		mcp.WithString("area", mcp.Description("Optional application-area filter")),
	), s.matchComposition)

	s.mcp.AddTool(mcp.NewTool("get_record_contract",
		mcp.WithDescription("Returns the canonical Uruz material record format. "+
			"Call this before creating or editing records to ensure correct structure."),
	), s.getRecordContract)

	// Resource: record format contract.
	s.mcp.AddResource(
		mcp.NewResource("uruz://record-format", "Material Record Format",
			mcp.WithResourceDescription("Canonical JSON document format that all material records follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchMaterials(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readMaterial(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listMaterials(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	infos, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, info := range infos {
		paths = append(paths, info.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) propertyAtTemperature(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prop, err := req.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	temp, err := req.RequireFloat("temperature")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category := req.GetString("category", "")

	res, err := s.svc.ValueAt(ctx, path, prop, category, temp, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) matchComposition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("targets")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var targets map[string]float64
	if err := json.Unmarshal([]byte(raw), &targets); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("targets must be a JSON object of element -> percentage: %v", err)), nil
	}
	area := req.GetString("area", "")

	items, err := s.svc.MatchComposition(ctx, targets, area)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecordContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "uruz://record-format",
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
