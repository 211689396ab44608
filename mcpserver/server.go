// Package mcpserver exposes scans and region data as Model Context Protocol
// tools so editor agents can query a project's footprint.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"carbonlint/carbon"
	"carbonlint/config"
	"carbonlint/output"
	"carbonlint/scanner"
	"carbonlint/tables"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func New(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"carbonlint",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("scan_project",
			mcp.WithDescription("Scan a project directory and return its estimated carbon footprint, green score and per-extension breakdown."),
			mcp.WithString("path", mcp.Required(), mcp.Description("Directory to scan")),
			mcp.WithString("region", mcp.Description("Grid region key, e.g. EU-NORTH")),
			mcp.WithNumber("budget", mcp.Description("Carbon budget in grams")),
			mcp.WithNumber("pue", mcp.Description("Power usage effectiveness multiplier (>= 1)")),
		),
		scanProjectHandler,
	)
	s.AddTool(
		mcp.NewTool("list_regions",
			mcp.WithDescription("List the grid regions and their carbon intensity in gCO2/kWh."),
		),
		listRegionsHandler,
	)
	s.AddTool(
		mcp.NewTool("score_carbon",
			mcp.WithDescription("Convert a carbon estimate in grams into a 0-100 green score against a budget."),
			mcp.WithNumber("carbon_grams", mcp.Required(), mcp.Description("Estimated carbon in grams")),
			mcp.WithNumber("budget", mcp.Description("Carbon budget in grams (default 100)")),
		),
		scoreCarbonHandler,
	)
	return s
}

// Serve blocks serving s over stdin/stdout.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func scanProjectHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cfg := config.Load(path)
	cfg.ShowProgress = false
	if region := strings.TrimSpace(request.GetString("region", "")); region != "" {
		if _, ok := tables.LookupRegion(region); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown region %q; available: %s",
				region, strings.Join(tables.RegionKeys(), ", "))), nil
		}
		cfg.Region = region
	}
	if budget := request.GetFloat("budget", 0); budget != 0 {
		cfg.MaxCarbon = budget
	}
	if pue := request.GetFloat("pue", 0); pue != 0 {
		cfg.PUE = pue
	}

	res, err := scanner.Scan(ctx, path, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Scan failed: %v", err)), nil
	}
	return jsonResult(output.NewReport(res))
}

func listRegionsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(tables.Regions())
}

type scoreResponse struct {
	GreenScore int     `json:"greenScore"`
	Label      string  `json:"label"`
	Carbon     float64 `json:"carbon_grams"`
	Budget     float64 `json:"budget_grams"`
	OverBudget bool    `json:"overBudget"`
}

func scoreCarbonHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	grams, err := request.RequireFloat("carbon_grams")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	budget := request.GetFloat("budget", config.Default().MaxCarbon)
	score, err := carbon.GreenScore(grams, budget)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(scoreResponse{
		GreenScore: score,
		Label:      carbon.Label(score),
		Carbon:     grams,
		Budget:     budget,
		OverBudget: grams > budget,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
