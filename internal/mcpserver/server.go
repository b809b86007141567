// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only progress tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/board"
	"github.com/starford/prdboard/internal/models"
	"github.com/starford/prdboard/internal/refresh"
)

const prdURI = "prdboard://prd"

// Loader is the part of the refresh loop the tools read from.
type Loader interface {
	Snapshot() refresh.Snapshot
}

// Server wraps the MCP server with prdboard tools.
type Server struct {
	mcp    *server.MCPServer
	loader Loader
}

// New creates a new MCP server with all tools registered.
func New(loader Loader, version string) *Server {
	s := &Server{loader: loader}

	s.mcp = server.NewMCPServer(
		"prdboard",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Overall completion and story counts per status (backlog, in-progress, done)."),
	), s.getProgress)

	s.mcp.AddTool(mcp.NewTool("list_stories",
		mcp.WithDescription("List user stories with their derived status, optionally filtered."),
		mcp.WithString("status", mcp.Description("Only stories in this status"), mcp.Enum("backlog", "in-progress", "done")),
		mcp.WithString("feature", mcp.Description("Only stories of the feature with this id")),
	), s.listStories)

	s.mcp.AddTool(mcp.NewTool("get_feature",
		mcp.WithDescription("A feature with its progress and every story."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Feature id, e.g. F-001")),
	), s.getFeature)

	s.mcp.AddTool(mcp.NewTool("get_board",
		mcp.WithDescription("Board columns grouped by feature, as shown on the dashboard."),
		mcp.WithString("status", mcp.Description("Only this column"), mcp.Enum("backlog", "in-progress", "done")),
	), s.getBoard)

	s.mcp.AddResource(
		mcp.NewResource(prdURI, "Project requirements document",
			mcp.WithResourceDescription("The currently loaded prd.json."),
			mcp.WithMIMEType("application/json"),
		),
		s.readPRDResource,
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

// document returns the loaded document or an error describing why there
// is none.
func (s *Server) document() (*models.Document, error) {
	snap := s.loader.Snapshot()
	if snap.Ready() {
		return snap.Document, nil
	}
	switch snap.State {
	case refresh.StateMissing:
		return nil, errors.New("prd.json not found")
	case refresh.StateError:
		if errors.Is(snap.Err, apperr.ErrMalformed) {
			return nil, errors.New("invalid JSON in prd.json")
		}
		return nil, errors.New("failed to read prd.json")
	}
	return nil, errors.New("prd.json is still loading")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

type progressResult struct {
	Project   string         `json:"project"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Percent   int            `json:"percent"`
	Counts    board.Counts   `json:"counts"`
	Features  []featureShort `json:"features"`
}

type featureShort struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Progress board.Progress `json:"progress"`
}

func (s *Server) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.document()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	overall := board.OverallProgress(doc)
	res := progressResult{
		Project:   doc.Project,
		Completed: overall.Completed,
		Total:     overall.Total,
		Percent:   overall.RoundedPercent(),
		Counts:    board.CountAll(doc),
		Features:  make([]featureShort, 0, len(doc.Features)),
	}
	for _, f := range doc.Features {
		res.Features = append(res.Features, featureShort{ID: f.ID, Name: f.Name, Progress: board.FeatureProgress(f)})
	}
	return jsonResult(res)
}

type storyRow struct {
	Feature  string       `json:"feature"`
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Status   board.Status `json:"status"`
	Priority int          `json:"priority"`
	Duration string       `json:"duration"`
}

func (s *Server) listStories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.document()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var status board.Status
	if raw := req.GetString("status", ""); raw != "" {
		if status, err = board.ParseStatus(raw); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown status: %s", raw)), nil
		}
	}
	feature := req.GetString("feature", "")

	rows := []storyRow{}
	for _, f := range doc.Features {
		if feature != "" && f.ID != feature {
			continue
		}
		for _, st := range f.UserStories {
			derived := board.StatusOf(st)
			if status != "" && derived != status {
				continue
			}
			rows = append(rows, storyRow{
				Feature:  f.ID,
				ID:       st.ID,
				Title:    st.Title,
				Status:   derived,
				Priority: st.Priority,
				Duration: board.StoryDuration(st),
			})
		}
	}
	return jsonResult(rows)
}

func (s *Server) getFeature(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.document()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for _, sec := range board.Sections(doc) {
		if sec.FeatureID == id {
			return jsonResult(sec)
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("feature not found: %s", id)), nil
}

func (s *Server) getBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.document()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if raw := req.GetString("status", ""); raw != "" {
		st, err := board.ParseStatus(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown status: %s", raw)), nil
		}
		return jsonResult([]board.Column{board.ColumnFor(doc, st)})
	}
	return jsonResult(board.Columns(doc))
}

func (s *Server) readPRDResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := s.document()
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      prdURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
