// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes sensemap tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sensemap/internal/mapservice"
	"github.com/starford/sensemap/internal/models"
	"github.com/starford/sensemap/internal/storage"
	"github.com/starford/sensemap/internal/tags"
)

// ObjectModelURI names the object model resource.
const ObjectModelURI = "sensemap://object-model"

// Server wraps the MCP server with sensemap tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *mapservice.Service
	images storage.Provider
}

// New creates a new MCP server with all sensemap tools registered.
// images may be nil, in which case upload_map_image is not offered.
func New(svc *mapservice.Service, images storage.Provider) *Server {
	s := &Server{svc: svc, images: images}

	s.mcp = server.NewMCPServer(
		"Sensemap",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_maps",
		mcp.WithDescription("List all maps."),
	), s.listMaps)

	s.mcp.AddTool(mcp.NewTool("create_map",
		mcp.WithDescription("Create a new map."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Map name")),
		mcp.WithString("description", mcp.Description("Map description")),
		mcp.WithString("type", mcp.Description("PUBLIC (default) or PRIVATE")),
	), s.createMap)

	s.mcp.AddTool(mcp.NewTool("create_card",
		mcp.WithDescription("Create a card on a map. Read "+ObjectModelURI+" first for the card rules."),
		mcp.WithString("map_id", mcp.Required(), mcp.Description("Map to place the card on")),
		mcp.WithString("card_type", mcp.Description("NORMAL (default), NOTE, QUESTION or ANSWER")),
		mcp.WithString("summary", mcp.Description("Short card text")),
		mcp.WithString("description", mcp.Description("Long card text")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("question", mcp.Description("Question text, QUESTION cards only")),
		mcp.WithString("answer", mcp.Description("Answer text, ANSWER cards only")),
		mcp.WithNumber("x", mcp.Description("Horizontal position")),
		mcp.WithNumber("y", mcp.Description("Vertical position")),
	), s.createCard)

	s.mcp.AddTool(mcp.NewTool("get_object",
		mcp.WithDescription("Read an object placed on a map."),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("Object id")),
	), s.getObject)

	s.mcp.AddTool(mcp.NewTool("create_box",
		mcp.WithDescription("Create a box on a map and place it at the top level."),
		mcp.WithString("map_id", mcp.Required(), mcp.Description("Map to create the box on")),
		mcp.WithString("box_type", mcp.Description("INFO (default) or NOTICE")),
		mcp.WithString("title", mcp.Description("Box title")),
		mcp.WithString("summary", mcp.Description("Box summary")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithNumber("x", mcp.Description("Placement x position")),
		mcp.WithNumber("y", mcp.Description("Placement y position")),
		mcp.WithNumber("width", mcp.Description("Placement width, not negative")),
		mcp.WithNumber("height", mcp.Description("Placement height, not negative")),
	), s.createBox)

	s.mcp.AddTool(mcp.NewTool("get_box",
		mcp.WithDescription("Read a box together with the ids of the objects it contains, in order."),
		mcp.WithString("box_id", mcp.Required(), mcp.Description("Box id")),
	), s.getBox)

	s.mcp.AddTool(mcp.NewTool("add_to_box",
		mcp.WithDescription("Put an object into a box. An object lives in at most one box, "+
			"so adding it to a second box moves it."),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("Object to contain")),
		mcp.WithString("box_id", mcp.Required(), mcp.Description("Target box")),
	), s.addToBox)

	s.mcp.AddTool(mcp.NewTool("remove_from_box",
		mcp.WithDescription("Take an object out of a box. Nothing changes if the object is not in that box."),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("Contained object")),
		mcp.WithString("box_id", mcp.Required(), mcp.Description("Box to remove it from")),
	), s.removeFromBox)

	s.mcp.AddTool(mcp.NewTool("resolve_scope",
		mcp.WithDescription("List the objects visible in a scope: the top level of a map, or the inside of one box."),
		mcp.WithString("map_id", mcp.Required(), mcp.Description("Map id")),
		mcp.WithString("box_id", mcp.Description("Box to look inside (empty for the whole map)")),
	), s.resolveScope)

	s.mcp.AddTool(mcp.NewTool("search_cards",
		mcp.WithDescription("Full-text search over the objects of a map."),
		mcp.WithString("map_id", mcp.Required(), mcp.Description("Map id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20, max 100)")),
	), s.searchCards)

	if images != nil {
		s.mcp.AddTool(mcp.NewTool("upload_map_image",
			mcp.WithDescription("Store an image from an http(s) URL or a base64 data URI and "+
				"optionally set it as a map's cover image."),
			mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
			mcp.WithString("map_id", mcp.Description("Map whose image is set to the upload")),
		), s.uploadMapImage)
	}

	s.mcp.AddResource(
		mcp.NewResource(ObjectModelURI, "Object Model",
			mcp.WithResourceDescription("How maps, cards, boxes and containment fit together."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readObjectModelResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listMaps(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	maps, err := s.svc.ListMaps(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(maps)
}

func (s *Server) createMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.svc.CreateMap(ctx, mapservice.MapFields{
		Type:        models.MapType(req.GetString("type", "")),
		Name:        name,
		Description: req.GetString("description", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(m)
}

func (s *Server) createCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mapID, err := req.RequireString("map_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	o, err := s.svc.CreateObject(ctx, models.MapID(mapID), models.ObjectTypeCard, mapservice.ObjectFields{
		CardType:    models.CardType(req.GetString("card_type", "")),
		X:           req.GetFloat("x", 0),
		Y:           req.GetFloat("y", 0),
		Summary:     req.GetString("summary", ""),
		Description: req.GetString("description", ""),
		Tags:        tags.Parse(req.GetString("tags", "")),
		Question:    req.GetString("question", ""),
		Answer:      req.GetString("answer", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(o)
}

func (s *Server) getObject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("object_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	o, err := s.svc.GetObject(ctx, models.ObjectID(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if o == nil {
		return mcp.NewToolResultError("object not found: " + id), nil
	}
	return jsonResult(o)
}

// createBox creates the box and the BOX object that places it on the map.
func (s *Server) createBox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mapID, err := req.RequireString("map_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, placement, err := s.svc.CreatePlacedBox(ctx, models.MapID(mapID), models.BoxType(req.GetString("box_type", "")), mapservice.BoxFields{
		Title:   req.GetString("title", ""),
		Summary: req.GetString("summary", ""),
		Tags:    tags.Parse(req.GetString("tags", "")),
	}, mapservice.ObjectFields{
		X:      req.GetFloat("x", 0),
		Y:      req.GetFloat("y", 0),
		Width:  req.GetFloat("width", 0),
		Height: req.GetFloat("height", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(struct {
		Box    *models.Box       `json:"box"`
		Object *models.MapObject `json:"object"`
	}{b, placement})
}

func (s *Server) getBox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("box_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.svc.GetBox(ctx, models.BoxID(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if b == nil {
		return mcp.NewToolResultError("box not found: " + id), nil
	}
	return jsonResult(b)
}

func containmentArgs(req mcp.CallToolRequest) (models.ObjectID, models.BoxID, error) {
	object, err := req.RequireString("object_id")
	if err != nil {
		return "", "", err
	}
	box, err := req.RequireString("box_id")
	if err != nil {
		return "", "", err
	}
	return models.ObjectID(object), models.BoxID(box), nil
}

func (s *Server) addToBox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	object, box, err := containmentArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.AddToContainCards(ctx, object, box)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) removeFromBox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	object, box, err := containmentArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.RemoveFromContainCards(ctx, object, box)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) resolveScope(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mapID, err := req.RequireString("map_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sc := models.WholeMap()
	if box := req.GetString("box_id", ""); box != "" {
		sc = models.InBox(models.BoxID(box))
	}
	objects, err := s.svc.ResolveScope(ctx, models.MapID(mapID), sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(objects)
}

func (s *Server) searchCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mapID, err := req.RequireString("map_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.SearchObjects(ctx, models.MapID(mapID), query, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readObjectModelResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ObjectModelURI,
			MIMEType: "text/markdown",
			Text:     ObjectModelContract,
		},
	}, nil
}
