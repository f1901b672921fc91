package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/fichatreino/internal/client"
)

func textContents(uri, mime, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mime,
			Text:     text,
		},
	}
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return textContents(uri, "application/json", string(data)), nil
}

func (h *handlers) stateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := h.ds.State(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, summarize(st))
}

func (h *handlers) catalogResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	groups, err := h.ds.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, groups)
}

func (h *handlers) workoutResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := h.ds.Export(ctx, "markdown")
	if err != nil {
		return nil, err
	}
	return textContents(req.Params.URI, "text/markdown", out), nil
}

func (h *handlers) reportResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := h.ds.Report(ctx, "markdown")
	switch {
	case errors.Is(err, ErrNoReport), client.IsStatus(err, http.StatusNotFound):
		out = "Nenhum relatório de periodização gerado."
	case err != nil:
		return nil, err
	}
	return textContents(req.Params.URI, "text/markdown", out), nil
}

func (h *handlers) journalResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := h.ds.Journal(ctx, 50)
	if err != nil {
		h.log.Warn("journal resource: query failed", "error", err)
		return nil, err
	}
	return jsonContents(req.Params.URI, entries)
}
