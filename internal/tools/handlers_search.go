package tools

import (
	"context"
	"strings"

	"obsidian-remote-mcp/internal/vault"
)

func searchNotesHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		query := argString(args, "query")
		if strings.TrimSpace(query) == "" {
			return nil, &InvalidArgsError{Tool: "obs_search_notes", Reasons: []string{"argument \"query\" must not be empty"}}
		}

		results, err := svc.Search(ctx, query, argString(args, "folder"), argInt(args, "limit", 10))
		if err != nil {
			return nil, err
		}

		env, err := JSON(results)
		if err != nil {
			return nil, err
		}
		return env.
			WithMeta("query", query).
			WithMeta("total", len(results)), nil
	}
}

func keywordSearchHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		keyword := argString(args, "keyword")
		if strings.TrimSpace(keyword) == "" {
			return nil, &InvalidArgsError{Tool: "obs_keyword_search", Reasons: []string{"argument \"keyword\" must not be empty"}}
		}

		hits, err := svc.KeywordSearch(ctx,
			keyword,
			argString(args, "folder"),
			argBool(args, "case_sensitive", false),
			argInt(args, "limit", 10),
		)
		if err != nil {
			return nil, err
		}

		env, err := JSON(hits)
		if err != nil {
			return nil, err
		}
		return env.
			WithMeta("keyword", keyword).
			WithMeta("total", len(hits)), nil
	}
}
