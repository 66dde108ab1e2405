package tools

import (
	"context"
	"time"

	"obsidian-remote-mcp/internal/vault"
)

func listNotesHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		notes, err := svc.ListNotes(ctx, argString(args, "folder"), argBool(args, "include_headers", false))
		if err != nil {
			return nil, err
		}

		total := len(notes)
		if limit := argInt(args, "limit", 0); limit > 0 && len(notes) > limit {
			notes = notes[:limit]
		}

		env, err := JSON(notes)
		if err != nil {
			return nil, err
		}
		return env.
			WithMeta("total", total).
			WithMeta("returned", len(notes)), nil
	}
}

func vaultStructureHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		st, err := svc.VaultStructure(ctx, argBool(args, "use_cache", true))
		if err != nil {
			return nil, err
		}

		env, err := JSON(st)
		if err != nil {
			return nil, err
		}
		return env.
			WithMeta("total_notes", st.TotalNotes).
			WithMeta("total_folders", st.TotalFolders).
			WithMeta("scanned_at", st.ScannedAt.Format(time.RFC3339)), nil
	}
}

func executeCommandHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		command := argString(args, "command")
		result, err := svc.ExecuteCommand(ctx, command, argObject(args, "parameters"))
		if err != nil {
			return nil, err
		}

		env := Textf("Executed command: %s", command).WithMeta("command", command)
		if result != "" {
			env.WithMeta("result", result)
		}
		return env, nil
	}
}

func listDailyNotesHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		start, err := parseDateArg(args, "start_date")
		if err != nil {
			return nil, err
		}
		end, err := parseDateArg(args, "end_date")
		if err != nil {
			return nil, err
		}

		notes, err := svc.ListDailyNotes(ctx, start, end)
		if err != nil {
			return nil, err
		}

		env, err := JSON(notes)
		if err != nil {
			return nil, err
		}
		return env.WithMeta("total", len(notes)), nil
	}
}

func parseDateArg(args map[string]any, key string) (time.Time, error) {
	raw := argString(args, key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, &InvalidArgsError{
			Tool:    "obs_list_daily_notes",
			Reasons: []string{"argument \"" + key + "\" must be a YYYY-MM-DD date"},
		}
	}
	return t, nil
}
