package tools

import (
	"context"
	"fmt"
	"time"

	"obsidian-remote-mcp/internal/vault"
)

func pingHandler(ctx context.Context, args map[string]any) (*Envelope, error) {
	ts := time.Now().UTC().Format(time.RFC3339)
	return Textf("Pong! Gateway is alive at %s", ts).WithMeta("timestamp", ts), nil
}

func readNoteHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		path := argString(args, "path")
		body, err := svc.ReadNote(ctx, path)
		if err != nil {
			return nil, err
		}
		return Text(body).
			WithMeta("path", path).
			WithMeta("size", len(body)), nil
	}
}

func createNoteHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		path := argString(args, "path")
		res, err := svc.CreateNote(ctx, path,
			argString(args, "content"),
			argBool(args, "use_template", true),
			argBool(args, "create_folders", false))
		if err != nil {
			return nil, err
		}

		env := Textf("Created note: %s", path).
			WithMeta("path", path).
			WithMeta("template_applied", res.TemplateApplied)
		if res.NoteType != "" {
			env.WithMeta("note_type", string(res.NoteType))
		}
		for _, w := range res.Warnings {
			env.WithWarning(w)
		}
		return env, nil
	}
}

func updateNoteHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		path := argString(args, "path")
		res, err := svc.UpdateNote(ctx, path, argString(args, "content"), argBool(args, "preserve_format", true))
		if err != nil {
			return nil, err
		}

		env := Textf("Updated note: %s", path).WithMeta("path", path)
		for _, w := range res.Warnings {
			env.WithWarning(w)
		}
		return env, nil
	}
}

func appendNoteHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		path := argString(args, "path")
		content := argString(args, "content")
		separator := argStringOr(args, "separator", "\n\n")
		if _, err := svc.AppendNote(ctx, path, content, separator); err != nil {
			return nil, err
		}
		return Textf("Appended %d bytes to %s", len(content), path).
			WithMeta("path", path), nil
	}
}

func deleteNoteHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		path := argString(args, "path")
		if err := svc.DeleteNote(ctx, path); err != nil {
			return nil, err
		}
		return Textf("Deleted note: %s", path).WithMeta("path", path), nil
	}
}

func checkNoteExistsHandler(svc *vault.Service) Handler {
	return func(ctx context.Context, args map[string]any) (*Envelope, error) {
		path := argString(args, "path")
		exists, stat, err := svc.NoteExists(ctx, path)
		if err != nil {
			return nil, err
		}

		env := Text(fmt.Sprintf("%s exists: %t", path, exists)).
			WithMeta("path", path).
			WithMeta("exists", exists)
		if stat != nil {
			env.WithMeta("size", stat.Size)
			env.WithMeta("modified", stat.Modified.Format(time.RFC3339))
		}
		return env, nil
	}
}
