// Package vault implements note discovery, search, and the note lifecycle
// on top of the upstream adapter and the TTL caches.
package vault

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"obsidian-remote-mcp/internal/cache"
	"obsidian-remote-mcp/internal/config"
	"obsidian-remote-mcp/internal/obsidian"
	"obsidian-remote-mcp/internal/template"
)

// Service coordinates vault operations. All note paths it accepts are
// vault-relative; path validation happens in the upstream adapter.
type Service struct {
	client *obsidian.Client
	caches *cache.Store[*Structure, NoteMetadata]
	log    *slog.Logger

	root          string
	batchSize     int
	snippetRadius int
}

// WriteResult reports what a note write did beyond succeeding.
type WriteResult struct {
	Path            string
	NoteType        template.NoteType
	TemplateApplied bool
	Warnings        []string
}

// NewService wires a service onto a client. Cache invalidation is attached
// to the client here so every mutating upstream call clears both slots,
// whether issued by this service or by anything else holding the client.
func NewService(client *obsidian.Client, cfg *config.Config, log *slog.Logger) *Service {
	s := &Service{
		client:        client,
		caches:        cache.NewStore[*Structure, NoteMetadata](cfg.StructureTTL, cfg.NotesTTL),
		log:           log,
		root:          cfg.VaultPath,
		batchSize:     cfg.BatchSize,
		snippetRadius: cfg.SnippetRadius,
	}
	client.OnMutate(s.caches.Invalidate)
	return s
}

// InvalidateCaches clears both cache slots.
func (s *Service) InvalidateCaches() {
	s.caches.Invalidate()
}

// ListNotes returns discovered notes, optionally filtered to a folder and
// optionally enriched with parsed headers.
func (s *Service) ListNotes(ctx context.Context, folder string, includeHeaders bool) ([]NoteMetadata, error) {
	notes, err := s.discoverNotes(ctx, includeHeaders)
	if err != nil {
		return nil, err
	}
	return filterFolder(notes, folder), nil
}

// ReadNote fetches a note body.
func (s *Service) ReadNote(ctx context.Context, notePath string) (string, error) {
	return s.client.GetNote(ctx, notePath)
}

// NoteExists reports whether a note exists, with its stat when it does.
func (s *Service) NoteExists(ctx context.Context, notePath string) (bool, *obsidian.Stat, error) {
	stat, err := s.client.NoteStat(ctx, notePath)
	if err != nil {
		if obsidian.IsNotFound(err) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return true, stat, nil
}

// CreateNote writes a new note. Creating over an existing note is a
// conflict. When useTemplate is set, notes landing in a template folder
// without their own frontmatter get the folder's default frontmatter, and
// date/time tokens anywhere in the content are expanded. createFolders lets
// the upstream create missing intermediate folders.
func (s *Service) CreateNote(ctx context.Context, notePath, content string, useTemplate, createFolders bool) (*WriteResult, error) {
	exists, _, err := s.NoteExists(ctx, notePath)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &obsidian.APIError{
			Kind:       obsidian.KindConflict,
			StatusCode: 409,
			Message:    "note already exists: " + notePath,
		}
	}

	res := &WriteResult{Path: notePath}
	if useTemplate {
		content, res.TemplateApplied, res.NoteType = template.Apply(notePath, content, time.Now())
	}
	if warning, ok := template.CheckDailyDate(notePath, content); ok {
		res.Warnings = append(res.Warnings, warning)
	}

	if err := s.client.PutNote(ctx, notePath, content, createFolders); err != nil {
		return nil, err
	}
	s.log.Debug("note created", "path", notePath, "template", res.TemplateApplied)
	return res, nil
}

// UpdateNote replaces a note's content. The note must exist. With
// preserveFormat the existing frontmatter survives: the caller's header
// values win key by key, the caller's body replaces the old body, and
// caller values still holding unresolved tokens are dropped.
func (s *Service) UpdateNote(ctx context.Context, notePath, content string, preserveFormat bool) (*WriteResult, error) {
	existing, err := s.client.GetNote(ctx, notePath)
	if err != nil {
		return nil, err
	}

	res := &WriteResult{Path: notePath}
	if preserveFormat {
		merged, err := mergePreservingFormat(existing, content)
		if err == nil {
			content = merged
		}
	}
	if warning, ok := template.CheckDailyDate(notePath, content); ok {
		res.Warnings = append(res.Warnings, warning)
	}

	if err := s.client.PutNote(ctx, notePath, content, false); err != nil {
		return nil, err
	}
	s.log.Debug("note updated", "path", notePath, "preserve_format", preserveFormat)
	return res, nil
}

// mergePreservingFormat merges incoming content onto an existing note,
// keeping the existing frontmatter's key order.
func mergePreservingFormat(existing, incoming string) (string, error) {
	existingFM, _, _ := template.ParseFrontmatter(existing)
	incomingFM, incomingBody, found := template.ParseFrontmatter(incoming)
	if !found {
		incomingBody = incoming
	}
	merged := template.MergeFrontmatter(existingFM, incomingFM)
	return template.Render(merged, incomingBody)
}

// AppendNote adds content to the end of an existing note. The stored result
// is exactly the previous body, the separator, then the new content; the
// existing body is never rewritten.
func (s *Service) AppendNote(ctx context.Context, notePath, content, separator string) (*WriteResult, error) {
	existing, err := s.client.GetNote(ctx, notePath)
	if err != nil {
		return nil, err
	}

	if err := s.client.PutNote(ctx, notePath, existing+separator+content, false); err != nil {
		return nil, err
	}
	s.log.Debug("note appended", "path", notePath, "bytes", len(content))
	return &WriteResult{Path: notePath}, nil
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, notePath string) error {
	if err := s.client.DeleteNote(ctx, notePath); err != nil {
		return err
	}
	s.log.Debug("note deleted", "path", notePath)
	return nil
}

// ListDailyNotes returns daily notes whose filename date falls within the
// inclusive [start, end] range. Zero times leave that bound open.
func (s *Service) ListDailyNotes(ctx context.Context, start, end time.Time) ([]NoteMetadata, error) {
	notes, err := s.discoverNotes(ctx, false)
	if err != nil {
		return nil, err
	}

	var out []NoteMetadata
	for _, n := range notes {
		if template.DetectNoteType(n.Path) != template.TypeDaily {
			continue
		}
		day, err := time.Parse("2006-01-02", strings.TrimSuffix(path.Base(n.Path), ".md"))
		if err != nil {
			continue
		}
		if !start.IsZero() && day.Before(start) {
			continue
		}
		if !end.IsZero() && day.After(end) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// ExecuteCommand triggers an Obsidian command through the upstream API and
// returns the upstream's opaque result.
func (s *Service) ExecuteCommand(ctx context.Context, name string, params map[string]any) (string, error) {
	return s.client.ExecuteCommand(ctx, name, params)
}

// Health probes the upstream API.
func (s *Service) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}
