package tools

import (
	"github.com/mark3labs/mcp-go/mcp"

	"obsidian-remote-mcp/internal/config"
	"obsidian-remote-mcp/internal/vault"
)

// NewCatalog builds the registry with the full tool catalogue. The
// configured prefix applies to every obs_* tool; ping always keeps its
// bare name so liveness probes survive renames.
func NewCatalog(svc *vault.Service, cfg *config.Config) *Registry {
	r := NewRegistry()
	p := func(name string) string { return cfg.ToolPrefix + name }

	r.Register(mcp.NewTool("ping",
		mcp.WithDescription("Check that the gateway is alive and responding"),
	), pingHandler)

	r.Register(mcp.NewTool(p("obs_search_notes"),
		mcp.WithDescription("Search notes by text content using the vault's search index"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to search for")),
		mcp.WithString("folder", mcp.Description("Restrict the search to one folder (optional)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
	), searchNotesHandler(svc))

	r.Register(mcp.NewTool(p("obs_read_note"),
		mcp.WithDescription("Read the full content of a note"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path relative to the vault root")),
	), readNoteHandler(svc))

	r.Register(mcp.NewTool(p("obs_create_note"),
		mcp.WithDescription("Create a new note, applying folder templates unless disabled"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path relative to the vault root")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content of the note")),
		mcp.WithBoolean("use_template", mcp.Description("Apply the folder's template when the content has no frontmatter (default true)")),
		mcp.WithBoolean("create_folders", mcp.Description("Create missing intermediate folders (default false)")),
	), createNoteHandler(svc))

	r.Register(mcp.NewTool(p("obs_update_note"),
		mcp.WithDescription("Replace the content of an existing note"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path relative to the vault root")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New markdown content")),
		mcp.WithBoolean("preserve_format", mcp.Description("Merge frontmatter instead of replacing it wholesale (default true)")),
	), updateNoteHandler(svc))

	r.Register(mcp.NewTool(p("obs_append_note"),
		mcp.WithDescription("Append content to the end of an existing note"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path relative to the vault root")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content to append")),
		mcp.WithString("separator", mcp.Description("Text placed between the existing body and the appended content (default a blank line)")),
	), appendNoteHandler(svc))

	r.Register(mcp.NewTool(p("obs_delete_note"),
		mcp.WithDescription("Delete a note from the vault"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path relative to the vault root")),
	), deleteNoteHandler(svc))

	r.Register(mcp.NewTool(p("obs_list_notes"),
		mcp.WithDescription("List notes in the vault with their metadata"),
		mcp.WithString("folder", mcp.Description("Restrict the listing to one folder (optional)")),
		mcp.WithBoolean("include_headers", mcp.Description("Parse and include each note's frontmatter (default false)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes to return (optional)")),
	), listNotesHandler(svc))

	r.Register(mcp.NewTool(p("obs_get_vault_structure"),
		mcp.WithDescription("Get the vault's folder layout with note counts"),
		mcp.WithBoolean("use_cache", mcp.Description("Serve from the structure cache when fresh (default true)")),
	), vaultStructureHandler(svc))

	r.Register(mcp.NewTool(p("obs_execute_command"),
		mcp.WithDescription("Execute a registered Obsidian command by its name"),
		mcp.WithString("command", mcp.Required(), mcp.Description("Command name, e.g. editor:save-file")),
		mcp.WithObject("parameters", mcp.Description("Parameters passed to the command (optional)")),
	), executeCommandHandler(svc))

	r.Register(mcp.NewTool(p("obs_keyword_search"),
		mcp.WithDescription("Scan note bodies for a keyword and return snippets"),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Keyword to look for")),
		mcp.WithString("folder", mcp.Description("Restrict the scan to one folder (optional)")),
		mcp.WithBoolean("case_sensitive", mcp.Description("Match case exactly (default false)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of matching notes (default 10)")),
	), keywordSearchHandler(svc))

	r.Register(mcp.NewTool(p("obs_check_note_exists"),
		mcp.WithDescription("Check whether a note exists without reading it"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Note path relative to the vault root")),
	), checkNoteExistsHandler(svc))

	r.Register(mcp.NewTool(p("obs_list_daily_notes"),
		mcp.WithDescription("List daily notes within a date range"),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("Inclusive range start, YYYY-MM-DD")),
		mcp.WithString("end_date", mcp.Required(), mcp.Description("Inclusive range end, YYYY-MM-DD")),
	), listDailyNotesHandler(svc))

	return r
}
