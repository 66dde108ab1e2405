package vault

import "time"

// NoteMetadata describes one discovered note. Headers is never nil: it is
// empty when header enrichment was skipped or failed for the note.
type NoteMetadata struct {
	Path     string         `json:"path"`
	Name     string         `json:"name"`
	Folder   string         `json:"folder"`
	Size     int64          `json:"size"`
	Modified time.Time      `json:"modified"`
	Headers  map[string]any `json:"headers"`
}

// FolderInfo summarizes one vault folder. Counts cover direct children
// only; nested content is attributed to the nested folder. Parent is empty
// for top-level folders.
type FolderInfo struct {
	Path           string `json:"path"`
	Name           string `json:"name"`
	Parent         string `json:"parent,omitempty"`
	NoteCount      int    `json:"note_count"`
	SubfolderCount int    `json:"subfolder_count"`
}

// Structure is a full vault layout snapshot. TotalNotes always equals
// len(Notes) and TotalFolders equals len(Folders).
type Structure struct {
	RootPath     string         `json:"root_path"`
	Folders      []FolderInfo   `json:"folders"`
	Notes        []NoteMetadata `json:"notes"`
	TotalNotes   int            `json:"total_notes"`
	TotalFolders int            `json:"total_folders"`
	ScannedAt    time.Time      `json:"scanned_at"`
}

// SearchResult is one text-search hit enriched with note metadata. Size and
// Modified stay zero when the metadata lookup failed; the hit itself
// survives.
type SearchResult struct {
	Path     string    `json:"path"`
	Score    float64   `json:"score"`
	Context  string    `json:"context,omitempty"`
	Size     int64     `json:"size,omitempty"`
	Modified time.Time `json:"modified,omitempty"`
}

// KeywordHit is one keyword-search match with a snippet around the first
// occurrence in the note body.
type KeywordHit struct {
	Path    string `json:"path"`
	Snippet string `json:"snippet"`
	Matches int    `json:"matches"`
}
