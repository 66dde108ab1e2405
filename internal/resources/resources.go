// Package resources exposes vault notes and folders as addressable
// resources under the vault://notes/ URI scheme.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"obsidian-remote-mcp/internal/obsidian"
	"obsidian-remote-mcp/internal/vault"
)

const notesPrefix = "vault://notes/"

// ErrBadURI wraps URIs that do not belong to this router.
type ErrBadURI struct {
	URI    string
	Reason string
}

func (e *ErrBadURI) Error() string {
	return fmt.Sprintf("invalid resource uri %q: %s", e.URI, e.Reason)
}

// Resource is one listable vault resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType"`
}

// Content is the payload of a resource read.
type Content struct {
	URI      string         `json:"uri"`
	MIMEType string         `json:"mimeType"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// folderEntry is one child of a folder listing, carrying its own URI so
// clients can navigate without reconstructing paths.
type folderEntry struct {
	Path string `json:"path"`
	URI  string `json:"uri"`
}

// folderListing is the JSON body returned when reading a folder resource.
type folderListing struct {
	FolderPath string        `json:"folder_path"`
	TotalItems int           `json:"total_items"`
	Folders    []folderEntry `json:"folders"`
	Notes      []folderEntry `json:"notes"`
}

// Router resolves resource URIs against the vault.
type Router struct {
	svc *vault.Service
}

func folderExists(st *vault.Structure, folder string) bool {
	for _, f := range st.Folders {
		if f.Path == folder {
			return true
		}
	}
	return false
}

// NewRouter builds a router over the vault service.
func NewRouter(svc *vault.Service) *Router {
	return &Router{svc: svc}
}

// ParseURI splits a resource URI into a vault-relative path and whether it
// names a folder. Segments are percent-decoded. A trailing slash or a
// missing .md extension means folder; the empty path is the vault root.
func ParseURI(uri string) (path string, isFolder bool, err error) {
	if !strings.HasPrefix(uri, notesPrefix) && uri != strings.TrimSuffix(notesPrefix, "/") {
		return "", false, &ErrBadURI{URI: uri, Reason: "must start with " + notesPrefix}
	}
	path = strings.TrimPrefix(uri, strings.TrimSuffix(notesPrefix, "/"))
	path = strings.TrimPrefix(path, "/")

	isFolder = path == "" || strings.HasSuffix(path, "/")
	path = strings.TrimSuffix(path, "/")

	decoded, err := decodePath(path)
	if err != nil {
		return "", false, &ErrBadURI{URI: uri, Reason: "malformed percent-encoding"}
	}
	path = decoded

	if !isFolder && !strings.HasSuffix(path, ".md") {
		isFolder = true
	}
	return path, isFolder, nil
}

// NoteURI builds the resource URI for a note path, percent-encoding each
// segment.
func NoteURI(path string) string {
	return notesPrefix + encodePath(path)
}

// FolderURI builds the resource URI for a folder path.
func FolderURI(path string) string {
	if path == "" {
		return notesPrefix
	}
	return notesPrefix + encodePath(strings.TrimSuffix(path, "/")) + "/"
}

// encodePath percent-encodes each path segment, keeping the / separators
// literal.
func encodePath(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

func decodePath(path string) (string, error) {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return "", err
		}
		segs[i] = decoded
	}
	return strings.Join(segs, "/"), nil
}

// List enumerates the vault root, every folder, and every note. This walks
// the whole vault on each call.
func (r *Router) List(ctx context.Context) ([]Resource, error) {
	st, err := r.svc.VaultStructure(ctx, true)
	if err != nil {
		return nil, err
	}
	notes, err := r.svc.ListNotes(ctx, "", false)
	if err != nil {
		return nil, err
	}

	out := []Resource{{
		URI:         FolderURI(""),
		Name:        "Vault root",
		Description: "Folder listing of the vault root",
		MIMEType:    "application/json",
	}}
	for _, f := range st.Folders {
		out = append(out, Resource{
			URI:         FolderURI(f.Path),
			Name:        f.Path,
			Description: fmt.Sprintf("Folder with %d notes", f.NoteCount),
			MIMEType:    "application/json",
		})
	}
	for _, n := range notes {
		out = append(out, Resource{
			URI:      NoteURI(n.Path),
			Name:     n.Name,
			MIMEType: "text/markdown",
		})
	}
	return out, nil
}

// Read resolves one resource URI to its content: a JSON listing for
// folders, the raw markdown body for notes.
func (r *Router) Read(ctx context.Context, uri string) (*Content, error) {
	path, isFolder, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if isFolder {
		return r.readFolder(ctx, path)
	}

	body, err := r.svc.ReadNote(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Content{
		URI:      uri,
		MIMEType: "text/markdown",
		Text:     body,
		Metadata: map[string]any{"path": path, "size": len(body)},
	}, nil
}

func (r *Router) readFolder(ctx context.Context, folder string) (*Content, error) {
	st, err := r.svc.VaultStructure(ctx, true)
	if err != nil {
		return nil, err
	}
	// A folder that the vault does not contain is not the same as an empty
	// folder; the root always exists.
	if folder != "" && !folderExists(st, folder) {
		return nil, &obsidian.APIError{
			Kind:       obsidian.KindNotFound,
			StatusCode: 404,
			Message:    "folder not found: " + folder,
		}
	}

	notes, err := r.svc.ListNotes(ctx, folder, false)
	if err != nil {
		return nil, err
	}

	listing := folderListing{FolderPath: folder, Folders: []folderEntry{}, Notes: []folderEntry{}}
	subfolders := map[string]bool{}
	for _, n := range notes {
		rel := n.Path
		if folder != "" {
			rel = strings.TrimPrefix(n.Path, folder+"/")
		}
		if idx := strings.Index(rel, "/"); idx >= 0 {
			subfolders[rel[:idx]] = true
			continue
		}
		listing.Notes = append(listing.Notes, folderEntry{Path: n.Path, URI: NoteURI(n.Path)})
	}
	for sub := range subfolders {
		full := sub
		if folder != "" {
			full = folder + "/" + sub
		}
		listing.Folders = append(listing.Folders, folderEntry{Path: full, URI: FolderURI(full)})
	}
	sort.Slice(listing.Folders, func(i, j int) bool { return listing.Folders[i].Path < listing.Folders[j].Path })
	sort.Slice(listing.Notes, func(i, j int) bool { return listing.Notes[i].Path < listing.Notes[j].Path })
	listing.TotalItems = len(listing.Folders) + len(listing.Notes)

	data, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode folder listing: %v", err)
	}
	return &Content{
		URI:      FolderURI(folder),
		MIMEType: "application/json",
		Text:     string(data),
		Metadata: map[string]any{"folder": folder, "total_items": listing.TotalItems},
	}, nil
}
