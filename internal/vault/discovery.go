package vault

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"obsidian-remote-mcp/internal/fanout"
)

// headerPrefixBytes is how much of a note is read when extracting headers.
// Notes with frontmatter larger than this are treated as having none.
const headerPrefixBytes = 500

// discoverNotes produces the sorted note list. A local vault root gives the
// full scan with sizes and timestamps; without one the upstream listing is
// walked instead and stat fields stay zero.
func (s *Service) discoverNotes(ctx context.Context, includeHeaders bool) ([]NoteMetadata, error) {
	if cached, ok := s.caches.GetNotes(includeHeaders); ok {
		return cached, nil
	}

	var notes []NoteMetadata
	var err error
	if s.root != "" {
		notes, err = s.scanFilesystem()
	} else {
		notes, err = s.listUpstream(ctx)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].Path < notes[j].Path })

	if includeHeaders {
		s.enrichHeaders(ctx, notes)
	}
	s.caches.PutNotes(notes, includeHeaders)
	return notes, nil
}

// scanFilesystem walks the vault root collecting every markdown file.
// Hidden directories (.obsidian, .trash, .git) are skipped.
func (s *Service) scanFilesystem() ([]NoteMetadata, error) {
	var notes []NoteMetadata

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != s.root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		meta := NoteMetadata{
			Path:    rel,
			Name:    strings.TrimSuffix(path.Base(rel), ".md"),
			Folder:  folderOf(rel),
			Headers: map[string]any{},
		}
		if info, err := d.Info(); err == nil {
			meta.Size = info.Size()
			meta.Modified = info.ModTime().UTC()
		}
		notes = append(notes, meta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// listUpstream walks the upstream folder listing breadth-first.
func (s *Service) listUpstream(ctx context.Context) ([]NoteMetadata, error) {
	var notes []NoteMetadata

	queue := []string{""}
	for len(queue) > 0 {
		folder := queue[0]
		queue = queue[1:]

		entries, err := s.client.ListFolder(ctx, folder)
		if err != nil {
			if folder == "" {
				return nil, err
			}
			// A folder that vanished mid-walk is not fatal.
			continue
		}
		for _, entry := range entries {
			if strings.HasPrefix(entry, ".") {
				continue
			}
			full := entry
			if folder != "" {
				full = folder + "/" + entry
			}
			if strings.HasSuffix(entry, "/") {
				queue = append(queue, strings.TrimSuffix(full, "/"))
				continue
			}
			if !strings.HasSuffix(entry, ".md") {
				continue
			}
			notes = append(notes, NoteMetadata{
				Path:    full,
				Name:    strings.TrimSuffix(path.Base(full), ".md"),
				Folder:  folderOf(full),
				Headers: map[string]any{},
			})
		}
	}
	return notes, nil
}

// enrichHeaders fills in parsed frontmatter for each note, reading at most
// headerPrefixBytes per file. Work runs in fixed-size batches; a batch
// completes before the next starts. Any per-note failure leaves that note's
// headers empty and never aborts the pass.
func (s *Service) enrichHeaders(ctx context.Context, notes []NoteMetadata) {
	if s.root == "" {
		return
	}

	indexes := make([]int, len(notes))
	for i := range indexes {
		indexes[i] = i
	}

	results := fanout.Batched(ctx, indexes, s.batchSize, func(_ context.Context, i int) (map[string]any, error) {
		return s.readHeaders(notes[i].Path), nil
	}, nil)

	for _, r := range results {
		notes[r.Index].Headers = r.Value
	}
}

// readHeaders parses frontmatter out of a note's first headerPrefixBytes
// bytes. Anything unparseable, including frontmatter truncated by the
// prefix limit, yields an empty map.
func (s *Service) readHeaders(relPath string) map[string]any {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if err != nil {
		return map[string]any{}
	}
	defer f.Close()

	prefix, err := io.ReadAll(io.LimitReader(f, headerPrefixBytes))
	if err != nil {
		return map[string]any{}
	}

	headers := map[string]any{}
	if _, err := frontmatter.Parse(strings.NewReader(string(prefix)), &headers); err != nil {
		return map[string]any{}
	}
	return headers
}

func folderOf(relPath string) string {
	dir := path.Dir(relPath)
	if dir == "." {
		return ""
	}
	return dir
}

// filterFolder keeps notes under the given folder prefix. An empty folder
// matches everything.
func filterFolder(notes []NoteMetadata, folder string) []NoteMetadata {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return notes
	}
	out := make([]NoteMetadata, 0, len(notes))
	for _, n := range notes {
		if n.Folder == folder || strings.HasPrefix(n.Folder, folder+"/") {
			out = append(out, n)
		}
	}
	return out
}
