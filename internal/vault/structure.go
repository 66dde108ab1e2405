package vault

import (
	"context"
	"path"
	"sort"
	"strings"
	"time"
)

// VaultStructure returns the folder/note layout snapshot, from cache when
// fresh unless useCache is false.
func (s *Service) VaultStructure(ctx context.Context, useCache bool) (*Structure, error) {
	if useCache {
		if cached, ok := s.caches.Structure.Get(); ok {
			return cached, nil
		}
	}

	notes, err := s.discoverNotes(ctx, false)
	if err != nil {
		return nil, err
	}

	st := buildStructure(s.root, notes)
	s.caches.Structure.Put(st)
	return st, nil
}

// buildStructure derives folder information from the note list. Every
// ancestor folder of a note exists even when it directly contains no notes.
func buildStructure(rootPath string, notes []NoteMetadata) *Structure {
	noteCounts := map[string]int{}
	folders := map[string]bool{}

	for _, n := range notes {
		if n.Folder == "" {
			continue
		}
		noteCounts[n.Folder]++
		for dir := n.Folder; dir != "" && dir != "."; dir = parentOf(dir) {
			folders[dir] = true
		}
	}

	subCounts := map[string]int{}
	for dir := range folders {
		if parent := parentOf(dir); parent != "" {
			subCounts[parent]++
		}
	}

	st := &Structure{
		RootPath:     rootPath,
		Notes:        notes,
		TotalNotes:   len(notes),
		TotalFolders: len(folders),
		ScannedAt:    time.Now().UTC(),
	}
	for dir := range folders {
		st.Folders = append(st.Folders, FolderInfo{
			Path:           dir,
			Name:           path.Base(dir),
			Parent:         parentOf(dir),
			NoteCount:      noteCounts[dir],
			SubfolderCount: subCounts[dir],
		})
	}
	sort.Slice(st.Folders, func(i, j int) bool { return st.Folders[i].Path < st.Folders[j].Path })
	return st
}

func parentOf(dir string) string {
	parent := path.Dir(dir)
	if parent == "." || parent == "/" {
		return ""
	}
	return strings.Trim(parent, "/")
}
