package vault

import (
	"context"
	"errors"
	"strings"

	"obsidian-remote-mcp/internal/fanout"
	"obsidian-remote-mcp/internal/obsidian"
)

// Search runs the upstream text search, optionally scoped to a folder, and
// enriches each hit with note metadata. All stat lookups run concurrently; a
// lookup failure leaves that hit without size and timestamp but never drops
// it. Hit order is the upstream's ranking order.
func (s *Service) Search(ctx context.Context, query, folder string, limit int) ([]SearchResult, error) {
	hits, err := s.client.SearchSimple(ctx, query, folder)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	results := fanout.Gather(ctx, hits, func(ctx context.Context, hit obsidian.SearchHit) (SearchResult, error) {
		res := SearchResult{
			Path:  hit.Filename,
			Score: hit.Score,
		}
		if len(hit.Matches) > 0 {
			res.Context = hit.Matches[0].Context
		}
		if stat, err := s.client.NoteStat(ctx, hit.Filename); err == nil {
			res.Size = stat.Size
			res.Modified = stat.Modified
		}
		return res, nil
	})

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, r.Value)
	}
	return out, nil
}

var errNoMatch = errors.New("no match")

// KeywordSearch scans note bodies for a keyword. Bodies are fetched through
// the upstream adapter in fixed-size batches; once enough hits have
// accumulated the scan stops at the next batch boundary. limit <= 0 returns
// immediately without reading anything.
func (s *Service) KeywordSearch(ctx context.Context, keyword, folder string, caseSensitive bool, limit int) ([]KeywordHit, error) {
	if limit <= 0 {
		return []KeywordHit{}, nil
	}

	notes, err := s.discoverNotes(ctx, false)
	if err != nil {
		return nil, err
	}
	notes = filterFolder(notes, folder)

	needle := keyword
	if !caseSensitive {
		needle = strings.ToLower(keyword)
	}

	results := fanout.Batched(ctx, notes, s.batchSize, func(ctx context.Context, note NoteMetadata) (KeywordHit, error) {
		body, err := s.client.GetNote(ctx, note.Path)
		if err != nil {
			return KeywordHit{}, err
		}

		haystack := body
		if !caseSensitive {
			haystack = strings.ToLower(body)
		}
		idx := strings.Index(haystack, needle)
		if idx < 0 {
			return KeywordHit{}, errNoMatch
		}

		return KeywordHit{
			Path:    note.Path,
			Snippet: snippet(body, idx, len(keyword), s.snippetRadius),
			Matches: strings.Count(haystack, needle),
		}, nil
	}, func(done []fanout.Result[KeywordHit]) bool {
		return len(done) >= limit
	})

	hits := make([]KeywordHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, r.Value)
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// snippet extracts radius bytes of context on each side of a match,
// trimming to rune boundaries so multi-byte characters are never split.
func snippet(body string, idx, matchLen, radius int) string {
	start := idx - radius
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + radius
	if end > len(body) {
		end = len(body)
	}

	for start > 0 && !isRuneStart(body[start]) {
		start--
	}
	for end < len(body) && !isRuneStart(body[end]) {
		end++
	}

	out := strings.ReplaceAll(body[start:end], "\n", " ")
	if start > 0 {
		out = "..." + out
	}
	if end < len(body) {
		out += "..."
	}
	return out
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
