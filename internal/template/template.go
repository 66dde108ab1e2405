// Package template decides which frontmatter a new note should carry based
// on where it lives in the vault, and expands the date/time tokens used in
// those templates.
package template

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// NoteType classifies a note by its vault location.
type NoteType string

const (
	TypeNone    NoteType = ""
	TypeDaily   NoteType = "daily-note"
	TypeProject NoteType = "project"
	TypeArea    NoteType = "area"
)

var (
	// Matches {{date:FMT}} and {{time:FMT}} tokens.
	tokenRegex = regexp.MustCompile(`\{\{(date|time):([^}]*)\}\}`)

	// Strips a numeric ordering prefix like "06_" from a folder name.
	orderPrefixRegex = regexp.MustCompile(`^\d+_`)

	// Daily note filenames are dates.
	dailyNameRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// folderTypes maps canonical top-level folder names (after stripping any
// numeric ordering prefix) to note types. Aliases cover the common renames
// seen in real vaults.
var folderTypes = map[string]NoteType{
	"daily-notes": TypeDaily,
	"journal":     TypeDaily,
	"dailies":     TypeDaily,
	"projects":    TypeProject,
	"work":        TypeProject,
	"areas":       TypeArea,
	"spheres":     TypeArea,
}

// DetectNoteType inspects the first path segment of a vault-relative note
// path and returns the matching note type, or TypeNone.
func DetectNoteType(notePath string) NoteType {
	p := strings.Trim(notePath, "/")
	seg, _, ok := strings.Cut(p, "/")
	if !ok {
		// Top-level notes belong to no template folder.
		return TypeNone
	}
	seg = orderPrefixRegex.ReplaceAllString(strings.ToLower(seg), "")
	return folderTypes[seg]
}

// ExpandTokens substitutes the supported date/time tokens with values from
// now. Tokens with an unsupported format are removed rather than left as
// literal placeholders.
func ExpandTokens(s string, now time.Time) string {
	return tokenRegex.ReplaceAllStringFunc(s, func(match string) string {
		sub := tokenRegex.FindStringSubmatch(match)
		switch sub[1] + ":" + sub[2] {
		case "date:YYYY-MM-DD":
			return now.Format("2006-01-02")
		case "date:YYYY":
			return now.Format("2006")
		case "time:HH:mm":
			return now.Format("15:04")
		default:
			return ""
		}
	})
}

func containsToken(s string) bool {
	return tokenRegex.MatchString(s)
}

// DefaultFrontmatter builds the template frontmatter for a note type.
// Returns nil for TypeNone.
func DefaultFrontmatter(noteType NoteType, now time.Time) *Frontmatter {
	switch noteType {
	case TypeDaily:
		return &Frontmatter{Fields: []Field{
			{Key: "creation-date", Value: now.Format("2006-01-02")},
			{Key: "type", Value: string(TypeDaily)},
		}}
	case TypeProject:
		return &Frontmatter{Fields: []Field{
			{Key: "status", Value: "active"},
			{Key: "created", Value: now.Format("2006-01-02")},
			{Key: "type", Value: string(TypeProject)},
		}}
	case TypeArea:
		return &Frontmatter{Fields: []Field{
			{Key: "review-frequency", Value: "weekly"},
			{Key: "type", Value: string(TypeArea)},
		}}
	default:
		return nil
	}
}

// Apply prepares note content for creation. Token placeholders anywhere in
// the content are expanded. If the content has no frontmatter block and the
// path maps to a template folder, the type's default frontmatter is
// prepended. Reports whether a template was applied and which type matched.
func Apply(notePath, content string, now time.Time) (string, bool, NoteType) {
	noteType := DetectNoteType(notePath)
	content = ExpandTokens(content, now)

	if _, _, found := ParseFrontmatter(content); found || noteType == TypeNone {
		return content, false, noteType
	}

	fm := DefaultFrontmatter(noteType, now)
	rendered, err := Render(fm, content)
	if err != nil {
		return content, false, noteType
	}
	return rendered, true, noteType
}

// CheckDailyDate compares a daily note's filename date against the
// creation-date in its frontmatter and returns an advisory warning when
// they disagree. The mismatch never blocks a write.
func CheckDailyDate(notePath, content string) (string, bool) {
	if DetectNoteType(notePath) != TypeDaily {
		return "", false
	}

	stem := strings.TrimSuffix(path.Base(notePath), ".md")
	if !dailyNameRegex.MatchString(stem) {
		return "", false
	}

	fm, _, found := ParseFrontmatter(content)
	if !found {
		return "", false
	}
	created, ok := fm.GetString("creation-date")
	if !ok || created == "" || created == stem {
		return "", false
	}

	return fmt.Sprintf("daily note filename date %s does not match creation-date %s", stem, created), true
}
