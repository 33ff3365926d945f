// Package notes renders Readwise books and highlights as markdown notes and
// writes them into the vault, never touching a note that already exists.
package notes

import (
	"errors"
	"fmt"
	"log"
	"path"
	"strconv"
	"strings"

	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/vault"
)

// Outcome says what materializing a record did.
type Outcome int

const (
	Skipped Outcome = iota
	Created
)

func (o Outcome) String() string {
	if o == Created {
		return "created"
	}
	return "skipped"
}

// Layout names the vault directories notes are written into.
type Layout struct {
	InboxDir      string
	ReferencesDir string
}

// Materializer creates book and highlight notes.
type Materializer struct {
	fs     vault.FS
	layout Layout
	dryRun bool
}

// NewMaterializer returns a materializer writing through fs. Target
// directories must already exist.
func NewMaterializer(fs vault.FS, layout Layout) *Materializer {
	return &Materializer{fs: fs, layout: layout}
}

// WithDryRun makes the materializer report what it would create without
// writing anything.
func (m *Materializer) WithDryRun(dryRun bool) *Materializer {
	m.dryRun = dryRun
	return m
}

// BookPath is <referencesDir>/<normalizedTitle>.md.
func (m *Materializer) BookPath(normalizedTitle string) string {
	return path.Join(m.layout.ReferencesDir, normalizedTitle+".md")
}

// HighlightPath is <inboxDir>/<highlightID>.md.
func (m *Materializer) HighlightPath(highlightID int) string {
	return path.Join(m.layout.InboxDir, strconv.Itoa(highlightID)+".md")
}

// MaterializeBook writes the reference note for book unless one exists.
func (m *Materializer) MaterializeBook(book entities.Book, normalizedTitle string) (Outcome, error) {
	return m.materialize(m.BookPath(normalizedTitle), RenderBook(book))
}

// MaterializeHighlight writes the inbox note for highlight, linking it to
// the book's normalized title, unless one exists.
func (m *Materializer) MaterializeHighlight(highlight entities.Highlight, book entities.CachedBook) (Outcome, error) {
	return m.materialize(m.HighlightPath(highlight.ID), RenderHighlight(highlight, book.NormalizedTitle))
}

func (m *Materializer) materialize(target, body string) (Outcome, error) {
	exists, err := m.fs.Exists(target)
	if err != nil {
		return Skipped, err
	}
	if exists {
		return Skipped, nil
	}
	if m.dryRun {
		log.Printf("Notes: would create %s", target)
		return Created, nil
	}

	if err := m.fs.Create(target, []byte(body)); err != nil {
		// Someone else created it between the check and the write.
		if errors.Is(err, vault.ErrExist) {
			return Skipped, nil
		}
		return Skipped, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return Created, nil
}

// RenderBook returns the reference note body for a book.
func RenderBook(book entities.Book) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "tags: book\n")
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "**Title**: %s\n", book.Title)
	fmt.Fprintf(&builder, "**Author**: [[%s]]\n", book.Author)
	fmt.Fprintf(&builder, "**ISBN**: \n")
	fmt.Fprintf(&builder, "**Read**: \n")

	return builder.String()
}

// RenderHighlight returns the inbox note body for a highlight: the quoted
// text, a link back to its book and, if present, the reader's note.
func RenderHighlight(highlight entities.Highlight, normalizedTitle string) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "> %s\n", strings.ReplaceAll(highlight.Text, "\n", "\n> "))
	fmt.Fprintf(&builder, "— [[%s]]", normalizedTitle)
	if highlight.Note != "" {
		fmt.Fprintf(&builder, "\n\n%s", highlight.Note)
	}

	return builder.String()
}
