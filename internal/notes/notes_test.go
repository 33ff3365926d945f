package notes

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/vault"
)

func setupVault(t *testing.T) (*vault.Vault, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/vault/Inbox", 0o755))
	require.NoError(t, mem.MkdirAll("/vault/References", 0o755))
	return vault.New(mem, "/vault"), mem
}

var testLayout = Layout{InboxDir: "Inbox", ReferencesDir: "References"}

func TestRenderBook(t *testing.T) {
	body := RenderBook(entities.Book{ID: 1, Title: "Sapiens", Author: "Harari"})

	expected := "---\n" +
		"tags: book\n" +
		"---\n\n" +
		"**Title**: Sapiens\n" +
		"**Author**: [[Harari]]\n" +
		"**ISBN**: \n" +
		"**Read**: \n"
	assert.Equal(t, expected, body)
}

func TestRenderHighlight(t *testing.T) {
	tests := []struct {
		name      string
		highlight entities.Highlight
		title     string
		expected  string
	}{
		{
			name:      "without note",
			highlight: entities.Highlight{ID: 100, BookID: 1, Text: "Quote A"},
			title:     "Sapiens",
			expected:  "> Quote A\n— [[Sapiens]]",
		},
		{
			name:      "with note",
			highlight: entities.Highlight{ID: 101, BookID: 1, Text: "Quote B", Note: "Worth rereading"},
			title:     "Sapiens",
			expected:  "> Quote B\n— [[Sapiens]]\n\nWorth rereading",
		},
		{
			name:      "multi-line quote keeps prefix",
			highlight: entities.Highlight{ID: 102, BookID: 2, Text: "line one\nline two"},
			title:     "Lord of the Rings- Book 1",
			expected:  "> line one\n> line two\n— [[Lord of the Rings- Book 1]]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RenderHighlight(tt.highlight, tt.title))
		})
	}
}

func TestMaterializer_Paths(t *testing.T) {
	v, _ := setupVault(t)
	m := NewMaterializer(v, testLayout)

	assert.Equal(t, "References/Lord of the Rings- Book 1.md", m.BookPath("Lord of the Rings- Book 1"))
	assert.Equal(t, "Inbox/100.md", m.HighlightPath(100))
}

func TestMaterializer_MaterializeBook(t *testing.T) {
	v, mem := setupVault(t)
	m := NewMaterializer(v, testLayout)
	book := entities.Book{ID: 1, Title: "Sapiens", Author: "Harari"}

	outcome, err := m.MaterializeBook(book, "Sapiens")
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)

	content, err := afero.ReadFile(mem, "/vault/References/Sapiens.md")
	require.NoError(t, err)
	assert.Contains(t, string(content), "**Title**: Sapiens")
	assert.Contains(t, string(content), "**Author**: [[Harari]]")
}

func TestMaterializer_NeverOverwrites(t *testing.T) {
	v, mem := setupVault(t)
	m := NewMaterializer(v, testLayout)
	require.NoError(t, afero.WriteFile(mem, "/vault/Inbox/100.md", []byte("edited by hand"), 0o644))

	outcome, err := m.MaterializeHighlight(
		entities.Highlight{ID: 100, BookID: 1, Text: "Quote A"},
		entities.CachedBook{Title: "Sapiens", NormalizedTitle: "Sapiens"},
	)
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)

	content, err := afero.ReadFile(mem, "/vault/Inbox/100.md")
	require.NoError(t, err)
	assert.Equal(t, "edited by hand", string(content))
}

func TestMaterializer_DryRun(t *testing.T) {
	v, mem := setupVault(t)
	m := NewMaterializer(v, testLayout).WithDryRun(true)

	outcome, err := m.MaterializeBook(entities.Book{ID: 1, Title: "Sapiens"}, "Sapiens")
	require.NoError(t, err)
	assert.Equal(t, Created, outcome)

	exists, err := afero.Exists(mem, "/vault/References/Sapiens.md")
	require.NoError(t, err)
	assert.False(t, exists)
}

type racingFS struct {
	*vault.Vault
}

func (r racingFS) Exists(string) (bool, error) { return false, nil }

func (r racingFS) Create(string, []byte) error { return vault.ErrExist }

func TestMaterializer_LostRaceIsSkip(t *testing.T) {
	v, _ := setupVault(t)
	m := NewMaterializer(racingFS{v}, testLayout)

	outcome, err := m.MaterializeBook(entities.Book{ID: 1, Title: "Sapiens"}, "Sapiens")
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
}

type failingFS struct {
	*vault.Vault
}

func (f failingFS) Create(string, []byte) error { return errors.New("disk full") }

func TestMaterializer_WriteError(t *testing.T) {
	v, _ := setupVault(t)
	m := NewMaterializer(failingFS{v}, testLayout)

	outcome, err := m.MaterializeBook(entities.Book{ID: 1, Title: "Sapiens"}, "Sapiens")
	require.Error(t, err)
	assert.Equal(t, Skipped, outcome)
	assert.Contains(t, err.Error(), "References/Sapiens.md")
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "skipped", Skipped.String())
}
