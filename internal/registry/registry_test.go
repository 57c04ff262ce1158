package registry

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/texchunk/internal/doctree"
)

func chunk(id string, order int, active bool) *doctree.Chunk {
	return &doctree.Chunk{
		ID:        id,
		Type:      doctree.TypeSection,
		Title:     id,
		Content:   id,
		RawSource: `\section{` + id + "}\n",
		Order:     order,
		Active:    active,
		Tags:      []string{id},
	}
}

// fixture has five active chunks a..e (orders 0..4) and two standby chunks
// x, y (orders 0, 1).
func fixture(t *testing.T) *Registry {
	t.Helper()
	r := New()
	require.NoError(t, r.ReplaceAll(&doctree.Document{
		Preamble:      `\documentclass{article}` + "\n",
		DocumentClass: "article",
		Packages:      []string{},
		Chunks: []*doctree.Chunk{
			chunk("a", 0, true),
			chunk("b", 1, true),
			chunk("x", 0, false),
			chunk("c", 2, true),
			chunk("d", 3, true),
			chunk("y", 1, false),
			chunk("e", 4, true),
		},
	}))
	return r
}

func ids(chunks []*doctree.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.ID
	}
	return out
}

func orders(chunks []*doctree.Chunk) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = c.Order
	}
	return out
}

func TestNew_EmptyDocument(t *testing.T) {
	doc := New().Document()
	assert.Equal(t, "article", doc.DocumentClass)
	assert.Empty(t, doc.Packages)
	assert.Empty(t, doc.Chunks)
}

func TestReplaceAll_CopiesInput(t *testing.T) {
	r := New()
	doc := &doctree.Document{Chunks: []*doctree.Chunk{chunk("a", 0, true)}}
	require.NoError(t, r.ReplaceAll(doc))

	doc.Chunks[0].Title = "changed"
	got, err := r.Chunk("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Title)
	assert.Equal(t, "article", r.Document().DocumentClass)
}

func TestReplaceAll_InvalidLeavesPrevious(t *testing.T) {
	r := fixture(t)
	before := r.Document()

	err := r.ReplaceAll(&doctree.Document{Chunks: []*doctree.Chunk{chunk("a", 0, true), chunk("a", 1, true)}})
	assert.ErrorIs(t, err, doctree.ErrDuplicateID)

	err = r.ReplaceAll(&doctree.Document{Chunks: []*doctree.Chunk{{ID: "z", Type: "paragraph"}}})
	assert.ErrorIs(t, err, ErrInvalidType)

	assert.ErrorIs(t, r.ReplaceAll(nil), ErrNilDocument)
	assert.Equal(t, before, r.Document())
}

func TestReorder_MovesWithinPartition(t *testing.T) {
	r := fixture(t)
	standby := r.Partition(false)

	require.NoError(t, r.Reorder("d", 1))

	active := r.Partition(true)
	assert.Equal(t, []string{"a", "d", "b", "c", "e"}, ids(active))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, orders(active))
	assert.Equal(t, standby, r.Partition(false))
}

func TestReorder_OnlyAffectedRangeRenumbered(t *testing.T) {
	r := New()
	require.NoError(t, r.ReplaceAll(&doctree.Document{Chunks: []*doctree.Chunk{
		chunk("a", 10, true),
		chunk("b", 20, true),
		chunk("c", 30, true),
		chunk("d", 40, true),
	}}))

	require.NoError(t, r.Reorder("a", 2))

	active := r.Partition(true)
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(active))
	assert.Equal(t, []int{10, 20, 30, 40}, orders(active))
}

func TestReorder_ClampsTarget(t *testing.T) {
	r := fixture(t)

	require.NoError(t, r.Reorder("a", 99))
	assert.Equal(t, []string{"b", "c", "d", "e", "a"}, ids(r.Partition(true)))

	require.NoError(t, r.Reorder("a", -5))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(r.Partition(true)))
}

func TestReorder_StandbyPartition(t *testing.T) {
	r := fixture(t)
	active := r.Partition(true)

	require.NoError(t, r.Reorder("y", 0))

	assert.Equal(t, []string{"y", "x"}, ids(r.Partition(false)))
	assert.Equal(t, active, r.Partition(true))
}

func TestReorder_TiesRenumberPartition(t *testing.T) {
	r := fixture(t)
	// x keeps order 0 and now ties with a in the active set.
	require.NoError(t, r.SetActive("x", true))
	assert.Equal(t, []string{"a", "x", "b", "c", "d", "e"}, ids(r.Partition(true)))

	require.NoError(t, r.Reorder("e", 0))

	active := r.Partition(true)
	assert.Equal(t, []string{"e", "a", "x", "b", "c", "d"}, ids(active))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, orders(active))
	assert.Equal(t, []int{1}, orders(r.Partition(false)))
}

func TestReorder_UnknownID(t *testing.T) {
	r := fixture(t)
	before := r.Document()

	assert.ErrorIs(t, r.Reorder("nope", 0), doctree.ErrChunkNotFound)
	assert.Equal(t, before, r.Document())
}

func TestSetActive_Involution(t *testing.T) {
	r := fixture(t)

	require.NoError(t, r.SetActive("c", false))
	c, err := r.Chunk("c")
	require.NoError(t, err)
	assert.False(t, c.Active)
	assert.Equal(t, 2, c.Order)

	require.NoError(t, r.SetActive("c", true))
	c, err = r.Chunk("c")
	require.NoError(t, err)
	assert.True(t, c.Active)
	assert.Equal(t, 2, c.Order)

	assert.ErrorIs(t, r.SetActive("nope", true), doctree.ErrChunkNotFound)
}

func TestDelete_NoCascade(t *testing.T) {
	r := New()
	child := chunk("s-item-0", 1, true)
	child.Type = doctree.TypeItem
	child.ParentID = "s"
	require.NoError(t, r.ReplaceAll(&doctree.Document{Chunks: []*doctree.Chunk{chunk("s", 0, true), child}}))

	require.NoError(t, r.Delete("s"))

	doc := r.Document()
	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, "s-item-0", doc.Chunks[0].ID)
	assert.Equal(t, "s", doc.Chunks[0].ParentID)

	assert.ErrorIs(t, r.Delete("s"), doctree.ErrChunkNotFound)
}

func TestUpdateContent(t *testing.T) {
	r := fixture(t)
	sec := chunk("s", 5, true)
	sec.Slots = []doctree.Slot{{ID: "s-item-0", Family: doctree.FamilyItem, Start: 10, End: 20}}
	doc := r.Document()
	doc.Chunks = append(doc.Chunks, sec)
	require.NoError(t, r.ReplaceAll(doc))

	require.NoError(t, r.UpdateContent("s", "\\section{Edited}\nNew text\n"))

	got, err := r.Chunk("s")
	require.NoError(t, err)
	assert.Equal(t, "\\section{Edited}\nNew text\n", got.RawSource)
	assert.Equal(t, got.RawSource, got.Content)
	assert.Nil(t, got.Slots)
	assert.Equal(t, "s", got.Title)
	assert.Equal(t, 5, got.Order)
	assert.True(t, got.Active)

	assert.ErrorIs(t, r.UpdateContent("nope", "x"), doctree.ErrChunkNotFound)
}

func TestNewChunk_AppendsToPartition(t *testing.T) {
	r := fixture(t)

	c, err := r.NewChunk(NewChunkInput{
		Type:     doctree.TypeItem,
		Title:    "Volunteer",
		Content:  "\\item \\textbf{Food Bank} (2020 -- 2021)\n",
		ParentID: "a",
		Active:   true,
	})
	require.NoError(t, err)

	_, err = uuid.Parse(c.ID)
	assert.NoError(t, err)
	assert.Equal(t, 5, c.Order)
	assert.Equal(t, []string{"volunteer"}, c.Tags)
	require.NotNil(t, c.Metadata)
	assert.Equal(t, "Food Bank", c.Metadata.Company)
	assert.Equal(t, "2020 -- 2021", c.Metadata.Dates)
	assert.Equal(t, "e", r.Partition(true)[4].ID)
	assert.Equal(t, c.ID, r.Partition(true)[5].ID)

	s, err := r.NewChunk(NewChunkInput{Type: doctree.TypeSection, Title: "Extra", Content: "\\section{Extra}\n"})
	require.NoError(t, err)
	assert.False(t, s.Active)
	assert.Equal(t, 2, s.Order)
}

func TestNewChunk_Invalid(t *testing.T) {
	r := New()

	_, err := r.NewChunk(NewChunkInput{Type: "chapter"})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = r.NewChunk(NewChunkInput{Type: doctree.TypeSection, ParentID: "x"})
	assert.ErrorIs(t, err, ErrSectionParent)
	assert.Empty(t, r.Document().Chunks)
}

func TestSession_ConcurrentUse(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.ReplaceAll(&doctree.Document{Chunks: []*doctree.Chunk{
		chunk("a", 0, true),
		chunk("b", 1, true),
		chunk("c", 2, true),
	}}))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Reorder("a", i%3))
		}()
		go func() {
			defer wg.Done()
			assert.Len(t, s.Partition(true), 3)
			_ = s.Document()
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids(s.Partition(true)))
}
