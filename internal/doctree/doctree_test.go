package doctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkType_Valid(t *testing.T) {
	for _, ct := range []ChunkType{TypeSection, TypeSubsection, TypeItem} {
		assert.True(t, ct.Valid(), ct)
	}
	assert.False(t, ChunkType("paragraph").Valid())
	assert.False(t, ChunkType("").Valid())
}

func TestClone_IsDeep(t *testing.T) {
	doc := &Document{
		Preamble: "p",
		Packages: []string{"geometry"},
		Chunks: []*Chunk{{
			ID:       "a",
			Tags:     []string{"x"},
			Metadata: &Metadata{Company: "Acme"},
			Slots:    []Slot{{ID: "a-item-0", Family: FamilyItem, Start: 1, End: 2}},
		}},
	}
	cp := doc.Clone()
	require.Equal(t, doc, cp)

	cp.Packages[0] = "hyperref"
	cp.Chunks[0].Tags[0] = "y"
	cp.Chunks[0].Metadata.Company = "Globex"
	cp.Chunks[0].Slots[0].Start = 9

	assert.Equal(t, "geometry", doc.Packages[0])
	assert.Equal(t, "x", doc.Chunks[0].Tags[0])
	assert.Equal(t, "Acme", doc.Chunks[0].Metadata.Company)
	assert.Equal(t, 1, doc.Chunks[0].Slots[0].Start)
}

func TestValidate(t *testing.T) {
	ok := &Document{Chunks: []*Chunk{{ID: "a"}, {ID: "b"}}}
	assert.NoError(t, ok.Validate())

	dup := &Document{Chunks: []*Chunk{{ID: "a"}, {ID: "a"}}}
	assert.ErrorIs(t, dup.Validate(), ErrDuplicateID)

	empty := &Document{Chunks: []*Chunk{{ID: ""}}}
	assert.ErrorIs(t, empty.Validate(), ErrEmptyID)
}

func TestPartition_StableByOrder(t *testing.T) {
	chunks := []*Chunk{
		{ID: "c", Order: 2, Active: true},
		{ID: "s", Order: 0, Active: false},
		{ID: "a", Order: 0, Active: true},
		{ID: "b1", Order: 1, Active: true},
		{ID: "b2", Order: 1, Active: true},
	}
	var ids []string
	for _, c := range Partition(chunks, true) {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids)

	standby := Partition(chunks, false)
	require.Len(t, standby, 1)
	assert.Equal(t, "s", standby[0].ID)
}

func TestFind(t *testing.T) {
	doc := &Document{Chunks: []*Chunk{{ID: "a"}, {ID: "b"}}}
	assert.Equal(t, "b", doc.Find("b").ID)
	assert.Nil(t, doc.Find("z"))
}
