package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/seedpipe/internal/common"
	"github.com/dmitrijs2005/seedpipe/internal/seedbox"
)

func TestLargestFile(t *testing.T) {
	tests := []struct {
		name   string
		files  []seedbox.File
		want   seedbox.ID
		wantOK bool
	}{
		{"empty", nil, "", false},
		{"single", []seedbox.File{{ID: "1", Size: 5}}, "1", true},
		{"distinct sizes", []seedbox.File{{ID: "1", Size: 5}, {ID: "2", Size: 50}, {ID: "3", Size: 7}}, "2", true},
		{"tie keeps first", []seedbox.File{{ID: "1", Size: 9}, {ID: "2", Size: 9}}, "1", true},
		{"zero sizes", []seedbox.File{{ID: "1"}, {ID: "2"}}, "1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LargestFile(tt.files)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestLocate_FolderAndRootGiveSameFile(t *testing.T) {
	file := seedbox.File{FolderFileID: "11", Name: "Movie.mkv", Size: 100}

	inFolder := &fakeSeedbox{folders: map[seedbox.ID]*seedbox.Listing{"9": {Files: []seedbox.File{file}}}}
	o := newTestOrchestrator(inFolder, &fakeStorage{})
	a, err := o.locate(context.Background(), &seedbox.Listing{Folders: []seedbox.Folder{{ID: "9"}}})
	require.NoError(t, err)

	o = newTestOrchestrator(&fakeSeedbox{}, &fakeStorage{})
	b, err := o.locate(context.Background(), &seedbox.Listing{Files: []seedbox.File{file}})
	require.NoError(t, err)

	assert.Equal(t, a.File, b.File)
	assert.Equal(t, seedbox.ID("9"), a.ContainerID)
	assert.Empty(t, b.ContainerID)
}

func TestLocate_EmptyFolderFallsBackToRoot(t *testing.T) {
	sb := &fakeSeedbox{folders: map[seedbox.ID]*seedbox.Listing{"9": {}}}
	o := newTestOrchestrator(sb, &fakeStorage{})

	a, err := o.locate(context.Background(), &seedbox.Listing{
		Folders: []seedbox.Folder{{ID: "9"}},
		Files:   []seedbox.File{{ID: "4", Name: "root.mkv", Size: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, seedbox.ID("4"), a.File.ID)
	assert.Empty(t, a.ContainerID, "container is only set when the file came from it")
}

func TestLocate_UsesLastFolder(t *testing.T) {
	sb := &fakeSeedbox{folders: map[seedbox.ID]*seedbox.Listing{
		"1": {Files: []seedbox.File{{ID: "a", Size: 1000}}},
		"2": {Files: []seedbox.File{{ID: "b", Size: 1}}},
	}}
	o := newTestOrchestrator(sb, &fakeStorage{})

	a, err := o.locate(context.Background(), &seedbox.Listing{Folders: []seedbox.Folder{{ID: "1"}, {ID: "2"}}})

	require.NoError(t, err)
	assert.Equal(t, seedbox.ID("b"), a.File.ID)
	assert.Equal(t, seedbox.ID("2"), a.ContainerID)
}

func TestLocate_NothingFound(t *testing.T) {
	o := newTestOrchestrator(&fakeSeedbox{}, &fakeStorage{})
	_, err := o.locate(context.Background(), &seedbox.Listing{})
	assert.ErrorIs(t, err, common.ErrNoDownloadedFile)
}
