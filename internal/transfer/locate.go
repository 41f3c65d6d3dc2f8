package transfer

import (
	"context"

	"github.com/dmitrijs2005/seedpipe/internal/common"
	"github.com/dmitrijs2005/seedpipe/internal/seedbox"
)

// LargestFile returns the biggest file. Among equal sizes the first one
// listed wins.
func LargestFile(files []seedbox.File) (seedbox.File, bool) {
	var (
		largest seedbox.File
		found   bool
	)
	for _, f := range files {
		if !found || f.Bytes() > largest.Bytes() {
			largest = f
			found = true
		}
	}
	return largest, found
}

// locate picks the artifact from the post-download root listing: the
// largest file in the last subfolder, else the largest file in the root.
func (o *Orchestrator) locate(ctx context.Context, root *seedbox.Listing) (Artifact, error) {
	if n := len(root.Folders); n > 0 {
		folder := root.Folders[n-1]
		listing, err := o.seedbox.ListFolder(ctx, folder.ID)
		if err != nil {
			return Artifact{}, err
		}
		if f, ok := LargestFile(listing.Files); ok {
			return Artifact{File: f, ContainerID: folder.ID}, nil
		}
	}

	if f, ok := LargestFile(root.Files); ok {
		return Artifact{File: f}, nil
	}
	return Artifact{}, common.ErrNoDownloadedFile
}
