// Package transfer drives one magnet link through the seedbox and into
// cloud storage: submit, wait for the download, pick the file, stream it
// into a storage folder, publish it and clean the seedbox up. Every step is
// reported to an Emitter as it happens.
//
// The seedbox account is assumed to run one transfer at a time: the first
// active torrent and the last listed folder are taken to be the ones this
// run submitted. Concurrent runs against one account are not correlated;
// a mismatching info hash is only logged.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/seedpipe/internal/common"
	"github.com/dmitrijs2005/seedpipe/internal/logging"
	"github.com/dmitrijs2005/seedpipe/internal/naming"
	"github.com/dmitrijs2005/seedpipe/internal/seedbox"
	"github.com/dmitrijs2005/seedpipe/internal/storage"
)

// Seedbox is the part of the seedbox client a run needs.
type Seedbox interface {
	EnsureAuth(ctx context.Context) error
	AddMagnet(ctx context.Context, magnet string) (*seedbox.AddMagnetResponse, error)
	ListFolder(ctx context.Context, id seedbox.ID) (*seedbox.Listing, error)
	OpenDownloadStream(ctx context.Context, fileID seedbox.ID) (*seedbox.Download, error)
	DeleteFile(ctx context.Context, id seedbox.ID) error
	DeleteFolder(ctx context.Context, id seedbox.ID) error
}

// Storage is the part of the storage client a run needs.
type Storage interface {
	FindOrCreateFolder(ctx context.Context, name string) (string, error)
	UploadStream(ctx context.Context, name string, r io.Reader, contentType string, expectedSize int64, onProgress storage.ProgressFunc, parentID string) (string, error)
	MakePublic(ctx context.Context, id string) (string, error)
}

type Options struct {
	InitialPollDelay time.Duration
	PollInterval     time.Duration
}

type Orchestrator struct {
	seedbox Seedbox
	storage Storage
	logger  logging.Logger
	opts    Options
}

func New(sb Seedbox, st Storage, logger logging.Logger, opts Options) *Orchestrator {
	return &Orchestrator{seedbox: sb, storage: st, logger: logger, opts: opts}
}

// run is the state of one Run call.
type run struct {
	log    logging.Logger
	em     Emitter
	magnet magnetInfo
	res    *Result
}

func (r *run) stage(ctx context.Context, n int, label string) {
	r.log.Info(ctx, "stage", "stage", n, "label", label)
	r.em.Emit(Event{Type: EventStage, Payload: StagePayload{Stage: n, Label: label}})
}

func (r *run) logf(format string, args ...any) {
	r.em.Emit(Event{Type: EventLog, Payload: fmt.Sprintf(format, args...)})
}

func (r *run) warnf(format string, args ...any) {
	r.logf(common.WarningPrefix+" "+format, args...)
}

func (r *run) progress(stage string, percent float64) {
	r.em.Emit(Event{Type: EventProgress, Payload: ProgressPayload{Stage: stage, Percent: percent}})
}

// Run executes the pipeline for magnet and always returns a Result. Exactly
// one success or error event is emitted. Cancelling ctx stops polling and
// streaming at the next wait or read.
func (o *Orchestrator) Run(ctx context.Context, magnet string, em Emitter) (res Result) {
	res.RunID = uuid.NewString()
	r := &run{log: o.logger.With("run_id", res.RunID), em: em, res: &res}

	defer func() {
		if p := recover(); p != nil {
			res.Err = panicError(p)
			r.log.Error(ctx, "transfer panicked", "panic", p)
			em.Emit(Event{Type: EventError, Payload: "Transfer failed: " + ErrorMessage(res.Err)})
		}
	}()

	r.log.Info(ctx, "received magnet link", "magnet", magnet)

	if err := o.execute(ctx, r, magnet); err != nil {
		if ctx.Err() != nil && !errors.Is(err, common.ErrCancelled) {
			err = fmt.Errorf("%w: %w", common.ErrCancelled, err)
		}
		res.Err = err
		r.log.Error(ctx, "transfer failed", "error", err)
		em.Emit(Event{Type: EventError, Payload: "Transfer failed: " + ErrorMessage(err)})
		return res
	}

	msg := fmt.Sprintf("✅ \"%s\" uploaded to storage in folder \"%s\"!", res.FileName, res.Title)
	r.log.Info(ctx, "transfer complete", "file", res.Target.FileID, "share_link", res.ShareLink)
	em.Emit(Event{Type: EventSuccess, Payload: SuccessPayload{
		Message:   msg,
		FileName:  res.FileName,
		Title:     res.Title,
		ShareLink: res.ShareLink,
		Publish:   res.Publish.outcome(),
		Cleanup:   res.Cleanup.outcome(),
	}})
	return res
}

func (o *Orchestrator) execute(ctx context.Context, r *run, magnet string) error {
	if err := o.submit(ctx, r, magnet); err != nil {
		return err
	}

	r.stage(ctx, 2, "Seedr is downloading...")
	root, err := o.awaitCompletion(ctx, r)
	if err != nil {
		return err
	}
	r.logf("Seedr download complete!")

	r.stage(ctx, 3, "Finding downloaded file...")
	r.logf("Looking for file in Seedr...")
	art, err := o.locate(ctx, root)
	if err != nil {
		return err
	}
	r.res.Artifact = art
	r.res.FileName = naming.CleanFileName(art.File.Name)
	r.res.Title = naming.Title(r.res.FileName)

	r.logf("Found: %s (%.2f MB)", art.File.Name, float64(art.File.Bytes())/1024/1024)
	r.logf("Clean name: %s", r.res.FileName)
	r.logf("Storage folder: %s", r.res.Title)
	r.log.Info(ctx, "artifact located",
		"file", art.File.Name, "file_id", art.File.Handle(), "container", art.ContainerID, "size", art.File.Bytes())

	r.stage(ctx, 4, "Uploading to cloud storage...")
	if err := o.upload(ctx, r); err != nil {
		return err
	}

	o.publish(ctx, r)

	r.stage(ctx, 5, "Cleaning up Seedr...")
	o.cleanup(ctx, r)
	return nil
}

func (o *Orchestrator) submit(ctx context.Context, r *run, magnet string) error {
	r.stage(ctx, 1, "Adding magnet to Seedr...")
	r.logf("Logging into Seedr...")
	if err := o.seedbox.EnsureAuth(ctx); err != nil {
		return err
	}
	r.logf("Seedr login OK!")

	if info, ok := parseMagnet(magnet); ok {
		r.magnet = info
		r.log.Info(ctx, "magnet parsed", "info_hash", info.InfoHash, "display_name", info.DisplayName)
	} else {
		r.log.Warn(ctx, "magnet link did not parse locally, submitting as is")
	}

	r.logf("Sending magnet link to Seedr...")
	resp, err := o.seedbox.AddMagnet(ctx, magnet)
	if err != nil {
		return err
	}

	title := resp.Title
	if title == "" {
		title = "processing..."
	}
	r.logf("Magnet added! Title: %s", title)
	return nil
}

// awaitCompletion polls the root listing until it shows no active torrent
// and returns that final listing.
func (o *Orchestrator) awaitCompletion(ctx context.Context, r *run) (*seedbox.Listing, error) {
	timer := time.NewTimer(o.opts.InitialPollDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", common.ErrCancelled, ctx.Err())
		case <-timer.C:
		}

		root, err := o.seedbox.ListFolder(ctx, "")
		if err != nil {
			return nil, err
		}

		if len(root.Torrents) == 0 {
			r.logf("Seedr: 100%% — Complete")
			r.progress(ProgressSeedbox, 100)
			return root, nil
		}

		t := root.Torrents[0]
		if !r.magnet.matches(t.Hash) {
			r.log.Warn(ctx, "active transfer hash differs from submitted magnet",
				"info_hash", r.magnet.InfoHash, "active_hash", t.Hash, "active_name", t.DisplayTitle())
		}
		pct := t.Percent()
		r.logf("Seedr: %s%% — %s", strconv.FormatFloat(pct, 'f', -1, 64), t.DisplayTitle())
		r.progress(ProgressSeedbox, pct)
		r.log.Debug(ctx, "seedbox progress", "percent", pct, "title", t.DisplayTitle(), "size", t.Bytes())

		timer.Reset(o.opts.PollInterval)
	}
}

func (o *Orchestrator) upload(ctx context.Context, r *run) error {
	res := r.res

	r.logf("Creating storage folder \"%s\"...", res.Title)
	folderID, err := o.storage.FindOrCreateFolder(ctx, res.Title)
	if err != nil {
		return err
	}
	res.Target.FolderID = folderID
	r.logf("Folder ready! Streaming from Seedr to storage...")

	dl, err := o.seedbox.OpenDownloadStream(ctx, res.Artifact.File.Handle())
	if err != nil {
		return err
	}
	defer dl.Body.Close()

	size := dl.ContentLength
	if size <= 0 {
		size = res.Artifact.File.Bytes()
	}

	body, mediaType, err := contentType(dl.Body, dl.ContentType)
	if err != nil {
		return err
	}

	tracker := newUploadProgress(size, func(pct float64) { r.progress(ProgressStorage, pct) })
	err = pipeTo(ctx, body, func(ctx context.Context, pr io.Reader) error {
		fileID, err := o.storage.UploadStream(ctx, res.FileName, pr, mediaType, size, tracker.update, folderID)
		if err != nil {
			return err
		}
		res.Target.FileID = fileID
		return nil
	})
	if err != nil {
		return err
	}

	r.logf("Upload complete! Storage file ID: %s", res.Target.FileID)
	return nil
}

// publish makes the folder and the file public. Failures become warnings.
func (o *Orchestrator) publish(ctx context.Context, r *run) {
	res := r.res
	res.Publish.Attempted = true
	r.logf("Setting sharing permissions...")

	if _, err := o.storage.MakePublic(ctx, res.Target.FolderID); err != nil {
		res.Publish.Err = err
	} else if link, err := o.storage.MakePublic(ctx, res.Target.FileID); err != nil {
		res.Publish.Err = err
	} else {
		res.ShareLink = link
		r.logf("🔗 File is now public (anyone with the link)")
		r.em.Emit(Event{Type: EventShareLink, Payload: link})
		return
	}

	r.log.Warn(ctx, "sharing failed", "error", res.Publish.Err)
	r.warnf("Sharing warning: %s", ErrorMessage(res.Publish.Err))
}

// cleanup deletes the seedbox container folder, or the file when it was not
// in a folder. Failures become warnings.
func (o *Orchestrator) cleanup(ctx context.Context, r *run) {
	res := r.res
	art := res.Artifact
	r.logf("Deleting from Seedr...")

	switch {
	case art.ContainerID != "":
		res.Cleanup.Attempted = true
		res.Cleanup.Err = o.seedbox.DeleteFolder(ctx, art.ContainerID)
	case art.File.Handle() != "":
		res.Cleanup.Attempted = true
		res.Cleanup.Err = o.seedbox.DeleteFile(ctx, art.File.Handle())
	}

	if res.Cleanup.Err != nil {
		r.log.Warn(ctx, "seedbox cleanup failed", "error", res.Cleanup.Err)
		r.warnf("Cleanup warning: %s", ErrorMessage(res.Cleanup.Err))
		return
	}
	r.logf("Seedr cleaned up!")
}
