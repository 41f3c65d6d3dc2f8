package transfer

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/seedpipe/internal/common"
	"github.com/dmitrijs2005/seedpipe/internal/logging"
	"github.com/dmitrijs2005/seedpipe/internal/seedbox"
	"github.com/dmitrijs2005/seedpipe/internal/storage"
)

/*************
 * Fakes
 *************/

type fakeSeedbox struct {
	mu sync.Mutex

	authErr   error
	addResp   *seedbox.AddMagnetResponse
	addErr    error
	roots     []*seedbox.Listing // returned in order, the last one repeats
	folders   map[seedbox.ID]*seedbox.Listing
	listErr   error
	content   string
	dlType    string
	deleteErr error

	// captured
	rootPolls      int
	lastMagnet     string
	downloaded     seedbox.ID
	deletedFolders []seedbox.ID
	deletedFiles   []seedbox.ID
	onPoll         func(n int)
}

func (f *fakeSeedbox) EnsureAuth(ctx context.Context) error { return f.authErr }

func (f *fakeSeedbox) AddMagnet(ctx context.Context, magnet string) (*seedbox.AddMagnetResponse, error) {
	f.lastMagnet = magnet
	if f.addResp == nil {
		f.addResp = &seedbox.AddMagnetResponse{Title: "Movie"}
	}
	return f.addResp, f.addErr
}

func (f *fakeSeedbox) ListFolder(ctx context.Context, id seedbox.ID) (*seedbox.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	if id != "" {
		if l, ok := f.folders[id]; ok {
			return l, nil
		}
		return &seedbox.Listing{}, nil
	}
	f.rootPolls++
	if f.onPoll != nil {
		f.onPoll(f.rootPolls)
	}
	i := f.rootPolls - 1
	if i >= len(f.roots) {
		i = len(f.roots) - 1
	}
	return f.roots[i], nil
}

func (f *fakeSeedbox) OpenDownloadStream(ctx context.Context, fileID seedbox.ID) (*seedbox.Download, error) {
	f.downloaded = fileID
	return &seedbox.Download{
		Body:          io.NopCloser(strings.NewReader(f.content)),
		ContentLength: int64(len(f.content)),
		ContentType:   f.dlType,
	}, nil
}

func (f *fakeSeedbox) DeleteFile(ctx context.Context, id seedbox.ID) error {
	f.deletedFiles = append(f.deletedFiles, id)
	return f.deleteErr
}

func (f *fakeSeedbox) DeleteFolder(ctx context.Context, id seedbox.ID) error {
	f.deletedFolders = append(f.deletedFolders, id)
	return f.deleteErr
}

type fakeStorage struct {
	folderErr    error
	uploadErr    error
	publicErr    map[string]error
	panicOnMkdir bool
	panicOnRead  bool

	folders     []string
	uploadName  string
	uploadType  string
	uploadSize  int64
	uploaded    string
	publicCalls []string
}

func (f *fakeStorage) FindOrCreateFolder(ctx context.Context, name string) (string, error) {
	if f.panicOnMkdir {
		panic("storage exploded")
	}
	f.folders = append(f.folders, name)
	return storage.FolderKey(name), f.folderErr
}

func (f *fakeStorage) UploadStream(ctx context.Context, name string, r io.Reader, contentType string, expectedSize int64, onProgress storage.ProgressFunc, parentID string) (string, error) {
	f.uploadName, f.uploadType, f.uploadSize = name, contentType, expectedSize
	if f.panicOnRead {
		_, _ = r.Read(make([]byte, 4))
		panic("uploader exploded")
	}
	var sb strings.Builder
	buf := make([]byte, 4)
	var total int64
	for {
		n, err := r.Read(buf)
		sb.Write(buf[:n])
		total += int64(n)
		if n > 0 && onProgress != nil {
			onProgress(total)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	f.uploaded = sb.String()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return parentID + name, nil
}

func (f *fakeStorage) MakePublic(ctx context.Context, id string) (string, error) {
	f.publicCalls = append(f.publicCalls, id)
	if err := f.publicErr[id]; err != nil {
		return "", err
	}
	return "https://cdn.example.org/" + id, nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) stages() []int {
	var out []int
	for _, e := range r.ofType(EventStage) {
		out = append(out, e.Payload.(StagePayload).Stage)
	}
	return out
}

func (r *recorder) logs() []string {
	var out []string
	for _, e := range r.ofType(EventLog) {
		out = append(out, e.Payload.(string))
	}
	return out
}

func (r *recorder) progress(stage string) []float64 {
	var out []float64
	for _, e := range r.ofType(EventProgress) {
		if p := e.Payload.(ProgressPayload); p.Stage == stage {
			out = append(out, p.Percent)
		}
	}
	return out
}

func (r *recorder) terminal() []Event {
	return append(r.ofType(EventSuccess), r.ofType(EventError)...)
}

const testMagnet = "magnet:?xt=urn:btih:c12fe1c06bba254a9dc9f519b335aa7c1367a88a&dn=Movie.Name.2020"

func happySeedbox() *fakeSeedbox {
	return &fakeSeedbox{
		roots: []*seedbox.Listing{
			{Torrents: []seedbox.Torrent{{Name: "Movie.Name.2020", Progress: 42.5, Hash: "C12FE1C06BBA254A9DC9F519B335AA7C1367A88A"}}},
			{Folders: []seedbox.Folder{{ID: "3", Name: "old"}, {ID: "7", Name: "Movie.Name.2020"}}},
		},
		folders: map[seedbox.ID]*seedbox.Listing{
			"7": {Files: []seedbox.File{
				{FolderFileID: "70", Name: "sample.mkv", Size: 10},
				{FolderFileID: "71", Name: "www.example.com_Movie.Name.2020.WEB.mkv", Size: 1 << 30},
			}},
		},
		content: "0123456789abcdefghij",
		dlType:  "video/x-matroska",
	}
}

func newTestOrchestrator(sb Seedbox, st Storage) *Orchestrator {
	return New(sb, st, logging.Nop(), Options{InitialPollDelay: time.Millisecond, PollInterval: time.Millisecond})
}

/*************
 * Tests
 *************/

func TestRun_HappyPath(t *testing.T) {
	sb := happySeedbox()
	st := &fakeStorage{}
	rec := &recorder{}

	res := newTestOrchestrator(sb, st).Run(context.Background(), testMagnet, rec)

	require.NoError(t, res.Err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, rec.stages())
	assert.Equal(t, 2, sb.rootPolls)
	assert.Equal(t, testMagnet, sb.lastMagnet)

	assert.Equal(t, seedbox.ID("71"), sb.downloaded)
	assert.Equal(t, []string{"Movie Name"}, st.folders)
	assert.Equal(t, "Movie Name 2020 WEB.mkv", st.uploadName)
	assert.Equal(t, "video/x-matroska", st.uploadType)
	assert.Equal(t, int64(20), st.uploadSize)
	assert.Equal(t, sb.content, st.uploaded)
	assert.Equal(t, []string{"Movie Name/", "Movie Name/Movie Name 2020 WEB.mkv"}, st.publicCalls)

	assert.Equal(t, []seedbox.ID{"7"}, sb.deletedFolders)
	assert.Empty(t, sb.deletedFiles)

	shares := rec.ofType(EventShareLink)
	require.Len(t, shares, 1)
	assert.Equal(t, "https://cdn.example.org/Movie Name/Movie Name 2020 WEB.mkv", shares[0].Payload)

	term := rec.terminal()
	require.Len(t, term, 1)
	require.Equal(t, EventSuccess, term[0].Type)
	success := term[0].Payload.(SuccessPayload)
	assert.Equal(t, "✅ \"Movie Name 2020 WEB.mkv\" uploaded to storage in folder \"Movie Name\"!", success.Message)
	assert.True(t, success.Publish.OK)
	assert.True(t, success.Cleanup.OK)

	assert.Equal(t, []float64{42.5, 100}, rec.progress(ProgressSeedbox))
	drive := rec.progress(ProgressStorage)
	require.NotEmpty(t, drive)
	assert.Equal(t, 100.0, drive[len(drive)-1])
	assert.Equal(t, 20.0, drive[0], "4 of 20 bytes")

	assert.Contains(t, rec.logs(), "Seedr: 42.5% — Movie.Name.2020")
	assert.Contains(t, rec.logs(), "Found: www.example.com_Movie.Name.2020.WEB.mkv (1024.00 MB)")

	assert.Equal(t, "Movie Name/Movie Name 2020 WEB.mkv", res.Target.FileID)
	assert.Equal(t, seedbox.ID("7"), res.Artifact.ContainerID)
	assert.True(t, res.Publish.OK())
	assert.True(t, res.Cleanup.OK())
	assert.NotEmpty(t, res.RunID)
}

func TestRun_RejectedMagnet(t *testing.T) {
	sb := happySeedbox()
	sb.addResp = &seedbox.AddMagnetResponse{Message: "Invalid magnet"}
	sb.addErr = &seedbox.APIError{Op: "add magnet", Status: 200, Description: "Invalid magnet"}
	rec := &recorder{}

	res := newTestOrchestrator(sb, &fakeStorage{}).Run(context.Background(), "magnet:?xt=garbage", rec)

	require.Error(t, res.Err)
	assert.Equal(t, []int{1}, rec.stages())
	errs := rec.ofType(EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Transfer failed: Invalid magnet", errs[0].Payload)
	assert.Empty(t, rec.ofType(EventSuccess))
	assert.Zero(t, sb.rootPolls)
}

func TestRun_RejectedWithoutReason(t *testing.T) {
	sb := happySeedbox()
	sb.addErr = common.ErrMagnetRejected
	rec := &recorder{}

	newTestOrchestrator(sb, &fakeStorage{}).Run(context.Background(), testMagnet, rec)

	errs := rec.ofType(EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Transfer failed: seedbox rejected the magnet link", errs[0].Payload)
}

func TestRun_PublishFailureIsWarning(t *testing.T) {
	sb := happySeedbox()
	st := &fakeStorage{publicErr: map[string]error{"Movie Name/": errors.New("acl denied")}}
	rec := &recorder{}

	res := newTestOrchestrator(sb, st).Run(context.Background(), testMagnet, rec)

	require.NoError(t, res.Err)
	assert.Empty(t, rec.ofType(EventShareLink))
	assert.Contains(t, rec.logs(), "⚠ Sharing warning: acl denied")
	assert.Equal(t, []int{1, 2, 3, 4, 5}, rec.stages())
	require.Len(t, rec.terminal(), 1)
	assert.Equal(t, EventSuccess, rec.terminal()[0].Type)
	assert.False(t, res.Publish.OK())
	assert.True(t, res.Cleanup.OK())
	assert.Equal(t, []seedbox.ID{"7"}, sb.deletedFolders)
}

func TestRun_CleanupFailureIsWarning(t *testing.T) {
	sb := happySeedbox()
	sb.deleteErr = &seedbox.APIError{Op: "delete folder", Status: 200, Code: "not_found"}
	rec := &recorder{}

	res := newTestOrchestrator(sb, &fakeStorage{}).Run(context.Background(), testMagnet, rec)

	require.NoError(t, res.Err)
	assert.Contains(t, rec.logs(), "⚠ Cleanup warning: not_found")
	require.Len(t, rec.terminal(), 1)
	assert.Equal(t, EventSuccess, rec.terminal()[0].Type)
	assert.Len(t, rec.ofType(EventShareLink), 1)
	success := rec.terminal()[0].Payload.(SuccessPayload)
	assert.True(t, success.Cleanup.Attempted)
	assert.False(t, success.Cleanup.OK)
	assert.Equal(t, "seedbox delete folder: not_found", success.Cleanup.Error)
}

func TestRun_RootFileIsDeletedDirectly(t *testing.T) {
	sb := happySeedbox()
	sb.roots = []*seedbox.Listing{{Files: []seedbox.File{{ID: "5", FolderFileID: "55", Name: "Some_Show_Hindi_HDRip.mkv", Size: 100}}}}
	st := &fakeStorage{}
	rec := &recorder{}

	res := newTestOrchestrator(sb, st).Run(context.Background(), testMagnet, rec)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"Some Show"}, st.folders)
	assert.Empty(t, sb.deletedFolders)
	assert.Equal(t, []seedbox.ID{"55"}, sb.deletedFiles)
}

func TestRun_NoDownloadedFile(t *testing.T) {
	sb := happySeedbox()
	sb.roots = []*seedbox.Listing{{}}
	rec := &recorder{}

	res := newTestOrchestrator(sb, &fakeStorage{}).Run(context.Background(), testMagnet, rec)

	require.ErrorIs(t, res.Err, common.ErrNoDownloadedFile)
	assert.Equal(t, []int{1, 2, 3}, rec.stages())
	errs := rec.ofType(EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Transfer failed: could not find downloaded file in seedbox", errs[0].Payload)
}

func TestRun_PollingFailure(t *testing.T) {
	sb := happySeedbox()
	sb.listErr = errors.New("listing down")
	rec := &recorder{}

	res := newTestOrchestrator(sb, &fakeStorage{}).Run(context.Background(), testMagnet, rec)

	require.Error(t, res.Err)
	assert.Equal(t, []int{1, 2}, rec.stages())
	require.Len(t, rec.terminal(), 1)
	assert.Equal(t, "Transfer failed: listing down", rec.terminal()[0].Payload)
}

func TestRun_CancelStopsPolling(t *testing.T) {
	sb := happySeedbox()
	sb.roots = []*seedbox.Listing{{Torrents: []seedbox.Torrent{{Name: "forever", Progress: 1}}}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sb.onPoll = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	rec := &recorder{}

	done := make(chan Result, 1)
	go func() { done <- newTestOrchestrator(sb, &fakeStorage{}).Run(ctx, testMagnet, rec) }()

	select {
	case res := <-done:
		require.ErrorIs(t, res.Err, common.ErrCancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
	require.Len(t, rec.terminal(), 1)
	assert.Equal(t, "Transfer failed: transfer cancelled", rec.terminal()[0].Payload)
	assert.Equal(t, 2, sb.rootPolls)
}

func TestRun_UploadFailureSkipsCleanup(t *testing.T) {
	sb := happySeedbox()
	st := &fakeStorage{uploadErr: errors.New("quota exceeded")}
	rec := &recorder{}

	res := newTestOrchestrator(sb, st).Run(context.Background(), testMagnet, rec)

	require.Error(t, res.Err)
	assert.Equal(t, []int{1, 2, 3, 4}, rec.stages())
	assert.Empty(t, sb.deletedFolders)
	assert.Empty(t, st.publicCalls)
	require.Len(t, rec.terminal(), 1)
	assert.Equal(t, "Transfer failed: quota exceeded", rec.terminal()[0].Payload)
}

func TestRun_PanicBecomesError(t *testing.T) {
	sb := happySeedbox()
	st := &fakeStorage{panicOnMkdir: true}
	rec := &recorder{}

	var res Result
	require.NotPanics(t, func() {
		res = newTestOrchestrator(sb, st).Run(context.Background(), testMagnet, rec)
	})

	require.Error(t, res.Err)
	errs := rec.ofType(EventError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Payload, "storage exploded")
	assert.Empty(t, rec.ofType(EventSuccess))
}

func TestRun_UploadPanicBecomesError(t *testing.T) {
	sb := happySeedbox()
	st := &fakeStorage{panicOnRead: true}
	rec := &recorder{}

	var res Result
	require.NotPanics(t, func() {
		res = newTestOrchestrator(sb, st).Run(context.Background(), testMagnet, rec)
	})

	require.Error(t, res.Err)
	errs := rec.ofType(EventError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Payload, "uploader exploded")
	assert.Empty(t, rec.ofType(EventSuccess))
	assert.Empty(t, sb.deletedFolders)
}

type ctxKey struct{}

// ctxLogger records the context value seen by each log call.
type ctxLogger struct {
	mu   sync.Mutex
	seen map[string][]any
}

func (l *ctxLogger) record(ctx context.Context, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = map[string][]any{}
	}
	l.seen[msg] = append(l.seen[msg], ctx.Value(ctxKey{}))
}

func (l *ctxLogger) Debug(ctx context.Context, msg string, _ ...any) { l.record(ctx, msg) }
func (l *ctxLogger) Info(ctx context.Context, msg string, _ ...any)  { l.record(ctx, msg) }
func (l *ctxLogger) Warn(ctx context.Context, msg string, _ ...any)  { l.record(ctx, msg) }
func (l *ctxLogger) Error(ctx context.Context, msg string, _ ...any) { l.record(ctx, msg) }
func (l *ctxLogger) With(...any) logging.Logger                      { return l }

func TestRun_StageLogsCarryRunContext(t *testing.T) {
	log := &ctxLogger{}
	o := New(happySeedbox(), &fakeStorage{}, log, Options{InitialPollDelay: time.Millisecond, PollInterval: time.Millisecond})
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-7")

	res := o.Run(ctx, testMagnet, &recorder{})
	require.NoError(t, res.Err)

	stages := log.seen["stage"]
	require.Len(t, stages, 5)
	for _, v := range stages {
		assert.Equal(t, "req-7", v)
	}
}

func TestRun_SniffsMissingContentType(t *testing.T) {
	sb := happySeedbox()
	sb.dlType = ""
	sb.content = "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 64)
	st := &fakeStorage{}

	res := newTestOrchestrator(sb, st).Run(context.Background(), testMagnet, &recorder{})

	require.NoError(t, res.Err)
	assert.Equal(t, "image/png", st.uploadType)
	assert.Equal(t, sb.content, st.uploaded)
}
