package transfer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/seedpipe/internal/common"
)

const (
	pipeBufferSize = 256 << 10
	sniffLen       = 3072
)

// contentType returns the media type to upload with and a reader that still
// yields the whole stream. A declared type other than the generic binary
// one wins; otherwise the head of the stream is sniffed.
func contentType(r io.Reader, declared string) (io.Reader, string, error) {
	if declared != "" && !strings.HasPrefix(declared, common.DefaultContentType) {
		return r, declared, nil
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, "", err
	}

	if mt := mimetype.Detect(head); !mt.Is(common.DefaultContentType) {
		return br, mt.String(), nil
	}
	return br, common.DefaultContentType, nil
}

// pipeTo copies src into upload through an unbuffered pipe fed by a single
// bounded copy buffer. A failure or panic on either side closes the pipe so
// the other side stops.
func pipeTo(ctx context.Context, src io.Reader, upload func(ctx context.Context, r io.Reader) error) error {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = panicError(p)
			}
			pw.CloseWithError(err)
		}()
		buf := make([]byte, pipeBufferSize)
		_, err = io.CopyBuffer(pw, src, buf)
		return err
	})

	g.Go(func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = panicError(p)
			}
			pr.CloseWithError(err)
		}()
		return upload(gctx, pr)
	})

	return g.Wait()
}

func panicError(p any) error {
	return fmt.Errorf("unexpected failure: %v", p)
}

// uploadProgress turns byte counts into percent events, one decimal place,
// skipping repeats.
type uploadProgress struct {
	total int64
	last  float64
	emit  func(percent float64)
}

func newUploadProgress(total int64, emit func(float64)) *uploadProgress {
	return &uploadProgress{total: total, last: -1, emit: emit}
}

func (p *uploadProgress) update(bytesRead int64) {
	if p.total <= 0 {
		return
	}
	pct := round1(float64(bytesRead) / float64(p.total) * 100)
	if pct > 100 {
		pct = 100
	}
	if pct == p.last {
		return
	}
	p.last = pct
	p.emit(pct)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
