package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	minPartSize     = 5 << 20
	maxParts        = 10000
	folderMediaType = "application/x-directory"
)

// FolderKey returns the marker key for a folder name.
func FolderKey(name string) string {
	return strings.Trim(name, "/") + "/"
}

// FindOrCreateFolder returns the id of the folder called name, creating the
// marker object when it does not exist yet. Names match exactly.
func (c *Client) FindOrCreateFolder(ctx context.Context, name string) (string, error) {
	api, err := c.Authorize(ctx)
	if err != nil {
		return "", err
	}

	key := FolderKey(name)
	_, err = api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		c.logger.Info(ctx, "found existing folder", "folder", key)
		return key, nil
	}
	if !IsNotFound(err) {
		return "", c.wrap("find folder", key, err)
	}

	_, err = api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
		ContentType:   aws.String(folderMediaType),
	})
	if err != nil {
		return "", c.wrap("create folder", key, err)
	}

	c.logger.Info(ctx, "created folder", "folder", key)
	return key, nil
}

// ProgressFunc receives the number of bytes consumed from the source so far.
type ProgressFunc func(bytesRead int64)

// UploadStream copies r into parentID+name and returns the new file id.
// Only one part buffer is held in memory. Streams that fit in one part are
// sent with a single PutObject, larger ones as a multipart upload that is
// aborted on any failure. Nothing is committed unless r ends with io.EOF
// and, when expectedSize is positive, exactly expectedSize bytes were read.
func (c *Client) UploadStream(ctx context.Context, name string, r io.Reader, contentType string, expectedSize int64, onProgress ProgressFunc, parentID string) (string, error) {
	api, err := c.Authorize(ctx)
	if err != nil {
		return "", err
	}

	key := parentID + name
	if onProgress != nil {
		r = &progressReader{r: r, fn: onProgress}
	}
	src := &sourceReader{r: r}

	buf := make([]byte, c.partSize(expectedSize))
	n, done, err := src.fill(buf)
	if err != nil {
		return "", c.wrap("upload", key, err)
	}
	if !done {
		if err := c.putMultipart(ctx, api, key, src, buf, contentType, expectedSize); err != nil {
			return "", err
		}
		return key, nil
	}

	if err := src.check(expectedSize); err != nil {
		return "", c.wrap("upload", key, err)
	}
	if err := c.putSingle(ctx, api, key, buf[:n], contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (c *Client) partSize(expectedSize int64) int64 {
	size := c.cfg.PartSize
	if size < minPartSize {
		size = minPartSize
	}
	if expectedSize > 0 {
		if need := (expectedSize + maxParts - 1) / maxParts; need > size {
			size = need
		}
	}
	return size
}

func (c *Client) putSingle(ctx context.Context, api S3API, key string, data []byte, contentType string) error {
	_, err := api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return c.wrap("upload", key, err)
	}
	return nil
}

// putMultipart uploads buf (already full) and then the rest of src.
func (c *Client) putMultipart(ctx context.Context, api S3API, key string, src *sourceReader, buf []byte, contentType string, expectedSize int64) error {
	created, err := api.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return c.wrap("create multipart", key, err)
	}
	uploadID := created.UploadId

	abort := func(cause error) error {
		_, abortErr := api.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(c.cfg.Bucket),
			Key:      aws.String(key),
			UploadId: uploadID,
		})
		if abortErr != nil {
			c.logger.Warn(ctx, "abort multipart upload failed", "key", key, "error", abortErr)
		}
		return c.wrap("upload", key, cause)
	}

	var parts []types.CompletedPart
	chunk := buf
	last := false
	for partNumber := int32(1); ; partNumber++ {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}

		out, err := api.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(c.cfg.Bucket),
			Key:           aws.String(key),
			UploadId:      uploadID,
			PartNumber:    aws.Int32(partNumber),
			Body:          bytes.NewReader(chunk),
			ContentLength: aws.Int64(int64(len(chunk))),
		})
		if err != nil {
			return abort(err)
		}
		parts = append(parts, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(partNumber)})

		if last {
			break
		}
		n, done, err := src.fill(buf)
		if err != nil {
			return abort(err)
		}
		if done && n == 0 {
			break
		}
		chunk, last = buf[:n], done
	}

	if err := src.check(expectedSize); err != nil {
		return abort(err)
	}

	_, err = api.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(c.cfg.Bucket),
		Key:             aws.String(key),
		UploadId:        uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		return abort(err)
	}
	return nil
}

// MakePublic grants anonymous read on id and returns its public URL. On a
// bucket with ACLs disabled a file gets a presigned GET URL instead, and a
// folder is left as it is with an empty link.
func (c *Client) MakePublic(ctx context.Context, id string) (string, error) {
	api, err := c.Authorize(ctx)
	if err != nil {
		return "", err
	}

	_, err = api.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(id),
		ACL:    types.ObjectCannedACLPublicRead,
	})
	if err == nil {
		return c.PublicURL(id), nil
	}

	presigner := newPresigner(api)
	if !isACLNotSupported(err) || presigner == nil {
		return "", c.wrap("make public", id, err)
	}
	if strings.HasSuffix(id, "/") {
		c.logger.Info(ctx, "bucket has ACLs disabled, folder left private", "folder", id)
		return "", nil
	}

	req, perr := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(id),
	}, s3.WithPresignExpires(shareLinkTTL))
	if perr != nil {
		return "", c.wrap("presign", id, errors.Join(err, perr))
	}

	c.logger.Info(ctx, "bucket has ACLs disabled, sharing presigned link", "key", id, "expires_in", shareLinkTTL.String())
	return req.URL, nil
}

// sourceReader counts bytes and keeps the source's own error, so that a
// source failing with io.ErrUnexpectedEOF is not taken for a short last part.
type sourceReader struct {
	r   io.Reader
	n   int64
	err error
}

func (s *sourceReader) Read(b []byte) (int, error) {
	n, err := s.r.Read(b)
	s.n += int64(n)
	if err != nil && err != io.EOF && s.err == nil {
		s.err = err
	}
	return n, err
}

// fill reads the next part into buf. done is true only when the source
// ended cleanly.
func (s *sourceReader) fill(buf []byte) (n int, done bool, err error) {
	n, err = io.ReadFull(s, buf)
	switch {
	case s.err != nil:
		return n, false, s.err
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, true, nil
	case err != nil:
		return n, false, err
	}
	return n, false, nil
}

func (s *sourceReader) check(expectedSize int64) error {
	if expectedSize > 0 && s.n != expectedSize {
		return fmt.Errorf("%w: read %d of %d bytes", ErrSizeMismatch, s.n, expectedSize)
	}
	return nil
}

type progressReader struct {
	r     io.Reader
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.total += int64(n)
		p.fn(p.total)
	}
	return n, err
}
