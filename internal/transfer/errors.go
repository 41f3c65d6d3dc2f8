package transfer

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/seedpipe/internal/common"
	"github.com/dmitrijs2005/seedpipe/internal/seedbox"
)

// ErrorMessage returns the most specific text for err: a remote service's
// own message when there is one, else err.Error().
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var sbErr *seedbox.APIError
	if errors.As(err, &sbErr) {
		if msg := sbErr.Message(); msg != "" {
			return msg
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return msg
		}
		if code := apiErr.ErrorCode(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, common.ErrCancelled), errors.Is(err, context.Canceled):
		return common.ErrCancelled.Error()
	case errors.Is(err, common.ErrNoDownloadedFile):
		return common.ErrNoDownloadedFile.Error()
	case errors.Is(err, common.ErrMagnetRejected):
		return common.ErrMagnetRejected.Error()
	}
	return err.Error()
}
