package transfer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/seedpipe/internal/common"
	"github.com/dmitrijs2005/seedpipe/internal/seedbox"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"seedbox description", fmt.Errorf("add: %w", &seedbox.APIError{Op: "add magnet", Description: "Not enough space"}), "Not enough space"},
		{"seedbox status only", &seedbox.APIError{Op: "list folder", Status: 502}, "Bad Gateway"},
		{"storage message", &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}, "Access Denied"},
		{"storage code", &smithy.GenericAPIError{Code: "NoSuchBucket"}, "NoSuchBucket"},
		{"cancelled", fmt.Errorf("%w: %w", common.ErrCancelled, context.Canceled), "transfer cancelled"},
		{"bare context cancel", fmt.Errorf("get: %w", context.Canceled), "transfer cancelled"},
		{"no file", fmt.Errorf("locate: %w", common.ErrNoDownloadedFile), "could not find downloaded file in seedbox"},
		{"plain", errors.New("disk full"), "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}
