package seedbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/seedpipe/internal/common"
)

// AddMagnet submits a magnet link. A response the service rejected is
// returned together with a non-nil error from Err.
func (c *Client) AddMagnet(ctx context.Context, magnet string) (*AddMagnetResponse, error) {
	var resp AddMagnetResponse
	if err := c.resource(ctx, "add_torrent", []field{{"torrent_magnet", magnet}}, &resp); err != nil {
		return nil, err
	}
	c.logger.Debug(ctx, "seedbox add_torrent result",
		"title", resp.Title, "hash", resp.TorrentHash, "error", resp.Error, "result", string(resp.Result))
	return &resp, resp.Err()
}

// Err converts a rejected response into an error carrying the service text.
func (r *AddMagnetResponse) Err() error {
	if !r.Rejected() {
		return nil
	}
	reason := r.Reason()
	if reason == "" {
		return fmt.Errorf("seedbox add magnet: %w", common.ErrMagnetRejected)
	}
	return &APIError{Op: "add magnet", Status: http.StatusOK, Code: r.Error, Description: reason}
}

// ListFolder returns the root listing when id is empty, else the listing of
// the given folder.
func (c *Client) ListFolder(ctx context.Context, id ID) (*Listing, error) {
	var listing Listing
	err := c.withSession(ctx, "list folder", func(token string) (bool, error) {
		u := c.baseURL + folderPath
		if id != "" {
			u += "/" + url.PathEscape(id.String())
		}
		u += "?access_token=" + url.QueryEscape(token)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return false, err
		}
		status, body, err := c.do(req)
		if err != nil {
			return false, fmt.Errorf("seedbox list folder: %w", err)
		}

		listing = Listing{}
		expired, err := decode("list folder", status, body, &listing)
		if err != nil || expired {
			return expired, err
		}
		if env := parseEnvelope(body); env.code != "" {
			return false, &APIError{Op: "list folder", Status: status, Code: env.code, Description: env.description()}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ResolveDownloadURL asks the seedbox for a direct URL of a file.
func (c *Client) ResolveDownloadURL(ctx context.Context, fileID ID) (string, error) {
	var resp struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	}
	if err := c.resource(ctx, "fetch_file", []field{{"folder_file_id", fileID.String()}}, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &APIError{Op: "fetch_file", Status: http.StatusOK, Code: resp.Error}
	}
	if resp.URL == "" {
		return "", common.ErrNoDownloadURL
	}
	return resp.URL, nil
}

// OpenDownloadStream resolves the download URL of a file and opens a GET
// against it. The caller must close Body.
func (c *Client) OpenDownloadStream(ctx context.Context, fileID ID) (*Download, error) {
	u, err := c.ResolveDownloadURL(ctx, fileID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("seedbox download: %w", err)
	}
	resp, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("seedbox download: %w", err)
	}
	if !isSuccess(resp.StatusCode) {
		resp.Body.Close()
		return nil, &APIError{Op: "download", Status: resp.StatusCode}
	}

	return &Download{
		Body:          resp.Body,
		ContentLength: resp.ContentLength,
		ContentType:   resp.Header.Get("Content-Type"),
	}, nil
}

type deleteItem struct {
	Type string `json:"type"`
	ID   ID     `json:"id"`
}

func (c *Client) DeleteFile(ctx context.Context, id ID) error {
	return c.delete(ctx, "file", id)
}

func (c *Client) DeleteFolder(ctx context.Context, id ID) error {
	return c.delete(ctx, "folder", id)
}

func (c *Client) delete(ctx context.Context, kind string, id ID) error {
	arr, err := json.Marshal([]deleteItem{{Type: kind, ID: id}})
	if err != nil {
		return err
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := c.resource(ctx, "delete", []field{{"delete_arr", string(arr)}}, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return &APIError{Op: "delete " + kind, Status: http.StatusOK, Code: resp.Error}
	}
	if string(resp.Result) == "false" {
		return &APIError{Op: "delete " + kind, Status: http.StatusOK, Description: "delete was not accepted"}
	}
	return nil
}
