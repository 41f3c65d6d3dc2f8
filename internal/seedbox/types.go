package seedbox

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
)

// ID is a seedbox object identifier. The API returns ids as JSON numbers
// or strings depending on the endpoint; both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as JSON numbers, the form the API sends.
func (id ID) MarshalJSON() ([]byte, error) {
	if id != "" && (id == "0" || id[0] != '0') && strings.Trim(string(id), "0123456789") == "" {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// number decodes JSON numbers that may arrive quoted.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*n = 0
		return nil
	}
	if len(b) > 1 && b[0] == '"' {
		b = b[1 : len(b)-1]
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = number(f)
	return nil
}

// Listing is the content of one seedbox folder.
type Listing struct {
	FolderID ID        `json:"folder_id"`
	Folders  []Folder  `json:"folders"`
	Files    []File    `json:"files"`
	Torrents []Torrent `json:"torrents"`
}

type Folder struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Size number `json:"size"`
}

// File is a downloaded file. Folder listings carry a folder_file_id that
// must be used for fetch and delete calls instead of the plain id.
type File struct {
	ID           ID     `json:"id"`
	FolderFileID ID     `json:"folder_file_id"`
	FolderID     ID     `json:"folder_id"`
	Name         string `json:"name"`
	Size         number `json:"size"`
}

// Handle returns the id accepted by fetch_file and delete.
func (f File) Handle() ID {
	if f.FolderFileID != "" {
		return f.FolderFileID
	}
	return f.ID
}

func (f File) Bytes() int64 { return int64(f.Size) }

// Torrent is an active transfer as reported in the root listing.
type Torrent struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Hash     string `json:"hash"`
	Progress number `json:"progress"`
	Size     number `json:"size"`
}

// Percent is the download progress in the 0..100 range.
func (t Torrent) Percent() float64 { return float64(t.Progress) }

func (t Torrent) Bytes() int64 { return int64(t.Size) }

// DisplayTitle returns the best available name for progress lines.
func (t Torrent) DisplayTitle() string {
	switch {
	case t.Name != "":
		return t.Name
	case t.Title != "":
		return t.Title
	default:
		return "Downloading..."
	}
}

// AddMagnetResponse is the answer to add_torrent.
type AddMagnetResponse struct {
	Result        json.RawMessage `json:"result"`
	Error         string          `json:"error"`
	Message       string          `json:"message"`
	Code          int             `json:"code"`
	Title         string          `json:"title"`
	TorrentHash   string          `json:"torrent_hash"`
	UserTorrentID ID              `json:"user_torrent_id"`
}

// Rejected reports whether the seedbox refused the magnet: either an
// explicit result=false or an error field.
func (r *AddMagnetResponse) Rejected() bool {
	return bytes.Equal(bytes.TrimSpace(r.Result), []byte("false")) || r.Error != ""
}

// Reason returns the service message for a rejection, if any.
func (r *AddMagnetResponse) Reason() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

// Download is an open byte stream for a seedbox file.
type Download struct {
	Body io.ReadCloser
	// ContentLength is -1 when the server did not announce a length.
	ContentLength int64
	ContentType   string
}
