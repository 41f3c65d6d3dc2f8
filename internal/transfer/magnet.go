package transfer

import (
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// magnetInfo is what a run logs about the submitted link. A link that does
// not parse is still submitted; the seedbox decides whether it is valid.
type magnetInfo struct {
	InfoHash    string
	DisplayName string
}

func parseMagnet(uri string) (magnetInfo, bool) {
	m, err := metainfo.ParseMagnetUri(strings.TrimSpace(uri))
	if err != nil {
		return magnetInfo{}, false
	}
	return magnetInfo{InfoHash: m.InfoHash.HexString(), DisplayName: m.DisplayName}, true
}

// matches reports whether a polled torrent hash belongs to this magnet.
// Unknown hashes on either side count as a match.
func (m magnetInfo) matches(hash string) bool {
	if m.InfoHash == "" || hash == "" {
		return true
	}
	return strings.EqualFold(m.InfoHash, hash)
}
