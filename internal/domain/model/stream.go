package model

import (
	"strconv"
	"strings"
)

// StreamKey groups the live connections that receive the same broadcasts.
type StreamKey string

// GlobalStreamKey is the undifferentiated comment stream that sees every post.
const GlobalStreamKey StreamKey = "global"

const postKeyPrefix = "post="

// PostStreamKey returns the key of a single post's comment stream.
func PostStreamKey(postID int64) StreamKey {
	return StreamKey(postKeyPrefix + strconv.FormatInt(postID, 10))
}

// PostID extracts the post identifier of a post-bound key.
func (k StreamKey) PostID() (int64, bool) {
	raw, ok := strings.CutPrefix(string(k), postKeyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (k StreamKey) String() string { return string(k) }

// StreamKeysFor lists every key an event about postID must reach.
func StreamKeysFor(postID int64) []StreamKey {
	return []StreamKey{PostStreamKey(postID), GlobalStreamKey}
}
