package clist

import "strconv"

// NameMarker is the leading byte of names addressing an already open file.
const NameMarker byte = 0xff

// EncodeName returns the name addressing the file with the given handle ID.
func EncodeName(id uint64) string {
	return string([]byte{NameMarker}) + strconv.FormatUint(id, 16)
}

// DecodeName extracts the handle ID from a name produced by EncodeName.
// The second result is false if name does not carry the marker.
func DecodeName(name string) (uint64, bool) {
	if len(name) < 2 || name[0] != NameMarker {
		return 0, false
	}
	id, err := strconv.ParseUint(name[1:], 16, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
