package main

import (
	"github.com/provide-io/sccodec/pkg/sc/stream"
)

// openInputStream opens path for reading, memory-mapping it instead of
// buffering it through a plain file descriptor when mmap is requested —
// the large-input path the metadata trailer parser and MD5 hash step both
// want a contiguous Data() view for without a separate heap copy.
func openInputStream(path string, mmap bool) (stream.Stream, error) {
	if mmap {
		return stream.OpenMemoryMapped(path)
	}
	return stream.OpenFile(path, false)
}
