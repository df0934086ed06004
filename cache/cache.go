// Package cache implements the cached-network file format: a compiled multi-
// subgraph blob the runtime can load back without recompiling, and the reverse
// reader. Grounded on SPEC_FULL.md §6's explicit byte layout; the leading version
// field is a supplement (§6) beyond the distilled format, letting a future reader
// reject a cache written by an incompatible compiler instead of misparsing it.
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// FormatVersion is written as the first u32 of every cached-network file.
const FormatVersion uint32 = 1

// Subgraph is one compiled subgraph plus the intermediate DRAM buffer size its
// runtime caller must allocate alongside it.
type Subgraph struct {
	Index               uint32
	CompiledBlob        []byte
	IntermediateBufSize uint32
}

// Write serialises subgraphs to w in the cached-network format:
//
//	u32 version
//	u32 numSubgraphs
//	u32 x numSubgraphs   per-subgraph compiled size (blob + trailing u32 intermediate size)
//	u32 x numSubgraphs   per-subgraph index
//	for each subgraph: blob bytes, then u32 intermediate size
func Write(w io.Writer, subgraphs []Subgraph) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, FormatVersion); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(subgraphs))); err != nil {
		return err
	}
	for _, s := range subgraphs {
		size := uint32(len(s.CompiledBlob)) + 4
		if err := binary.Write(&buf, binary.LittleEndian, size); err != nil {
			return err
		}
	}
	for _, s := range subgraphs {
		if err := binary.Write(&buf, binary.LittleEndian, s.Index); err != nil {
			return err
		}
	}
	for _, s := range subgraphs {
		buf.Write(s.CompiledBlob)
		if err := binary.Write(&buf, binary.LittleEndian, s.IntermediateBufSize); err != nil {
			return err
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Read parses the cached-network format from r. Any read error, short read, or
// trailing garbage after the last entry is reported as (nil, false) plus a Warn
// log line, never as a panic — never partial state.
func Read(r io.Reader) ([]Subgraph, bool) {
	data, err := io.ReadAll(r)
	if err != nil {
		logrus.WithError(err).Warn("cache: read failed")
		return nil, false
	}

	br := bytes.NewReader(data)
	var version, numSubgraphs uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		logrus.WithError(err).Warn("cache: missing version header")
		return nil, false
	}
	if version != FormatVersion {
		logrus.Warnf("cache: unsupported format version %d (want %d)", version, FormatVersion)
		return nil, false
	}
	if err := binary.Read(br, binary.LittleEndian, &numSubgraphs); err != nil {
		logrus.WithError(err).Warn("cache: missing subgraph count")
		return nil, false
	}

	sizes := make([]uint32, numSubgraphs)
	for i := range sizes {
		if err := binary.Read(br, binary.LittleEndian, &sizes[i]); err != nil {
			logrus.WithError(err).Warn("cache: truncated size table")
			return nil, false
		}
	}
	indices := make([]uint32, numSubgraphs)
	for i := range indices {
		if err := binary.Read(br, binary.LittleEndian, &indices[i]); err != nil {
			logrus.WithError(err).Warn("cache: truncated index table")
			return nil, false
		}
	}

	subgraphs := make([]Subgraph, numSubgraphs)
	for i := range subgraphs {
		if sizes[i] < 4 {
			logrus.Warnf("cache: subgraph %d declares size %d smaller than the trailing size field", i, sizes[i])
			return nil, false
		}
		blobLen := sizes[i] - 4
		blob := make([]byte, blobLen)
		if _, err := io.ReadFull(br, blob); err != nil {
			logrus.WithError(err).Warn("cache: truncated subgraph blob")
			return nil, false
		}
		var bufSize uint32
		if err := binary.Read(br, binary.LittleEndian, &bufSize); err != nil {
			logrus.WithError(err).Warn("cache: truncated intermediate buffer size")
			return nil, false
		}
		subgraphs[i] = Subgraph{Index: indices[i], CompiledBlob: blob, IntermediateBufSize: bufSize}
	}

	if br.Len() != 0 {
		logrus.Warnf("cache: %d trailing bytes after last subgraph", br.Len())
		return nil, false
	}
	return subgraphs, true
}

// ReadFile opens path and parses it with Read; a missing file is reported the same
// way as any other read failure.
func ReadFile(path string) ([]Subgraph, bool) {
	f, err := os.Open(path)
	if err != nil {
		logrus.WithError(err).Warnf("cache: opening %s", path)
		return nil, false
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes subgraphs to path, truncating any existing file.
func WriteFile(path string, subgraphs []Subgraph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cache: creating %s: %w", path, err)
	}
	defer f.Close()
	return Write(f, subgraphs)
}
