// Package stream packages the four scheduled command queues into the binary
// command-stream format the firmware loads directly, and parses one back. The
// envelope is grounded byte-for-byte on CommandStream.hpp's CommandStreamParser and
// CommandStream struct (command_stream/include/ethosn_command_stream): a 16-byte
// version header (fourcc + 3 version words) followed by a header of offset/count
// pairs, then the agent array and four command arrays (SPEC_FULL.md §4.7). The
// payload sections themselves are gob-encoded — see wire.go for why.
package stream

import (
	"bytes"
	"encoding/binary"

	"github.com/npucs/npucs/model"
)

// VersionMajor, VersionMinor and VersionPatch are the command-stream format's
// compile-time version triple. A parsed stream whose header doesn't match exactly
// is rejected: Parse reports IsValid()==false and keeps the parsed-but-rejected
// version triple available via Version().
const (
	VersionMajor uint32 = 1
	VersionMinor uint32 = 0
	VersionPatch uint32 = 0
)

// fourcc is 'E','N','C','S' packed little-endian, matching the firmware's
// expectedFourcc computation in CommandStreamParser.
const fourcc uint32 = uint32('E') | uint32('N')<<8 | uint32('C')<<16 | uint32('S')<<24

// CommandStream is the in-memory, already-scheduled form of a compiled command
// stream: the agent array plus the four per-queue command lists.
type CommandStream struct {
	Agents []model.Agent
	DmaRd  []model.CommandVariant
	DmaWr  []model.CommandVariant
	Mce    []model.CommandVariant
	Ple    []model.CommandVariant
}

// header mirrors the CommandStream struct's offset/count table, laid out
// immediately after the 16-byte version header. Offsets point at the start of each
// section's gob blob; counts are the element counts within that blob.
type header struct {
	TotalSize uint32

	AgentsOffset uint32
	NumAgents    uint32

	DmaRdCommandsOffset uint32
	NumDmaRdCommands    uint32

	DmaWrCommandsOffset uint32
	NumDmaWrCommands    uint32

	MceCommandsOffset uint32
	NumMceCommands    uint32

	PleCommandsOffset uint32
	NumPleCommands    uint32
}

const headerFieldCount = 11
const headerSize = 4 * headerFieldCount

// Package serialises cs into the firmware's binary command-stream format: a
// fourcc+version envelope, an offset/count header, and five length-delimited
// sections (agents, then the four command queues in DmaRd/DmaWr/Mce/Ple order).
func Package(cs CommandStream) []byte {
	agentsBlob := encodeAgents(cs.Agents)
	dmaRdBlob := encodeCommands(cs.DmaRd)
	dmaWrBlob := encodeCommands(cs.DmaWr)
	mceBlob := encodeCommands(cs.Mce)
	pleBlob := encodeCommands(cs.Ple)

	agentsOffset := uint32(headerSize)
	dmaRdOffset := agentsOffset + uint32(len(agentsBlob))
	dmaWrOffset := dmaRdOffset + uint32(len(dmaRdBlob))
	mceOffset := dmaWrOffset + uint32(len(dmaWrBlob))
	pleOffset := mceOffset + uint32(len(mceBlob))
	totalSize := pleOffset + uint32(len(pleBlob))

	h := header{
		TotalSize:           totalSize,
		AgentsOffset:        agentsOffset,
		NumAgents:           uint32(len(cs.Agents)),
		DmaRdCommandsOffset: dmaRdOffset,
		NumDmaRdCommands:    uint32(len(cs.DmaRd)),
		DmaWrCommandsOffset: dmaWrOffset,
		NumDmaWrCommands:    uint32(len(cs.DmaWr)),
		MceCommandsOffset:   mceOffset,
		NumMceCommands:      uint32(len(cs.Mce)),
		PleCommandsOffset:   pleOffset,
		NumPleCommands:      uint32(len(cs.Ple)),
	}

	var body bytes.Buffer
	writeHeader(&body, h)
	body.Write(agentsBlob)
	body.Write(dmaRdBlob)
	body.Write(dmaWrBlob)
	body.Write(mceBlob)
	body.Write(pleBlob)

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, fourcc)
	binary.Write(&out, binary.LittleEndian, VersionMajor)
	binary.Write(&out, binary.LittleEndian, VersionMinor)
	binary.Write(&out, binary.LittleEndian, VersionPatch)
	out.Write(body.Bytes())
	return out.Bytes()
}

// Parser wraps a parsed or rejected command stream, mirroring
// CommandStreamParser's behaviour of reporting IsValid()==false rather than
// erroring when the fourcc or version doesn't match.
type Parser struct {
	valid               bool
	major, minor, patch uint32
	data                CommandStream
}

// Parse reads raw as a command-stream buffer. A too-short buffer, a wrong fourcc, a
// version mismatch, or a malformed section all result in IsValid()==false; the
// parsed (and rejected) version triple is still available via Version().
func Parse(raw []byte) Parser {
	if len(raw) < 16 {
		return Parser{}
	}
	r := bytes.NewReader(raw)
	var gotFourcc, major, minor, patch uint32
	binary.Read(r, binary.LittleEndian, &gotFourcc)
	binary.Read(r, binary.LittleEndian, &major)
	binary.Read(r, binary.LittleEndian, &minor)
	binary.Read(r, binary.LittleEndian, &patch)

	if gotFourcc != fourcc {
		return Parser{major: major, minor: minor, patch: patch}
	}
	if major != VersionMajor || minor != VersionMinor || patch != VersionPatch {
		return Parser{major: major, minor: minor, patch: patch}
	}

	body := raw[16:]
	if len(body) < headerSize {
		return Parser{major: major, minor: minor, patch: patch}
	}
	h := readHeader(body)

	agentsEnd := h.DmaRdCommandsOffset
	dmaRdEnd := h.DmaWrCommandsOffset
	dmaWrEnd := h.MceCommandsOffset
	mceEnd := h.PleCommandsOffset
	pleEnd := h.TotalSize

	offsets := []uint32{h.AgentsOffset, agentsEnd, dmaRdEnd, dmaWrEnd, mceEnd, pleEnd}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] || int(offsets[i]) > len(raw)-16 {
			return Parser{major: major, minor: minor, patch: patch}
		}
	}

	agents, err := decodeAgents(body[h.AgentsOffset:agentsEnd])
	if err != nil {
		return Parser{major: major, minor: minor, patch: patch}
	}
	dmaRd, err := decodeCommands(body[h.DmaRdCommandsOffset:dmaRdEnd])
	if err != nil {
		return Parser{major: major, minor: minor, patch: patch}
	}
	dmaWr, err := decodeCommands(body[h.DmaWrCommandsOffset:dmaWrEnd])
	if err != nil {
		return Parser{major: major, minor: minor, patch: patch}
	}
	mce, err := decodeCommands(body[h.MceCommandsOffset:mceEnd])
	if err != nil {
		return Parser{major: major, minor: minor, patch: patch}
	}
	ple, err := decodeCommands(body[h.PleCommandsOffset:pleEnd])
	if err != nil {
		return Parser{major: major, minor: minor, patch: patch}
	}

	cs := CommandStream{Agents: agents, DmaRd: dmaRd, DmaWr: dmaWr, Mce: mce, Ple: ple}
	return Parser{valid: true, major: major, minor: minor, patch: patch, data: cs}
}

// IsValid reports whether the parsed stream's fourcc and version matched exactly
// and every section decoded cleanly.
func (p Parser) IsValid() bool { return p.valid }

// Version returns the version triple found in the header, even when IsValid() is
// false (so a caller can report what it actually found).
func (p Parser) Version() (major, minor, patch uint32) { return p.major, p.minor, p.patch }

// Data returns the parsed command stream. Only meaningful when IsValid() is true.
func (p Parser) Data() CommandStream { return p.data }

func writeHeader(w *bytes.Buffer, h header) {
	for _, v := range []uint32{
		h.TotalSize,
		h.AgentsOffset, h.NumAgents,
		h.DmaRdCommandsOffset, h.NumDmaRdCommands,
		h.DmaWrCommandsOffset, h.NumDmaWrCommands,
		h.MceCommandsOffset, h.NumMceCommands,
		h.PleCommandsOffset, h.NumPleCommands,
	} {
		binary.Write(w, binary.LittleEndian, v)
	}
}

func readHeader(body []byte) header {
	r := bytes.NewReader(body)
	var h header
	fields := []*uint32{
		&h.TotalSize,
		&h.AgentsOffset, &h.NumAgents,
		&h.DmaRdCommandsOffset, &h.NumDmaRdCommands,
		&h.DmaWrCommandsOffset, &h.NumDmaWrCommands,
		&h.MceCommandsOffset, &h.NumMceCommands,
		&h.PleCommandsOffset, &h.NumPleCommands,
	}
	for _, f := range fields {
		binary.Read(r, binary.LittleEndian, f)
	}
	return h
}
