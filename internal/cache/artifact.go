// Package cache stores assembled programs on disk.
//
// The same msgpack payload is used for the per-project artifact cache and
// for the .kbc files written by the build command.
package cache

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"kestrel/internal/bytecode"
	"kestrel/internal/project"
)

// SchemaVersion is bumped whenever Artifact changes shape.
const SchemaVersion uint16 = 1

// ErrSchemaMismatch is returned by ReadArtifact for payloads written by
// another schema version.
var ErrSchemaMismatch = errors.New("artifact schema mismatch")

// Artifact is one compiled source file.
type Artifact struct {
	Schema uint16

	// BuildID identifies the compilation that produced the artifact.
	BuildID string
	Source  string
	Created int64 // unix nanoseconds

	SourceHash  project.Digest
	OptionsHash project.Digest

	Code      []byte
	Funcs     map[string]uint32
	Globals   []string
	MaxLocals int
	HasEntry  bool
}

// NewArtifact wraps p with a fresh build ID.
func NewArtifact(src string, p *bytecode.Program, sourceHash, optionsHash project.Digest) *Artifact {
	return &Artifact{
		Schema:      SchemaVersion,
		BuildID:     uuid.NewString(),
		Source:      src,
		Created:     time.Now().UnixNano(),
		SourceHash:  sourceHash,
		OptionsHash: optionsHash,
		Code:        p.Code,
		Funcs:       p.Funcs,
		Globals:     p.Globals,
		MaxLocals:   p.MaxLocals,
		HasEntry:    p.HasEntry,
	}
}

// Key is the cache key of the artifact.
func (a *Artifact) Key() project.Digest {
	return project.Combine(a.SourceHash, a.OptionsHash)
}

// Program rebuilds the assembled program.
func (a *Artifact) Program() *bytecode.Program {
	funcs := a.Funcs
	if funcs == nil {
		funcs = map[string]uint32{}
	}
	return &bytecode.Program{
		Code:      a.Code,
		Funcs:     funcs,
		Globals:   a.Globals,
		MaxLocals: a.MaxLocals,
		HasEntry:  a.HasEntry,
	}
}

// WriteArtifact encodes a to w.
func WriteArtifact(w io.Writer, a *Artifact) error {
	return msgpack.NewEncoder(w).Encode(a)
}

// ReadArtifact decodes one artifact from r.
func ReadArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, a.Schema, SchemaVersion)
	}
	if _, err := uuid.Parse(a.BuildID); err != nil {
		return nil, fmt.Errorf("decode artifact: bad build id: %w", err)
	}
	return &a, nil
}
