// Package snapshot persists gallery snapshots to a blobstore, so a
// restarted process can republish its enrolled entries without
// re-embedding every face.
//
// Blob layout: a fixed header (magic, format version, compression
// algorithm), one compressed block holding the JSON-encoded entries, and
// a CRC32 of the block. Corruption is detected before decoding.
package snapshot

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/facekit/facekit/blobstore"
	"github.com/facekit/facekit/descriptor"
	"github.com/facekit/facekit/gallery"
	"github.com/facekit/facekit/internal/block"
)

var magic = [6]byte{'F', 'K', 'S', 'N', 'A', 'P'}

const formatVersion = 1

const headerSize = 8 // magic + format version + compression

var (
	// ErrBadMagic is returned when a blob is not a gallery snapshot.
	ErrBadMagic = errors.New("not a gallery snapshot")

	// ErrChecksum is returned when a snapshot fails checksum
	// verification.
	ErrChecksum = errors.New("snapshot checksum mismatch")
)

// Options configures snapshot encoding.
type Options struct {
	// Compression is the block compression algorithm. Defaults to zstd.
	Compression block.Compression
}

// Result is a decoded snapshot, ready to be republished on a handle.
type Result struct {
	Kind    descriptor.Kind
	Version uint64
	Entries []gallery.Entry
}

type payload struct {
	Kind    string         `json:"kind"`
	Version uint64         `json:"version"`
	Entries []payloadEntry `json:"entries"`
}

type payloadEntry struct {
	ID         string        `json:"id"`
	Label      string        `json:"label"`
	Values     []float32     `json:"values"`
	Attributes []payloadAttr `json:"attributes,omitempty"`
}

type payloadAttr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Save writes g to the store under name.
func Save(ctx context.Context, store blobstore.Store, name string, g *gallery.Gallery, optFns ...func(o *Options)) error {
	opts := Options{Compression: block.CompressionZSTD}

	for _, fn := range optFns {
		fn(&opts)
	}

	if !opts.Compression.Valid() {
		return fmt.Errorf("unknown compression algorithm: %d", opts.Compression)
	}

	p := payload{
		Kind:    g.Kind().String(),
		Version: g.Version(),
		Entries: make([]payloadEntry, 0, g.Len()),
	}

	for _, e := range g.Entries() {
		pe := payloadEntry{
			ID:     e.ID,
			Label:  e.Label,
			Values: e.Descriptor.Values,
		}

		for _, a := range e.Attributes {
			pe.Attributes = append(pe.Attributes, payloadAttr(a))
		}

		p.Entries = append(p.Entries, pe)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	framed, err := block.Compress(raw, opts.Compression)
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	buf := make([]byte, headerSize+len(framed)+4)
	copy(buf, magic[:])
	buf[6] = formatVersion
	buf[7] = byte(opts.Compression)
	copy(buf[headerSize:], framed)
	binary.LittleEndian.PutUint32(buf[headerSize+len(framed):], crc32.ChecksumIEEE(framed))

	return store.Put(ctx, name, buf)
}

// Load reads and verifies the snapshot stored under name.
func Load(ctx context.Context, store blobstore.Store, name string) (*Result, error) {
	buf, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	if len(buf) < headerSize+4 || [6]byte(buf[:6]) != magic {
		return nil, ErrBadMagic
	}

	if buf[6] != formatVersion {
		return nil, fmt.Errorf("unsupported snapshot format version %d", buf[6])
	}

	compression := block.Compression(buf[7])
	if !compression.Valid() {
		return nil, fmt.Errorf("unknown compression algorithm: %d", buf[7])
	}

	framed := buf[headerSize : len(buf)-4]

	sum := binary.LittleEndian.Uint32(buf[len(buf)-4:])
	if crc32.ChecksumIEEE(framed) != sum {
		return nil, ErrChecksum
	}

	raw, err := block.Decompress(framed, compression)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	kind, err := parseKind(p.Kind)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Kind:    kind,
		Version: p.Version,
		Entries: make([]gallery.Entry, 0, len(p.Entries)),
	}

	for _, pe := range p.Entries {
		e := gallery.Entry{
			ID:         pe.ID,
			Label:      pe.Label,
			Descriptor: descriptor.New(kind, pe.Values),
		}

		for _, a := range pe.Attributes {
			e.Attributes = append(e.Attributes, gallery.Attribute(a))
		}

		res.Entries = append(res.Entries, e)
	}

	return res, nil
}

func parseKind(s string) (descriptor.Kind, error) {
	switch s {
	case descriptor.KindEmbedding.String():
		return descriptor.KindEmbedding, nil
	case descriptor.KindHistogram.String():
		return descriptor.KindHistogram, nil
	default:
		return 0, fmt.Errorf("unknown descriptor kind: %q", s)
	}
}
