package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/facekit/facekit/blobstore"
	"github.com/facekit/facekit/internal/block"
	"github.com/facekit/facekit/model"
)

var archiveMagic = [6]byte{'F', 'K', 'R', 'U', 'N', '1'}

const archiveHeaderSize = 7 // magic + compression

// ErrBadArchiveBlob is returned when a blob is not an archived run.
var ErrBadArchiveBlob = errors.New("not an archived recognition run")

// ArchiveOptions configures the archive sink.
type ArchiveOptions struct {
	// Prefix namespaces archived runs inside the store. Defaults to
	// "runs/".
	Prefix string

	// Compression is the block compression algorithm. Defaults to zstd.
	Compression block.Compression
}

// Archive persists each run as one compressed, checksummed blob, named
// by timestamp and run id so a listing sorts chronologically.
type Archive struct {
	store       blobstore.Store
	prefix      string
	compression block.Compression
}

// NewArchive creates an archive sink on top of store.
func NewArchive(store blobstore.Store, optFns ...func(o *ArchiveOptions)) (*Archive, error) {
	opts := ArchiveOptions{
		Prefix:      "runs/",
		Compression: block.CompressionZSTD,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if !opts.Compression.Valid() {
		return nil, fmt.Errorf("unknown compression algorithm: %d", opts.Compression)
	}

	return &Archive{
		store:       store,
		prefix:      opts.Prefix,
		compression: opts.Compression,
	}, nil
}

func (a *Archive) name(run *model.RecognitionRun) string {
	return fmt.Sprintf("%s%s-%s.fkr", a.prefix, run.Timestamp.UTC().Format("20060102T150405.000000000Z"), run.ID)
}

// Append writes the run to the store.
func (a *Archive) Append(ctx context.Context, run *model.RecognitionRun) error {
	raw, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	framed, err := block.Compress(raw, a.compression)
	if err != nil {
		return fmt.Errorf("compress run: %w", err)
	}

	buf := make([]byte, archiveHeaderSize+len(framed)+4)
	copy(buf, archiveMagic[:])
	buf[6] = byte(a.compression)
	copy(buf[archiveHeaderSize:], framed)
	binary.LittleEndian.PutUint32(buf[archiveHeaderSize+len(framed):], crc32.ChecksumIEEE(framed))

	return a.store.Put(ctx, a.name(run), buf)
}

// List returns the names of archived runs in chronological order.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	return a.store.List(ctx, a.prefix)
}

// Load reads one archived run by name.
func (a *Archive) Load(ctx context.Context, name string) (*model.RecognitionRun, error) {
	buf, err := a.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	if len(buf) < archiveHeaderSize+4 || [6]byte(buf[:6]) != archiveMagic {
		return nil, ErrBadArchiveBlob
	}

	compression := block.Compression(buf[6])
	if !compression.Valid() {
		return nil, ErrBadArchiveBlob
	}

	framed := buf[archiveHeaderSize : len(buf)-4]

	sum := binary.LittleEndian.Uint32(buf[len(buf)-4:])
	if crc32.ChecksumIEEE(framed) != sum {
		return nil, fmt.Errorf("archived run %q failed checksum verification", name)
	}

	raw, err := block.Decompress(framed, compression)
	if err != nil {
		return nil, fmt.Errorf("decompress run: %w", err)
	}

	var run model.RecognitionRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}

	return &run, nil
}
