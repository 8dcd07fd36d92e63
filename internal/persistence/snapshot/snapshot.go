package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"storefront.ai/internal/sim/engine"
)

// Header is the plain-JSON first line of a snapshot file, readable without
// decompressing the gob body.
type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Day     int    `json:"day"`
}

// File wraps the engine state with its header for gob encoding.
type File struct {
	Header Header
	State  *engine.Snapshot
}

// Write stores a snapshot as zstd-compressed gob with a JSON header line.
func Write(path, runID string, state *engine.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hdr := Header{Version: state.Version, RunID: runID, Day: state.Day}
	hb, _ := json.Marshal(hdr)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&File{Header: hdr, State: state}); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// Read loads a snapshot file. Invariant checks happen at import time, not
// here; Read only fails on IO or encoding problems.
func Read(path string) (*engine.Snapshot, Header, error) {
	var file File
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, Header{}, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; the gob body repeats it.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&file); err != nil {
		return nil, Header{}, fmt.Errorf("gob decode: %w", err)
	}
	return file.State, file.Header, nil
}
