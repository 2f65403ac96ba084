package mask

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"implantprofile/internal/models"
)

// ErrCorruptMask is returned when a mask container cannot be read or lacks
// one of its datasets.
var ErrCorruptMask = errors.New("corrupt mask file")

// magic identifies a mask container, version 1
var magic = []byte{'I', 'P', 'M', 'A', 'S', 'K', 0x00, 0x01}

// Save writes both rasters to a single zstd-compressed container at path.
// Identical masks always produce identical bytes; an existing file is
// replaced atomically.
func Save(path string, m *Mask) error {
	if m == nil || m.Landmark == nil || m.Exclusions == nil {
		return errors.New("mask is incomplete")
	}
	if !m.Landmark.SameSize(m.Exclusions.Width, m.Exclusions.Height) {
		return fmt.Errorf("hole %dx%d and exclusions %dx%d differ in size",
			m.Landmark.Width, m.Landmark.Height, m.Exclusions.Width, m.Exclusions.Height)
	}

	data, err := Encode(m)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating mask directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".mask-*")
	if err != nil {
		return fmt.Errorf("error creating temporary mask file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing mask file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing mask file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing mask file: %w", err)
	}

	return nil
}

// Encode serializes the mask into container bytes
func Encode(m *Mask) ([]byte, error) {
	var payload bytes.Buffer
	binary.Write(&payload, binary.LittleEndian, uint32(2))
	writeDataset(&payload, HoleDataset, m.Landmark)
	writeDataset(&payload, ExclusionsDataset, m.Exclusions)

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("error creating compressor: %w", err)
	}
	defer enc.Close()

	out := make([]byte, 0, len(magic)+payload.Len()/4)
	out = append(out, magic...)
	return enc.EncodeAll(payload.Bytes(), out), nil
}

// Load reads a container written by Save. Any defect is reported as
// ErrCorruptMask.
func Load(path string) (*Mask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMask, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// Decode parses container bytes
func Decode(data []byte) (*Mask, error) {
	if len(data) < len(magic) || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: not a mask container", ErrCorruptMask)
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("error creating decompressor: %w", err)
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(data[len(magic):], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMask, err)
	}

	r := bytes.NewReader(payload)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: missing dataset count", ErrCorruptMask)
	}

	datasets := make(map[string]*models.BoolGrid)
	for i := uint32(0); i < count; i++ {
		name, grid, err := readDataset(r)
		if err != nil {
			return nil, fmt.Errorf("%w: dataset %d: %v", ErrCorruptMask, i, err)
		}
		datasets[name] = grid
	}

	hole, ok := datasets[HoleDataset]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q dataset", ErrCorruptMask, HoleDataset)
	}
	excl, ok := datasets[ExclusionsDataset]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q dataset", ErrCorruptMask, ExclusionsDataset)
	}
	if !hole.SameSize(excl.Width, excl.Height) {
		return nil, fmt.Errorf("%w: hole %dx%d and exclusions %dx%d differ in size",
			ErrCorruptMask, hole.Width, hole.Height, excl.Width, excl.Height)
	}

	return &Mask{Landmark: hole, Exclusions: excl}, nil
}

// writeDataset appends name, shape and bit-packed pixels. Writes to a
// bytes.Buffer cannot fail.
func writeDataset(w *bytes.Buffer, name string, g *models.BoolGrid) {
	binary.Write(w, binary.LittleEndian, uint16(len(name)))
	w.WriteString(name)
	binary.Write(w, binary.LittleEndian, uint32(g.Height))
	binary.Write(w, binary.LittleEndian, uint32(g.Width))

	packed := make([]byte, (len(g.Data)+7)/8)
	for i, v := range g.Data {
		if v {
			packed[i/8] |= 1 << (i % 8)
		}
	}
	w.Write(packed)
}

func readDataset(r *bytes.Reader) (string, *models.BoolGrid, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return "", nil, err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return "", nil, err
	}

	var height, width uint32
	if err := binary.Read(r, binary.LittleEndian, &height); err != nil {
		return "", nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &width); err != nil {
		return "", nil, err
	}

	n := uint64(height) * uint64(width)
	size := (n + 7) / 8
	if size > uint64(r.Len()) {
		return "", nil, fmt.Errorf("%q: truncated pixel data", name)
	}

	packed := make([]byte, size)
	if _, err := io.ReadFull(r, packed); err != nil {
		return "", nil, err
	}

	grid := models.NewBoolGrid(int(width), int(height))
	for i := range grid.Data {
		grid.Data[i] = packed[i/8]&(1<<(i%8)) != 0
	}
	return string(name), grid, nil
}
