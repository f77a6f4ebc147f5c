package journal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Frame is one decoded entry of the binary frame stream.
type Frame struct {
	Tick         uint64
	SimulatedMs  int64
	CapturedAtNs int64
	Payload      []byte
}

// LoadManifest reads the bundle manifest from a run directory.
func LoadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return Manifest{}, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return manifest, nil
}

// LoadEvents decodes the full compressed event log of a run directory.
func LoadEvents(dir string) ([]EventRecord, error) {
	file, err := os.Open(filepath.Join(dir, "events.jsonl.sz"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []EventRecord
	scanner := bufio.NewScanner(snappy.NewReader(file))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record EventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parse event line %d: %w", len(records)+1, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// LoadFrames decodes the full compressed frame stream of a run directory.
func LoadFrames(dir string) ([]Frame, error) {
	file, err := os.Open(filepath.Join(dir, "frames.bin.zst"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	var frames []Frame
	header := make([]byte, 8+8+8+4)
	for {
		//1.- Each frame starts with a fixed header carrying its payload length.
		if _, err := io.ReadFull(decoder, header); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return nil, fmt.Errorf("frame %d header: %w", len(frames)+1, err)
		}
		frame := Frame{
			Tick:         binary.LittleEndian.Uint64(header[0:8]),
			SimulatedMs:  int64(binary.LittleEndian.Uint64(header[8:16])),
			CapturedAtNs: int64(binary.LittleEndian.Uint64(header[16:24])),
		}
		size := binary.LittleEndian.Uint32(header[24:28])
		frame.Payload = make([]byte, size)
		if _, err := io.ReadFull(decoder, frame.Payload); err != nil {
			return nil, fmt.Errorf("frame %d payload: %w", len(frames)+1, err)
		}
		frames = append(frames, frame)
	}
}
