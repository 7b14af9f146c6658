package kv

import (
	"errors"
	"fmt"
	"runtime"

	"lintang/floodnav/pkg/concurrent"
	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"

	"github.com/cockroachdb/pebble"
	"github.com/kelindar/binary"
)

const (
	snapshotMetaKey     = "snapshot/meta"
	snapshotChunkPrefix = "snapshot/chunk/"
	// snapshotChunkEnd upper bound (exclusive) untuk DeleteRange chunk lama, '0' setelah '/'.
	snapshotChunkEnd = "snapshot/chunk0"
	elevationPrefix  = "elevation/"

	segmentsPerChunk = 512
)

// ErrNotFound belum ada snapshot tersimpan.
var ErrNotFound = errors.New("kv: not found")

type KVDB struct {
	db *pebble.DB
}

func NewKVDB(db *pebble.DB) *KVDB {
	return &KVDB{db}
}

func Open(dir string) (*KVDB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", dir, err)
	}
	return NewKVDB(db), nil
}

func chunkKey(i int) []byte {
	return []byte(fmt.Sprintf("%s%08d", snapshotChunkPrefix, i))
}

type encodedChunk struct {
	data []byte
	err  error
}

// SaveSnapshot tulis seluruh snapshot dalam satu pebble batch: chunk lama dihapus, chunk baru + meta ditulis, commit sync.
// Reader yang baca sebelum commit masih melihat snapshot lama secara utuh.
func (k *KVDB) SaveSnapshot(meta SnapshotMeta, segments []datastructure.RoadSegment) error {
	chunks := [][]datastructure.RoadSegment{}
	for start := 0; start < len(segments); start += segmentsPerChunk {
		end := start + segmentsPerChunk
		if end > len(segments) {
			end = len(segments)
		}
		chunks = append(chunks, segments[start:end])
	}

	encoded := concurrent.Run(runtime.GOMAXPROCS(0), chunks, func(_ int, chunk []datastructure.RoadSegment) encodedChunk {
		records := make([]SegmentRecord, len(chunk))
		for i, s := range chunk {
			records[i] = ToSegmentRecord(s)
		}
		data, err := encodeCompressed(records)
		return encodedChunk{data: data, err: err}
	})

	meta.ChunkCount = int64(len(chunks))
	metaVal, err := encodeCompressed(meta)
	if err != nil {
		return fmt.Errorf("encode snapshot meta: %w", err)
	}

	batch := k.db.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange([]byte(snapshotChunkPrefix), []byte(snapshotChunkEnd), nil); err != nil {
		return fmt.Errorf("delete old snapshot chunks: %w", err)
	}
	for i, c := range encoded {
		if c.err != nil {
			return fmt.Errorf("encode snapshot chunk %d: %w", i, c.err)
		}
		if err := batch.Set(chunkKey(i), c.data, nil); err != nil {
			return fmt.Errorf("write snapshot chunk %d: %w", i, err)
		}
	}
	if err := batch.Set([]byte(snapshotMetaKey), metaVal, nil); err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}
	return batch.Commit(pebble.Sync)
}

func (k *KVDB) get(key []byte) ([]byte, error) {
	val, closer, err := k.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// LoadSnapshot baca snapshot terakhir. ErrNotFound kalau belum pernah disimpan.
func (k *KVDB) LoadSnapshot() (SnapshotMeta, []datastructure.RoadSegment, error) {
	var meta SnapshotMeta
	metaVal, err := k.get([]byte(snapshotMetaKey))
	if err != nil {
		return meta, nil, err
	}
	if err := decodeCompressed(metaVal, &meta); err != nil {
		return meta, nil, fmt.Errorf("decode snapshot meta: %w", err)
	}

	segments := make([]datastructure.RoadSegment, 0, meta.TotalRoads)
	for i := 0; i < int(meta.ChunkCount); i++ {
		val, err := k.get(chunkKey(i))
		if err != nil {
			return meta, nil, fmt.Errorf("read snapshot chunk %d: %w", i, err)
		}
		var records []SegmentRecord
		if err := decodeCompressed(val, &records); err != nil {
			return meta, nil, fmt.Errorf("decode snapshot chunk %d: %w", i, err)
		}
		for _, r := range records {
			segments = append(segments, r.ToRoadSegment())
		}
	}
	return meta, segments, nil
}

func elevationKey(c datastructure.Coordinate) []byte {
	q := geo.Quantize(c, geo.NodePrecision)
	return []byte(fmt.Sprintf("%s%.5f,%.5f", elevationPrefix, q.Lat, q.Lon))
}

// GetElevations elevation yang sudah di-cache permanen. Koordinat yang belum ada tidak muncul di map.
func (k *KVDB) GetElevations(coords []datastructure.Coordinate) (map[datastructure.Coordinate]float64, error) {
	out := make(map[datastructure.Coordinate]float64)
	for _, c := range coords {
		val, err := k.get(elevationKey(c))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var elev float64
		if err := binary.Unmarshal(val, &elev); err != nil {
			return nil, fmt.Errorf("decode elevation: %w", err)
		}
		out[c] = elev
	}
	return out, nil
}

func (k *KVDB) SaveElevations(elevations map[datastructure.Coordinate]float64) error {
	batch := k.db.NewBatch()
	defer batch.Close()
	for c, elev := range elevations {
		val, err := binary.Marshal(elev)
		if err != nil {
			return fmt.Errorf("encode elevation: %w", err)
		}
		if err := batch.Set(elevationKey(c), val, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (k *KVDB) Close() error {
	return k.db.Close()
}
