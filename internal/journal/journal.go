package journal

import (
	"encoding/binary"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"
)

var u32 = binary.BigEndian.Uint32
var u64 = binary.BigEndian.Uint64

func i64ToB(value int64) []byte {
	oct := make([]byte, 8)
	binary.BigEndian.PutUint64(oct, uint64(value))
	return oct
}
func u32ToB(value uint32) []byte {
	nib := make([]byte, 4)
	binary.BigEndian.PutUint32(nib, value)
	return nib
}

var ErrStreamNotFound = errors.New("stream not found in journal")

// StreamInfo is the accounting record of one stream id. Directions are rx
// and tx from the perspective of the process writing the journal.
type StreamInfo struct {
	StreamID uint32 `json:"streamID"`
	FramesRx int64  `json:"framesRx"`
	FramesTx int64  `json:"framesTx"`
	BytesRx  int64  `json:"bytesRx"`
	BytesTx  int64  `json:"bytesTx"`
	// unix seconds
	FirstSeen int64 `json:"firstSeen"`
	LastSeen  int64 `json:"lastSeen"`
}

// Journal persists per-stream traffic counters. Each stream id gets its
// own bucket keyed by the big-endian id; counter fields are fixed-width
// big-endian values so they can be read back without a schema.
type Journal struct {
	db *bolt.DB

	// swappable for tests
	now func() time.Time
}

func MakeJournal(dbPath string) (*Journal, error) {
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, err
	}
	ret := &Journal{
		db:  db,
		now: time.Now,
	}
	return ret, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// RecordRx adds one received frame of the given wire size to sid's record.
func (j *Journal) RecordRx(sid uint32, wireBytes int64) error {
	return j.record(sid, wireBytes, 0)
}

// RecordTx adds one sent frame of the given wire size to sid's record.
func (j *Journal) RecordTx(sid uint32, wireBytes int64) error {
	return j.record(sid, 0, wireBytes)
}

func (j *Journal) record(sid uint32, rxBytes, txBytes int64) error {
	nowUnix := j.now().Unix()
	return j.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(u32ToB(sid))
		if err != nil {
			return err
		}
		if bucket.Get([]byte("FirstSeen")) == nil {
			if err = bucket.Put([]byte("FirstSeen"), i64ToB(nowUnix)); err != nil {
				return err
			}
		}
		if err = bucket.Put([]byte("LastSeen"), i64ToB(nowUnix)); err != nil {
			return err
		}

		bump := func(key string, by int64) error {
			var current int64
			if existing := bucket.Get([]byte(key)); existing != nil {
				current = int64(u64(existing))
			}
			return bucket.Put([]byte(key), i64ToB(current+by))
		}
		if rxBytes > 0 {
			if err = bump("FramesRx", 1); err != nil {
				return err
			}
			if err = bump("BytesRx", rxBytes); err != nil {
				return err
			}
		}
		if txBytes > 0 {
			if err = bump("FramesTx", 1); err != nil {
				return err
			}
			if err = bump("BytesTx", txBytes); err != nil {
				return err
			}
		}
		return nil
	})
}

func infoFromBucket(sid uint32, bucket *bolt.Bucket) StreamInfo {
	get := func(key string) int64 {
		if v := bucket.Get([]byte(key)); v != nil {
			return int64(u64(v))
		}
		return 0
	}
	return StreamInfo{
		StreamID:  sid,
		FramesRx:  get("FramesRx"),
		FramesTx:  get("FramesTx"),
		BytesRx:   get("BytesRx"),
		BytesTx:   get("BytesTx"),
		FirstSeen: get("FirstSeen"),
		LastSeen:  get("LastSeen"),
	}
}

func (j *Journal) GetStreamInfo(sid uint32) (StreamInfo, error) {
	var info StreamInfo
	err := j.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(u32ToB(sid))
		if bucket == nil {
			return ErrStreamNotFound
		}
		info = infoFromBucket(sid, bucket)
		return nil
	})
	return info, err
}

func (j *Journal) ListAllStreams() ([]StreamInfo, error) {
	var infos []StreamInfo
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, bucket *bolt.Bucket) error {
			infos = append(infos, infoFromBucket(u32(name), bucket))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

func (j *Journal) DeleteStream(sid uint32) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(u32ToB(sid)) == nil {
			return ErrStreamNotFound
		}
		return tx.DeleteBucket(u32ToB(sid))
	})
}
