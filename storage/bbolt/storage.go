package bbolt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor"
	log "github.com/go-kit/kit/log"
	"go.etcd.io/bbolt"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/style"
)

// OperationStorageError the database does not hold the requested entry
type OperationStorageError string

func (e OperationStorageError) Error() string {
	return string(e)
}

var (
	featureBucket = []byte("feature")
	styleBucket   = []byte{vectormap.StylePrefix()}
	infoBucket    = vectormap.InfoKey()
	mapBucket     = vectormap.MapKey()

	nodePool = sync.Pool{
		New: func() interface{} {
			return &vectormap.Node{}
		},
	}
)

// Storage cold storage
type Storage struct {
	*bbolt.DB
	logger log.Logger
}

var _ vectormap.Store = (*Storage)(nil)

// NewStorage returns a cold storage using bboltdb
func NewStorage(path string, logger log.Logger) (*Storage, func() error, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("can't open database %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{featureBucket, styleBucket, infoBucket, mapBucket, tileBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("can't create bucket into DB: %w", err)
	}

	return &Storage{
		DB:     db,
		logger: log.With(logger, "component", "storage"),
	}, db.Close, nil
}

// NewROStorage returns a read only storage using bboltdb
func NewROStorage(path string, logger log.Logger) (*Storage, func() error, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open DB for reading at %s: %w", path, err)
	}

	return &Storage{
		DB:     db,
		logger: log.With(logger, "component", "storage"),
	}, db.Close, nil
}

// LoadFeatureSet reads back every node, way and track in import order
func (s *Storage) LoadFeatureSet() (*vectormap.FeatureSet, error) {
	fs := vectormap.NewFeatureSet()

	err := s.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(featureBucket)
		if b == nil {
			return OperationStorageError("can't find feature bucket, invalid DB")
		}
		c := b.Cursor()

		prefix := []byte{vectormap.NodePrefix()}
		for key, value := c.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, value = c.Next() {
			n := nodePool.Get().(*vectormap.Node)
			*n = vectormap.Node{}
			if err := cbor.NewDecoder(bytes.NewReader(value)).Decode(n); err != nil {
				nodePool.Put(n)
				return fmt.Errorf("can't decode node %d: %w", binary.BigEndian.Uint32(key[1:]), err)
			}
			fs.AddNode(*n)
			nodePool.Put(n)
		}

		prefix = []byte{vectormap.WayPrefix()}
		for key, value := c.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, value = c.Next() {
			var w vectormap.Way
			if err := cbor.NewDecoder(bytes.NewReader(value)).Decode(&w); err != nil {
				return fmt.Errorf("can't decode way %d: %w", binary.BigEndian.Uint32(key[1:]), err)
			}
			fs.AddWay(w)
		}

		prefix = []byte{vectormap.TrackPrefix()}
		for key, value := c.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, value = c.Next() {
			var t vectormap.Track
			if err := cbor.NewDecoder(bytes.NewReader(value)).Decode(&t); err != nil {
				return fmt.Errorf("can't decode track %d: %w", binary.BigEndian.Uint32(key[1:]), err)
			}
			fs.AddTrack(t)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return fs, nil
}

// LoadStyleSet loads the named style set
func (s *Storage) LoadStyleSet(name string) (*style.Set, error) {
	set := &style.Set{}

	err := s.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(styleBucket)
		if b == nil {
			return OperationStorageError(fmt.Sprintf("style not found: %s", name))
		}
		v := b.Get(vectormap.StyleKey(name))
		if v == nil {
			return OperationStorageError(fmt.Sprintf("style not found: %s", name))
		}

		return cbor.NewDecoder(bytes.NewReader(v)).Decode(set)
	})
	if err != nil {
		return nil, err
	}

	return set, nil
}

// StyleSetNames lists the stored style sets, sorted
func (s *Storage) StyleSetNames() ([]string, error) {
	var names []string

	err := s.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(styleBucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefix := []byte{vectormap.StylePrefix()}
		for key, _ := c.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, _ = c.Next() {
			names = append(names, string(key[1:]))
		}
		return nil
	})

	return names, err
}

// LoadMapInfos loads map infos from the DB if any
func (s *Storage) LoadMapInfos() (*vectormap.MapInfos, bool, error) {
	var mapInfos *vectormap.MapInfos
	err := s.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(mapBucket)
		if b == nil {
			return nil
		}
		value := b.Get(vectormap.MapKey())
		if value == nil {
			return nil
		}
		mapInfos = &vectormap.MapInfos{}
		dec := cbor.NewDecoder(bytes.NewReader(value))
		return dec.Decode(mapInfos)
	})
	if err != nil {
		return nil, false, err
	}

	if mapInfos == nil {
		return nil, false, nil
	}

	return mapInfos, true, nil
}

// LoadIndexInfos loads index infos from the DB
func (s *Storage) LoadIndexInfos() (*vectormap.IndexInfos, error) {
	infos := &vectormap.IndexInfos{}

	err := s.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(infoBucket)
		if b == nil {
			return OperationStorageError("can't find infos entries, invalid DB")
		}
		value := b.Get(vectormap.InfoKey())
		if value == nil {
			return OperationStorageError("can't find infos entries, invalid DB")
		}
		dec := cbor.NewDecoder(bytes.NewReader(value))

		return dec.Decode(infos)
	})

	return infos, err
}
