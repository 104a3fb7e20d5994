package bbolt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fxamacker/cbor"
	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"go.etcd.io/bbolt"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/style"
)

// Import replaces the stored features with fs, keyed by their position
func (s *Storage) Import(fs *vectormap.FeatureSet, fileName, version string) error {
	logger := log.With(s.logger, "component", "importer")

	err := s.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(featureBucket); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(featureBucket)
		if err != nil {
			return err
		}

		for i := range fs.Nodes {
			if err := put(b, vectormap.NodeKey(uint32(i)), &fs.Nodes[i]); err != nil {
				return fmt.Errorf("can't store node %d: %w", fs.Nodes[i].ID, err)
			}
		}
		for i := range fs.Ways {
			if err := put(b, vectormap.WayKey(uint32(i)), &fs.Ways[i]); err != nil {
				return fmt.Errorf("can't store way %d: %w", fs.Ways[i].ID, err)
			}
		}
		for i := range fs.Tracks {
			if err := put(b, vectormap.TrackKey(uint32(i)), &fs.Tracks[i]); err != nil {
				return fmt.Errorf("can't store track %q: %w", fs.Tracks[i].Name, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed store features into DB: %w", err)
	}

	level.Debug(logger).Log(
		"msg", "stored features",
		"node_count", len(fs.Nodes),
		"way_count", len(fs.Ways),
		"track_count", len(fs.Tracks),
	)

	return s.writeInfos(&vectormap.IndexInfos{
		Filename:       fileName,
		IndexTime:      time.Now(),
		IndexerVersion: version,
		NodeCount:      uint32(len(fs.Nodes)),
		WayCount:       uint32(len(fs.Ways)),
		TrackCount:     uint32(len(fs.Tracks)),
	})
}

// StoreStyleSet stores set under its name, replacing any previous version
func (s *Storage) StoreStyleSet(set *style.Set) error {
	if set.Name == "" {
		return fmt.Errorf("can't store a style set without name")
	}

	err := s.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(styleBucket), vectormap.StyleKey(set.Name), set)
	})
	if err != nil {
		return fmt.Errorf("failed store style %s into DB: %w", set.Name, err)
	}

	return nil
}

// StoreMapInfos stores the map infos
func (s *Storage) StoreMapInfos(infos *vectormap.MapInfos) error {
	err := s.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(mapBucket), vectormap.MapKey(), infos)
	})
	if err != nil {
		return fmt.Errorf("failed writing MapInfos to DB: %w", err)
	}

	return nil
}

func (s *Storage) writeInfos(infos *vectormap.IndexInfos) error {
	err := s.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(infoBucket), vectormap.InfoKey(), infos)
	})
	if err != nil {
		return fmt.Errorf("failed encoding IndexInfos: %w", err)
	}

	return nil
}

func put(b *bbolt.Bucket, key []byte, v interface{}) error {
	buf := new(bytes.Buffer)
	enc := cbor.NewEncoder(buf, cbor.CanonicalEncOptions())
	if err := enc.Encode(v); err != nil {
		return err
	}

	return b.Put(key, buf.Bytes())
}
