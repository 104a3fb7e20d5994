package bbolt

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"

	"go.etcd.io/bbolt"

	"github.com/akhenakh/vectormap"
)

var tileBucket = []byte{vectormap.TilesPrefix}

// TileAddress a rendered tile location for a style and an output format
type TileAddress struct {
	Style  string
	Format string
	Z      uint8
	X, Y   uint32
}

func (a TileAddress) key() []byte {
	return vectormap.TileURLKey(a.Style, a.Format, a.Z, a.X, a.Y)
}

// StoreTile stores a rendered tile, identical tiles share one blob
func (s *Storage) StoreTile(addr TileAddress, data []byte) error {
	sum := sha1.Sum(data)
	id := hex.EncodeToString(sum[:])

	return s.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(tileBucket)
		bk := vectormap.TileBlobKey(id)
		if b.Get(bk) == nil {
			if err := b.Put(bk, data); err != nil {
				return err
			}
		}
		return b.Put(addr.key(), []byte(id))
	})
}

// ReadTileData returns the bytes of a pre rendered tile, nil when absent
func (s *Storage) ReadTileData(addr TileAddress) ([]byte, error) {
	var v []byte
	err := s.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(tileBucket)
		if b == nil {
			return nil
		}

		id := b.Get(addr.key())
		if id == nil {
			return nil
		}

		blob := b.Get(vectormap.TileBlobKey(string(id)))
		if blob == nil {
			return errors.New("can't find blob at existing entry")
		}
		v = make([]byte, len(blob))
		copy(v, blob)
		return nil
	})

	return v, err
}
