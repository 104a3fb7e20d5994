package vectormap

import (
	"encoding/binary"
	"fmt"

	"github.com/paulmach/orb"
)

const (
	nodePrefix  = 'N'
	wayPrefix   = 'W'
	trackPrefix = 'T'
	stylePrefix = 'S'
	infoKey     = 'i'
	mapKey      = 'm'

	// TilesURLPrefix maps a tile address to a blob id
	TilesURLPrefix = 'u'
	// TilesPrefix prefixes tile blobs
	TilesPrefix = 'b'

	RTreeStrategy = "rtree"
	S2Strategy    = "s2"
	ScanStrategy  = "scan"
)

// ValidStrategy returns true for a known culling strategy name
func ValidStrategy(s string) bool {
	switch s {
	case RTreeStrategy, S2Strategy, ScanStrategy:
		return true
	}
	return false
}

// MapInfosFromBounds returns infos centered on b
func MapInfosFromBounds(b orb.Bound, maxZoom int, defaultStyle string) *MapInfos {
	c := b.Center()
	return &MapInfos{
		CenterLat:    c[1],
		CenterLng:    c[0],
		MaxZoom:      maxZoom,
		MinLat:       b.Min[1],
		MinLng:       b.Min[0],
		MaxLat:       b.Max[1],
		MaxLng:       b.Max[0],
		DefaultStyle: defaultStyle,
	}
}

// Bound returns the map extent
func (infos *MapInfos) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{infos.MinLng, infos.MinLat},
		Max: orb.Point{infos.MaxLng, infos.MaxLat},
	}
}

func positionKey(prefix byte, pos uint32) []byte {
	k := make([]byte, 1+4)
	k[0] = prefix
	binary.BigEndian.PutUint32(k[1:], pos)
	return k
}

func NodeKey(pos uint32) []byte {
	return positionKey(nodePrefix, pos)
}

func WayKey(pos uint32) []byte {
	return positionKey(wayPrefix, pos)
}

func TrackKey(pos uint32) []byte {
	return positionKey(trackPrefix, pos)
}

func StyleKey(name string) []byte {
	return append([]byte{stylePrefix}, name...)
}

func NodePrefix() byte {
	return nodePrefix
}

func WayPrefix() byte {
	return wayPrefix
}

func TrackPrefix() byte {
	return trackPrefix
}

func StylePrefix() byte {
	return stylePrefix
}

func InfoKey() []byte {
	return []byte{infoKey}
}

func MapKey() []byte {
	return []byte{mapKey}
}

// TileURLKey the key of a rendered tile address
func TileURLKey(styleName, format string, z uint8, x, y uint32) []byte {
	return []byte(fmt.Sprintf("%c%s/%s/%d/%d/%d", TilesURLPrefix, styleName, format, z, x, y))
}

// TileBlobKey the key of a tile blob
func TileBlobKey(id string) []byte {
	return append([]byte{TilesPrefix}, id...)
}
