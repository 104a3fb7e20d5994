package vectormap

import (
	"fmt"
	"time"

	"github.com/akhenakh/vectormap/style"
)

// Store reads back an imported map
type Store interface {
	LoadFeatureSet() (*FeatureSet, error)
	LoadStyleSet(name string) (*style.Set, error)
	StyleSetNames() ([]string, error)
	LoadIndexInfos() (*IndexInfos, error)
	LoadMapInfos() (*MapInfos, bool, error)
}

// IndexInfos used to store information about the imported data in DB
type IndexInfos struct {
	Filename       string
	IndexTime      time.Time
	IndexerVersion string
	NodeCount      uint32
	WayCount       uint32
	TrackCount     uint32
}

// MapInfos used to store information about the map if any in DB
type MapInfos struct {
	CenterLat, CenterLng float64
	MaxZoom              int
	MinLat, MinLng       float64
	MaxLat, MaxLng       float64
	DefaultStyle         string
}

func (infos *IndexInfos) String() string {
	return fmt.Sprintf("Filename: %s\nIndexTime: %s\nIndexerVersion: %s\nNodeCount %d\nWayCount %d\nTrackCount %d\n",
		infos.Filename,
		infos.IndexTime,
		infos.IndexerVersion,
		infos.NodeCount,
		infos.WayCount,
		infos.TrackCount,
	)
}
