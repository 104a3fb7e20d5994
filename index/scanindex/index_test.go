package scanindex

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/akhenakh/vectormap"
)

func TestIndex_Query(t *testing.T) {
	idx := New()

	parc := orb.Bound{Min: orb.Point{2.30, 48.84}, Max: orb.Point{2.32, 48.86}}
	cafe := orb.Point{2.35, 48.85}.Bound()
	far := orb.Bound{Min: orb.Point{-3.0, 47.3}, Max: orb.Point{-2.9, 47.4}}

	idx.Add(vectormap.FeatureRef{Kind: vectormap.KindWay, Pos: 0}, parc)
	idx.Add(vectormap.FeatureRef{Kind: vectormap.KindNode, Pos: 0}, cafe)
	idx.Add(vectormap.FeatureRef{Kind: vectormap.KindWay, Pos: 1}, far)

	tests := []struct {
		name    string
		query   orb.Bound
		want    []vectormap.FeatureRef
		wantNot []vectormap.FeatureRef
	}{
		{
			"paris",
			orb.Bound{Min: orb.Point{2.31, 48.845}, Max: orb.Point{2.36, 48.855}},
			[]vectormap.FeatureRef{{Kind: vectormap.KindWay, Pos: 0}, {Kind: vectormap.KindNode, Pos: 0}},
			[]vectormap.FeatureRef{{Kind: vectormap.KindWay, Pos: 1}},
		},
		{
			"brittany",
			orb.Bound{Min: orb.Point{-2.95, 47.35}, Max: orb.Point{-2.94, 47.36}},
			[]vectormap.FeatureRef{{Kind: vectormap.KindWay, Pos: 1}},
			[]vectormap.FeatureRef{{Kind: vectormap.KindWay, Pos: 0}, {Kind: vectormap.KindNode, Pos: 0}},
		},
		{
			"ocean",
			orb.Bound{Min: orb.Point{-40, 30}, Max: orb.Point{-39, 31}},
			nil,
			[]vectormap.FeatureRef{{Kind: vectormap.KindWay, Pos: 0}, {Kind: vectormap.KindWay, Pos: 1}, {Kind: vectormap.KindNode, Pos: 0}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := idx.Query(tt.query)
			for _, w := range tt.want {
				require.Contains(t, got, w)
			}
			for _, w := range tt.wantNot {
				require.NotContains(t, got, w)
			}
		})
	}
}

func TestIndex_NoFalseNegatives(t *testing.T) {
	idx := New()
	r := rand.New(rand.NewSource(1))

	bounds := make([]orb.Bound, 500)
	for i := range bounds {
		lon := 2 + r.Float64()
		lat := 48 + r.Float64()
		var b orb.Bound
		if i%3 == 0 {
			b = orb.Point{lon, lat}.Bound()
		} else {
			b = orb.Bound{Min: orb.Point{lon, lat}, Max: orb.Point{lon + r.Float64()*0.05, lat + r.Float64()*0.05}}
		}
		bounds[i] = b
		idx.Add(vectormap.FeatureRef{Kind: vectormap.KindWay, Pos: i}, b)
	}

	for q := 0; q < 50; q++ {
		lon := 2 + r.Float64()
		lat := 48 + r.Float64()
		query := orb.Bound{Min: orb.Point{lon, lat}, Max: orb.Point{lon + 0.1, lat + 0.07}}

		got := idx.Query(query)
		gotSet := make(map[int]bool, len(got))
		for i, ref := range got {
			gotSet[ref.Pos] = true
			if i > 0 {
				require.Less(t, got[i-1].Pos, ref.Pos, "results are sorted")
			}
		}

		for i, b := range bounds {
			if b.Intersects(query) {
				require.True(t, gotSet[i], "feature %d intersects the query", i)
			} else {
				require.False(t, gotSet[i], "feature %d is outside the query", i)
			}
		}
	}
}
