package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestStitchMeshes(t *testing.T) {
	for _, binary := range []bool{true, false} {
		var (
			a = newQuadGrid(2, 3, 0, 0, 0.5, 1./3.)
			b = newQuadGrid(3, 3, 1, 0, 1./3., 1./3.)
		)
		nNodesA, nNodesB := a.NNodes(), b.NNodes()
		nElemA, nElemB := a.NElem(), b.NElem()
		merged, err := a.StitchMeshes(b, a.BoundaryInfo().IDByName("right"),
			b.BoundaryInfo().IDByName("left"), StitchOptions{
				Tolerance:        DefaultStitchTolerance,
				ClearStitchedIDs: true,
				UseBinarySearch:  binary,
			})
		require.NoError(t, err)
		assert.Equal(t, 4, merged)
		assert.Equal(t, nElemA+nElemB, a.NElem())
		assert.Equal(t, nNodesA+nNodesB-merged, a.NNodes())

		// No two distinct nodes left closer than the tolerance
		var nodes []*Node
		for n := range a.Nodes() {
			nodes = append(nodes, n)
		}
		for i := range nodes {
			for j := i + 1; j < len(nodes); j++ {
				d := r3.Norm(r3.Sub(nodes[i].Vec, nodes[j].Vec))
				assert.Greater(t, d, DefaultStitchTolerance)
			}
		}

		// Stitched sides lost their ids, the far sides kept them
		bi := a.BoundaryInfo()
		for _, bs := range bi.SideList() {
			c := bs.Elem.Centroid()
			switch bi.SidesetName(bs.ID) {
			case "right":
				assert.Greater(t, c.X, 1.5)
			case "left":
				assert.Less(t, c.X, 0.5)
			}
		}
		// The interface is connected
		for e := range a.Elements() {
			c := e.Centroid()
			if c.X > 0.5 && c.X < 1 {
				nbr := e.Neighbor(1)
				require.NotNil(t, nbr)
				assert.Greater(t, nbr.Centroid().X, 1.)
			}
		}
		// The source mesh is untouched
		lo, _ := b.BoundingBox()
		assert.Equal(t, 1., lo.X)
		assert.Equal(t, nElemB, b.NElem())
	}
}

func TestStitchToleranceIsAbsolute(t *testing.T) {
	const gap = 1.e-3
	for _, binary := range []bool{true, false} {
		// The same gap welds or not independent of the element size
		for _, h := range []float64{1, 1000} {
			for _, tc := range []struct {
				tol  float64
				weld bool
			}{
				{1.e-2, true},
				{gap * 1.5, true},
				{1.e-4, false},
			} {
				a := newQuadGrid(1, 1, 0, 0, h, h)
				b := newQuadGrid(1, 1, h+gap, 0, h, h)
				merged, err := a.StitchMeshes(b, 1, 3, StitchOptions{Tolerance: tc.tol, UseBinarySearch: binary})
				if tc.weld {
					require.NoError(t, err, "h=%g tol=%g", h, tc.tol)
					assert.Equal(t, 2, merged)
					assert.Equal(t, 6, a.NNodes())
				} else {
					assert.Error(t, err, "h=%g tol=%g", h, tc.tol)
					assert.Equal(t, 4, a.NNodes())
				}
			}
		}
	}
}

func TestStitchMissingBoundary(t *testing.T) {
	a := newQuadGrid(1, 1, 0, 0, 1, 1)
	b := newQuadGrid(1, 1, 1, 0, 1, 1)
	_, err := a.StitchMeshes(b, 42, 3, StitchOptions{Tolerance: DefaultStitchTolerance})
	assert.ErrorIs(t, err, ErrBoundaryNotFound)
	_, err = a.StitchMeshes(b, 1, 42, StitchOptions{Tolerance: DefaultStitchTolerance})
	assert.ErrorIs(t, err, ErrBoundaryNotFound)
	// Not coincident
	far := newQuadGrid(1, 1, 5, 0, 1, 1)
	_, err = a.StitchMeshes(far, 1, 3, StitchOptions{Tolerance: DefaultStitchTolerance})
	assert.Error(t, err)
	assert.Equal(t, 1, a.NElem())
}

func TestMergeSubdomainNameMaps(t *testing.T) {
	primary := map[SubdomainID]string{0: "fluid", 1: "solid"}
	require.NoError(t, MergeSubdomainNameMaps(primary, map[SubdomainID]string{1: "other", 2: "gap"}))
	assert.Equal(t, map[SubdomainID]string{0: "fluid", 1: "solid", 2: "gap"}, primary)

	err := MergeSubdomainNameMaps(primary, map[SubdomainID]string{5: "fluid"})
	var conflict *NameConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "fluid", conflict.Name)
	assert.Equal(t, SubdomainID(0), conflict.ID)
	assert.Equal(t, SubdomainID(5), conflict.Dupe)
	_, ok := primary[5]
	assert.False(t, ok)

	// Conflicting names inside one mesh pair are rejected on stitch
	a := newQuadGrid(1, 1, 0, 0, 1, 1)
	b := newQuadGrid(1, 1, 1, 0, 1, 1)
	a.SetSubdomainName(0, "fluid")
	for e := range b.Elements() {
		e.SubdomainID = 3
	}
	b.SetSubdomainName(3, "fluid")
	_, err = a.StitchMeshes(b, 1, 3, StitchOptions{Tolerance: DefaultStitchTolerance})
	assert.ErrorAs(t, err, &conflict)
}

func TestBoundaryInfo(t *testing.T) {
	m := newQuadGrid(2, 2, 0, 0, 1, 1)
	bi := m.BoundaryInfo()
	e := m.Elem(0)
	bi.AddSide(e, 0, 0)
	assert.Equal(t, 8, bi.NSides())
	bi.AddSide(e, 0, 7)
	assert.Equal(t, []BoundaryID{0, 7}, bi.SideBoundaryIDs(e, 0))
	bi.RemoveSideIDs(e, 0)
	assert.Empty(t, bi.SideBoundaryIDs(e, 0))
	bi.AddSide(RemoteElem, 0, 3)
	assert.Equal(t, 7, bi.NSides())

	bi.RenumberID(2, 9)
	assert.Equal(t, "top", bi.SidesetName(9))
	assert.Equal(t, "", bi.SidesetName(2))
	assert.Equal(t, BoundaryID(9), bi.IDByName("top"))
	assert.Equal(t, InvalidBoundaryID, bi.IDByName("nope"))

	bi.BuildNodeListFromSideList()
	assert.Equal(t, []BoundaryID{1, 9}, bi.NodeBoundaryIDs(m.Node(8)))
	assert.Equal(t, "top", bi.NodesetName(9))

	bi.RemoveID(9)
	assert.NotContains(t, bi.BoundaryIDs(), BoundaryID(9))
	assert.Len(t, bi.SidesetMap()[m.Elem(3)], 1)

	// Rebuild the removed sideset from a nodeset
	for _, n := range []int{6, 7, 8} {
		bi.AddNode(m.Node(n), 4)
	}
	bi.BuildSideListFromNodeList(m)
	assert.True(t, bi.HasBoundaryID(m.Elem(2), 2, 4))
	assert.True(t, bi.HasBoundaryID(m.Elem(3), 2, 4))
	assert.False(t, bi.HasBoundaryID(m.Elem(0), 2, 4))
}
