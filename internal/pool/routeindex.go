package pool

import (
	"fmt"
	"strings"

	"github.com/uber/h3-go/v4"

	"github.com/richxcame/ride-hailing/internal/geo"
)

// Waypoint is one point along a routed path, in the order the routing API
// returned it.
type Waypoint struct {
	Lat float64
	Lng float64
}

// RouteIndexer turns a routing API's waypoint list into the fixed-width,
// gap-filled hex-cell signature that the Pool Store orders its lex set by.
// It never talks to Redis or the network itself; callers assemble a
// RouteSnapshot from a Waypoint slice already in hand.
type RouteIndexer struct {
	resolution int
}

// NewRouteIndexer builds an indexer pinned to a single H3 resolution. Mixing
// resolutions across entries in the same pool set would silently corrupt the
// lex ordering, so resolution is fixed for the process lifetime.
func NewRouteIndexer(resolution int) *RouteIndexer {
	return &RouteIndexer{resolution: resolution}
}

// ComputeRoute maps every waypoint to its H3 cell, collapses consecutive
// duplicates, gap-fills non-adjacent consecutive cells with the shortest
// grid path between them, and concatenates the result into one
// fixed-width route signature.
//
// waypoints must be non-empty and include the destination as its last point.
func (ri *RouteIndexer) ComputeRoute(waypoints []Waypoint, totalKm float64) (RouteSnapshot, error) {
	if len(waypoints) == 0 {
		return RouteSnapshot{}, fmt.Errorf("compute route: no waypoints")
	}

	raw := make([]h3.Cell, 0, len(waypoints))
	for _, wp := range waypoints {
		raw = append(raw, geo.LatLngToCell(wp.Lat, wp.Lng, ri.resolution))
	}

	deduped := dedupConsecutive(raw)

	filled, err := gapFill(deduped)
	if err != nil {
		return RouteSnapshot{}, fmt.Errorf("compute route: %w", err)
	}

	cellStrings := make([]string, len(filled))
	var sig strings.Builder
	sig.Grow(len(filled) * CellWidth)
	for i, c := range filled {
		s := geo.CellToString(c)
		cellStrings[i] = s
		sig.WriteString(s)
	}

	destCell := cellStrings[len(cellStrings)-1]

	return RouteSnapshot{
		DestinationCell: destCell,
		RouteSignature:  sig.String(),
		Cells:           cellStrings,
		TotalKm:         totalKm,
	}, nil
}

// dedupConsecutive returns a new slice with runs of the same cell collapsed, preserving order.
// A routing step that starts and ends in the same cell contributes that cell
// once, not twice.
func dedupConsecutive(cells []h3.Cell) []h3.Cell {
	if len(cells) == 0 {
		return cells
	}
	out := make([]h3.Cell, 0, len(cells))
	out = append(out, cells[0])
	for _, c := range cells[1:] {
		if c != out[len(out)-1] {
			out = append(out, c)
		}
	}
	return out
}

// gapFill inserts the shortest H3 grid path between any two consecutive
// cells that are not immediate neighbours, so the signature has no
// discontinuities a subset/superset lex scan could be fooled by.
func gapFill(cells []h3.Cell) ([]h3.Cell, error) {
	if len(cells) <= 1 {
		return cells, nil
	}
	out := make([]h3.Cell, 0, len(cells)*2)
	out = append(out, cells[0])
	for i := 1; i < len(cells); i++ {
		prev, cur := cells[i-1], cells[i]
		dist := geo.CellDistance(prev, cur)
		if dist <= 1 {
			out = append(out, cur)
			continue
		}
		path, err := prev.GridPathCells(cur)
		if err != nil || len(path) == 0 {
			// Non-contiguous cells (e.g. across a pentagon distortion) can't
			// be grid-pathed; fall back to the direct edge rather than
			// failing the whole route.
			out = append(out, cur)
			continue
		}
		// path includes both prev and cur; we've already appended prev.
		out = append(out, path[1:]...)
	}
	return out, nil
}
