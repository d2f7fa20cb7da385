package state

import (
	"sort"

	"dario.cat/mergo"
)

// Breakpoints used by the grid layout.
const (
	BreakpointLarge  = "lg"
	BreakpointMedium = "md"
	BreakpointSmall  = "sm"
)

// LayoutItem places one widget on the grid.
type LayoutItem struct {
	I    string `json:"i"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
	MinW int    `json:"minW,omitempty"`
	MaxW int    `json:"maxW,omitempty"`
}

// Layouts maps a breakpoint to its placements.
type Layouts map[string][]LayoutItem

// Clone deep-copies the layouts.
func (l Layouts) Clone() Layouts {
	out := make(Layouts, len(l))
	for bp, items := range l {
		out[bp] = append([]LayoutItem(nil), items...)
	}
	return out
}

// Merge overlays per-breakpoint placements from patch onto l.
func (l Layouts) Merge(patch Layouts) (Layouts, error) {
	out := l.Clone()
	if out == nil {
		out = Layouts{}
	}
	if err := mergo.Merge(&out, patch.Clone(), mergo.WithOverride); err != nil {
		return l, err
	}
	return out, nil
}

// WidgetSize describes the footprint of a catalog widget.
type WidgetSize struct {
	Wide   bool
	Height int
}

// Sizer resolves widget footprints by id.
type Sizer interface {
	WidgetSize(id string) (WidgetSize, bool)
}

// SizerFunc adapts a function into a Sizer.
type SizerFunc func(id string) (WidgetSize, bool)

// WidgetSize calls f.
func (f SizerFunc) WidgetSize(id string) (WidgetSize, bool) { return f(id) }

// GenerateLayouts packs widgets into a two column grid for lg and md and a
// single column for sm. Wide widgets are placed first and span both
// columns; unknown ids are skipped.
func GenerateLayouts(widgets []string, sizer Sizer) Layouts {
	type sized struct {
		id   string
		size WidgetSize
	}
	list := make([]sized, 0, len(widgets))
	for _, id := range widgets {
		if sizer == nil {
			break
		}
		size, ok := sizer.WidgetSize(id)
		if !ok {
			continue
		}
		list = append(list, sized{id: id, size: size})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].size.Wide && !list[j].size.Wide
	})

	lg := newColumnPacker(2)
	md := newColumnPacker(2)
	out := Layouts{
		BreakpointLarge:  make([]LayoutItem, 0, len(list)),
		BreakpointMedium: make([]LayoutItem, 0, len(list)),
		BreakpointSmall:  make([]LayoutItem, 0, len(list)),
	}
	smY := 0
	for _, w := range list {
		width := 1
		if w.size.Wide {
			width = 2
		}
		height := w.size.Height
		if height <= 0 {
			height = 1
		}
		out[BreakpointLarge] = append(out[BreakpointLarge], lg.place(w.id, width, height))
		out[BreakpointMedium] = append(out[BreakpointMedium], md.place(w.id, width, height))

		smHeight := height
		if w.size.Wide {
			smHeight = max(2, w.size.Height)
		}
		out[BreakpointSmall] = append(out[BreakpointSmall], LayoutItem{
			I: w.id, X: 0, Y: smY, W: 1, H: smHeight, MinW: 1, MaxW: 1,
		})
		smY += smHeight
	}
	return out
}

type columnPacker struct {
	cols int
	x, y int
}

func newColumnPacker(cols int) *columnPacker { return &columnPacker{cols: cols} }

func (p *columnPacker) place(id string, width, height int) LayoutItem {
	if p.x+width > p.cols {
		p.x = 0
		p.y += 2
	}
	item := LayoutItem{I: id, X: p.x, Y: p.y, W: width, H: height, MinW: width, MaxW: p.cols}
	p.x += width
	if p.x >= p.cols {
		p.x = 0
		p.y += height
	}
	return item
}
