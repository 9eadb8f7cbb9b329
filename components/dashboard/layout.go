package dashboard

import "sort"

type bandEntry struct {
	widget Widget
	rect   LayoutRect
}

// GenerateMobileLayout flattens the desktop arrangement into a single stacked
// column. Widgets whose vertical spans overlap form a band and read left to
// right; bands read top to bottom. Ties break on id so the order is stable
// across calls. The result is returned in mobile order with layouts.mobile set
// to {0, runningY, MobileColumns, max(desktop.h, 1)}.
func GenerateMobileLayout(widgets []Widget) []Widget {
	if len(widgets) == 0 {
		return []Widget{}
	}
	entries := make([]bandEntry, len(widgets))
	for i, w := range widgets {
		migrated := Migrate(w)
		entries[i] = bandEntry{widget: migrated, rect: migrated.Layouts[BreakpointDesktop]}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].rect, entries[j].rect
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return entries[i].widget.ID < entries[j].widget.ID
	})

	var bands [][]bandEntry
	var current []bandEntry
	bandMaxY := 0
	for _, entry := range entries {
		yStart := entry.rect.Y
		yEnd := entry.rect.Y + entry.rect.H
		if len(current) > 0 && yStart >= bandMaxY {
			bands = append(bands, current)
			current = nil
		}
		if len(current) == 0 {
			bandMaxY = yEnd
		} else if yEnd > bandMaxY {
			bandMaxY = yEnd
		}
		current = append(current, entry)
	}
	if len(current) > 0 {
		bands = append(bands, current)
	}

	out := make([]Widget, 0, len(widgets))
	runningY := 0
	for _, band := range bands {
		sort.Slice(band, func(i, j int) bool {
			a, b := band[i].rect, band[j].rect
			if a.X != b.X {
				return a.X < b.X
			}
			if a.Y != b.Y {
				return a.Y < b.Y
			}
			return band[i].widget.ID < band[j].widget.ID
		})
		for _, entry := range band {
			h := entry.rect.H
			if h < 1 {
				h = 1
			}
			w := entry.widget
			w.Layouts[BreakpointMobile] = LayoutRect{X: 0, Y: runningY, W: MobileColumns, H: h}
			runningY += h
			out = append(out, w)
		}
	}
	return out
}

// ApplyGridLayout merges finalized grid rects into the widgets for one
// breakpoint. Items for unknown ids are ignored and negative values clamp to 0.
// It reports whether any stored rect changed.
func ApplyGridLayout(widgets []Widget, bp Breakpoint, items []GridItem) ([]Widget, bool) {
	index := make(map[string]GridItem, len(items))
	for _, item := range items {
		index[item.I] = item
	}
	changed := false
	out := CloneWidgets(widgets)
	for i := range out {
		item, ok := index[out[i].ID]
		if !ok {
			continue
		}
		rect := item.Rect()
		if prev, had := out[i].Layouts[bp]; had && prev == rect {
			continue
		}
		if out[i].Layouts == nil {
			out[i].Layouts = make(map[Breakpoint]LayoutRect, 2)
		}
		out[i].Layouts[bp] = rect
		changed = true
	}
	return out, changed
}

// shiftDown moves every widget's rect at bp down by rows.
func shiftDown(widgets []Widget, bp Breakpoint, rows int) []Widget {
	out := CloneWidgets(widgets)
	for i := range out {
		rect, ok := out[i].Layouts[bp]
		if !ok {
			continue
		}
		rect.Y += rows
		out[i].Layouts[bp] = rect
	}
	return out
}

func removeWidget(widgets []Widget, id string) ([]Widget, bool) {
	out := make([]Widget, 0, len(widgets))
	found := false
	for _, w := range widgets {
		if w.ID == id {
			found = true
			continue
		}
		out = append(out, w)
	}
	return out, found
}

func indexWidgets(widgets []Widget) map[string]Widget {
	index := make(map[string]Widget, len(widgets))
	for _, w := range widgets {
		index[w.ID] = w
	}
	return index
}

// WithMobileLayout returns widgets in their stored order with layouts.mobile
// taken from a generated mobile arrangement.
func WithMobileLayout(widgets, mobile []Widget) []Widget {
	rects := make(map[string]LayoutRect, len(mobile))
	for _, w := range mobile {
		if rect, ok := w.Layouts[BreakpointMobile]; ok {
			rects[w.ID] = rect
		}
	}
	out := MigrateAll(widgets)
	for i := range out {
		if rect, ok := rects[out[i].ID]; ok {
			out[i].Layouts[BreakpointMobile] = rect
		}
	}
	return out
}

// normalizeState migrates every widget and refreshes derived mobile rects.
// An independent layout with no mobile widgets reads as linked.
func normalizeState(state LayoutState, generate func([]Widget) []Widget) LayoutState {
	if generate == nil {
		generate = GenerateMobileLayout
	}
	switch st := state.(type) {
	case IndependentLayout:
		if len(st.MobileWidgets) == 0 {
			return linkedLayout(st.Widgets, generate)
		}
		return IndependentLayout{Widgets: MigrateAll(st.Widgets), MobileWidgets: MigrateAll(st.MobileWidgets)}
	case LinkedLayout:
		return linkedLayout(st.Widgets, generate)
	default:
		return LinkedLayout{Widgets: []Widget{}}
	}
}

func linkedLayout(widgets []Widget, generate func([]Widget) []Widget) LinkedLayout {
	if generate == nil {
		generate = GenerateMobileLayout
	}
	return LinkedLayout{Widgets: WithMobileLayout(widgets, generate(widgets))}
}
