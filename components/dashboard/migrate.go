package dashboard

// Default desktop rect used for legacy records with missing fields.
const (
	defaultLegacyX = 0
	defaultLegacyY = 0
	defaultLegacyW = 4
	defaultLegacyH = 2
)

// Migrate normalizes a widget into the canonical layouts shape. Legacy flat
// x/y/w/h fields fill layouts.desktop, defaulting each missing field. A widget
// that already has a desktop rect keeps it. The input is never mutated and the
// result never carries flat fields, so Migrate(Migrate(w)) == Migrate(w).
func Migrate(w Widget) Widget {
	out := w.Clone()
	if _, ok := out.Layouts[BreakpointDesktop]; !ok {
		if out.Layouts == nil {
			out.Layouts = make(map[Breakpoint]LayoutRect, 2)
		}
		out.Layouts[BreakpointDesktop] = LayoutRect{
			X: intOr(w.X, defaultLegacyX),
			Y: intOr(w.Y, defaultLegacyY),
			W: intOr(w.W, defaultLegacyW),
			H: intOr(w.H, defaultLegacyH),
		}
	}
	out.X, out.Y, out.W, out.H = nil, nil, nil, nil
	return out
}

// MigrateAll migrates every widget in the list.
func MigrateAll(widgets []Widget) []Widget {
	out := make([]Widget, len(widgets))
	for i, w := range widgets {
		out[i] = Migrate(w)
	}
	return out
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
