package gangsheet

import (
	"fmt"
	"sort"

	"github.com/printnest/backend/internal/domain/shared"
)

// geometric comparisons tolerate accumulated float error at this scale
const packEpsilon = 1e-9

// packUnit is a single expanded instance of a line item, carrying its
// bordered footprint in the unrotated orientation.
type packUnit struct {
	item LineItem
	w    float64
	h    float64
	seq  int // expansion order, final determinism tie-break
}

// Pack arranges the given line items onto rolls using shelf packing.
// It is pure and deterministic: the same items and settings always
// produce the same layout. Quantities are expanded to independent units
// before sorting, so duplicates of one design may land on different
// shelves or rolls.
func Pack(items []LineItem, settings RollSettings) ([]Roll, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	units, err := expandUnits(items, settings)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return []Roll{}, nil
	}
	sortUnits(units)

	gap := settings.Gap
	heightCap := settings.HeightCap()

	rolls := []Roll{}
	current := Roll{Number: 1}
	shelfY := gap   // top edge of the open shelf
	shelfH := 0.0   // height of the tallest unit on the open shelf
	cursorX := gap  // next free x on the open shelf
	shelfOpen := false

	for _, u := range units {
		w, h, rotated, ok := bestFit(u, settings, cursorX, shelfH, shelfOpen)
		if !ok {
			// Seal the shelf and open a new one below it.
			if shelfOpen {
				shelfY += shelfH + gap
			}
			cursorX = gap
			shelfH = 0
			shelfOpen = false
			w, h, rotated, _ = bestFit(u, settings, cursorX, shelfH, shelfOpen)

			// If the unit would cross into the footer band, move to a
			// fresh roll. A unit too tall even for an empty roll still
			// gets one to itself rather than failing the job.
			if shelfY+h > heightCap+packEpsilon && len(current.Placements) > 0 {
				current.ContentHeight = maxBottom(current)
				rolls = append(rolls, current)
				current = Roll{Number: current.Number + 1}
				shelfY = gap
			}
		}

		current.Placements = append(current.Placements, Placement{
			OrderID:     u.item.OrderID.String(),
			OrderNumber: u.item.OrderNumber,
			DesignRef:   u.item.DesignRef,
			X:           cursorX,
			Y:           shelfY,
			Width:       w,
			Height:      h,
			Rotated:     rotated,
		})
		cursorX += w + gap
		if h > shelfH {
			shelfH = h
		}
		shelfOpen = true
	}

	current.ContentHeight = maxBottom(current)
	rolls = append(rolls, current)
	return rolls, nil
}

// expandUnits flattens quantities into independent units and rejects any
// unit that cannot fit the roll width in either permitted orientation.
// The whole request fails rather than silently dropping designs.
func expandUnits(items []LineItem, settings RollSettings) ([]packUnit, error) {
	usable := settings.UsableWidth()
	var units []packUnit
	for _, item := range items {
		w, h := settings.Footprint(item, false)
		fits := w <= usable+packEpsilon
		if !fits && item.AllowRotate {
			fits = h <= usable+packEpsilon
		}
		if !fits {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Design %.2fx%.2fin from order %s does not fit a %.2fin roll in any orientation",
					item.PrintWidth, item.PrintHeight, item.OrderNumber, settings.RollWidth))
		}
		for i := 0; i < item.Quantity; i++ {
			units = append(units, packUnit{item: item, w: w, h: h, seq: len(units)})
		}
	}
	return units, nil
}

// sortUnits orders units tallest first so shelves stay dense, with
// deterministic tie-breaks on width, order number, and expansion order.
func sortUnits(units []packUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].h != units[j].h {
			return units[i].h > units[j].h
		}
		if units[i].w != units[j].w {
			return units[i].w > units[j].w
		}
		if units[i].item.OrderNumber != units[j].item.OrderNumber {
			return units[i].item.OrderNumber < units[j].item.OrderNumber
		}
		return units[i].seq < units[j].seq
	})
}

// bestFit picks the orientation for a unit on the open shelf. Among
// orientations that fit the remaining width it prefers the one that
// grows the shelf least, then the unrotated one. ok is false when
// neither orientation fits at the current cursor.
func bestFit(u packUnit, settings RollSettings, cursorX, shelfH float64, shelfOpen bool) (w, h float64, rotated, ok bool) {
	gap := settings.Gap
	limit := settings.RollWidth - gap + packEpsilon

	type candidate struct {
		w, h    float64
		rotated bool
	}
	var fitting []candidate
	if cursorX+u.w <= limit {
		fitting = append(fitting, candidate{u.w, u.h, false})
	}
	if u.item.AllowRotate && u.w != u.h && cursorX+u.h <= limit {
		fitting = append(fitting, candidate{u.h, u.w, true})
	}
	if len(fitting) == 0 {
		return 0, 0, false, false
	}

	best := fitting[0]
	if len(fitting) == 2 && shelfOpen {
		growth := func(c candidate) float64 {
			if c.h <= shelfH {
				return 0
			}
			return c.h - shelfH
		}
		if growth(fitting[1]) < growth(fitting[0]) {
			best = fitting[1]
		}
	}
	if len(fitting) == 2 && !shelfOpen && fitting[1].h < fitting[0].h {
		// On an empty shelf the flatter orientation opens the shorter shelf.
		best = fitting[1]
	}
	return best.w, best.h, best.rotated, true
}

// maxBottom returns the lowest placement edge on a roll
func maxBottom(r Roll) float64 {
	max := 0.0
	for _, p := range r.Placements {
		if b := p.Bottom(); b > max {
			max = b
		}
	}
	return max
}
