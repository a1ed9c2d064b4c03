package gangsheet

// Placement is one design unit positioned on a roll. Coordinates are in
// inches from the top-left corner of the roll; Width and Height are the
// packed footprint including the border, if any.
type Placement struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	DesignRef   string  `json:"design_ref"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Rotated     bool    `json:"rotated"` // design is drawn rotated 90 degrees clockwise
}

// Right returns the x coordinate of the placement's right edge
func (p Placement) Right() float64 {
	return p.X + p.Width
}

// Bottom returns the y coordinate of the placement's bottom edge
func (p Placement) Bottom() float64 {
	return p.Y + p.Height
}

// Overlaps reports whether two placements occupy intersecting areas
func (p Placement) Overlaps(other Placement) bool {
	return p.X < other.Right() && other.X < p.Right() &&
		p.Y < other.Bottom() && other.Y < p.Bottom()
}

// Roll is one packed output sheet. ContentHeight is the extent of the
// placed designs; the rendered image is ContentHeight plus the footer band.
type Roll struct {
	Number        int         `json:"number"` // 1-based
	Placements    []Placement `json:"placements"`
	ContentHeight float64     `json:"content_height"`
}

// OrderNumbers returns the distinct order numbers on this roll, in first
// placement order. Used for the roll footer.
func (r Roll) OrderNumbers() []string {
	seen := make(map[string]bool, len(r.Placements))
	var numbers []string
	for _, p := range r.Placements {
		if !seen[p.OrderNumber] {
			seen[p.OrderNumber] = true
			numbers = append(numbers, p.OrderNumber)
		}
	}
	return numbers
}

// TotalPlacements returns the number of placements across all rolls
func TotalPlacements(rolls []Roll) int {
	total := 0
	for _, r := range rolls {
		total += len(r.Placements)
	}
	return total
}
