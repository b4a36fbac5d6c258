package trip

// PriceLevelToCost maps a places API price level onto a display cost range.
// A missing price level falls back to a generic mid-range estimate.
func PriceLevelToCost(level *int) string {
	if level == nil {
		return "$30 - $60"
	}
	switch {
	case *level <= 1:
		return "$ - $"
	case *level == 2:
		return "$$ - $$"
	case *level == 3:
		return "$$$ - $$$$"
	default:
		return "$$$$+"
	}
}
