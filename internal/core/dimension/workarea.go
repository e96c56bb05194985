package dimension

const (
	workAreaTop    = 0.05
	workAreaBottom = 0.82
)

// InWorkingArea reports whether y lies strictly between 5% and 82% of the
// page height. Title blocks and border legends sit outside that band.
func InWorkingArea(y, pageHeight float64) bool {
	return pageHeight*workAreaTop < y && y < pageHeight*workAreaBottom
}
