package analyzer

import "image"

// countComponents returns the number of 8-connected foreground blobs.
func countComponents(mask *image.Gray) int {
	bounds := mask.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	seen := make([]bool, width*height)
	fg := func(x, y int) bool {
		return mask.Pix[mask.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)] != 0
	}

	count := 0
	var stack []int
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			start := y*width + x
			if seen[start] || !fg(x, y) {
				continue
			}
			count++
			seen[start] = true
			stack = append(stack[:0], start)
			for len(stack) > 0 {
				i := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := i%width, i/width
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := cx+dx, cy+dy
						if nx < 0 || nx >= width || ny < 0 || ny >= height {
							continue
						}
						j := ny*width + nx
						if !seen[j] && fg(nx, ny) {
							seen[j] = true
							stack = append(stack, j)
						}
					}
				}
			}
		}
	}
	return count
}
