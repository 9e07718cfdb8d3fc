package analyzer

import (
	"image"
	"math"
	"testing"
)

func defaultHough() houghParams {
	return houghParams{threshold: 40, minLength: 30, maxGap: 10, angleSteps: 180, seed: 1}
}

func TestProbabilisticHough_HorizontalLine(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 200, 50))
	for x := 20; x < 180; x++ {
		edges.Pix[edges.PixOffset(x, 25)] = 255
	}

	segments := probabilisticHough(edges, defaultHough())
	if len(segments) == 0 {
		t.Fatal("Expected at least one segment")
	}
	s := segments[0]
	if s.y1 != 25 || s.y2 != 25 {
		t.Errorf("Expected segment on row 25, got %+v", s)
	}
	if abs(s.x2-s.x1) < 150 {
		t.Errorf("Expected segment to span most of the row, got %+v", s)
	}
	if a := s.angle(); math.Abs(a) > 1e-9 {
		t.Errorf("Expected 0 degree angle, got %g", a)
	}
}

func TestProbabilisticHough_SparsePointsBelowThreshold(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := 0; i < 10; i++ {
		edges.Pix[edges.PixOffset(i*9, (i*37)%100)] = 255
	}
	if segments := probabilisticHough(edges, defaultHough()); len(segments) != 0 {
		t.Errorf("Expected no segments, got %v", segments)
	}
}

func TestCanny_BarEdges(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 100, 40))
	for y := 15; y < 25; y++ {
		for x := 10; x < 90; x++ {
			mask.Pix[mask.PixOffset(x, y)] = 255
		}
	}

	edges := canny(mask, 50, 150)
	if edges.GrayAt(50, 14).Y != 255 {
		t.Error("Expected an edge just above the bar")
	}
	if edges.GrayAt(50, 24).Y != 255 {
		t.Error("Expected an edge on the bar's last row")
	}
	if edges.GrayAt(50, 19).Y != 0 || edges.GrayAt(50, 5).Y != 0 {
		t.Error("Expected no edges inside the bar or on blank paper")
	}
}

func TestCountComponents(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 10, 10))
	set := func(x, y int) { mask.Pix[mask.PixOffset(x, y)] = 255 }
	set(1, 1)
	set(2, 2) // diagonal neighbour joins the first blob
	set(6, 6)
	set(8, 1)

	if n := countComponents(mask); n != 3 {
		t.Errorf("Expected 3 components, got %d", n)
	}
}
