package visualization

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createTestMap builds a rows×cols distance map with a bright vertical ridge in column 1
func createTestMap(rows, cols int) [][]float64 {
	values := make([][]float64, rows)
	for r := range values {
		values[r] = make([]float64, cols)
		for c := range values[r] {
			if c == 1 {
				values[r][c] = 1
			} else {
				values[r][c] = 0.25
			}
		}
	}
	return values
}

// TestNewUMatrixViewer verifies parameter validation
func TestNewUMatrixViewer(t *testing.T) {
	viewer, err := NewUMatrixViewer(createTestMap(2, 3), 4)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	if viewer.rows != 2 || viewer.cols != 3 {
		t.Errorf("Expected a 2x3 grid, got %dx%d", viewer.rows, viewer.cols)
	}

	if _, err := NewUMatrixViewer(nil, 4); err == nil {
		t.Error("Expected error for empty map, got nil")
	}

	if _, err := NewUMatrixViewer(createTestMap(2, 2), 0); err == nil {
		t.Error("Expected error for zero cell size, got nil")
	}

	ragged := [][]float64{{0, 1}, {1}}
	if _, err := NewUMatrixViewer(ragged, 1); err == nil {
		t.Error("Expected error for ragged map, got nil")
	}
}

// TestRender verifies image size and block intensities
func TestRender(t *testing.T) {
	rows, cols, cell := 3, 4, 5
	viewer, err := NewUMatrixViewer(createTestMap(rows, cols), cell)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	img, ok := viewer.Render().(*image.Gray16)
	if !ok {
		t.Fatalf("Expected *image.Gray16")
	}

	bounds := img.Bounds()
	if bounds.Dx() != cols*cell || bounds.Dy() != rows*cell {
		t.Errorf("Expected image dimensions %dx%d, got %dx%d", cols*cell, rows*cell, bounds.Dx(), bounds.Dy())
	}

	// Center of the ridge block in row 2
	if got := img.Gray16At(cell+cell/2, 2*cell+cell/2).Y; got != 65535 {
		t.Errorf("Expected ridge value 65535, got %d", got)
	}

	background := 0.25
	want := uint16(background * 65535)
	if got := img.Gray16At(0, 0).Y; got != want {
		t.Errorf("Expected background value %d, got %d", want, got)
	}
}

// TestValue verifies lookups and bounds checks
func TestValue(t *testing.T) {
	viewer, err := NewUMatrixViewer(createTestMap(2, 2), 1)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	v, err := viewer.Value(1, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v != 1 {
		t.Errorf("Expected 1, got %f", v)
	}

	if _, err := viewer.Value(2, 0); err == nil {
		t.Error("Expected error for out of bounds neuron, got nil")
	}
}

// TestSave verifies that the rendered map is written as a decodable PNG
func TestSave(t *testing.T) {
	viewer, err := NewUMatrixViewer(createTestMap(2, 3), 8)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}

	filename := filepath.Join(t.TempDir(), "nested", "umatrix.png")
	if err := viewer.Save(filename); err != nil {
		t.Fatalf("Failed to save U-matrix: %v", err)
	}

	file, err := os.Open(filename)
	if err != nil {
		t.Fatalf("Saved file cannot be opened: %v", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("Saved file is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 24 || img.Bounds().Dy() != 16 {
		t.Errorf("Expected 24x16 image, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}
