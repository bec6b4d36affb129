package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/timmy/shopvec/internal/dataset"
	"github.com/timmy/shopvec/internal/domain"
)

func testConvertConfig() *ConvertConfig {
	return &ConvertConfig{
		JoinColumn:      "product_id",
		EmbeddingColumn: "clip_image_features",
		ImageColumn:     "image_url",
		MaxItems:        10000,
	}
}

func mergedTable(rows ...dataset.Row) *dataset.Table {
	return &dataset.Table{
		Columns: []string{"product_id", "clip_image_features", "image_url"},
		Rows:    rows,
	}
}

func TestProjectRecords(t *testing.T) {
	merged := mergedTable(
		dataset.Row{
			"product_id":          "B001",
			"clip_image_features": []float32{0.1, 0.2},
			"image_url":           "https://img/B001.jpg",
		},
		dataset.Row{
			"product_id":          int64(77),
			"clip_image_features": []interface{}{float64(1), float64(2)},
			// no image_url cell
		},
	)

	products, skipped := projectRecords(merged, testConvertConfig())
	if skipped != 0 {
		t.Fatalf("skipped: got %d, want 0", skipped)
	}
	if len(products) != 2 {
		t.Fatalf("records: got %d, want 2", len(products))
	}

	first := products[0]
	if first.ID != "B001" {
		t.Errorf("id: got %q, want %q", first.ID, "B001")
	}
	if first.Name != "Product B001" {
		t.Errorf("name: got %q, want %q", first.Name, "Product B001")
	}
	if first.Image == nil || *first.Image != "https://img/B001.jpg" {
		t.Errorf("image: got %v", first.Image)
	}
	if len(first.Vector) != 2 {
		t.Errorf("vector length: got %d, want 2", len(first.Vector))
	}
	if first.Metadata.Type != "product" {
		t.Errorf("metadata type: got %q, want %q", first.Metadata.Type, "product")
	}

	second := products[1]
	if second.ID != "77" {
		t.Errorf("stringified id: got %q, want %q", second.ID, "77")
	}
	if second.Image != nil {
		t.Errorf("missing image should be nil, got %v", *second.Image)
	}
}

func TestProjectRecordsSkipsMalformedRows(t *testing.T) {
	merged := mergedTable(
		dataset.Row{"product_id": "good", "clip_image_features": []float32{1}},
		dataset.Row{"product_id": "bad-vector", "clip_image_features": "not a vector"},
		dataset.Row{"product_id": nil, "clip_image_features": []float32{1}},
		dataset.Row{"product_id": "also-good", "clip_image_features": []float64{2}},
	)

	products, skipped := projectRecords(merged, testConvertConfig())
	if skipped != 2 {
		t.Errorf("skipped: got %d, want 2", skipped)
	}
	if len(products) != 2 {
		t.Fatalf("records: got %d, want 2", len(products))
	}
	if products[0].ID != "good" || products[1].ID != "also-good" {
		t.Errorf("unexpected record order: %q, %q", products[0].ID, products[1].ID)
	}
}

func TestProjectRecordsHonorsMaxItems(t *testing.T) {
	rows := make([]dataset.Row, 5)
	for i := range rows {
		rows[i] = dataset.Row{"product_id": int64(i), "clip_image_features": []float32{float32(i)}}
	}
	cfg := testConvertConfig()
	cfg.MaxItems = 2

	products, skipped := projectRecords(mergedTable(rows...), cfg)
	if skipped != 0 {
		t.Errorf("skipped: got %d, want 0", skipped)
	}
	if len(products) != 2 {
		t.Fatalf("records: got %d, want 2", len(products))
	}
	if products[0].ID != "0" || products[1].ID != "1" {
		t.Errorf("cap should keep table order: %q, %q", products[0].ID, products[1].ID)
	}
}

func TestWriteJSONArrayEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "products_vectors.json")

	if err := writeJSONArray(path, []domain.Product{}); err != nil {
		t.Fatalf("writeJSONArray returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty output: got %q, want %q", data, "[]")
	}
}

func TestWriteJSONArrayRecordShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_vectors.json")
	img := "https://img/x.jpg"
	products := []domain.Product{
		{
			ID:       "x",
			Name:     "Product x",
			Image:    &img,
			Vector:   domain.Vector{0.5},
			Metadata: domain.Metadata{Type: "product"},
		},
		{
			ID:       "y",
			Name:     "Product y",
			Vector:   domain.Vector{1},
			Metadata: domain.Metadata{Type: "product"},
		},
	}

	if err := writeJSONArray(path, products); err != nil {
		t.Fatalf("writeJSONArray returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("records: got %d, want 2", len(decoded))
	}

	for _, key := range []string{"id", "name", "image", "vector", "metadata"} {
		if _, ok := decoded[0][key]; !ok {
			t.Errorf("record missing field %q", key)
		}
	}
	// A missing image URL serializes as explicit null, not an absent field.
	if v, ok := decoded[1]["image"]; !ok || v != nil {
		t.Errorf("image: got %v (present=%v), want null", v, ok)
	}
	meta, ok := decoded[0]["metadata"].(map[string]interface{})
	if !ok || meta["type"] != "product" {
		t.Errorf("metadata: got %v", decoded[0]["metadata"])
	}
}
