package dataset

import "testing"

func featuresTable(rows ...Row) *Table {
	return &Table{Columns: []string{"product_id", "clip_image_features"}, Rows: rows}
}

func imagesTable(rows ...Row) *Table {
	return &Table{Columns: []string{"product_id", "image_url"}, Rows: rows}
}

func TestInnerJoinKeepsOnlyMatchingKeys(t *testing.T) {
	left := featuresTable(
		Row{"product_id": "a", "clip_image_features": []float32{1}},
		Row{"product_id": "b", "clip_image_features": []float32{2}},
		Row{"product_id": "c", "clip_image_features": []float32{3}},
	)
	right := imagesTable(
		Row{"product_id": "c", "image_url": "http://img/c"},
		Row{"product_id": "a", "image_url": "http://img/a"},
		Row{"product_id": "z", "image_url": "http://img/z"},
	)

	res, err := InnerJoin(left, right, "product_id")
	if err != nil {
		t.Fatalf("InnerJoin returned error: %v", err)
	}

	if got := res.Table.NumRows(); got != 2 {
		t.Fatalf("merged rows: got %d, want 2", got)
	}
	// Left order preserved: a before c.
	if id, _ := KeyString(res.Table.Rows[0]["product_id"]); id != "a" {
		t.Errorf("row 0 id: got %q, want %q", id, "a")
	}
	if id, _ := KeyString(res.Table.Rows[1]["product_id"]); id != "c" {
		t.Errorf("row 1 id: got %q, want %q", id, "c")
	}
	if url := res.Table.Rows[0]["image_url"]; url != "http://img/a" {
		t.Errorf("row 0 image_url: got %v", url)
	}
	if res.DroppedLeft != 1 {
		t.Errorf("dropped left: got %d, want 1", res.DroppedLeft)
	}
	if res.DroppedRight != 1 {
		t.Errorf("dropped right: got %d, want 1", res.DroppedRight)
	}
}

func TestInnerJoinEmptyResult(t *testing.T) {
	left := featuresTable(Row{"product_id": "a", "clip_image_features": []float32{1}})
	right := imagesTable(Row{"product_id": "b", "image_url": "http://img/b"})

	res, err := InnerJoin(left, right, "product_id")
	if err != nil {
		t.Fatalf("InnerJoin returned error: %v", err)
	}
	if got := res.Table.NumRows(); got != 0 {
		t.Errorf("merged rows: got %d, want 0", got)
	}
}

func TestInnerJoinDuplicateKeysCrossProduct(t *testing.T) {
	left := featuresTable(
		Row{"product_id": "a", "clip_image_features": []float32{1}},
		Row{"product_id": "a", "clip_image_features": []float32{2}},
	)
	right := imagesTable(
		Row{"product_id": "a", "image_url": "http://img/1"},
		Row{"product_id": "a", "image_url": "http://img/2"},
	)

	res, err := InnerJoin(left, right, "product_id")
	if err != nil {
		t.Fatalf("InnerJoin returned error: %v", err)
	}
	if got := res.Table.NumRows(); got != 4 {
		t.Errorf("cross product rows: got %d, want 4", got)
	}
}

func TestInnerJoinMixedKeyTypes(t *testing.T) {
	// Matching int64 and int32 keys stringify identically.
	left := &Table{Columns: []string{"product_id", "v"}, Rows: []Row{
		{"product_id": int64(42), "v": 1},
	}}
	right := &Table{Columns: []string{"product_id", "image_url"}, Rows: []Row{
		{"product_id": int32(42), "image_url": "http://img/42"},
	}}

	res, err := InnerJoin(left, right, "product_id")
	if err != nil {
		t.Fatalf("InnerJoin returned error: %v", err)
	}
	if got := res.Table.NumRows(); got != 1 {
		t.Errorf("merged rows: got %d, want 1", got)
	}
}

func TestInnerJoinMissingColumn(t *testing.T) {
	left := featuresTable()
	right := &Table{Columns: []string{"other"}, Rows: nil}
	if _, err := InnerJoin(left, right, "product_id"); err == nil {
		t.Error("expected error for missing join column, got nil")
	}
}

func TestInnerJoinNullKeysDropped(t *testing.T) {
	left := featuresTable(
		Row{"product_id": nil, "clip_image_features": []float32{1}},
		Row{"product_id": "a", "clip_image_features": []float32{2}},
	)
	right := imagesTable(Row{"product_id": "a", "image_url": "u"})

	res, err := InnerJoin(left, right, "product_id")
	if err != nil {
		t.Fatalf("InnerJoin returned error: %v", err)
	}
	if got := res.Table.NumRows(); got != 1 {
		t.Errorf("merged rows: got %d, want 1", got)
	}
	if res.DroppedLeft != 1 {
		t.Errorf("dropped left: got %d, want 1", res.DroppedLeft)
	}
}

func TestKeyString(t *testing.T) {
	testCases := []struct {
		name  string
		input interface{}
		want  string
		ok    bool
	}{
		{name: "string", input: "B07ABC", want: "B07ABC", ok: true},
		{name: "bytes", input: []byte("xyz"), want: "xyz", ok: true},
		{name: "int32", input: int32(7), want: "7", ok: true},
		{name: "int64", input: int64(-12), want: "-12", ok: true},
		{name: "nil", input: nil, want: "", ok: false},
		{name: "slice", input: []float32{1}, want: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := KeyString(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok: got %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
