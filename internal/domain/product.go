package domain

// Metadata carries the fixed per-record metadata block.
type Metadata struct {
	Type string `json:"type"`
}

// Product represents one exported product record: the unit the convert
// pipeline emits and the split pipeline re-partitions.
// Image is a pointer so a missing URL serializes as JSON null.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Image    *string  `json:"image"`
	Vector   Vector   `json:"vector"`
	Metadata Metadata `json:"metadata"`
}

// MetadataTypeProduct is the only metadata type emitted today.
const MetadataTypeProduct = "product"
