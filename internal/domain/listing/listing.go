// Package listing holds product metadata records and the codec that maps them
// to and from image filenames stored in the remote repository.
package listing

// Size is one purchasable variant of a product with its own price.
type Size struct {
	Label string `json:"label"`
	Price string `json:"price"`
}

// Listing is a product record decoded from one image filename. It is derived
// read-only and never persisted.
type Listing struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Sizes    []Size `json:"sizes"`
	ImageURL string `json:"image_url"`
}

// Metadata is the explicit product record an upload is built from. The
// filename is only its storage encoding.
type Metadata struct {
	Name  string
	Sizes []Size
}

// Fallback size used when a filename carries no parseable size pairs.
const (
	FallbackLabel = "One Size"
	FallbackPrice = "0"
)

func fallbackSizes() []Size {
	return []Size{{Label: FallbackLabel, Price: FallbackPrice}}
}
