package core

// Sentinel is the literal substituted for any missing or empty field value
// in the source catalog. Downstream stages never observe absent values.
const Sentinel = "Unknown"

// Product represents one catalog item. The Vector field is populated by the
// embedding stage; everything else comes from the source file.
type Product struct {
	Id          string
	Name        string
	Category    string
	Brand       string
	Price       string
	Description string
	Vector      []float32 // Embedding of Description (populated by the pipeline)
}

// Normalize replaces every empty descriptive field with the Sentinel literal.
// A product with an empty Id gets a deterministic content-based identifier so
// re-indexing the same row overwrites rather than duplicates.
func (p *Product) Normalize() {
	if p.Name == "" {
		p.Name = Sentinel
	}
	if p.Category == "" {
		p.Category = Sentinel
	}
	if p.Brand == "" {
		p.Brand = Sentinel
	}
	if p.Price == "" {
		p.Price = Sentinel
	}
	if p.Description == "" {
		p.Description = Sentinel
	}
	if p.Id == "" {
		p.Id = IDFromContent(p.Name + "|" + p.Description)
	}
}

// Hit is a single search result: the projected product fields plus the
// similarity score reported by the search service.
type Hit struct {
	Product *Product
	Score   float32
}

// IndexFailure records a single product that could not be indexed.
type IndexFailure struct {
	Id  string
	Err error
}

// IndexReport summarizes a best-effort batch write: how many products were
// indexed and which ones failed. Partial success is not an error.
type IndexReport struct {
	Indexed  int
	Failures []IndexFailure
}

// Failed returns the number of products that could not be indexed.
func (r *IndexReport) Failed() int {
	return len(r.Failures)
}
