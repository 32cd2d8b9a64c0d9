package catalog

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/poiesic/skusearch/core"
)

const previewDescriptionWidth = 60

// Preview writes an aligned tabular preview of the first n products to w.
// An n <= 0 prints all products.
func Preview(w io.Writer, products []*core.Product, n int) {
	if n <= 0 || n > len(products) {
		n = len(products)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tBRAND\tPRICE\tDESCRIPTION")
	for _, p := range products[:n] {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Id, p.Name, p.Category, p.Brand, p.Price, truncate(p.Description, previewDescriptionWidth))
	}
	tw.Flush()

	if n < len(products) {
		fmt.Fprintf(w, "... and %d more\n", len(products)-n)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
