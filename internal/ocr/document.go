package ocr

import (
	"strings"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// PageText is the text chosen for one page and where it came from.
type PageText struct {
	Number     int
	Text       string
	Provenance constants.PageProvenance
}

// DocumentText is the reconciled text of a document. It cannot be changed
// after construction.
type DocumentText struct {
	pages []PageText
}

func NewDocumentText(pages []PageText) DocumentText {
	return DocumentText{pages: append([]PageText(nil), pages...)}
}

// Pages returns a copy of the per-page texts in page order.
func (d DocumentText) Pages() []PageText {
	return append([]PageText(nil), d.pages...)
}

func (d DocumentText) PageCount() int { return len(d.pages) }

// Text joins the page texts with newlines.
func (d DocumentText) Text() string {
	parts := make([]string, len(d.pages))
	for i, p := range d.pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n")
}

// UsedOCR reports whether any page was recovered by OCR.
func (d DocumentText) UsedOCR() bool {
	for _, p := range d.pages {
		if p.Provenance == constants.ProvenanceOCRRecovered {
			return true
		}
	}
	return false
}
