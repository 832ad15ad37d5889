package evidence

import "sort"

// Kind is the shape of the source document, which decides the page unit.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindSpreadsheet Kind = "spreadsheet"
	KindText        Kind = "text"
)

// Section is a heading found by the document parser and the page it sits on.
type Section struct {
	Page   int    `json:"page"`
	Header string `json:"header"`
}

// Document is the parsed form of a batch's source documents, as handed
// over by the document-parser collaborator.
type Document struct {
	Text      string
	Pages     map[int]string
	Tables    string
	Sections  []Section
	Kind      Kind
	SourceDoc string
}

// SearchText is the text the locator scans: the full context text, or the
// markdown tables when the parser produced no running text.
func (d Document) SearchText() string {
	if d.Text != "" {
		return d.Text
	}
	return d.Tables
}

func (d Document) pageNumbers() []int {
	nums := make([]int, 0, len(d.Pages))
	for n := range d.Pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}
