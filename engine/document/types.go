package document

// Kind distinguishes narrative page text from serialized table rows.
type Kind string

const (
	KindPage  Kind = "page"
	KindTable Kind = "table"
)

// Block is one page's extracted narrative text or its serialized tables.
// Blocks are immutable once produced and live only for the request.
type Block struct {
	Content string
	Page    int
	Kind    Kind
}
