package model

// placeholderName is shown by tree controls for a not-yet-expanded folder.
const placeholderName = "loading..."

// FolderNode is a directory-like remote resource. Children are fetched
// lazily: a fresh node carries a single placeholder child so a tree control
// can render it as expandable, and the placeholder is replaced wholesale by
// real children on first expansion.
type FolderNode struct {
	ID       string
	Name     string
	Children []*FolderNode

	Loaded      bool
	Loading     bool
	Placeholder bool
}

// NewFolderNode creates an unloaded folder node seeded with one placeholder
// child.
func NewFolderNode(id, name string) *FolderNode {
	return &FolderNode{
		ID:   id,
		Name: name,
		Children: []*FolderNode{
			{Name: placeholderName, Placeholder: true},
		},
	}
}

// BeginLoad marks the node as loading and reports whether a fetch should
// proceed. It returns false while a fetch is in flight or once the node has
// been loaded; a node is fetched at most once per process lifetime.
func (n *FolderNode) BeginLoad() bool {
	if n.Loading || n.Loaded {
		return false
	}
	n.Loading = true
	return true
}

// FinishLoad replaces the placeholder with the fetched children and marks
// the node permanently loaded.
func (n *FolderNode) FinishLoad(children []*FolderNode) {
	n.Children = children
	n.Loaded = true
	n.Loading = false
}

// FailLoad reverts a failed fetch. The placeholder child is still in place
// because children were never cleared, so a later expansion can retry.
func (n *FolderNode) FailLoad() {
	n.Loading = false
}
