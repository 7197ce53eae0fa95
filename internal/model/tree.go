package model

// FindByID finds a folder node by its ID in a tree (recursive).
func FindByID(root *FolderNode, id string) *FolderNode {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, child := range root.Children {
		if found := FindByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// CountNodes counts all nodes in a tree, placeholders included.
func CountNodes(root *FolderNode) int {
	if root == nil {
		return 0
	}
	count := 1
	for _, child := range root.Children {
		count += CountNodes(child)
	}
	return count
}
