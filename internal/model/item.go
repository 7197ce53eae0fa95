package model

import "strings"

// CloudFileExtensionType identifies a cloud-managed design file. Only items
// of this extension type accept description updates through this tool.
const CloudFileExtensionType = "items:autodesk.bim360:File"

// FileItem is a leaf document resource with a mutable description attribute.
type FileItem struct {
	ID            string
	DisplayName   string
	Description   string
	ExtensionType string

	// CanUpdateDescription is computed from ExtensionType at creation and
	// never changes afterwards.
	CanUpdateDescription bool
}

// NewFileItem creates a file item, deciding update eligibility from the
// item's extension type.
func NewFileItem(id, displayName, description, extensionType string) *FileItem {
	return &FileItem{
		ID:                   id,
		DisplayName:          displayName,
		Description:          description,
		ExtensionType:        extensionType,
		CanUpdateDescription: strings.EqualFold(extensionType, CloudFileExtensionType),
	}
}
