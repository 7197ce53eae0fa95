// Package model holds the domain records for the remote document hierarchy:
// hubs, projects, lazily-expanded folder nodes, and file items.
package model

// Hub is a top-level tenant grouping in the document-management service.
type Hub struct {
	ID   string
	Name string
}

// Project is a project within a hub, containing a folder hierarchy.
type Project struct {
	ID   string
	Name string
}
