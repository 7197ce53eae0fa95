// Package browse coordinates the remote-resource hierarchy for a shell:
// hub and project selection, lazy folder-tree expansion, and the current
// folder's file list. All state is held on the Browser value, not in
// process-wide singletons, so independent sessions can coexist. Callers
// must serialize: one pending expansion per node, one operation at a time.
package browse

import (
	"context"
	"fmt"

	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/model"
)

// DataClient is the slice of the data client the browser needs.
type DataClient interface {
	ListHubs(ctx context.Context) ([]model.Hub, error)
	ListProjects(ctx context.Context, hubID string) ([]model.Project, error)
	ListTopFolders(ctx context.Context, hubID, projectID string) ([]*model.FolderNode, error)
	ListFolderChildren(ctx context.Context, projectID, folderID string) ([]*model.FolderNode, error)
	ListFilesInFolder(ctx context.Context, projectID, folderID string) ([]*model.FileItem, error)
}

// Browser holds the currently browsed hierarchy. The exported collections
// are read-only from the shell's perspective; a failed listing leaves the
// previously displayed state unchanged.
type Browser struct {
	client DataClient

	Hubs     []model.Hub
	Projects []model.Project
	Roots    []*model.FolderNode
	Files    []*model.FileItem

	CurrentHub     *model.Hub
	CurrentProject *model.Project
}

// New creates a browser over a signed-in data client.
func New(client DataClient) *Browser {
	return &Browser{client: client}
}

// LoadHubs fetches the hub list.
func (b *Browser) LoadHubs(ctx context.Context) error {
	hubs, err := b.client.ListHubs(ctx)
	if err != nil {
		return err
	}
	b.Hubs = hubs
	return nil
}

// SelectHub makes hubID current and loads its projects.
func (b *Browser) SelectHub(ctx context.Context, hubID string) error {
	hub := b.findHub(hubID)
	if hub == nil {
		return fmt.Errorf("unknown hub %q", hubID)
	}

	projects, err := b.client.ListProjects(ctx, hubID)
	if err != nil {
		return err
	}

	b.CurrentHub = hub
	b.Projects = projects
	b.CurrentProject = nil
	b.Roots = nil
	b.Files = nil
	return nil
}

// SelectProject makes projectID current and loads its top folders.
func (b *Browser) SelectProject(ctx context.Context, projectID string) error {
	if b.CurrentHub == nil {
		return fmt.Errorf("no hub selected")
	}
	project := b.findProject(projectID)
	if project == nil {
		return fmt.Errorf("unknown project %q", projectID)
	}

	roots, err := b.client.ListTopFolders(ctx, b.CurrentHub.ID, projectID)
	if err != nil {
		return err
	}

	b.CurrentProject = project
	b.Roots = roots
	b.Files = nil
	return nil
}

// Expand loads a folder node's children on first expansion. Re-entrant
// expansion while loading, and expansion of an already loaded node, are
// no-ops: a node is fetched at most once per process lifetime. On failure
// the node keeps its placeholder so a later expansion can retry.
func (b *Browser) Expand(ctx context.Context, node *model.FolderNode) error {
	if b.CurrentProject == nil {
		return fmt.Errorf("no project selected")
	}
	if !node.BeginLoad() {
		return nil
	}

	children, err := b.client.ListFolderChildren(ctx, b.CurrentProject.ID, node.ID)
	if err != nil {
		node.FailLoad()
		return err
	}

	node.FinishLoad(children)
	return nil
}

// SelectFolder loads all file items of folderID, replacing the current file
// list wholesale.
func (b *Browser) SelectFolder(ctx context.Context, folderID string) error {
	if b.CurrentProject == nil {
		return fmt.Errorf("no project selected")
	}

	files, err := b.client.ListFilesInFolder(ctx, b.CurrentProject.ID, folderID)
	if err != nil {
		return err
	}

	b.Files = files
	return nil
}

// FindFolder locates a node by ID anywhere in the loaded tree.
func (b *Browser) FindFolder(id string) *model.FolderNode {
	for _, root := range b.Roots {
		if found := model.FindByID(root, id); found != nil {
			return found
		}
	}
	return nil
}

func (b *Browser) findHub(id string) *model.Hub {
	for i := range b.Hubs {
		if b.Hubs[i].ID == id {
			return &b.Hubs[i]
		}
	}
	return nil
}

func (b *Browser) findProject(id string) *model.Project {
	for i := range b.Projects {
		if b.Projects[i].ID == id {
			return &b.Projects[i]
		}
	}
	return nil
}
