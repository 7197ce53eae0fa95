// Package acc is the authenticated client for the cloud document-management
// API: hubs, projects, folder trees, file items, and attribute updates. The
// API surface is narrow and hand-modeled; there is deliberately no general
// REST abstraction here.
package acc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/jsondoc"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/logging"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/metrics"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/model"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/session"
)

// DefaultBaseURL is the platform's resource API root.
const DefaultBaseURL = "https://developer.api.autodesk.com"

// acceptTypes negotiates both the plain-JSON and JSON:API content types.
const acceptTypes = "application/vnd.api+json, application/json"

// refreshMargin is subtracted from the token expiry when deciding whether to
// refresh before a call. It absorbs client clock skew and in-flight request
// latency so a token never expires mid-request.
const refreshMargin = 2 * time.Minute

// TokenRefresher refreshes an expiring token session in place.
type TokenRefresher interface {
	Refresh(ctx context.Context, s *session.Session) error
}

// Client performs authenticated, paginated REST operations against the
// document-management API. It owns token-freshness enforcement: every call
// checks the session expiry first and refreshes at most once. Callers must
// serialize use of one Client; it provides no mutual exclusion.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
	refresher  TokenRefresher
}

// Config holds data client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Session   *session.Session
	Refresher TokenRefresher
}

// New creates a data client for an already signed-in session.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		session:    cfg.Session,
		refresher:  cfg.Refresher,
	}
}

// ensureFresh refreshes the session when the token expires at or before
// now+refreshMargin. Exactly one refresh, no further retry.
func (c *Client) ensureFresh(ctx context.Context) error {
	if !c.session.ExpiresWithin(refreshMargin) {
		return nil
	}
	logging.Debug("access token expiring, refreshing")
	if err := c.refresher.Refresh(ctx, c.session); err != nil {
		metrics.RecordTokenRefresh("failure")
		return err
	}
	metrics.RecordTokenRefresh("success")
	return nil
}

// get performs one authenticated GET and returns the raw body. Any non-2xx
// status surfaces as an ApiError carrying the body verbatim.
func (c *Client) get(ctx context.Context, op, rawURL string) ([]byte, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.session.AccessToken)
	req.Header.Set("Accept", acceptTypes)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	metrics.RecordAPIRequest(op, resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ApiError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// ListHubs returns the hubs visible to the signed-in account, in server
// order.
func (c *Client) ListHubs(ctx context.Context) ([]model.Hub, error) {
	data, err := c.get(ctx, "list hubs", c.baseURL+"/project/v1/hubs")
	if err != nil {
		return nil, err
	}

	doc := jsondoc.Parse(data)
	var hubs []model.Hub
	for _, entry := range doc.Array("data") {
		hubs = append(hubs, model.Hub{
			ID:   entry.String("id", ""),
			Name: entry.String("attributes.name", ""),
		})
	}
	return hubs, nil
}

// ListProjects returns the projects of one hub, in server order.
func (c *Client) ListProjects(ctx context.Context, hubID string) ([]model.Project, error) {
	u := fmt.Sprintf("%s/project/v1/hubs/%s/projects", c.baseURL, url.PathEscape(hubID))
	data, err := c.get(ctx, "list projects", u)
	if err != nil {
		return nil, err
	}

	doc := jsondoc.Parse(data)
	var projects []model.Project
	for _, entry := range doc.Array("data") {
		projects = append(projects, model.Project{
			ID:   entry.String("id", ""),
			Name: entry.String("attributes.name", ""),
		})
	}
	return projects, nil
}

// ListTopFolders returns a project's root folders, each pre-populated with a
// placeholder child for lazy tree expansion.
func (c *Client) ListTopFolders(ctx context.Context, hubID, projectID string) ([]*model.FolderNode, error) {
	u := fmt.Sprintf("%s/project/v1/hubs/%s/projects/%s/topFolders",
		c.baseURL, url.PathEscape(hubID), url.PathEscape(projectID))
	data, err := c.get(ctx, "list top folders", u)
	if err != nil {
		return nil, err
	}

	folders, _ := classifyContents(jsondoc.Parse(data))
	return folders, nil
}

// ListFolderChildren fetches one page of a folder's contents and returns
// only the sub-folder entries; file entries in the response are discarded.
// Used for lazy tree expansion.
func (c *Client) ListFolderChildren(ctx context.Context, projectID, folderID string) ([]*model.FolderNode, error) {
	data, err := c.get(ctx, "list folder children", c.contentsURL(projectID, folderID))
	if err != nil {
		return nil, err
	}

	folders, _ := classifyContents(jsondoc.Parse(data))
	return folders, nil
}

// ListFilesInFolder fetches all pages of a folder's contents, following the
// links.next.href cursor until absent, and returns only the file entries
// across all pages in server order.
func (c *Client) ListFilesInFolder(ctx context.Context, projectID, folderID string) ([]*model.FileItem, error) {
	var files []*model.FileItem

	next := c.contentsURL(projectID, folderID)
	for next != "" {
		data, err := c.get(ctx, "list files", next)
		if err != nil {
			return nil, err
		}

		doc := jsondoc.Parse(data)
		_, pageFiles := classifyContents(doc)
		files = append(files, pageFiles...)
		next = doc.String("links.next.href", "")
	}

	return files, nil
}

// UpdateFileDescription PATCHes an item's description attribute. The
// JSON:API body is hand-assembled, so the embedded strings are escaped for
// backslash, quote, CR and LF. The response body is not parsed on success.
func (c *Client) UpdateFileDescription(ctx context.Context, projectID, itemID, description string) error {
	if err := c.ensureFresh(ctx); err != nil {
		return err
	}

	body := fmt.Sprintf(
		`{"jsonapi":{"version":"1.0"},"data":{"type":"items","id":"%s","attributes":{"description":"%s"}}}`,
		escapeJSONString(itemID), escapeJSONString(description))

	u := fmt.Sprintf("%s/data/v1/projects/%s/items/%s",
		c.baseURL, url.PathEscape(projectID), url.PathEscape(itemID))
	req, err := http.NewRequestWithContext(ctx, "PATCH", u, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.session.AccessToken)
	req.Header.Set("Content-Type", "application/vnd.api+json")
	req.Header.Set("Accept", acceptTypes)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update item request failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	metrics.RecordAPIRequest("update item", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpdateError{ItemID: itemID, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return nil
}

func (c *Client) contentsURL(projectID, folderID string) string {
	return fmt.Sprintf("%s/data/v1/projects/%s/folders/%s/contents",
		c.baseURL, url.PathEscape(projectID), url.PathEscape(folderID))
}

// classifyContents splits a folder-contents response into folder nodes and
// file items. Entry types are matched case-insensitively; entries that are
// neither "folders" nor "items" are ignored.
func classifyContents(doc jsondoc.Doc) ([]*model.FolderNode, []*model.FileItem) {
	var folders []*model.FolderNode
	var files []*model.FileItem

	for _, entry := range doc.Array("data") {
		switch t := entry.String("type", ""); {
		case strings.EqualFold(t, "folders"):
			folders = append(folders, model.NewFolderNode(
				entry.String("id", ""),
				entry.String("attributes.name", ""),
			))
		case strings.EqualFold(t, "items"):
			name := entry.String("attributes.displayName", "")
			if name == "" {
				name = entry.String("attributes.name", "")
			}
			files = append(files, model.NewFileItem(
				entry.String("id", ""),
				name,
				entry.String("attributes.description", ""),
				entry.String("attributes.extension.type", ""),
			))
		}
	}

	return folders, files
}

var jsonEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r", `\r`,
	"\n", `\n`,
)

// escapeJSONString escapes a string for embedding in the hand-assembled
// PATCH body.
func escapeJSONString(s string) string {
	return jsonEscaper.Replace(s)
}
