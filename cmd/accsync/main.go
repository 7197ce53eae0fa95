// accsync - cloud document attribute sync
//
// Signs into the document-management service through the system browser,
// browses the hub / project / folder hierarchy, and applies descriptions
// from a CSV dataset to the files of one folder.
//
// Sub-commands:
//
//	accsync hubs                                        List visible hubs
//	accsync projects -hub <id>                          List a hub's projects
//	accsync tree -hub <id> -project <id> [-depth n]     Print the folder tree
//	accsync files -hub <id> -project <id> -folder <id>  List a folder's files
//	accsync sync -hub <id> -project <id> -folder <id> -data <csv>
//	                                                    Reconcile descriptions
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/acc"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/auth"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/browse"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/config"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/dataset"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/events"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/logging"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/metrics"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/model"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/reconcile"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "hubs":
		cmdHubs(os.Args[2:])
	case "projects":
		cmdProjects(os.Args[2:])
	case "tree":
		cmdTree(os.Args[2:])
	case "files":
		cmdFiles(os.Args[2:])
	case "sync":
		cmdSync(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: accsync <hubs|projects|tree|files|sync> [flags]")
}

// setup loads config, initializes logging and metrics, signs in, and
// returns a browser over the signed-in data client.
func setup(ctx context.Context) (*browse.Browser, *acc.Client) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "logging init failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			logging.Info("metrics listening", logging.String("addr", cfg.MetricsAddr))
			if err := http.ListenAndServe(cfg.MetricsAddr, metrics.Handler()); err != nil {
				logging.Error("metrics server error", logging.Err(err))
			}
		}()
	}

	authClient := auth.New(auth.Config{
		AuthorizeURL: cfg.AuthorizeURL,
		TokenURL:     cfg.TokenURL,
		RedirectURI:  cfg.RedirectURI,
		ListenAddr:   cfg.ListenAddr,
		Scope:        cfg.Scope,
	})

	loginCtx, cancel := context.WithTimeout(ctx, cfg.LoginTimeout)
	defer cancel()

	sess, err := authClient.Authenticate(loginCtx, cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		logging.Fatal("sign-in failed", logging.Err(err))
	}

	client := acc.New(acc.Config{
		BaseURL:   cfg.BaseURL,
		Session:   sess,
		Refresher: authClient,
	})
	return browse.New(client), client
}

func cmdHubs(args []string) {
	fs := flag.NewFlagSet("hubs", flag.ExitOnError)
	fs.Parse(args)

	ctx := context.Background()
	browser, _ := setup(ctx)
	defer logging.Sync()

	if err := browser.LoadHubs(ctx); err != nil {
		logging.Fatal("listing hubs failed", logging.Err(err))
	}
	for _, hub := range browser.Hubs {
		fmt.Printf("%s\t%s\n", hub.ID, hub.Name)
	}
}

func cmdProjects(args []string) {
	fs := flag.NewFlagSet("projects", flag.ExitOnError)
	hubID := fs.String("hub", "", "Hub ID (required)")
	fs.Parse(args)
	requireFlags(fs, map[string]string{"hub": *hubID})

	ctx := context.Background()
	browser, _ := setup(ctx)
	defer logging.Sync()

	if err := browser.LoadHubs(ctx); err != nil {
		logging.Fatal("listing hubs failed", logging.Err(err))
	}
	if err := browser.SelectHub(ctx, *hubID); err != nil {
		logging.Fatal("selecting hub failed", logging.Err(err))
	}
	for _, project := range browser.Projects {
		fmt.Printf("%s\t%s\n", project.ID, project.Name)
	}
}

func cmdTree(args []string) {
	fs := flag.NewFlagSet("tree", flag.ExitOnError)
	hubID := fs.String("hub", "", "Hub ID (required)")
	projectID := fs.String("project", "", "Project ID (required)")
	depth := fs.Int("depth", 2, "How many folder levels to expand")
	fs.Parse(args)
	requireFlags(fs, map[string]string{"hub": *hubID, "project": *projectID})

	ctx := context.Background()
	browser, _ := setup(ctx)
	defer logging.Sync()

	selectProject(ctx, browser, *hubID, *projectID)
	for _, root := range browser.Roots {
		printTree(ctx, browser, root, 0, *depth)
	}
}

func printTree(ctx context.Context, browser *browse.Browser, node *model.FolderNode, level, maxDepth int) {
	fmt.Printf("%s%s\t%s\n", strings.Repeat("  ", level), node.Name, node.ID)
	if level >= maxDepth {
		return
	}
	if err := browser.Expand(ctx, node); err != nil {
		logging.Error("expanding folder failed",
			logging.String("folder", node.Name), logging.Err(err))
		return
	}
	for _, child := range node.Children {
		if child.Placeholder {
			continue
		}
		printTree(ctx, browser, child, level+1, maxDepth)
	}
}

func cmdFiles(args []string) {
	fs := flag.NewFlagSet("files", flag.ExitOnError)
	hubID := fs.String("hub", "", "Hub ID (required)")
	projectID := fs.String("project", "", "Project ID (required)")
	folderID := fs.String("folder", "", "Folder ID (required)")
	fs.Parse(args)
	requireFlags(fs, map[string]string{"hub": *hubID, "project": *projectID, "folder": *folderID})

	ctx := context.Background()
	browser, _ := setup(ctx)
	defer logging.Sync()

	selectProject(ctx, browser, *hubID, *projectID)
	if err := browser.SelectFolder(ctx, *folderID); err != nil {
		logging.Fatal("listing files failed", logging.Err(err))
	}
	for _, file := range browser.Files {
		marker := " "
		if file.CanUpdateDescription {
			marker = "*"
		}
		fmt.Printf("%s %s\t%s\n", marker, file.DisplayName, file.Description)
	}
}

func cmdSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	hubID := fs.String("hub", "", "Hub ID (required)")
	projectID := fs.String("project", "", "Project ID (required)")
	folderID := fs.String("folder", "", "Folder ID (required)")
	dataPath := fs.String("data", "", "CSV file mapping file names to descriptions (required)")
	fs.Parse(args)
	requireFlags(fs, map[string]string{
		"hub": *hubID, "project": *projectID, "folder": *folderID, "data": *dataPath,
	})

	rows, err := dataset.Load(*dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dataset error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	browser, client := setup(ctx)
	defer logging.Sync()

	selectProject(ctx, browser, *hubID, *projectID)
	if err := browser.SelectFolder(ctx, *folderID); err != nil {
		logging.Fatal("listing files failed", logging.Err(err))
	}

	bus := events.NewBroadcaster()
	ch := bus.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for event := range ch {
			if event.Item != "" {
				fmt.Printf("[%s] %s: %s\n", event.Type, event.Item, event.Message)
			}
		}
	}()

	driver := reconcile.New(client, bus)
	result := driver.Run(ctx, *projectID, browser.Files, reconcile.NewDataset(rows))

	bus.Unsubscribe(ch)
	wg.Wait()

	fmt.Printf("updated=%d skipped=%d\n", result.Updated, result.Skipped)
}

func selectProject(ctx context.Context, browser *browse.Browser, hubID, projectID string) {
	if err := browser.LoadHubs(ctx); err != nil {
		logging.Fatal("listing hubs failed", logging.Err(err))
	}
	if err := browser.SelectHub(ctx, hubID); err != nil {
		logging.Fatal("selecting hub failed", logging.Err(err))
	}
	if err := browser.SelectProject(ctx, projectID); err != nil {
		logging.Fatal("selecting project failed", logging.Err(err))
	}
}

func requireFlags(fs *flag.FlagSet, values map[string]string) {
	for name, value := range values {
		if value == "" {
			fmt.Fprintf(os.Stderr, "missing required -%s flag\n", name)
			fs.Usage()
			os.Exit(2)
		}
	}
}
