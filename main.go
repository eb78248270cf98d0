package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	settingsPath string
	rootFlag     string
	indexFlag    string
	listenFlag   string
	watchFlag    bool
	outputFlag   string
	debugEnabled bool
)

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blogview",
	Short: "Browse a crawler-produced blog archive",
	Long: `blogview reads the JSON post index of a scraped blog archive and
lists, renders, exports, or serves its posts. The archive root may be a
local directory or an HTTP(S) base URL.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings()
		if err != nil {
			return err
		}
		posts, total, err := loadPosts(settings)
		if err != nil {
			return err
		}
		openable := OpenablePosts(posts)
		for _, p := range openable {
			fmt.Printf("%-16s  %-10s  %s\n", p.DateText, p.ID, p.Title)
		}
		fmt.Printf("%d openable posts (%d records)\n", len(openable), total)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <path|id>",
	Short: "Resolve one post and print its rendered body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings()
		if err != nil {
			return err
		}
		posts, _, err := loadPosts(settings)
		if err != nil {
			return err
		}
		post, ok := FindPost(posts, args[0])
		if !ok {
			// Not in the index; treat the argument as a literal path.
			post = Post{ContentPath: NormalizePath(args[0])}
		}
		if !post.Openable() {
			return fmt.Errorf("post %q has no content path", args[0])
		}

		fetcher := NewContentFetcher(settings.Root)
		viewer := NewViewer(NewContentResolver(fetcher))
		rendered, err := viewer.Open(post.ContentPath)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) {
				return fmt.Errorf("content not available (attempted %s): %w", fe.Location, err)
			}
			return err
		}
		if rendered.Note != "" {
			fmt.Fprintf(os.Stderr, "note: %s\n", rendered.Note)
		}
		fmt.Println(rendered.HTML)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <path|id>",
	Short: "Export one post as a markdown file with front matter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings()
		if err != nil {
			return err
		}
		posts, _, err := loadPosts(settings)
		if err != nil {
			return err
		}
		post, ok := FindPost(posts, args[0])
		if !ok {
			return fmt.Errorf("post %q not found in index", args[0])
		}
		out := outputFlag
		if out == "" {
			out = "export.md"
		}
		resolver := NewContentResolver(NewContentFetcher(settings.Root))
		if err := ExportMarkdown(resolver, post, out); err != nil {
			return err
		}
		log.Printf("exported %s to %s", post.ContentPath, out)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the archive with a browsable viewer page",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings()
		if err != nil {
			return err
		}
		return NewServer(settings).Run()
	},
}

// resolveSettings loads the settings file and applies flag overrides.
func resolveSettings() (*Settings, error) {
	settings, err := loadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	if rootFlag != "" {
		settings.Root = rootFlag
	}
	if indexFlag != "" {
		settings.IndexPath = indexFlag
	}
	if listenFlag != "" {
		settings.Listen = listenFlag
	}
	if watchFlag {
		settings.Watch = true
	}
	debugLog("settings: root=%s index=%s", settings.Root, settings.IndexPath)
	return settings, nil
}

// loadPosts loads and normalizes the index once.
func loadPosts(settings *Settings) ([]Post, int, error) {
	loader := NewIndexLoader(NewContentFetcher(settings.Root))
	records, err := loader.Load(settings.IndexPath)
	if err != nil {
		return nil, 0, err
	}
	return BuildPosts(records), len(records), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "blogview.yaml", "Path to settings file")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Archive root (directory or HTTP base URL)")
	rootCmd.PersistentFlags().StringVar(&indexFlag, "index", "", "Index path relative to the archive root")
	rootCmd.PersistentFlags().BoolVar(&debugEnabled, "debug", false, "Enable debug logging")

	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "Listen address")
	serveCmd.Flags().BoolVar(&watchFlag, "watch", false, "Reload the index when it changes on disk")
	exportCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file path")

	rootCmd.AddCommand(listCmd, showCmd, exportCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
