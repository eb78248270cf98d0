package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"gopkg.in/yaml.v3"
)

// ExportMarkdown resolves one post and writes its body to a standalone
// markdown file with YAML front matter. Secondary HTML bodies are converted
// to markdown; primary markdown is written as-is.
func ExportMarkdown(resolver *ContentResolver, post Post, outPath string) error {
	resolved, err := resolver.Resolve(post.ContentPath)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", post.ContentPath, err)
	}

	body := resolved.Text
	if resolved.Kind == KindHTML {
		converter := md.NewConverter("", true, nil)
		body, err = converter.ConvertString(resolved.Text)
		if err != nil {
			return fmt.Errorf("converting HTML to markdown: %w", err)
		}
	}

	front := map[string]string{
		"title":    post.Title,
		"datetime": post.DatetimeRaw,
	}
	if post.ID != "" {
		front["id"] = post.ID
	}
	if post.OriginalURL != "" {
		front["source_url"] = post.OriginalURL
	}
	frontYAML, err := yaml.Marshal(front)
	if err != nil {
		return fmt.Errorf("marshaling front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(frontYAML)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	return os.WriteFile(outPath, []byte(b.String()), 0644)
}
