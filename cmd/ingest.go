package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chrys/docquery/internal/config"
	"github.com/chrys/docquery/internal/history"
	"github.com/chrys/docquery/internal/progress"
	"github.com/chrys/docquery/internal/projects"
	"github.com/chrys/docquery/internal/ragengine"
	"github.com/chrys/docquery/internal/walker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file-or-directory]",
	Short: "Index a document or a directory of documents into a project",
	Long: `Extracts text from the given file (or every supported file under
the given directory), embeds it, and stores it in the project's index.
Supported formats: .txt, .md, .pdf.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("project", "", "project id (defaults to the only project)")
	ingestCmd.Flags().String("name", "", "document name (single file only; defaults to the file name)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	target := args[0]

	projectFlag, _ := cmd.Flags().GetString("project")
	nameFlag, _ := cmd.Flags().GetString("name")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	projectID, err := resolveProject(registry, projectFlag)
	if err != nil {
		return err
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("accessing %s: %w", target, err)
	}

	engine, err := openEngine(cfg, projectID)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		name := nameFlag
		if name == "" {
			name = filepath.Base(target)
		}
		return ingestOne(ctx, cfg, registry, engine, projectID, target, name)
	}

	if nameFlag != "" {
		return fmt.Errorf("--name applies to single files only")
	}
	return ingestDirectory(ctx, cfg, registry, engine, projectID, target)
}

// ingestOne indexes a single file and records it in the registry.
func ingestOne(ctx context.Context, cfg *config.Config, registry *projects.Store, engine *ragengine.Engine, projectID, path, name string) error {
	err := engine.IndexDocument(ctx, path, name)

	entry := history.Entry{
		ProjectID: projectID,
		Action:    history.ActionIngest,
		Document:  name,
		Detail:    path,
		Success:   err == nil,
	}
	if err != nil {
		entry.Detail = err.Error()
	}
	logHistory(cfg, entry)

	if err != nil {
		return err
	}
	if err := registry.AddDocument(projectID, name); err != nil {
		return fmt.Errorf("updating project registry: %w", err)
	}
	fmt.Printf("Indexed %q into %s\n", name, projectID)
	return nil
}

// ingestDirectory walks the directory and indexes every supported
// document, reporting progress. Files that fail (unreadable, empty,
// duplicate name) are skipped with a warning rather than aborting the
// whole batch.
func ingestDirectory(ctx context.Context, cfg *config.Config, registry *projects.Store, engine *ragengine.Engine, projectID, dir string) error {
	files, err := walker.Walk(walker.Config{
		RootDir: dir,
		Include: cfg.Include,
		Exclude: cfg.Exclude,
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No supported documents found.")
		return nil
	}

	reporter := progress.NewReporter()
	reporter.Start(len(files))
	defer reporter.Finish()

	indexed, skipped := 0, 0
	for i, f := range files {
		reporter.Update(i+1, f.RelPath)

		name := f.RelPath
		if err := engine.IndexDocument(ctx, f.Path, name); err != nil {
			skipped++
			if !errors.Is(err, ragengine.ErrDuplicateName) || verbose {
				fmt.Fprintf(os.Stderr, "warning: skipping %s: %v\n", f.RelPath, err)
			}
			logHistory(cfg, history.Entry{
				ProjectID: projectID,
				Action:    history.ActionIngest,
				Document:  name,
				Detail:    err.Error(),
				Success:   false,
			})
			continue
		}
		if err := registry.AddDocument(projectID, name); err != nil {
			return fmt.Errorf("updating project registry: %w", err)
		}
		logHistory(cfg, history.Entry{
			ProjectID: projectID,
			Action:    history.ActionIngest,
			Document:  name,
			Detail:    f.Path,
			Success:   true,
		})
		indexed++
	}

	fmt.Printf("Indexed %d documents into %s (%d skipped)\n", indexed, projectID, skipped)
	return nil
}
