package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/listenupapp/tagcatalog/internal/criteria"
	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/query"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage cataloged files",
}

var (
	fileLocation string
	fileTags     []string
)

var filesAddCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Catalog files below a location",
	Long: `Catalog files on disk. Each path must lie inside the --location
directory. A path that is already cataloged is refreshed in place and keeps
its tags; --tag adds tags to every file.

Example:
  catalog files add --location loc-abc --tag tag-xyz ~/Pictures/2024/*.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loc, err := catalog.Locations.GetLocation(ctx, fileLocation)
		if err != nil {
			return err
		}

		now := time.Now()
		files := make([]*domain.File, 0, len(args))
		for _, p := range args {
			f, err := fileFromDisk(ctx, loc, p, now)
			if err != nil {
				return err
			}
			f.AddTags(fileTags...)
			files = append(files, f)
		}

		if err := catalog.Files.SaveFiles(ctx, files); err != nil {
			return err
		}
		return printFiles(files)
	},
}

// fileFromDisk builds the record for path, reusing the cataloged record of
// the same absolute path when there is one.
func fileFromDisk(ctx context.Context, loc *domain.Location, path string, now time.Time) (*domain.File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(loc.Path, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%s is not inside location %s", abs, loc.Path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", abs)
	}

	existing, err := catalog.Files.FindCriteria(ctx, []criteria.Criterion{
		criteria.String{Key: criteria.FieldAbsolutePath, Op: criteria.StringEquals, Value: abs},
	}, query.Options{})
	if err != nil {
		return nil, err
	}

	f := &domain.File{DateAdded: now, DateCreated: info.ModTime()}
	if len(existing) > 0 {
		f = existing[0]
	}

	f.LocationID = loc.ID
	f.AbsolutePath = abs
	f.Ino = inode(abs)
	f.RelativePath = rel
	f.Name = strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
	f.Extension = strings.ToLower(strings.TrimPrefix(filepath.Ext(info.Name()), "."))
	f.Size = info.Size()
	f.DateModified = info.ModTime()
	f.DateLastIndexed = now
	return f, nil
}

var filesShowCmd = &cobra.Command{
	Use:   "show <file-id>...",
	Short: "Show file records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := catalog.Files.GetFiles(cmd.Context(), args)
		if err != nil {
			return err
		}
		return printFiles(files)
	},
}

var filesRemoveCmd = &cobra.Command{
	Use:   "rm <file-id>...",
	Short: "Remove files from the catalog (the files on disk are kept)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return catalog.Files.RemoveFiles(cmd.Context(), args)
	},
}

var filesTagCmd = &cobra.Command{
	Use:   "tag <file-id> <tag-id>...",
	Short: "Add tags to a file",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editTags(cmd, args[0], func(f *domain.File) { f.AddTags(args[1:]...) })
	},
}

var filesUntagCmd = &cobra.Command{
	Use:   "untag <file-id> <tag-id>...",
	Short: "Remove tags from a file",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editTags(cmd, args[0], func(f *domain.File) { f.RemoveTags(args[1:]...) })
	},
}

func editTags(cmd *cobra.Command, fileID string, edit func(*domain.File)) error {
	f, err := catalog.Files.GetFile(cmd.Context(), fileID)
	if err != nil {
		return err
	}
	edit(f)
	return catalog.Files.SaveFile(cmd.Context(), f)
}

var filesCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count files, optionally matching --where criteria",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dtos, err := parseWheres(findWhere)
		if err != nil {
			return err
		}
		n, err := catalog.Files.Count(cmd.Context(), dtos, findAny)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}

func init() {
	filesAddCmd.Flags().StringVar(&fileLocation, "location", "", "location id the files belong to")
	_ = filesAddCmd.MarkFlagRequired("location")
	filesAddCmd.Flags().StringSliceVar(&fileTags, "tag", nil, "tag id to apply (repeatable)")
	addWhereFlags(filesCountCmd)

	filesCmd.AddCommand(filesAddCmd, filesShowCmd, filesRemoveCmd, filesTagCmd, filesUntagCmd, filesCountCmd)
	rootCmd.AddCommand(filesCmd)
}
