package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/service"
	"github.com/listenupapp/tagcatalog/internal/taggraph"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage the tag hierarchy",
}

var tagsTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the tag hierarchy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOut {
			return printJSON(os.Stdout, catalog.Tags.ListTags(cmd.Context()))
		}
		return printTagTree(cmd, domain.RootTagID, 0)
	},
}

func printTagTree(cmd *cobra.Command, tagID string, depth int) error {
	children, err := catalog.Tags.Children(cmd.Context(), tagID)
	if err != nil {
		return err
	}
	for _, t := range children {
		hidden := ""
		if t.IsHidden {
			hidden = " (hidden)"
		}
		fmt.Printf("%s%s %s%s\n", strings.Repeat("  ", depth), t.ID, t.Name, hidden)
		if err := printTagTree(cmd, t.ID, depth+1); err != nil {
			return err
		}
	}
	return nil
}

var (
	tagParent string
	tagColor  string
	tagIndex  int
)

var tagsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tag",
	Long: `Create a tag under --parent (the root by default).

Examples:
  catalog tags create Places
  catalog tags create Paris --parent tag-abc --color "#3366ff"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := service.CreateTagRequest{ParentID: tagParent, Name: args[0], Color: tagColor}
		if cmd.Flags().Changed("index") {
			req.Index = &tagIndex
		}
		tag, err := catalog.Tags.CreateTag(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(os.Stdout, tag)
		}
		fmt.Println(tag.ID)
		return nil
	},
}

var tagsMoveCmd = &cobra.Command{
	Use:   "move <tag-id> <target-id> [index]",
	Short: "Move a tag under another tag",
	Long: `Move a tag and its subtree under a target tag, at index among the
target's children (the end by default). Moving a tag below one of its own
descendants is refused.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index := taggraph.Append
		if len(args) == 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[2])
			}
			index = n
		}
		moved, err := catalog.Tags.MoveTag(cmd.Context(), args[0], args[1], index)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("cannot move %s under %s", args[0], args[1])
		}
		return nil
	},
}

var tagsMergeCmd = &cobra.Command{
	Use:   "merge <from-id> <into-id>",
	Short: "Replace a tag with another on every file and delete it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return catalog.Tags.MergeTag(cmd.Context(), args[0], args[1])
	},
}

var tagsDeleteCmd = &cobra.Command{
	Use:   "delete <tag-id>...",
	Short: "Delete tags with their sub tags",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return catalog.Tags.DeleteTags(cmd.Context(), args)
	},
}

var tagsRenameCmd = &cobra.Command{
	Use:   "rename <tag-id> <name>",
	Short: "Rename a tag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := catalog.Tags.UpdateTag(cmd.Context(), args[0], service.UpdateTagRequest{Name: &args[1]})
		return err
	},
}

var tagsColorCmd = &cobra.Command{
	Use:   "color <tag-id> <color>",
	Short: "Set a tag's color (empty to clear)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := catalog.Tags.UpdateTag(cmd.Context(), args[0], service.UpdateTagRequest{Color: &args[1]})
		return err
	},
}

var unhide bool

var tagsHideCmd = &cobra.Command{
	Use:   "hide <tag-id>",
	Short: "Hide a tag, or show it again with --unhide",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hidden := !unhide
		_, err := catalog.Tags.UpdateTag(cmd.Context(), args[0], service.UpdateTagRequest{IsHidden: &hidden})
		return err
	},
}

func init() {
	tagsCreateCmd.Flags().StringVar(&tagParent, "parent", "", "parent tag id")
	tagsCreateCmd.Flags().StringVar(&tagColor, "color", "", "hex color, e.g. #ff8800")
	tagsCreateCmd.Flags().IntVar(&tagIndex, "index", 0, "position among the parent's children")
	tagsHideCmd.Flags().BoolVar(&unhide, "unhide", false, "show the tag again")

	tagsCmd.AddCommand(tagsTreeCmd, tagsCreateCmd, tagsMoveCmd, tagsMergeCmd,
		tagsDeleteCmd, tagsRenameCmd, tagsColorCmd, tagsHideCmd)
	rootCmd.AddCommand(tagsCmd)
}
