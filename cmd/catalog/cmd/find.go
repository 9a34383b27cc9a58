package cmd

import (
	"github.com/spf13/cobra"

	"github.com/listenupapp/tagcatalog/internal/service"
)

var (
	findWhere     []string
	findAny       bool
	findOrder     string
	findDirection string
)

func addWhereFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&findWhere, "where", "w", nil, "criterion key:operator:value (repeatable)")
	cmd.Flags().BoolVar(&findAny, "any", false, "match files satisfying any criterion instead of all")
}

func addOrderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&findOrder, "order", "", "order by a file field or random")
	cmd.Flags().StringVar(&findDirection, "direction", "asc", "asc or desc")
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find files matching criteria",
	Long: `Find files matching every --where criterion, or any of them with --any.
Without criteria every file matches.

Keys and operators:
  tags                       contains, notContains, containsRecursively, containsNotRecursively
  name, absolutePath,        equals, notEqual, contains, notContains, startsWith,
  relativePath, extension    notStartsWith, equalsIgnoreCase, startsWithIgnoreCase
  size, width, height,       equals, notEqual, smallerThan, smallerThanOrEquals,
  dateAdded, dateModified,   greaterThan, greaterThanOrEquals
  dateCreated, dateLastIndexed

Examples:
  catalog find -w tags:contains:            # untagged files
  catalog find -w tags:containsRecursively:tag-abc -w extension:equals:jpg
  catalog find -w size:greaterThan:1048576 --order size --direction desc
  catalog find -w dateAdded:equals:2024-03-10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dtos, err := parseWheres(findWhere)
		if err != nil {
			return err
		}
		files, err := catalog.Files.Find(cmd.Context(), service.FindRequest{
			Criteria:  dtos,
			MatchAny:  findAny,
			Order:     findOrder,
			Direction: findDirection,
		})
		if err != nil {
			return err
		}
		return printFiles(files)
	},
}

var quickSearchLimit int

var quickSearchCmd = &cobra.Command{
	Use:   "quicksearch <text>",
	Short: "Find files by name or path text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := catalog.Files.QuickSearch(cmd.Context(), args[0], quickSearchLimit)
		if err != nil {
			return err
		}
		return printFiles(files)
	},
}

func init() {
	addWhereFlags(findCmd)
	addOrderFlags(findCmd)
	quickSearchCmd.Flags().IntVarP(&quickSearchLimit, "limit", "n", 20, "maximum number of results")

	rootCmd.AddCommand(findCmd, quickSearchCmd)
}
