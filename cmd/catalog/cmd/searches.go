package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/listenupapp/tagcatalog/internal/service"
)

var searchesCmd = &cobra.Command{
	Use:   "searches",
	Short: "Manage saved searches",
}

var searchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved searches in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := catalog.Searches.ListSearches(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(os.Stdout, list)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "POS\tID\tNAME\tCRITERIA\tMODE")
		for _, s := range list {
			mode := "all"
			if s.MatchAny {
				mode = "any"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", s.Position, s.ID, s.Name, len(s.Criteria), mode)
		}
		return tw.Flush()
	},
}

var searchesSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save --where criteria under a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dtos, err := parseWheres(findWhere)
		if err != nil {
			return err
		}
		saved, err := catalog.Searches.CreateSearch(cmd.Context(), service.SaveSearchRequest{
			Name:     args[0],
			Criteria: dtos,
			MatchAny: findAny,
		})
		if err != nil {
			return err
		}
		fmt.Println(saved.ID)
		return nil
	},
}

var searchesRunCmd = &cobra.Command{
	Use:   "run <search-id>",
	Short: "Run a saved search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := catalog.Searches.RunSearch(cmd.Context(), args[0], findOrder, findDirection)
		if err != nil {
			return err
		}
		return printFiles(files)
	},
}

var searchesRemoveCmd = &cobra.Command{
	Use:   "rm <search-id>",
	Short: "Delete a saved search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return catalog.Searches.DeleteSearch(cmd.Context(), args[0])
	},
}

var searchesMoveCmd = &cobra.Command{
	Use:   "move <search-id> <index>",
	Short: "Move a saved search to a position in the list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[1])
		}
		return catalog.Searches.MoveSearch(cmd.Context(), args[0], index)
	},
}

func init() {
	addWhereFlags(searchesSaveCmd)
	addOrderFlags(searchesRunCmd)

	searchesCmd.AddCommand(searchesListCmd, searchesSaveCmd, searchesRunCmd, searchesRemoveCmd, searchesMoveCmd)
	rootCmd.AddCommand(searchesCmd)
}
