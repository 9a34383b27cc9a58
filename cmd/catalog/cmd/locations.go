package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/listenupapp/tagcatalog/internal/service"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Manage cataloged directories",
}

var locationsAddCmd = &cobra.Command{
	Use:   "add <dir>",
	Short: "Register a directory as a location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		loc, err := catalog.Locations.CreateLocation(cmd.Context(), service.CreateLocationRequest{Path: dir})
		if err != nil {
			return err
		}
		fmt.Println(loc.ID)
		return nil
	},
}

var locationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := catalog.Locations.ListLocations(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(os.Stdout, list)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPATH\tADDED")
		for _, l := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.Path, l.DateAdded.Format("2006-01-02"))
		}
		return tw.Flush()
	},
}

var locationsRemoveCmd = &cobra.Command{
	Use:   "rm <location-id>",
	Short: "Remove a location and every file cataloged under it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := catalog.Locations.DeleteLocation(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("removed location and %d files\n", removed)
		return nil
	},
}

func init() {
	locationsCmd.AddCommand(locationsAddCmd, locationsListCmd, locationsRemoveCmd)
	rootCmd.AddCommand(locationsCmd)
}
