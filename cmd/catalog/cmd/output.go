package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/listenupapp/tagcatalog/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printFiles prints files as JSON or as a table.
func printFiles(files []*domain.File) error {
	if jsonOut {
		return printJSON(os.Stdout, files)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tMODIFIED\tTAGS")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			f.ID, f.Name, f.Size, f.DateModified.Format("2006-01-02"), tagNames(f.Tags))
	}
	return tw.Flush()
}

// tagNames renders tag ids by name when the tag is known.
func tagNames(ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if t, err := catalog.Tags.GetTag(context.Background(), id); err == nil {
			names = append(names, t.Name)
			continue
		}
		names = append(names, id)
	}
	return strings.Join(names, ", ")
}
