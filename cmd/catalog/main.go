// Command catalog manages a tagged-file catalog from the command line.
package main

import "github.com/listenupapp/tagcatalog/cmd/catalog/cmd"

func main() {
	cmd.Execute()
}
