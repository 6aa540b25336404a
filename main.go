// Command symbolcrawler builds and incrementally updates the dream symbol snapshot.
package main

import "github.com/JakeFAU/dream-symbol-crawler/cmd"

func main() {
	cmd.Execute()
}
