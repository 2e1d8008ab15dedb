package main

import "comicgrab/cmd"

func main() {
	cmd.Execute()
}
