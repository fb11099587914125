package main

import "github.com/forPelevin/asciify/internal/cli"

func main() { cli.Main() }
