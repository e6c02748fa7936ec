// Package main provides the entry point for the picscan CLI.
//
// Usage:
//
//	picscan crawl [seed-url]
//	picscan version
package main

func main() {
	Execute()
}
