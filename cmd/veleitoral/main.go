// Package main is the entry point for the V-Eleitoral API server: TSE
// electoral bulletins in, aggregate vote queries out.
package main

func main() {
	Execute()
}
