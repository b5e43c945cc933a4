// Command maptex inspects map images and renders them headlessly through
// the maptex texture engine.
package main

func main() {
	Execute()
}
