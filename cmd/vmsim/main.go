// vmsim replays a virtual-address trace against a fixed pool of physical
// frames and reports the page faults every process took.
package main

func main() {
	Execute()
}
