package main

import "github.com/Alijeyrad/thera_backend/cmd"

func main() {
	cmd.Execute()
}
