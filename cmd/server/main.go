package main

import "xinan/internal/app/server"

func main() {
	server.Run()
}
