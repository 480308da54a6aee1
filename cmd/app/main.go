package main

import "bidding-management-api/app"

func main() {
	app.Run()
}
