package main

import "fieldreport/internal/app"

func main() {
	app.Main()
}
