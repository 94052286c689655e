package main

import "time-bank.com/time-bank/cmd"

func main() {
	cmd.Execute()
}
