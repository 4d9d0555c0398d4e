package main

import "ldap2moodle/cmd"

func main() {
	cmd.Execute()
}
