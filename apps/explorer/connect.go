package main

import (
	"fmt"
)

func (cli *commandLine) runConnect(args []string) error {
	cmd := flagSet("connect")
	name := cmd.String("profile", "", "Name of a stored connection profile.")
	url := cmd.String("url", "", "LMS base URL (when not using a profile).")
	user := cmd.String("user", "", "Username (when not using a profile).")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	// bare `connect` falls back to the autoconnect profile
	if *name == "" && *url == "" {
		if auto := cli.store.AutoconnectProfile(); auto != nil {
			*name = auto.Name
		}
	}

	p, err := cli.resolveProfile(*name, *url, *user)
	if err != nil {
		if err == errHelp {
			cmd.Usage()
		}
		return err
	}

	l, _, err := cli.connectProfile(p)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "connected to %s as %s\n", l.Host, l.Username)
	if l.User != nil {
		fmt.Fprintf(cli.out, "logged in as %s (%s)\n", l.User.DisplayName(), l.User.Email)
	}
	fmt.Fprintf(cli.out, "categories: %d, courses: %d, enrolled courses: %d\n",
		len(l.Categories), len(l.Courses), len(l.EnrolledCourses))
	return nil
}
