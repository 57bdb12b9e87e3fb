package main

import (
	"fmt"
)

func (cli *commandLine) runDownload(args []string) error {
	cmd := flagSet("download")
	name := cmd.String("profile", "", "Name of a stored connection profile.")
	url := cmd.String("url", "", "LMS base URL (when not using a profile).")
	user := cmd.String("user", "", "Username (when not using a profile).")
	fileURL := cmd.String("fileurl", "", "URL of the file to download.")
	out := cmd.String("out", "", "Destination path.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *fileURL == "" || *out == "" {
		cmd.Usage()
		return errHelp
	}

	p, err := cli.resolveProfile(*name, *url, *user)
	if err != nil {
		if err == errHelp {
			cmd.Usage()
		}
		return err
	}

	_, client, err := cli.connectProfile(p)
	if err != nil {
		return err
	}

	if err := client.Download(*fileURL, *out); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "saved to %s\n", *out)
	return nil
}
