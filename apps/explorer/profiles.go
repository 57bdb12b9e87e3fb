package main

import (
	"fmt"

	"github.com/lmsexplorer/lmsexplorer/storage/profile"
)

func (cli *commandLine) runProfiles(args []string) error {
	if len(args) < 1 {
		cli.printUsage()
		return errHelp
	}

	switch args[0] {
	case "list":
		return cli.listProfiles()
	case "add":
		return cli.addProfile(args[1:])
	case "remove":
		return cli.removeProfile(args[1:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) listProfiles() error {
	profiles := cli.store.All()
	if len(profiles) == 0 {
		fmt.Fprintln(cli.out, "no profiles configured")
		return nil
	}
	for _, p := range profiles {
		flags := ""
		if p.Autoconnect {
			flags += " [autoconnect]"
		}
		if p.RememberMe {
			flags += " [remembered]"
		}
		fmt.Fprintf(cli.out, "%s\t%s\t%s%s\n", p.Name, p.URL, p.Username, flags)
	}
	return nil
}

func (cli *commandLine) addProfile(args []string) error {
	cmd := flagSet("profiles add")
	name := cmd.String("name", "", "Profile name; generated when empty.")
	url := cmd.String("url", "", "LMS base URL.")
	user := cmd.String("user", "", "Username. The password will be prompted next.")
	service := cmd.String("service", "", "Web service shortname; server default when empty.")
	autoconnect := cmd.Bool("autoconnect", false, "Connect this profile at startup.")
	remember := cmd.Bool("remember", false, "Store the password in the credential vault.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *url == "" || *user == "" {
		cmd.Usage()
		return errHelp
	}

	pwd, err := cli.promptPassword()
	if err != nil {
		return err
	}

	p := profile.Profile{
		Name:        *name,
		URL:         *url,
		Username:    *user,
		Password:    pwd,
		Service:     *service,
		Autoconnect: *autoconnect,
		RememberMe:  *remember,
	}
	if err := p.Validate(cli.validate); err != nil {
		return err
	}

	p, err = cli.store.Add(p)
	if err != nil {
		return err
	}
	if err := cli.store.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "profile %q added\n", p.Name)
	return nil
}

func (cli *commandLine) removeProfile(args []string) error {
	cmd := flagSet("profiles remove")
	name := cmd.String("name", "", "Name of the profile to remove.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		cmd.Usage()
		return errHelp
	}

	if err := cli.store.Remove(*name); err != nil {
		return err
	}
	if err := cli.store.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "profile %q removed\n", *name)
	return nil
}
