package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/lmsexplorer/lmsexplorer/core"
	"github.com/lmsexplorer/lmsexplorer/core/lms"
	"github.com/lmsexplorer/lmsexplorer/services/moodle"
	"github.com/lmsexplorer/lmsexplorer/storage/profile"
	"github.com/lmsexplorer/lmsexplorer/storage/vault"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	logger   core.Logger
	vault    *vault.Vault
	store    *profile.Store
	network  *lms.Network
	validate *validator.Validate
	out      io.Writer

	// newClientFunc is mocked out in tests.
	newClientFunc func(host string) lms.Client
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  connect -profile NAME | -url URL -user USERNAME   - connect and load the catalog")
	fmt.Fprintln(cli.out, "  profiles list|add|remove                          - manage connection profiles")
	fmt.Fprintln(cli.out, "  tree -profile NAME                                - print the course hierarchy")
	fmt.Fprintln(cli.out, "  download -profile NAME -fileurl FILEURL -out PATH - download a course file")
}

func (cli *commandLine) newClient(host string) lms.Client {
	if cli.newClientFunc != nil {
		return cli.newClientFunc(host)
	}
	return moodle.NewClient(host, &moodle.Options{
		Service: cli.conf.Client.Service,
		Timeout: cli.conf.Client.Timeout,
		Logger:  cli.logger,
	})
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "connect":
		return cli.runConnect(args[2:])
	case "profiles":
		return cli.runProfiles(args[2:])
	case "tree":
		return cli.runTree(args[2:])
	case "download":
		return cli.runDownload(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// resolveProfile turns the connect/tree/download flags into a ready Profile,
// prompting for the password when neither the profile nor the vault has one.
func (cli *commandLine) resolveProfile(name, url, user string) (profile.Profile, error) {
	var p profile.Profile
	switch {
	case name != "":
		found := cli.store.Get(name)
		if found == nil {
			return p, fmt.Errorf("unknown profile %q", name)
		}
		p = *found
	case url != "" && user != "":
		p = profile.Profile{Name: url, URL: url, Username: user}
	default:
		return p, errHelp
	}

	if p.Password == "" {
		pwd, err := cli.promptPassword()
		if err != nil {
			return p, err
		}
		p.Password = pwd
	}
	return p, nil
}

// connectProfile runs the token handshake and catalog load for p, registers
// the LMS on the network and returns it. Partial load failures are warnings.
func (cli *commandLine) connectProfile(p profile.Profile) (*lms.LMS, lms.Client, error) {
	client := cli.newClient(p.URL)
	l := lms.NewLMS(p.Name, p.URL)
	l.Service = p.Service

	report, err := l.Connect(client, p.Username, p.Password)
	if err != nil && !report.Failed() {
		return nil, nil, err
	}
	if report.Failed() {
		cli.logger.Warn("catalog only partially loaded", report.Err())
	}

	cli.network.Add(l)
	return l, client, nil
}

func flagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}
