package main

import (
	"fmt"
	"strings"

	"github.com/lmsexplorer/lmsexplorer/core/lms"
)

func (cli *commandLine) runTree(args []string) error {
	cmd := flagSet("tree")
	name := cmd.String("profile", "", "Name of a stored connection profile.")
	url := cmd.String("url", "", "LMS base URL (when not using a profile).")
	user := cmd.String("user", "", "Username (when not using a profile).")
	contents := cmd.Bool("contents", false, "Also load and print each course's sections and modules.")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	p, err := cli.resolveProfile(*name, *url, *user)
	if err != nil {
		if err == errHelp {
			cmd.Usage()
		}
		return err
	}

	l, client, err := cli.connectProfile(p)
	if err != nil {
		return err
	}

	fmt.Fprintln(cli.out, l.Name)
	for _, cat := range l.Categories {
		cli.printCategory(l, client, cat, 1, *contents)
	}
	for _, crs := range l.Courses {
		cli.printCourse(l, client, crs, 1, *contents)
	}
	return nil
}

func (cli *commandLine) printCategory(l *lms.LMS, client lms.Client, cat *lms.Category, depth int, contents bool) {
	fmt.Fprintf(cli.out, "%s[%s]\n", indent(depth), cat.Name)
	for _, sub := range cat.SubCategories {
		cli.printCategory(l, client, sub, depth+1, contents)
	}
	for _, crs := range cat.Courses {
		cli.printCourse(l, client, crs, depth+1, contents)
	}
}

func (cli *commandLine) printCourse(l *lms.LMS, client lms.Client, crs *lms.Course, depth int, contents bool) {
	fmt.Fprintf(cli.out, "%s%s\n", indent(depth), crs.DisplayName)
	if !contents {
		return
	}
	if err := l.LoadCourseContents(client, crs); err != nil {
		cli.logger.Warn("loading contents of "+crs.DisplayName, err)
		return
	}
	for _, sec := range crs.Sections {
		fmt.Fprintf(cli.out, "%s%s\n", indent(depth+1), sec.Name)
		for _, mod := range sec.Modules {
			fmt.Fprintf(cli.out, "%s%s (%s)\n", indent(depth+2), mod.Name, mod.ModName)
			for _, cnt := range mod.Contents {
				fmt.Fprintf(cli.out, "%s- %s\n", indent(depth+3), cnt.FileName)
			}
		}
	}
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
