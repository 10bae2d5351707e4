package main

import (
	"flag"
	"os"

	"github.com/golang/glog"
	cli "github.com/urfave/cli/v2"

	banklog "github.com/tewtal/sm-banklog-parser"
)

func main() {
	// glog parses its flags from the global flag.CommandLine; give it a
	// chance before cli takes over argument parsing.
	flag.Parse()
	defer glog.Flush()

	app := cli.NewApp()
	app.Name = "banklogparser"
	app.Usage = "Reassemble 65C816 disassembly traces into labeled bank source files"
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:      "build",
			Aliases:   []string{"b"},
			Usage:     "Parse trace logs and emit labeled bank_XX.asm/labels.asm/main.asm",
			ArgsUsage: "",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "logs",
					Usage:    "directory of *.asm disassembly trace files",
					Value:    "logs",
					Required: false,
				},
				&cli.StringFlag{
					Name:     "config",
					Usage:    "directory containing labels/, overrides/ and structs/ YAML",
					Value:    "config",
					Required: false,
				},
				&cli.StringFlag{
					Name:     "out",
					Usage:    "output directory for the reassembled source",
					Value:    "out",
					Required: false,
				},
			},
			Action: func(c *cli.Context) error {
				logsDir := c.String("logs")
				configDir := c.String("config")
				outDir := c.String("out")

				driver := banklog.NewDriver(nil)
				if err := driver.Run(logsDir, configDir, outDir); err != nil {
					return cli.Exit(err, 1)
				}
				glog.Infof("reassembly complete: %s", outDir)
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		glog.Fatalf("%v", err)
	}
}
