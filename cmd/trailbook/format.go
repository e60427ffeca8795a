package main

import (
	"context"
	"path/filepath"

	"github.com/urfave/cli/v3"
)

func (a *app) fmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "Re-read and re-write a track file in canonical form",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Write the result back to the file instead of stdout",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "[-w] <file>")
			if err != nil {
				return err
			}
			doc, err := a.readDocument(path)
			if err != nil {
				return err
			}
			if cmd.Bool("write") {
				return a.writeDocument(path, "", doc)
			}
			abs, err := expandPath(path)
			if err != nil {
				return err
			}
			return a.writeDocument("-", filepath.Dir(abs), doc)
		},
	}
}
