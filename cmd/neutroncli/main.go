package main

import (
	"fmt"
	"os"

	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/qtumproject/neutron-vm-go/neutron"
	"github.com/qtumproject/neutron-vm-go/neutron/host"
	"github.com/urfave/cli/v2"
)

var log = logger.GetOrCreate("neutroncli")

func main() {
	app := &cli.App{
		Name:  "neutroncli",
		Usage: "tools for working with on-disk contract images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level pattern, e.g. *:DEBUG",
				Value: "*:INFO",
			},
		},
		Before: func(ctx *cli.Context) error {
			return logger.SetLogLevel(ctx.String("log-level"))
		},
		Commands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "inspect a contract image and show what a deploy would push",
				ArgsUsage: "<image.elf>",
				Action:    inspectImage,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func inspectImage(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("one argument expected - the path to the contract image")
	}

	image, err := host.LoadContractImage(ctx.Args().First())
	if err != nil {
		return err
	}

	version := neutron.NeutronVersion{RootVM: neutron.X86RootVM}

	fmt.Printf("contract image: %s\n", ctx.Args().First())
	fmt.Printf("  .text  %6d bytes at 0x%08x\n", len(image.Code), neutron.CodeMemoryStart)
	fmt.Printf("  .data  %6d bytes at 0x%08x\n", len(image.Data), neutron.PrimaryMemoryStart)
	fmt.Println("deploy pushes (top first):")
	fmt.Printf("  version header  %v\n", version.DeployHeader())
	fmt.Printf("  section info    %v\n", []byte{1, 1})
	fmt.Printf("  code            %d bytes\n", len(image.Code))
	fmt.Printf("  data            %d bytes\n", len(image.Data))

	return nil
}
