package cli

import (
	"context"
	"fmt"

	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdObserve() *cli.Command {
	var flagsCfg appFlags
	var plantID, imagePath, notes string

	flags := []cli.Flag{
		&cli.StringFlag{Name: "plant", Usage: "Plant ID", Required: true, Destination: &plantID},
		&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "Photo of the plant", Required: true, Destination: &imagePath},
		&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "What you noticed", Destination: &notes},
	}
	flags = append(flags, flagsCfg.Flags()...)

	return &cli.Command{
		Name:    "observe",
		Aliases: []string{"o"},
		Usage:   "Analyze a new photo of a plant and record the result",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			img, err := readImageFile(imagePath)
			if err != nil {
				return err
			}

			rt, err := flagsCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			entry, err := rt.uc.Analysis.SubmitObservation(ctx, model.PlantID(plantID), img, notes)
			if err != nil {
				return err
			}
			printAnalysis(c.Root().Writer, entry)
			fmt.Fprintf(c.Root().Writer, "\nRecorded entry %s\n", entry.ID)
			return nil
		},
	}
}

func cmdAudit() *cli.Command {
	var flagsCfg appFlags
	var imagePath string

	flags := []cli.Flag{
		&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "Photo of the plant", Required: true, Destination: &imagePath},
	}
	flags = append(flags, flagsCfg.Flags()...)

	return &cli.Command{
		Name:  "audit",
		Usage: "Run a quick health audit of a photo without recording it",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			img, err := readImageFile(imagePath)
			if err != nil {
				return err
			}

			rt, err := flagsCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.uc.Care.QuickAudit(ctx, img)
			if err != nil {
				return err
			}
			printAudit(c.Root().Writer, result)
			return nil
		},
	}
}

func cmdTip() *cli.Command {
	var flagsCfg appFlags
	var species string

	flags := []cli.Flag{
		&cli.StringFlag{Name: "species", Usage: "Species to get a care tip for", Required: true, Destination: &species},
	}
	flags = append(flags, flagsCfg.Flags()...)

	return &cli.Command{
		Name:  "tip",
		Usage: "Print one short care tip for a species",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := flagsCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			tip, err := rt.uc.Care.Tip(ctx, species)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, tip)
			return nil
		},
	}
}
