package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdPlant() *cli.Command {
	var flagsCfg appFlags

	return &cli.Command{
		Name:    "plant",
		Aliases: []string{"p"},
		Usage:   "Manage plants",
		Flags:   flagsCfg.Flags(),
		Commands: []*cli.Command{
			cmdPlantAdd(&flagsCfg),
			cmdPlantList(&flagsCfg),
			cmdPlantShow(&flagsCfg),
			cmdPlantDelete(&flagsCfg),
		},
	}
}

func cmdPlantAdd(flagsCfg *appFlags) *cli.Command {
	var input model.PlantInput
	var imagePath string

	return &cli.Command{
		Name:  "add",
		Usage: "Register a new plant",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Plant name", Required: true, Destination: &input.Name},
			&cli.StringFlag{Name: "species", Usage: "Species (identified from --image when omitted)", Destination: &input.Species},
			&cli.StringFlag{Name: "location", Usage: "Where the plant lives", Destination: &input.Location},
			&cli.StringFlag{Name: "sun", Usage: "Sun exposure", Destination: &input.SunExposure},
			&cli.StringFlag{Name: "watering", Usage: "Watering frequency", Destination: &input.WateringFrequency},
			&cli.StringFlag{Name: "soil", Usage: "Soil type", Destination: &input.SoilType},
			&cli.StringFlag{Name: "image", Usage: "Photo used to identify the species and care needs", Destination: &imagePath},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := flagsCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			if imagePath != "" {
				img, err := readImageFile(imagePath)
				if err != nil {
					return err
				}
				ident, err := rt.uc.Plant.IdentifyPlant(ctx, img)
				if err != nil {
					return goerr.Wrap(err, "failed to identify plant")
				}
				applyIdentification(&input, ident)
				if ident.CareTip != "" {
					fmt.Fprintf(c.Root().Writer, "Tip: %s\n", ident.CareTip)
				}
			}

			plant, err := rt.uc.Plant.CreatePlant(ctx, input)
			if err != nil {
				return err
			}
			printPlant(c.Root().Writer, plant, time.Now())
			return nil
		},
	}
}

// applyIdentification fills the fields the user left blank
func applyIdentification(input *model.PlantInput, ident *model.Identification) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&input.Species, ident.Species)
	fill(&input.SunExposure, ident.SunExposure)
	fill(&input.WateringFrequency, ident.WateringFrequency)
	fill(&input.SoilType, ident.SoilType)
}

func cmdPlantList(flagsCfg *appFlags) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List plants with their latest health score",
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := flagsCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			plants, err := rt.uc.Plant.ListPlants(ctx)
			if err != nil {
				return err
			}
			printPlantList(c.Root().Writer, plants, time.Now())
			return nil
		},
	}
}

func cmdPlantShow(flagsCfg *appFlags) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a plant and its observation history",
		ArgsUsage: "<plant-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := plantIDArg(c)
			if err != nil {
				return err
			}

			rt, err := flagsCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			plant, err := rt.uc.Plant.GetPlant(ctx, id)
			if err != nil {
				return err
			}
			printPlant(c.Root().Writer, plant, time.Now())
			return nil
		},
	}
}

func cmdPlantDelete(flagsCfg *appFlags) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a plant and its history",
		ArgsUsage: "<plant-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := plantIDArg(c)
			if err != nil {
				return err
			}

			rt, err := flagsCfg.build(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.uc.Plant.DeletePlant(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Deleted %s\n", id)
			return nil
		},
	}
}

func plantIDArg(c *cli.Command) (model.PlantID, error) {
	if c.Args().Len() != 1 {
		return "", goerr.Wrap(model.ErrInvalidInput, "exactly one plant ID is required")
	}
	return model.PlantID(c.Args().First()), nil
}
