package main

import (
	"log"
	"net/http"
	"os"

	_ "net/http/pprof"

	"github.com/urfave/cli/v3"

	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"
)

func main() {
	app := &cli.App{
		Name:        "osmarea",
		Description: "Extracts multipolygon areas from OSM PBF files",
		Commands: []*cli.Command{
			{
				Name:    "extract",
				Aliases: []string{"x"},
				Usage:   "extract areas from an osm.pbf file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "input",
						Aliases:   []string{"i"},
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "output",
						Aliases:   []string{"o"},
						Required:  true,
						TakesFile: true,
						Usage:     "output file with zstd-compressed encoded areas",
					},
					&cli.IntFlag{
						Name:        "threads",
						Aliases:     []string{"t"},
						DefaultText: "max",
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "only build areas with this key or key=value tag (repeatable)",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
					},
					&cli.StringFlag{
						Name:        "pprof.listen",
						DefaultText: "",
					},
				},
				Action: extract,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func servePprof(listen string) {
	go func() {
		if err := http.ListenAndServe(listen, nil); err != nil {
			log.Printf("pprof server: %v", err)
		}
	}()
}
