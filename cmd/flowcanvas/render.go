package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dukex/flowcanvas/pkg/canvas"
	"github.com/dukex/flowcanvas/pkg/geometry"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/render"
	"github.com/urfave/cli/v3"
)

const fitPadding = 40

func NewRenderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Aliases:   []string{"r"},
		Usage:     "Render a workflow as SVG",
		ArgsUsage: "<workflow-id>",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the SVG to this file instead of stdout",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Canvas width; 0 fits the drawing",
			},
			&cli.IntFlag{
				Name:  "height",
				Usage: "Canvas height; 0 fits the drawing",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command, "render")
			if err != nil {
				return err
			}
			defer e.close(ctx)

			w, err := e.loadWorkflow(ctx, command)
			if err != nil {
				return err
			}

			scene := fit(w, command.Int("width"), command.Int("height"))

			var out io.Writer = os.Stdout

			if path := command.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				defer f.Close()

				out = f
			}

			return render.Render(out, scene)
		},
	}
}

// fit builds the scene with the drawing moved to the top-left corner. A zero
// dimension is sized to the drawing.
func fit(w *models.Workflow, width, height int) *render.Scene {
	vp := canvas.NewViewport()

	bounds := render.CanvasBounds(render.Build(w, vp, render.Options{}))
	if bounds.Width > 0 {
		vp.Offset = geometry.Point{X: fitPadding - bounds.X, Y: fitPadding - bounds.Y}
	}

	if width <= 0 {
		width = int(math.Ceil(bounds.Width)) + 2*fitPadding
	}

	if height <= 0 {
		height = int(math.Ceil(bounds.Height)) + 2*fitPadding
	}

	return render.Build(w, vp, render.Options{Width: width, Height: height})
}
