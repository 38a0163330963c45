package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/dependency"
)

func main() {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	ctx = listenOSKillSignalsContext(ctx)
	mainLogger := logger.NewTextLogger()

	err := newApp().RunContext(ctx, os.Args)
	if err != nil {
		mainLogger.Error(err, "failed execute command "+strings.Join(os.Args, " "))
		cancelFunc()
		os.Exit(exitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "imagebuilder",
		Usage: "prepare platform repositories and build builder and deploy images",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "builders", Usage: "build all builder images"},
			&cli.BoolFlag{Name: "deploys", Usage: "build deployable images (tag :latest)"},
			&cli.BoolFlag{Name: "all", Usage: "build both builder and deployable images"},
			&cli.StringFlag{Name: "root", Usage: "platform root directory (default: working directory)"},
			&cli.StringFlag{Name: "images", Value: "images.json", Usage: "service image registry"},
			&cli.StringFlag{Name: "repositories", Value: "config/services.json", Usage: "repository registry"},
			&cli.StringFlag{Name: "engine", Value: "cli", Usage: "image engine: cli or api", EnvVars: []string{"IMAGEBUILDER_ENGINE"}},
			&cli.BoolFlag{Name: "verbose", Usage: "log executed commands", EnvVars: []string{"VERBOSE"}},
		},
		Before: func(c *cli.Context) error {
			settings, err := settingsFromFlags(c)
			if err != nil {
				return err
			}
			// the text logger enables debug output from DEBUG
			if settings.Verbose {
				err = os.Setenv("DEBUG", "1")
				if err != nil {
					return err
				}
			}
			container := dependency.NewDependencyContainer(logger.NewTextLogger(), settings)
			c.Context = dependency.ContainerToContext(c.Context, container)
			return nil
		},
		Action: func(c *cli.Context) error {
			stages := model.Stages{
				Builders: c.Bool("builders") || c.Bool("all"),
				Deploys:  c.Bool("deploys") || c.Bool("all"),
			}
			if stages.Empty() {
				return cli.ShowAppHelp(c)
			}
			return build(c.Context, stages)
		},
		Commands: cli.Commands{
			&cli.Command{
				Name:  "prepare",
				Usage: "prepare repositories and collect their init scripts",
				Action: func(c *cli.Context) error {
					return prepare(c.Context)
				},
			},
		},
	}
}

func settingsFromFlags(c *cli.Context) (model.Settings, error) {
	root := c.String("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return model.Settings{}, err
		}
		root = wd
	}
	settings := model.DefaultSettings(root)
	settings.ImagesFile = c.String("images")
	settings.RepositoriesFile = c.String("repositories")
	settings.Engine = c.String("engine")
	settings.Verbose = c.Bool("verbose")
	return settings, nil
}

// exitCode mirrors the build tool status for container build failures.
func exitCode(err error) int {
	var buildErr *model.BuildError
	if errors.As(err, &buildErr) && buildErr.Status > 0 {
		return buildErr.Status
	}
	return 1
}

func listenOSKillSignalsContext(ctx context.Context) context.Context {
	var cancelFunc context.CancelFunc
	ctx, cancelFunc = context.WithCancel(ctx)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ch:
			cancelFunc()
		case <-ctx.Done():
			return
		}
	}()
	return ctx
}
