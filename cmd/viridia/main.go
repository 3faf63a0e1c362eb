// Command viridia runs the robot's behavior scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-viridia/internal/config"
	"github.com/teslashibe/go-viridia/internal/log"
	"github.com/teslashibe/go-viridia/pkg/chassis"
	"github.com/teslashibe/go-viridia/pkg/display"
	"github.com/teslashibe/go-viridia/pkg/drive"
	"github.com/teslashibe/go-viridia/pkg/input"
	"github.com/teslashibe/go-viridia/pkg/robot"
	"github.com/teslashibe/go-viridia/pkg/task"
	"github.com/teslashibe/go-viridia/pkg/tasks"
	"github.com/teslashibe/go-viridia/pkg/vision"
	"github.com/teslashibe/go-viridia/pkg/vision/opencv"
	"github.com/teslashibe/go-viridia/pkg/web"
)

func main() {
	configPath := flag.String("config", config.Path(""), "YAML config file (or set VIRIDIA_CONFIG)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	noWeb := flag.Bool("no-web", false, "Disable the web dashboard")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "viridia: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	if *noWeb {
		cfg.Web.Enabled = false
	}
	log.Init(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("viridia stopped", "error", err)
		os.Exit(1)
	}
	log.Info("goodbye")
}

func run(cfg config.Config) error {
	// Cancelled with the signal as the cause, so the display can say why.
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		cancel(fmt.Errorf("signal %s", sig))
	}()

	c, err := chassis.RegularTriangular(cfg.Chassis.WheelDistance, cfg.Chassis.WheelRadius, cfg.Chassis.MaxRPS())
	if err != nil {
		return err
	}
	log.Info("chassis ready",
		"max_translation_mm_s", c.MaxTranslationSpeed(),
		"max_rotation_rad_s", c.MaxRotationSpeed())

	if !cfg.Sim.Enabled {
		return errors.New("no motor bus available, enable sim")
	}
	motors := robot.NewSimMotors(c.Wheels(), cfg.Drive.ActuatorScale)
	lights := robot.NewLogLights(nil)

	var lines vision.LineSource = vision.NewFixed()
	if cfg.Vision.Enabled {
		cam, err := opencv.Open(visionConfig(cfg.Vision))
		if err != nil {
			return err
		}
		defer cam.Close()
		lines = cam
	}

	remote := input.NewRemote()
	var screen display.Display = display.NewConsole(os.Stdout)
	var dash *web.Server
	if cfg.Web.Enabled {
		dash = web.NewServer(web.Config{
			Port:           cfg.Web.Port,
			StatusInterval: cfg.Web.StatusInterval,
			AccessLog:      cfg.Log.Level == "debug",
		}, remote)
		dash.StartAsync(ctx)
		screen = display.Tee(screen, dash)
	}

	d := drive.New(motors, c, drive.Config{ActuatorScale: cfg.Drive.ActuatorScale})
	mgr := task.NewManager(task.Resources{
		Drive:   d,
		Chassis: c,
		Motors:  motors,
		Lights:  lights,
		Display: screen,
		Vision:  lines,
		Input:   remote,
	}, task.Config{
		TickInterval: cfg.Scheduler.TickInterval,
		HomeButton:   cfg.Scheduler.HomeButton,
	}, nil)
	if dash != nil {
		mgr.OnStatus(func(s task.Status) { dash.Update(s, d.Pose()) })
	}

	return mgr.Run(ctx, menu(cfg))
}

func menu(cfg config.Config) *tasks.Menu {
	return tasks.NewMenu(
		tasks.NewManualMotion(tasks.ManualConfig{
			AccelTime:   cfg.Manual.AccelTime,
			PoseUpdate:  cfg.Manual.PoseUpdate,
			PoseDisplay: cfg.Manual.PoseDisplay,
		}),
		tasks.NewLineFollower(tasks.LineFollowerConfig{
			HeadingOffset: cfg.LineFollower.HeadingOffset,
			LateralRange:  cfg.LineFollower.LateralRange,
			Lookahead:     cfg.LineFollower.Lookahead,
			Speed:         cfg.LineFollower.Speed,
			TurnSpeed:     cfg.LineFollower.TurnSpeed,
			MinDistance:   cfg.LineFollower.MinDistance,
		}),
		tasks.NewLinearCalibration(calibrationConfig(cfg.Calibration)),
		tasks.NewAngularCalibration(calibrationConfig(cfg.Calibration)),
	)
}

func calibrationConfig(c config.Calibration) tasks.CalibrationConfig {
	return tasks.CalibrationConfig{
		LinearSpeed:    c.LinearSpeed,
		LinearDuration: c.LinearDuration,
		AngularRate:    c.AngularRate,
		AngularTime:    c.AngularTime,
	}
}

func visionConfig(v config.Vision) vision.Config {
	return vision.Config{
		Device:       v.Device,
		Width:        v.Width,
		Height:       v.Height,
		Threshold:    v.Threshold,
		Invert:       v.Invert,
		BlurKernel:   v.BlurKernel,
		ScanHeight:   v.ScanHeight,
		ScanPosition: v.ScanPosition,
		WidthPad:     v.WidthPad,
		MinArea:      v.MinArea,
	}
}
