package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/ayusman/signalhand/internal/capture"
	"github.com/ayusman/signalhand/internal/config"
	"github.com/ayusman/signalhand/internal/controller"
	"github.com/ayusman/signalhand/internal/detector"
	"github.com/ayusman/signalhand/internal/gesture"
	"github.com/ayusman/signalhand/internal/server"
	"github.com/ayusman/signalhand/internal/store"
	"github.com/ayusman/signalhand/internal/telemetry"
	"github.com/ayusman/signalhand/internal/transport"
	"github.com/ayusman/signalhand/internal/tray"
)

// trayRefresh is how often the tray menu follows the controller state.
const trayRefresh = 500 * time.Millisecond

func main() {
	app := cli.NewApp()
	app.Name = "signalhand"
	app.Usage = "drive a traffic light controller with hand gestures"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "path to a YAML config file",
		},
		cli.StringFlag{
			Name:  "port",
			Usage: "serial port of the light controller",
		},
		cli.StringFlag{
			Name:  "addr",
			Usage: "dashboard listen address",
		},
		cli.StringFlag{
			Name:  "variant",
			Usage: "gesture rule table (poses or fingercount)",
		},
		cli.BoolFlag{
			Name:  "mock-detector",
			Usage: "run without camera and hand detection",
		},
		cli.BoolFlag{
			Name:  "no-tray",
			Usage: "do not show the system tray menu",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return err
	}
	if v := c.GlobalString("port"); v != "" {
		cfg.Serial.Port = v
	}
	if v := c.GlobalString("addr"); v != "" {
		cfg.Server.Addr = v
	}
	if v := c.GlobalString("variant"); v != "" {
		cfg.Gesture.Variant = v
	}
	if c.GlobalBool("mock-detector") {
		cfg.Detector.Mock = true
	}
	if c.GlobalBool("no-tray") {
		cfg.Tray = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	fmt.Println("signalhand - gesture traffic light control")

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	var tr transport.Transport = transport.Closed{}
	if cfg.Serial.Port != "" {
		s, err := transport.OpenSerial(transport.SerialConfig{Port: cfg.Serial.Port, Baud: cfg.Serial.Baud})
		if err != nil {
			log.Printf("Serial unavailable, running without a controller: %v", err)
		} else {
			defer s.Close()
			tr = s
			log.Printf("Connected to controller on %s", s.Name())
		}
	} else {
		log.Println("No serial port configured, commands will be dropped")
	}

	camera, det := newVision(cfg)

	ctrl, err := controller.New(controller.Config{
		Transport:       tr,
		Camera:          camera,
		Detector:        det,
		Store:           st,
		Variant:         gesture.Variant(cfg.Gesture.Variant),
		Timing:          cfg.Timing.Params(),
		Cooldown:        cfg.Gesture.Cooldown(),
		ResendDelay:     cfg.Loop.ResendDelay(),
		TickRate:        cfg.Loop.TickHz,
		MaxLinesPerTick: cfg.Loop.MaxLinesPerTick,
		InferenceFPS:    cfg.Camera.FPS,
		Retention:       cfg.Store.Retention(),
	})
	if err != nil {
		return err
	}

	pub := telemetry.NewPublisher(cfg.MQTT)
	if err := pub.Start(); err != nil {
		log.Printf("MQTT telemetry unavailable: %v", err)
	}
	defer pub.Stop()
	ctrl.Subscribe(pub.Handle)

	if err := ctrl.Start(); err != nil {
		return err
	}
	defer ctrl.Stop()

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Store:      st,
		Controller: ctrl,
		Frames:     ctrl.Frames(),
	})
	defer srv.Close()

	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		serverErr <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	if !cfg.Tray {
		select {
		case sig := <-signals:
			log.Printf("Received %v, shutting down", sig)
			return nil
		case err := <-serverErr:
			return fmt.Errorf("server failed: %w", err)
		}
	}

	t := tray.New(ctrl.IsEnabled())
	t.OnToggle(func(enabled bool) {
		if err := ctrl.SetEnabled(enabled); err != nil {
			log.Printf("Failed to toggle gestures: %v", err)
		}
	})
	t.OnDashboard(func() {
		openBrowser(dashboardURL(cfg.Server.Addr))
	})
	t.OnQuit(func() {
		log.Println("Quit requested from tray")
	})

	done := make(chan struct{})
	defer close(done)
	go followState(ctrl, t, done)
	go func() {
		select {
		case sig := <-signals:
			log.Printf("Received %v, shutting down", sig)
		case err := <-serverErr:
			log.Printf("Server failed: %v", err)
		case <-done:
			return
		}
		t.Quit()
	}()

	t.Run()
	return nil
}

// newVision picks the camera and detector. The mock pair, or a missing
// detection script, leaves the loop running on sliders alone.
func newVision(cfg *config.Config) (capture.Camera, detector.Detector) {
	if cfg.Detector.Mock {
		log.Println("Using mock detector with a blank camera")
		return capture.NewBlankCamera(), detector.NewMockDetector()
	}

	det, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:      cfg.Detector.MaxHands,
		MinConfidence: cfg.Detector.MinConfidence,
		Script:        cfg.Detector.Script,
	})
	if err != nil {
		log.Printf("Hand detection unavailable, gestures disabled: %v", err)
		return nil, nil
	}

	camera := capture.NewCamera(capture.Config{
		Device: cfg.Camera.Device,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
	})
	return camera, det
}

// followState mirrors the controller snapshot into the tray menu.
func followState(ctrl *controller.App, t *tray.Tray, done <-chan struct{}) {
	ticker := time.NewTicker(trayRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s := ctrl.Snapshot()
			t.Update(s.Enabled, s.LastFired, s.Device.Mode, s.Timing.Red, s.Timing.Yellow, s.Timing.Green)
		}
	}
}

// dashboardURL turns a listen address into a browsable URL.
func dashboardURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open %s: %v", url, err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.signalhand/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".signalhand", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
