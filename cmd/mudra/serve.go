package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/mqtt"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func serveCommand(c *cli) *cobra.Command {
	var pose string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the camera pipeline and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := detector.Presets[pose]; !ok {
				return fmt.Errorf("unknown pose %q", pose)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c.settings, c.log, pose)
		},
	}

	cmd.Flags().StringVar(&pose, "pose", "open", "Pose reported by the mock detector (detector.mock)")
	return cmd
}

func serve(ctx context.Context, s *config.Settings, log *logrus.Logger, pose string) error {
	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(s.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	m, err := metrics.New()
	if err != nil {
		return err
	}

	det, err := newDetector(s.Detector, pose, log)
	if err != nil {
		return err
	}

	cam := capture.NewCamera(capture.Config{
		Device: s.Camera.Device,
		Width:  s.Camera.Width,
		Height: s.Camera.Height,
		FPS:    s.Pipeline.IdleFPS,
	})

	a, err := app.New(app.Config{
		IdleFPS:         s.Pipeline.IdleFPS,
		ActiveFPS:       s.Pipeline.ActiveFPS,
		IdleTimeout:     s.Pipeline.IdleTimeout,
		MotionThreshold: s.Pipeline.MotionThreshold,
	}, app.Deps{
		Camera:   cam,
		Detector: det,
		Store:    st,
		Metrics:  m,
		Log:      log,
	})
	if err != nil {
		return err
	}

	plugins := plugin.NewManager(s.Plugins.Dir, log)
	if err := plugins.Discover(); err != nil {
		log.WithError(err).WithField("dir", s.Plugins.Dir).Warn("Plugin discovery failed")
	}

	eventLog := app.NewEventLog(st.Events(), s.Events.Keep, log)
	if err := eventLog.Prune(); err != nil {
		log.WithError(err).Warn("Failed to prune event log")
	}
	a.AddSink(eventLog)
	a.AddSink(app.NewActionDispatcher(st.Actions(), plugins, plugin.NewExecutor(s.Plugins.Timeout), s.Actions.Cooldown, m, log))

	hub := server.NewHub(a.Current, log)
	a.AddSink(hub)

	if s.MQTT.Enabled {
		pub := mqtt.NewPublisher(mqtt.Config{
			Broker:   s.MQTT.Broker,
			ClientID: s.MQTT.ClientID,
			Username: s.MQTT.Username,
			Password: s.MQTT.Password,
			Topic:    s.MQTT.Topic,
			QoS:      byte(s.MQTT.QoS),
			Retain:   s.MQTT.Retain,
		}, log)
		if err := pub.Connect(ctx); err != nil {
			log.WithError(err).Warn("MQTT publishing disabled")
		} else {
			defer pub.Close()
			a.AddSink(app.PublisherSink("mqtt", pub))
		}
	}

	var t *tray.Tray
	if s.Tray.Enabled {
		t = tray.New(a, log)
		a.AddSink(t)
	}

	srv := server.New(server.Config{
		StaticDir: findWebDir(s.Server.StaticDir, s.DataDir),
		Store:     st,
		Plugins:   plugins,
		App:       a,
		Latest:    a.Latest(),
		Hub:       hub,
		Metrics:   m.Handler(),
		Log:       log,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, s.Server.Addr)
		cancel()
	}()

	if t != nil {
		t.OnQuit(cancel)
		t.OnSettings(func() {
			log.WithField("url", "http://"+s.Server.Addr).Info("Settings are served by the web UI")
		})
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	log.Info("Shut down")
	return nil
}

func newDetector(s config.DetectorSettings, pose string, log logrus.FieldLogger) (detector.Detector, error) {
	if s.Mock {
		d := detector.NewMockDetector()
		d.SetHands([]detector.HandLandmarks{detector.Presets[pose]()})
		log.WithField("pose", pose).Warn("Using mock hand detector")
		return d, nil
	}

	return detector.NewMediaPipeDetector(detector.Config{
		MaxHands:      1,
		MinConfidence: s.MinConfidence,
		ScriptPath:    s.ScriptPath,
		PythonPath:    s.PythonPath,
		IdleTimeout:   s.IdleTimeout,
	}, log)
}

// findWebDir returns configured when set, otherwise the first existing web
// directory among the working directory, its parents and the data directory.
func findWebDir(configured, dataDir string) string {
	if configured != "" {
		return configured
	}

	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
