package internal

import (
	"context"
	"errors"
	"fmt"
	"github.com/labstack/echo/v4"
	"github.com/markusressel/daq2go/internal/api"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/controller"
	"github.com/markusressel/daq2go/internal/persistence"
	"github.com/markusressel/daq2go/internal/ports"
	"github.com/markusressel/daq2go/internal/setpoint"
	"github.com/markusressel/daq2go/internal/statistics"
	"github.com/markusressel/daq2go/internal/telemetry"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// LoopSetup holds everything that is needed to run a single control loop
type LoopSetup struct {
	Config   configuration.LoopConfig
	Port     ports.Port
	Setpoint *setpoint.Cell
	Loop     controller.ControlLoop
	Registry *controller.Registry

	// nil if plotting is disabled
	Plot      *telemetry.PlotSink
	Telemetry *telemetry.AsyncSink
}

// SetupLoop opens the port of the given loop and assembles the loop around it
func SetupLoop(config configuration.LoopConfig, pers persistence.Persistence) (*LoopSetup, error) {
	port, err := ports.NewPort(config.ID, config.Port, config.SampleRate)
	if err != nil {
		return nil, err
	}

	cell := setpoint.NewCell(ResolveInitialSetpoint(config, pers))
	if config.Setpoint.Persist.Get() && pers != nil {
		loopId := config.ID
		cell.OnChange(func(value float64) {
			if err := pers.SaveSetpoint(loopId, value); err != nil {
				ui.Warning("Unable to save setpoint of loop %s: %v", loopId, err)
			}
		})
	}

	var plot *telemetry.PlotSink
	var sinks telemetry.MultiSink
	if config.Telemetry.Plot {
		plot = telemetry.NewPlotSink(config.ID, config.Telemetry.MaxEntries)
		sinks = append(sinks, plot)
	}
	if config.Telemetry.Log {
		sinks = append(sinks, telemetry.NewLogSink(config.ID))
	}
	asyncSink := telemetry.NewAsyncSink(sinks, config.Telemetry.Buffer)

	loop, err := controller.NewControlLoopFromConfig(config, port, cell, asyncSink)
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	registry := controller.NewRegistry()
	registry.Register(loop)

	return &LoopSetup{
		Config:    config,
		Port:      port,
		Setpoint:  cell,
		Loop:      loop,
		Registry:  registry,
		Plot:      plot,
		Telemetry: asyncSink,
	}, nil
}

// ResolveInitialSetpoint returns the persisted setpoint of the loop,
// falling back to the configured initial value
func ResolveInitialSetpoint(config configuration.LoopConfig, pers persistence.Persistence) float64 {
	if !config.Setpoint.Persist.Get() || pers == nil {
		return config.Setpoint.Initial
	}
	value, err := pers.LoadSetpoint(config.ID)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			ui.Warning("Unable to load setpoint of loop %s: %v", config.ID, err)
		}
		return config.Setpoint.Initial
	}
	ui.Info("Restored setpoint of loop %s: %v", config.ID, value)
	return value
}

func RunDaemon(loopId string) {
	loopConfig, err := configuration.FindLoop(loopId)
	if err != nil {
		ui.Fatal("%v", err)
	}

	pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
	if err := pers.Init(); err != nil {
		ui.Warning("Unable to initialize persistence, setpoints will not be remembered: %v", err)
		pers = nil
	}

	setup, err := SetupLoop(loopConfig, pers)
	if err != nil {
		var configurationError *ports.ConfigurationError
		if errors.As(err, &configurationError) {
			ui.Fatal("Unable to set up port of loop %s: %v", loopConfig.ID, configurationError)
		}
		ui.Fatal("Unable to set up loop %s: %v", loopConfig.ID, err)
	}

	err = statistics.Register(prometheus.DefaultRegisterer,
		statistics.NewLoopCollector(setup.Registry),
		statistics.NewTelemetryCollector(loopConfig.ID, setup.Telemetry),
	)
	if err != nil {
		ui.Warning("Unable to register metrics: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui.Info("Starting control loop %s (samples: %d, rate: %v Hz, output: %s)", loopConfig.ID, loopConfig.Samples, loopConfig.SampleRate, loopConfig.Output.Type)

	var g run.Group
	{
		// === control loop
		g.Add(func() error {
			err := setup.Loop.Run(ctx)
			ui.Info("Control loop %s stopped.", loopConfig.ID)
			return err
		}, func(err error) {
			cancel()
		})
	}
	{
		// === telemetry
		if setup.Plot != nil {
			if err := setup.Plot.Start(); err != nil {
				ui.Warning("Unable to start live plot: %v", err)
			}
		}
		g.Add(func() error {
			return setup.Telemetry.Run(ctx)
		}, func(err error) {
			cancel()
			if setup.Plot != nil {
				_ = setup.Plot.Stop()
			}
		})
	}
	if loopConfig.Setpoint.Stdin {
		// === operator input
		reader := setpoint.NewReader(os.Stdin, os.Stdout, loopConfig.Setpoint.Prompt, setup.Setpoint)
		g.Add(func() error {
			err := reader.Run(ctx)
			if err != nil {
				ui.Warning("Error reading setpoint input: %v", err)
			}
			// the loop keeps running with the last setpoint once the input is closed
			<-ctx.Done()
			return nil
		}, func(err error) {
			cancel()
		})
	}
	if configuration.CurrentConfig.Api.Enabled {
		// === REST API
		rest := api.CreateRestService(setup.Registry, prometheus.DefaultRegisterer)
		addServer(&g, ctx, "API", rest, configuration.CurrentConfig.Api.Address())
	}
	if configuration.CurrentConfig.Statistics.Enabled {
		// === Prometheus Exporter
		webserver := api.CreateMetricsServer(promhttp.Handler())
		addServer(&g, ctx, "statistics", webserver, configuration.CurrentConfig.Statistics.Address())
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-sig:
				ui.Info("Received SIGTERM signal, exiting...")
			case <-ctx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	runErr := g.Run()
	if err := setup.Port.Close(); err != nil {
		ui.Warning("Error closing port %s: %v", setup.Port.GetId(), err)
	}
	if runErr != nil {
		ui.Error("Control loop %s terminated: %v", loopConfig.ID, runErr)
		os.Exit(1)
	}
	ui.Info("Done.")
}

// addServer runs the given server until ctx is done. A server that fails to
// start is logged, the loop keeps running without it.
func addServer(g *run.Group, ctx context.Context, name string, server *echo.Echo, addr string) {
	g.Add(func() error {
		ui.Info("Starting %s server on %s", name, addr)
		err := server.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ui.Error("Cannot start %s server (%v)", name, err)
		}
		<-ctx.Done()
		return nil
	}, func(err error) {
		ui.Info("Stopping %s server...", name)
		timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			ui.Warning("Error stopping %s server: %v", name, err)
		}
	})
}

// RunCycles executes count cycles of the given loop and returns their results.
// It stops early on the first failing cycle.
func RunCycles(ctx context.Context, loop controller.ControlLoop, count int, progress io.Writer) ([]controller.CycleResult, error) {
	var results []controller.CycleResult
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := loop.Cycle(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if progress != nil {
			_, _ = fmt.Fprintf(progress, "%4d  t=%8.3fs  current=%10.4f  setpoint=%10.4f  command=%s\n",
				i+1, result.Elapsed, result.Current, result.Setpoint, result.Command)
		}
	}
	return results, nil
}
