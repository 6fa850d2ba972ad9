/*
DESCRIPTION
  trap is a netsender client using the trap package to run an autonomous
  camera trap whose behaviour is controllable via the cloud, or offline via a
  local settings file.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Alan Noble <alan@ausocean.org>
  Dan Kortschak <dan@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package trap is a netsender client for the camera trap.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/camtrap/sensor"
	"github.com/ausocean/camtrap/trap"
	"github.com/ausocean/camtrap/trap/config"
	"github.com/ausocean/client/pi/gpio"
	"github.com/ausocean/client/pi/netlogger"
	"github.com/ausocean/client/pi/netsender"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.3.0"

// Logging configuration.
const (
	logPath      = "/var/log/netsender/netsender.log"
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

// Trap modes.
const (
	modeNormal    = "Normal"
	modePaused    = "Paused"
	modeShutdown  = "Shutdown"
	modeCompleted = "Completed"
)

// Misc constants.
const (
	netSendRetryTime = 5 * time.Second
	defaultSleepTime = 60 // Seconds
	pkg              = "trap: "
	rebootCmd        = "syncreboot"
	defaultSettings  = "/etc/camtrap/settings.json"
)

// Software defined pin values.
const (
	bitratePin = "X36"
	keptPin    = "X50"
)

// app holds the state shared by the netsender callbacks and the output
// routine.
type app struct {
	tr    *trap.Trap
	model *detector
	log   logging.Logger

	kept atomic.Int64 // Frames and events written to the output.
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version")
		offline     = flag.Bool("offline", false, "run without netsender, configured by the settings file only")
		settings    = flag.String("settings", defaultSettings, "path of the local JSON settings file")
		logFile     = flag.String("log", logPath, "path of the log file")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   *logFile,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}

	// Create netlogger to handle logging to cloud.
	netLog := netlogger.New()

	// Create logger that we call methods on to log, which in turn writes to the
	// lumberjack and netloggers.
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, netLog), logSuppress)

	log.Info("starting trap", "version", version)

	vars, err := loadSettings(*settings)
	if err != nil {
		log.Warning(pkg+"could not load settings file, using defaults", "path", *settings, "error", err.Error())
	}

	a := &app{model: newDetector(log), log: log}

	logs := sensor.NewLogs(log)
	a.tr, err = trap.New(config.Config{Logger: log}, a.model, logs)
	if err != nil {
		log.Fatal(pkg+"could not initialise trap", "error", err.Error())
	}
	if len(vars) != 0 {
		err = a.update(vars)
		if err != nil {
			log.Error(pkg+"could not apply settings file", "error", err.Error())
		}
	}

	ctx := context.Background()
	startSensor(ctx, a.tr.Config(), logs, log)

	go a.store(ctx)

	_, err = daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warning(pkg+"could not notify systemd", "error", err.Error())
	}

	if *offline {
		log.Info("running offline", "settings", *settings)
		err = a.tr.Start()
		if err != nil {
			log.Fatal(pkg+"could not start trap", "error", err.Error())
		}
		err = watchSettings(ctx, *settings, a.restart, log)
		if err != nil {
			log.Fatal(pkg+"could not watch settings", "error", err.Error())
		}
		return
	}

	log.Debug("initialising netsender client")
	ns, err := netsender.New(
		log,
		gpio.InitPin,
		a.readPin,
		gpio.WritePin,
		netsender.WithVarTypes(createVarMap()),
	)
	if err != nil {
		log.Fatal(pkg+"could not initialise netsender client", "error", err.Error())
	}

	log.Debug("beginning main loop")
	a.run(ns, netLog)
}

// update applies vars to the trap and loads the model they name. A model
// that cannot be loaded is logged; the trap runs with the previous model.
func (a *app) update(vars map[string]string) error {
	err := a.tr.Update(vars)
	if err != nil {
		return err
	}
	c := a.tr.Config()
	err = a.model.load(c.Detector, c.ModelWeights, c.ModelConfig)
	if err != nil {
		a.log.Error(pkg+"could not load animal detector", "weights", c.ModelWeights, "error", err.Error())
	}
	return nil
}

// restart applies vars and starts the trap again.
func (a *app) restart(vars map[string]string) {
	err := a.update(vars)
	if err != nil {
		a.log.Warning(pkg+"couldn't update trap", "error", err.Error())
	}
	err = a.tr.Start()
	if err != nil {
		a.log.Error(pkg+"could not start trap", "error", err.Error())
	}
}

// run starts the main loop. This will run netsender on every pass of the loop
// (sleeping inbetween), check vars, and if changed, update the trap as
// appropriate.
func (a *app) run(ns *netsender.Sender, nl *netlogger.Logger) {
	l := a.log
	var vs int
	for {
		l.Debug("running netsender")
		err := ns.Run()
		if err != nil {
			l.Warning(pkg+"Run Failed. Retrying...", "error", err.Error())
			time.Sleep(netSendRetryTime)
			continue
		}

		l.Debug("sending logs")
		err = nl.Send(ns)
		if err != nil {
			l.Warning(pkg+"Logs could not be sent", "error", err.Error())
		}

		l.Debug("checking varsum")
		newVs := ns.VarSum()
		if vs == newVs {
			sleep(ns, l)
			continue
		}
		vs = newVs
		l.Info("varsum changed", "vs", vs)

		l.Debug("getting new vars")
		vars, err := ns.Vars()
		if err != nil {
			l.Error(pkg+"netSender failed to get vars", "error", err.Error())
			time.Sleep(netSendRetryTime)
			continue
		}
		l.Debug("got new vars", "vars", vars)

		l.Debug("updating trap's configuration")
		err = a.update(vars)
		if err != nil {
			l.Warning(pkg+"couldn't update trap", "error", err.Error())
			sleep(ns, l)
			continue
		}
		l.Info("trap successfully reconfigured")

		l.Debug("checking mode")
		switch ns.Mode() {
		case modePaused, modeCompleted:
			l.Debug("mode is Paused or Completed, stopping trap")
			a.tr.Close()
		case modeNormal:
			l.Debug("mode is Normal, starting trap")
			err = a.tr.Start()
			if err != nil {
				l.Error(pkg+"could not start trap", "error", err.Error())
				ns.SetMode(modePaused)
				sleep(ns, l)
				continue
			}
		case modeShutdown:
			l.Debug("mode is Shutdown, shutting down")
			a.tr.Close()
			ns.SetMode(modePaused)
			out, err := exec.Command(rebootCmd, "-s=true").CombinedOutput()
			if err != nil {
				l.Warning("could not use syncreboot to shutdown", "out", string(out), "error", err.Error())
			}
		default:
			l.Warning("unrecognised mode", "mode", ns.Mode())
		}
		l.Info("trap updated with new mode")

		sleep(ns, l)
	}
}

func createVarMap() map[string]string {
	m := make(map[string]string)
	for _, v := range config.Variables {
		m[v.Name] = v.Type
	}
	return m
}

// sleep uses a delay to halt the program based on the monitoring period
// netsender parameter (mp) defined in the netsender.conf config.
func sleep(ns *netsender.Sender, l logging.Logger) {
	l.Debug("sleeping")
	t, err := strconv.Atoi(ns.Param("mp"))
	if err != nil {
		l.Error(pkg+"could not get sleep time, using default", "error", err)
		t = defaultSleepTime
	}
	time.Sleep(time.Duration(t) * time.Second)
	l.Debug("finished sleeping")
}

// readPin is the netsender callback for software defined pins. Other pins
// are read from GPIO.
func (a *app) readPin(pin *netsender.Pin) error {
	switch pin.Name {
	case bitratePin:
		pin.Value = -1
		if a.tr != nil {
			pin.Value = a.tr.Bitrate()
		}
	case keptPin:
		pin.Value = int(a.kept.Load())
	default:
		return gpio.ReadPin(pin)
	}
	return nil
}

// startSensor starts reading the environmental sensor board if c names a
// port. The port is read for the life of ctx.
func startSensor(ctx context.Context, c config.Config, logs *sensor.Logs, l logging.Logger) {
	if c.SensorPort == "" {
		l.Info("no sensor port, sensor logging disabled")
		return
	}
	port, err := sensor.OpenSerial(c.SensorPort, c.SensorBaud)
	if err != nil {
		l.Error(pkg+"could not open sensor port", "port", c.SensorPort, "error", err.Error())
		return
	}
	r := sensor.NewReader(port, &sensor.Parser{Obfuscation: c.SensorObfuscation, Log: l}, logs, c.SensorInterval, l)
	go func() {
		defer port.Close()
		r.Run(ctx)
	}()
	l.Info("sensor logging started", "port", c.SensorPort, "interval", c.SensorInterval)
}
