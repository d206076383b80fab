package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wmbusd/wmbusd/internal/bus"
	"github.com/wmbusd/wmbusd/internal/config"
	"github.com/wmbusd/wmbusd/internal/logging"
	"github.com/wmbusd/wmbusd/internal/output"
	outmqtt "github.com/wmbusd/wmbusd/internal/output/mqtt"
	"github.com/wmbusd/wmbusd/internal/ui"
	"github.com/wmbusd/wmbusd/internal/wmbus/address"
	"github.com/wmbusd/wmbusd/internal/wmbus/meter"
	"github.com/wmbusd/wmbusd/internal/wmbus/telegram"
)

var (
	runConfigPath string
	runSysroot    string
	runFormat     string
	runSeparator  string
	runMQTTBroker string
	runMQTTTopic  string
	runUI         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Listen for telegrams and print decoded meter readings",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "consolidated YAML config file (defaults to the OS config dir)")
	runCmd.Flags().StringVar(&runSysroot, "sysroot", "", "load the classic /etc/wmbusd.conf + /etc/wmbusd.d layout rooted here instead")
	runCmd.Flags().StringVar(&runFormat, "format", "", "override the configured output format (hr, json, fields)")
	runCmd.Flags().StringVar(&runSeparator, "separator", "", "override the configured fields separator")
	runCmd.Flags().StringVar(&runMQTTBroker, "mqtt-broker", "", "publish readings to this MQTT broker (e.g. tcp://localhost:1883)")
	runCmd.Flags().StringVar(&runMQTTTopic, "mqtt-topic", "wmbusd", "MQTT topic prefix")
	runCmd.Flags().BoolVar(&runUI, "ui", false, "show a live telegram-monitor TUI instead of printing to stdout")
}

func loadRunConfig() (*config.GlobalConfig, error) {
	if runSysroot != "" {
		return config.LoadConfigDirectory(runSysroot)
	}
	if runConfigPath != "" {
		data, err := os.ReadFile(runConfigPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", runConfigPath, err)
		}
		return config.LoadGlobalConfigYAML(data)
	}
	return config.LoadGlobalConfig()
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer logging.Sync()

	cfg, err := loadRunConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if runFormat != "" {
		cfg.Format = runFormat
	}
	if runSeparator != "" {
		cfg.Separator = runSeparator
	}

	meterMgr := meter.NewManager()
	for _, mc := range cfg.Meters {
		expr, err := address.Parse(mc.ID)
		if err != nil {
			return fmt.Errorf("meter %q: parsing id %q: %w", mc.Name, mc.ID, err)
		}
		var key []byte
		if mc.Key != "" {
			key, err = hex.DecodeString(mc.Key)
			if err != nil {
				return fmt.Errorf("meter %q: decoding key: %w", mc.Name, err)
			}
		}
		m, err := meter.New(mc.Name, expr, mc.Driver, key, mc.PollInterval)
		if err != nil {
			return fmt.Errorf("meter %q: %w", mc.Name, err)
		}
		meterMgr.AddMeter(m)
	}

	var store *output.MeterFileStore
	if cfg.Meterfiles && cfg.MeterfilesDir != "" {
		store, err = output.OpenMeterFileStore(cfg.MeterfilesDir)
		if err != nil {
			return fmt.Errorf("opening meter file store: %w", err)
		}
		defer store.Close()
	}

	var publisher *outmqtt.Publisher
	if runMQTTBroker != "" {
		publisher = outmqtt.NewPublisher(outmqtt.Config{Broker: runMQTTBroker, ClientID: "wmbusd", Topic: runMQTTTopic, QoS: 1})
		if err := publisher.Connect(); err != nil {
			return fmt.Errorf("connecting to mqtt broker: %w", err)
		}
		defer publisher.Disconnect()
	}

	var sepRune rune
	if cfg.Separator != "" {
		sepRune = []rune(cfg.Separator)[0]
	}
	printer := output.NewPrinter(output.Format(cfg.Format), false, sepRune)
	printer.SelectedFields = cfg.SelectFields

	var feed *ui.MonitorFeed
	if runUI {
		feed = ui.NewMonitorFeed()
	} else {
		ui.NewPrinter(os.Stdout).PrintHeader("wmbusd", "wmbusd run", map[string]string{
			"meters":  strconv.Itoa(len(cfg.Meters)),
			"devices": strconv.Itoa(len(cfg.Devices)),
			"format":  cfg.Format,
		})
	}

	busMgr := bus.NewManager(func(raw bus.RawTelegram) {
		handleRawTelegram(raw, meterMgr, printer, store, publisher, feed)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, rawURI := range cfg.Devices {
		u, err := config.ParseBusURI(rawURI)
		if err != nil {
			return fmt.Errorf("device %q: %w", rawURI, err)
		}
		if err := addBus(ctx, busMgr, u); err != nil {
			return fmt.Errorf("device %q: %w", rawURI, err)
		}
	}
	for _, mc := range cfg.Meters {
		if mc.Bus == "" {
			continue
		}
		u, err := config.ParseBusURI(mc.Bus)
		if err != nil {
			return fmt.Errorf("meter %q bus %q: %w", mc.Name, mc.Bus, err)
		}
		if err := addBus(ctx, busMgr, u); err != nil {
			logging.Warn("could not open meter-specific bus", zap.String("meter", mc.Name), zap.Error(err))
		}
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkupInterval := 2 * time.Second
	if cfg.OneShot {
		busMgr.RegularCheckup()
		return nil
	}

	go busMgr.Run(sigCtx, checkupInterval)

	if feed != nil {
		if err := ui.RunMonitor(feed); err != nil {
			return fmt.Errorf("running monitor ui: %w", err)
		}
		cancel()
		return nil
	}

	<-sigCtx.Done()
	return nil
}

func addBus(ctx context.Context, busMgr *bus.Manager, u config.BusURI) error {
	if u.Type == "auto" || (u.Type == "" && !u.IsShellCommand() && !u.IsSpecialSource()) {
		family, err := busMgr.DetectAndConfigure(ctx, busNameFor(u), candidateDevices(u.Device), 5*time.Second)
		if err != nil {
			return err
		}
		logging.Info("detected bus device", zap.String("bus", busNameFor(u)), zap.String("family", family))
		return nil
	}
	dev, err := newDeviceFromURI(u)
	if err != nil {
		return err
	}
	return busMgr.AddDevice(ctx, busNameFor(u), dev)
}

func handleRawTelegram(raw bus.RawTelegram, meterMgr *meter.Manager, printer *output.Printer, store *output.MeterFileStore, publisher *outmqtt.Publisher, feed *ui.MonitorFeed) {
	dll, err := telegram.ParseDLL(raw.Bytes, true)
	if err != nil {
		logging.WarnOnce("dll-parse-error-"+raw.Bus, "could not parse data-link-layer header", zap.Error(err))
		if feed != nil {
			feed.SendError(fmt.Errorf("%s: %w", raw.Bus, err))
		}
		return
	}
	key, _ := meterMgr.KeyForAddress(dll.IdString(), dll.Mfct, dll.Version, dll.Media)

	tg := telegram.Parse(raw.Bytes, key, true)
	updated := meterMgr.Dispatch(tg)
	for _, m := range updated {
		line, err := printer.Print(m)
		if err != nil {
			logging.WarnOnce("print-error-"+m.Name, "could not render meter reading", zap.Error(err))
			continue
		}

		if feed != nil {
			feed.Send(ui.MonitorRow{Time: time.Now(), Bus: raw.Bus, Meter: m.Name, Driver: m.DriverName, Summary: line})
		} else {
			fmt.Println(line)
		}

		if store != nil {
			if err := store.Record(m); err != nil {
				logging.WarnOnce("meterfile-error-"+m.Name, "could not record meter file entry", zap.Error(err))
			}
		}
		if publisher != nil {
			if err := publisher.Publish(m); err != nil {
				logging.WarnOnce("mqtt-publish-error-"+m.Name, "could not publish mqtt reading", zap.Error(err))
			}
		}
	}
}
