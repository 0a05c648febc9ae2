package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/itohio/restroom/pkg/api"
	"github.com/itohio/restroom/pkg/board"
	"github.com/itohio/restroom/pkg/bot"
	"github.com/itohio/restroom/pkg/config"
	"github.com/itohio/restroom/pkg/display"
	"github.com/itohio/restroom/pkg/metrics"
	"github.com/itohio/restroom/pkg/monitor"
	"github.com/itohio/restroom/pkg/report"
	"github.com/itohio/restroom/pkg/sink"
)

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyUSB0)")
		mockFlag   = flag.Bool("mock", false, "Use a simulated board instead of the serial port")
		localeFlag = flag.String("locale", "", "Report language override (en or id)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *localeFlag != "" {
		cfg.Report.Locale = *localeFlag
	}
	if cfg.Device.ID == "" {
		cfg.Device.ID = uuid.NewString()
		log.Printf("Generated device id %s", cfg.Device.ID)
		if err := cfg.Save(*configFlag); err != nil {
			log.Printf("Failed to persist device id: %v", err)
		}
	}
	if cfg.Device.IP == "" {
		cfg.Device.IP = outboundIP()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *mockFlag); err != nil {
		if errors.Is(err, display.ErrInit) {
			log.Fatalf("Display failed, halting: %v", err)
		}
		log.Fatalf("Monitor stopped: %v", err)
	}
	log.Println("Shut down")
}

func run(ctx context.Context, cfg *config.Config, useMock bool) error {
	var dev board.Board
	if useMock {
		dev = board.NewMock(&cfg.Mock)
		log.Println("Using simulated board")
	} else {
		dev = board.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, board.DefaultBufferSize)
	}
	if err := board.ConnectWithRetry(ctx, dev, cfg.Serial.ConnectRetries); err != nil {
		return err
	}
	defer dev.Close()

	inputs := board.NewInputs(dev)
	go inputs.Run()

	var screen *display.Display
	if cfg.Display.Backend != "none" {
		screen = display.New(display.NewLogCanvas(), display.LabelsFor(cfg.Report.Locale))
	}
	reporter := report.New(cfg.Report.Locale)
	station := monitor.New(cfg, monitor.NewSensors(cfg, inputs, nil), screen, reporter)

	m := metrics.New()
	station.OnUpdate(m.Observe)

	sinks, err := openSinks(cfg, station)
	if err != nil {
		return err
	}
	if len(sinks) > 0 {
		fanout := sink.NewFanout(0, sinks...)
		defer fanout.Close()
		station.OnUpdate(fanout.Enqueue)
	}

	if cfg.Telegram.Enabled {
		tg, err := bot.Connect(cfg.Telegram)
		if err != nil {
			return err
		}
		b := bot.New(tg, station, reporter, cfg.Telegram, cfg.Ammonia.AveragingInterval, func(state float64) {
			m.SetCircuitBreakerState("telegram", state)
		})
		station.OnUpdate(b.Observe)
		go func() {
			if err := b.Run(ctx); err != nil {
				log.Printf("Telegram bot stopped: %v", err)
			}
		}()
	}

	if cfg.HTTP.Enabled {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.NewRouter(station, m),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("HTTP API listening on %s", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("HTTP server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.Printf("Monitor %s started", station.DeviceID())
	return station.Run(ctx)
}

// openSinks connects every enabled sink. The MQTT command topic feeds
// calibration requests back into the station.
func openSinks(cfg *config.Config, station *monitor.Station) ([]sink.Sink, error) {
	var sinks []sink.Sink
	if cfg.MQTT.Enabled {
		mq, err := sink.NewMQTT(cfg.MQTT, station.DeviceID())
		if err != nil {
			return nil, err
		}
		if err := mq.OnCommand(func(cmd string) {
			if cmd == sink.CommandCalibrate {
				station.RequestCalibration()
			}
		}); err != nil {
			log.Printf("MQTT commands unavailable: %v", err)
		}
		sinks = append(sinks, mq)
	}
	if cfg.Kafka.Enabled {
		sinks = append(sinks, sink.NewKafka(cfg.Kafka))
	}
	if cfg.Influx.Enabled {
		in, err := sink.NewInflux(cfg.Influx)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, in)
	}
	return sinks, nil
}

// outboundIP returns the address of the interface used for the default
// route, or "0.0.0.0" when there is none. No packets are sent.
func outboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "0.0.0.0"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
