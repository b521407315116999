// Command rtc8564ctl drives an RTC-8564 on a Linux I2C bus.
//
//	rtc8564ctl [flags] now
//	rtc8564ctl [flags] set 2024-05-06 12:34:56
//	rtc8564ctl [flags] alarm set minute=30 irq
//	rtc8564ctl [flags] -watch -broker tcp://localhost:1883
//	rtc8564ctl [flags]            read commands from stdin
//
// See package rtccmd for the full command list.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logger "github.com/d2r2/go-logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/ajanata/drivers/rtc8564"
	"github.com/ajanata/drivers/rtc8564/rtccmd"
	"github.com/ajanata/drivers/rtc8564/rtcwatch"
)

var lg = logger.NewPackageLogger("rtc8564ctl", logger.InfoLevel)

var (
	busName  = flag.String("bus", "", "I2C bus name or number, first available if empty")
	address  = flag.Uint("addr", rtc8564.Address, "I2C address of the RTC")
	initRTC  = flag.Bool("init", false, "reset the RTC to the host time if it lost power")
	watch    = flag.Bool("watch", false, "poll for alarms and timer expiry until interrupted")
	interval = flag.Duration("interval", rtcwatch.DefaultInterval, "poll interval for -watch")
	broker   = flag.String("broker", "", "MQTT broker URL for -watch events, e.g. tcp://localhost:1883")
	topic    = flag.String("topic", "rtc8564", "MQTT topic prefix")
	clientID = flag.String("client-id", "rtc8564ctl", "MQTT client ID")
	verbose  = flag.Bool("v", false, "log bus retries")
)

func main() {
	flag.Parse()
	if *verbose {
		logger.ChangePackageLogLevel("rtc8564ctl", logger.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil && err != context.Canceled {
		lg.Errorf("%v", err)
		logger.FinalizeLogger()
		os.Exit(1)
	}
	logger.FinalizeLogger()
}

func run(ctx context.Context) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph init: %w", err)
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return fmt.Errorf("open i2c bus %q: %w", *busName, err)
	}
	defer bus.Close()

	dev := rtc8564.New(bus)
	dev.Configure(rtc8564.Config{
		Address: uint8(*address),
		Logger:  lg,
	})

	if *initRTC {
		reset, err := dev.Initialize(rtc8564.FromTime(time.Now().UTC()))
		if err != nil {
			return err
		}
		if reset {
			lg.Infof("RTC lost power, reset to host time")
		}
	}

	if *watch {
		return watchRTC(ctx, dev)
	}
	if flag.NArg() > 0 {
		out, err := rtccmd.Exec(dev, strings.Join(flag.Args(), " "))
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out, err := rtccmd.Exec(dev, scanner.Text())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
	return scanner.Err()
}

func watchRTC(ctx context.Context, dev *rtc8564.Device) error {
	w := &rtcwatch.Watcher{
		Clock:    dev,
		Interval: *interval,
		Logger:   lg,
		Publisher: rtcwatch.PublisherFunc(func(e rtcwatch.Event) error {
			fmt.Println(e.Kind, e.At.Format(time.RFC3339))
			return nil
		}),
	}

	if *broker != "" {
		opts := mqtt.NewClientOptions().
			AddBroker(*broker).
			SetClientID(*clientID).
			SetAutoReconnect(true)
		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return fmt.Errorf("mqtt connect %s: %w", *broker, token.Error())
		}
		defer client.Disconnect(250)
		lg.Infof("publishing to %s under %s/", *broker, *topic)
		w.Publisher = rtcwatch.NewMQTTPublisher(client, *topic)
	}

	return w.Run(ctx)
}
