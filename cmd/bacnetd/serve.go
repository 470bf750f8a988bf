// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bacstack/bacstack"
	"github.com/bacstack/bacstack/apdu"
	"github.com/bacstack/bacstack/datalink/bacudp"
	"github.com/bacstack/bacstack/gateway/mqttbridge"
	"github.com/bacstack/bacstack/gateway/rediscache"
	"github.com/bacstack/bacstack/metrics"
	"github.com/bacstack/bacstack/object"
	"github.com/bacstack/bacstack/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured device over BACnet/IP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	device, registry := buildDevice()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	m := metrics.New(reg)

	link, err := bacudp.Listen(bindPort,
		bacudp.WithLogger(logger),
		bacudp.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("bacnetd: listen: %w", err)
	}
	defer link.Close()

	router := apdu.NewRouter(link, apdu.WithLogger(logger))
	router.HandleConfirmed(bacnet.ServiceReadProperty, service.ReadProperty(device))
	router.HandleConfirmed(bacnet.ServiceWriteProperty, service.WriteProperty(device))
	router.HandleConfirmed(bacnet.ServiceReadPropertyMultiple, service.ReadPropertyMultiple(device))
	router.HandleConfirmed(bacnet.ServiceAddListElement, service.AddListElement(device))
	router.HandleConfirmed(bacnet.ServiceRemoveListElement, service.RemoveListElement(device))
	router.HandleUnconfirmed(bacnet.ServiceWhoIs, service.WhoIs(device, router, vendorIdentifier, 0))
	router.HandleUnconfirmed(bacnet.ServiceIAm, service.IAm(logger, iAmObserver(ctx)))

	var mqttBridge *mqttbridge.Bridge
	if mqttBroker != "" {
		mqttBridge = mqttbridge.New(deviceInstance, mqttbridge.Config{Broker: mqttBroker}, logger)
		if err := mqttBridge.Connect(); err != nil {
			return fmt.Errorf("bacnetd: mqtt connect: %w", err)
		}
		defer mqttBridge.Close()
	}

	covListener := func(evt object.COVEvent) {
		m.COVNotifications.WithLabelValues(evt.Type.String()).Inc()
		logger.Debug("bacnetd: cov", slog.String("object", evt.Object.String()), slog.Float64("value", evt.Value))
		if mqttBridge != nil {
			mqttBridge.Listener()(evt)
		}
	}
	covDetector := object.NewCOVDetector(registry, covListener)

	httpSrv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("bacnetd: metrics server failed", slog.String("error", err.Error()))
		}
	}()

	go runCOVPoll(ctx, covDetector)

	logger.Info("bacnetd: serving",
		slog.Uint64("device", uint64(deviceInstance)),
		slog.Int("port", bindPort),
		slog.String("metrics-addr", metricsAddr))

	announceIAm(ctx, router, device)

	errCh := make(chan error, 1)
	go func() { errCh <- router.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpSrv.Shutdown(shutdownCtx)

	return nil
}

// buildDevice assembles the sample object database this binary serves:
// a Device plus one of each commonly exercised point type.
func buildDevice() (*object.Device, *object.Registry) {
	device := object.NewDevice(deviceInstance, deviceName)
	device.VendorName = vendorName
	device.VendorIdentifier = vendorIdentifier
	device.ModelName = modelName

	registry := device.Registry
	registry.Create(bacnet.ObjectTypeAnalogInput, bacnet.MaxInstance, func(oid bacnet.ObjectIdentifier) object.Object {
		ai := object.NewAnalogInput(oid, "Zone Temperature", uint32(bacnet.UnitsDegreesFahrenheit))
		ai.COVIncrement = 0.5
		ai.SetPresentValue(72.0)
		return ai
	})
	registry.Create(bacnet.ObjectTypeAnalogOutput, bacnet.MaxInstance, func(oid bacnet.ObjectIdentifier) object.Object {
		return object.NewAnalogOutput(oid, "Damper Command", uint32(bacnet.UnitsPercent), 0)
	})
	registry.Create(bacnet.ObjectTypeBinaryInput, bacnet.MaxInstance, func(oid bacnet.ObjectIdentifier) object.Object {
		return object.NewBinaryInput(oid, "Fan Status")
	})
	registry.Create(bacnet.ObjectTypeBinaryOutput, bacnet.MaxInstance, func(oid bacnet.ObjectIdentifier) object.Object {
		return object.NewBinaryOutput(oid, "Fan Command")
	})

	return device, registry
}

func runCOVPoll(ctx context.Context, d *object.COVDetector) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Poll()
		}
	}
}

// announceIAm broadcasts an unsolicited I-Am, the customary way a device
// advertises itself on the network at startup rather than waiting to be
// discovered by a Who-Is sweep.
func announceIAm(ctx context.Context, router *apdu.Router, device *object.Device) {
	n := service.EncodeIAm(nil, device.Identifier(), bacnet.MaxAPDULength, 0, device.VendorIdentifier)
	out := make([]byte, n)
	service.EncodeIAm(out, device.Identifier(), bacnet.MaxAPDULength, 0, device.VendorIdentifier)
	router.SendUnconfirmed(ctx, bacnet.Address{}, bacnet.ServiceIAm, out)
}

// iAmObserver returns the callback that records peer I-Am announcements
// in the Redis address-binding cache, when one is configured.
func iAmObserver(ctx context.Context) service.IAmObserver {
	if redisAddr == "" {
		return func(bacnet.Address, service.DecodedIAm) {}
	}
	cache, err := rediscache.New(ctx, rediscache.Config{Addr: redisAddr})
	if err != nil {
		logger.Warn("bacnetd: redis cache disabled", slog.String("error", err.Error()))
		return func(bacnet.Address, service.DecodedIAm) {}
	}
	return func(from bacnet.Address, iam service.DecodedIAm) {
		if err := cache.Bind(ctx, iam.Device.Instance, from); err != nil {
			logger.Warn("bacnetd: bind failed", slog.String("error", err.Error()))
		}
	}
}
