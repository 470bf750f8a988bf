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
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bacstack/bacstack"
)

var (
	cfgFile string
	verbose bool

	deviceInstance   uint32
	deviceName       string
	vendorName       string
	vendorIdentifier uint32
	modelName        string

	bindPort     int
	localAddress string

	pollInterval time.Duration

	mqttBroker string
	redisAddr  string

	metricsAddr string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bacnetd",
	Short: "A sample BACnet/IP device host",
	Long: `bacnetd loads a small object database and serves it as a BACnet/IP
device: Who-Is/I-Am discovery, ReadProperty, WriteProperty,
ReadPropertyMultiple, AddListElement and RemoveListElement.

Examples:
  # Serve device 1234 on the default BACnet/IP port
  bacnetd serve --device 1234 --name "bacstack demo"

  # Also republish change-of-value to MQTT and cache address bindings in Redis
  bacnetd serve --device 1234 --mqtt-broker tcp://localhost:1883 --redis-addr localhost:6379`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := slog.LevelInfo
		if verbose {
			logLevel = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bacnetd.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.PersistentFlags().Uint32Var(&deviceInstance, "device", 1, "Device object instance")
	rootCmd.PersistentFlags().StringVar(&deviceName, "name", "bacstack device", "Device object name")
	rootCmd.PersistentFlags().StringVar(&vendorName, "vendor-name", "bacstack", "Vendor_Name property")
	rootCmd.PersistentFlags().Uint32Var(&vendorIdentifier, "vendor-id", 0, "Vendor_Identifier property")
	rootCmd.PersistentFlags().StringVar(&modelName, "model-name", "bacnetd", "Model_Name property")

	rootCmd.PersistentFlags().IntVar(&bindPort, "port", bacnet.DefaultPort, "BACnet/IP port to bind")
	rootCmd.PersistentFlags().StringVar(&localAddress, "local", "", "Local address to bind to, e.g. 0.0.0.0")

	rootCmd.PersistentFlags().DurationVar(&pollInterval, "poll-interval", time.Second, "Change-of-value poll interval")

	rootCmd.PersistentFlags().StringVar(&mqttBroker, "mqtt-broker", "", "MQTT broker URL for COV republishing (disabled if empty)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "", "Redis address for address-binding cache (disabled if empty)")

	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", ":9100", "Listen address for the Prometheus /metrics endpoint")

	viper.BindPFlag("device", rootCmd.PersistentFlags().Lookup("device"))
	viper.BindPFlag("name", rootCmd.PersistentFlags().Lookup("name"))
	viper.BindPFlag("vendor-name", rootCmd.PersistentFlags().Lookup("vendor-name"))
	viper.BindPFlag("vendor-id", rootCmd.PersistentFlags().Lookup("vendor-id"))
	viper.BindPFlag("model-name", rootCmd.PersistentFlags().Lookup("model-name"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("local", rootCmd.PersistentFlags().Lookup("local"))
	viper.BindPFlag("poll-interval", rootCmd.PersistentFlags().Lookup("poll-interval"))
	viper.BindPFlag("mqtt-broker", rootCmd.PersistentFlags().Lookup("mqtt-broker"))
	viper.BindPFlag("redis-addr", rootCmd.PersistentFlags().Lookup("redis-addr"))
	viper.BindPFlag("metrics-addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".bacnetd")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BACNETD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	deviceInstance = viper.GetUint32("device")
	deviceName = viper.GetString("name")
	vendorName = viper.GetString("vendor-name")
	vendorIdentifier = viper.GetUint32("vendor-id")
	modelName = viper.GetString("model-name")
	bindPort = viper.GetInt("port")
	localAddress = viper.GetString("local")
	pollInterval = viper.GetDuration("poll-interval")
	mqttBroker = viper.GetString("mqtt-broker")
	redisAddr = viper.GetString("redis-addr")
	metricsAddr = viper.GetString("metrics-addr")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bacnetd version 1.0.0")
	},
}
