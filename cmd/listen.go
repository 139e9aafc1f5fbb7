// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"netflowd/common/daemon"
	"netflowd/common/httpserver"
	"netflowd/common/reporter"
	"netflowd/inlet/flow/consumer"
	"netflowd/inlet/flow/input/udp"
)

// ListenConfiguration represents the configuration file for the listen command.
type ListenConfiguration struct {
	Reporting reporter.Configuration
	HTTP      httpserver.Configuration
	UDP       udp.Configuration
	Consumer  consumer.Configuration
	// StopTimeout bounds the time to wait for the UDP listener to stop.
	StopTimeout time.Duration `validate:"min=0"`
}

// Reset resets the configuration for the listen command to its default value.
func (c *ListenConfiguration) Reset() {
	*c = ListenConfiguration{
		Reporting:   reporter.DefaultConfiguration(),
		HTTP:        httpserver.DefaultConfiguration(),
		UDP:         udp.DefaultConfiguration(),
		Consumer:    consumer.DefaultConfiguration(),
		StopTimeout: 5 * time.Second,
	}
}

type listenOptions struct {
	ConfigRelatedOptions
	CheckMode bool
}

// ListenOptions stores the command-line option values for the listen
// command.
var ListenOptions listenOptions

var listenCmd = &cobra.Command{
	Use:   "listen [config]",
	Short: "Receive NetFlow v5 flows",
	Long: `netflowd listens for NetFlow v5 datagrams on an UDP port, decodes
them and logs each flow record. An optional configuration file can be
provided.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := ListenConfiguration{}
		config.Reset()
		if len(args) > 0 {
			ListenOptions.Path = args[0]
		}
		if err := ListenOptions.Parse(cmd.OutOrStdout(), "listen", &config); err != nil {
			return err
		}

		r, err := reporter.New(config.Reporting)
		if err != nil {
			return fmt.Errorf("unable to initialize reporter: %w", err)
		}
		return listenStart(r, config, ListenOptions.CheckMode)
	},
}

func init() {
	RootCmd.AddCommand(listenCmd)
	listenCmd.Flags().BoolVarP(&ListenOptions.ConfigRelatedOptions.Dump, "dump", "D", false,
		"Dump configuration before starting")
	listenCmd.Flags().BoolVarP(&ListenOptions.CheckMode, "check", "C", false,
		"Check configuration, but does not start")
}

func listenStart(r *reporter.Reporter, config ListenConfiguration, checkOnly bool) error {
	daemonComponent, err := daemon.New(r)
	if err != nil {
		return fmt.Errorf("unable to initialize daemon component: %w", err)
	}
	return listenRun(r, daemonComponent, config, checkOnly)
}

func listenRun(r *reporter.Reporter, daemonComponent daemon.Component, config ListenConfiguration, checkOnly bool) error {
	httpComponent, err := httpserver.New(r, config.HTTP, httpserver.Dependencies{
		Daemon: daemonComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize HTTP component: %w", err)
	}
	consumerComponent := consumer.NewLogger(r, config.Consumer)
	udpComponent, err := udp.New(r, config.UDP, udp.Dependencies{
		Daemon:   daemonComponent,
		Consumer: consumerComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize UDP listener: %w", err)
	}

	// Expose some information and metrics
	addCommonHTTPHandlers(r, httpComponent)
	versionMetrics(r)

	// If we only asked for a check, stop here.
	if checkOnly {
		return nil
	}

	// Start all the components.
	components := []any{
		httpComponent,
		&boundedStopper{udpComponent, config.StopTimeout},
	}
	return StartStopComponents(r, daemonComponent, components)
}

// boundedStopper bounds the time spent stopping the UDP listener.
type boundedStopper struct {
	*udp.Listener
	timeout time.Duration
}

func (b *boundedStopper) Stop() error {
	if b.timeout == 0 {
		return b.Listener.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	return b.Listener.StopContext(ctx)
}
