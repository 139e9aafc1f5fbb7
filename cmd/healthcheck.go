// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"netflowd/common/httpserver"
)

type healthcheckOptions struct {
	HTTP       string
	UnixSocket string
}

// HealthcheckOptions stores the command-line option values for the healthcheck
// command.
var HealthcheckOptions healthcheckOptions

func init() {
	RootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().StringVarP(&HealthcheckOptions.HTTP, "http", "", "",
		"HTTP host:port for health check")
	healthcheckCmd.Flags().StringVarP(&HealthcheckOptions.UnixSocket, "unix", "", "",
		"Unix socket for health check")
}

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check healthness",
	Long: `Check if netflowd is alive using the builtin HTTP endpoint. By default,
the abstract Unix socket is used on Linux and localhost:8080 otherwise.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client := &http.Client{Timeout: 5 * time.Second}
		unixSocket := HealthcheckOptions.UnixSocket
		httpAddr := HealthcheckOptions.HTTP
		if unixSocket == "" && httpAddr == "" {
			if runtime.GOOS == "linux" {
				unixSocket = httpserver.UnixSocket
			} else {
				httpAddr = "localhost:8080"
			}
		}
		if httpAddr == "" {
			client.Transport = &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", unixSocket)
				},
			}
			httpAddr = "unix"
		}

		resp, err := client.Get(fmt.Sprintf("http://%s/api/v0/healthcheck", httpAddr))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return errors.New(string(body))
		}
		cmd.Println(string(body))
		return nil
	},
}
