// Package main provides a container health probe for the API server.
// It exits 0 when the probed endpoint answers 200.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/garyellow/uonline/internal/config"
)

var readyFlag = flag.Bool("ready", false, "Probe /readyz (database reachable) instead of /livez")

func main() {
	flag.Parse()

	port := os.Getenv(config.EnvPort)
	if port == "" {
		port = "10000"
	}

	path := "/livez"
	if *readyFlag {
		path = "/readyz"
	}

	client := &http.Client{Timeout: config.ReadinessCheckTimeout + time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%s%s", port, path))
	if err != nil {
		os.Exit(1)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
