package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/complyhq/comply/internal/version"
)

func main() {
	// We need to parse flags for glog-related options to take effect
	flag.Parse()

	glog.Infof(
		"Starting comply proxy -- version %s -- commit %s",
		version.Version(),
		version.Commit(),
	)

	proxyServer, err := getProxyServerFromEnvironment()
	if err != nil {
		glog.Fatal(err)
	}

	glog.Fatal(proxyServer.ListenAndServe())
}
