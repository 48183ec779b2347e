package main

import (
	"os"

	"github.com/cshum/filterkit/config"
	"github.com/cshum/filterkit/config/awsconfig"
	"github.com/cshum/filterkit/config/gcloudconfig"
	"github.com/cshum/filterkit/config/vipsconfig"
	"github.com/cshum/filterkit/server"
)

func newServer(args ...string) *server.Server {
	return config.CreateServer(
		args,
		vipsconfig.WithVips,
		awsconfig.WithAWS,
		gcloudconfig.WithGCloud,
	)
}

func main() {
	if srv := newServer(os.Args[1:]...); srv != nil {
		srv.Run()
	}
}
