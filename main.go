package main

import (
	_ "embed"

	"github.com/bilihist/bili-history-sync-service/cmd"
)

//go:embed config/config.yaml
var configDefault string

func main() {
	cmd.Execute(configDefault)
}
