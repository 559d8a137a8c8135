package main

import (
	"github.com/sidekiq-metrics-agent/cmd/agent"
)

func main() {
	agent.Execute()
}
