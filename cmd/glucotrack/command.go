package main

import "strings"

// Command is the mode the binary runs in.
type Command string

const (
	// CommandServe starts the HTTP server.
	CommandServe Command = "serve"
	// CommandMigrate applies the schema of the configured store and exits.
	CommandMigrate Command = "migrate"
	// CommandHealthcheck probes a running server, for container health checks.
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand reads the subcommand from args. No argument or an unknown one
// means serve.
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// healthcheckURL turns a listen address such as ":8080" or "0.0.0.0:8080"
// into the local health endpoint.
func healthcheckURL(addr string) string {
	host, port, found := strings.Cut(addr, ":")
	if !found {
		return "http://localhost:" + addr + "/api/health"
	}
	if host == "" || host == "0.0.0.0" || host == "[::]" {
		host = "localhost"
	}
	return "http://" + host + ":" + port + "/api/health"
}
