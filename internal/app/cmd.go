package app

// Command is the mode the binary runs in.
type Command string

const (
	// CommandServe starts the API server.
	CommandServe Command = "serve"
	// CommandMigrate applies pending database migrations.
	CommandMigrate Command = "migrate"
	// CommandRollback reverts the most recent migration.
	CommandRollback Command = "rollback"
	// CommandHealthcheck probes /health of a running server.
	// Used as the Docker HEALTHCHECK in distroless images.
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand reads the subcommand from the command line arguments.
// Empty or unknown arguments select CommandServe.
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "rollback":
		return CommandRollback
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
