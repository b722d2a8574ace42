/*
Command server runs the taskdock dashboard backend.

It serves the JSON API used by the dashboard page: installed and running
apps, package installs from the remote store, launch-at-login toggles and
the process list. Configuration comes from TASKDOCK_* environment variables,
optionally layered under a YAML file.

Usage:

	server [-config taskdock.yaml] [-port 8001] [-dev]

SIGINT or SIGTERM drains open requests and exits. Apps launched from the
dashboard keep running.
*/
package main
