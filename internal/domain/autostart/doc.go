// Package autostart toggles launch-at-login directives for installed apps.
//
// Each directive is a three-line block appended to the user's shell profile:
//
//	# <<< Auto-Start for weather >>>
//	python3 "/home/user/apps/weather/app.py" &
//	# <<< End Auto-Start for weather >>>
//
// Everything outside an app's own block is preserved byte for byte. Rewrites
// go through a temp file and rename.
package autostart
