// Package version stamps the GraphQL User-Agent header with a build
// identifier, using the VCS revision Go embeds automatically via
// runtime/debug.BuildInfo (no -ldflags needed).
package version

import "runtime/debug"

const appName = "logtrackerapp"

// gitCommit is the short git commit hash, or "dev" outside a git checkout.
var gitCommit = shortRevision()

func shortRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 8 {
				return s.Value[:8]
			}
			return s.Value
		}
	}
	return "dev"
}

// Full returns "logtrackerapp/<commit>", used as the fetcher's User-Agent.
func Full() string {
	return appName + "/" + gitCommit
}
