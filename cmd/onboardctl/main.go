// Command onboardctl runs single ticks of the onboarding jobs from a
// terminal, for local development, backfills and operational debugging.
//
//	onboardctl list
//	onboardctl run pair_up
//	onboardctl run learning_plan --at 2026-03-02T09:00:00Z --dry-run
//	onboardctl run survey --payload-only
//	onboardctl config check
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(defaultEnv()).Execute(); err != nil {
		os.Exit(1)
	}
}
