// Package jobs provides scheduled background tasks for the conversation
// engine.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations required while lanes are occupied.
//
// # Available Jobs
//
// 1. IdleSweepJob - Runs every five seconds to release sessions whose lanes
// went quiet past their idle deadline.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager with required handlers
//	jobManager := jobs.NewJobManager(expireIdleSessionsHandler, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Error Handling
//
// The sweep job logs failures and keeps running; a failed sweep retries at
// the next tick.
package jobs
