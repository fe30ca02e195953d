// Package jobs provides scheduled background tasks for the fulfillment service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
// Schedules use the six field form with seconds.
//
// # Available Jobs
//
// 1. ReturnRetryJob - completes inspected returns whose refund failed earlier
// 2. LowStockJob - publishes the number of stock records at or below their reorder point
//
// # Usage
//
//	jobManager := jobs.NewJobManager(
//		jobs.NewReturnRetryJob(awaiting, completeReturnHandler, "0 */5 * * * *", 0, logger),
//		jobs.NewLowStockJob(lowStockHandler, "0 0 * * * *", logger),
//	)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - A refund that keeps failing is logged as a warning and retried on the next run
// - Query failures leave the low stock gauge at its last value
// - Failed job starts will stop any already running jobs
package jobs
